// Package dyncast implements runtime type identification and checked
// pointer casts for hierarchies built from embedded structs, without
// using the reflect package.
//
// A participating type declares its direct supertypes with a
// value-receiver Bases method and reports itself through a
// pointer-receiver DynamicType method. Root types also embed a Header:
//
//	type A struct {
//		dyncast.Header
//		a int
//	}
//
//	func (A) Bases() []dyncast.Base {
//		return []dyncast.Base{dyncast.HeaderAt(unsafe.Offsetof(A{}.Header))}
//	}
//
//	func (x *A) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }
//
//	type C struct {
//		A
//		B
//	}
//
//	func (C) Bases() []dyncast.Base {
//		return []dyncast.Base{
//			dyncast.Embedded[A](unsafe.Offsetof(C{}.A)),
//			dyncast.Embedded[B](unsafe.Offsetof(C{}.B)),
//		}
//	}
//
//	func (x *C) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }
//
// DynamicType must be written again at every level. Go promotes the
// method of an embedded struct, so a type that omits it reports its
// ancestor as the concrete type. Verify checks this; dyncastgen
// generates both methods.
//
// Objects are created with New or set up with Init. Init records the
// concrete type in every Header embedded by value, which lets a view such
// as *B report C. A type must have a Header of its own or reach one
// through a supertype it embeds by value.
//
// A supertype embedded by pointer is a separate object and may be shared,
// so Init leaves its Headers alone. Casts go from the owner to the
// pointee but never back: the pointee reports its own type.
//
// A view of an object that was never initialized reports its own static
// type. So does a view whose Header was copied from another object, by
// assigning either the whole object or one of its embedded structs; pass
// the copy to Init to set it up.
//
// Given any view of an object, Cast converts to another view:
//
//	c := dyncast.New[C]()
//	pb := &c.B
//	pa := dyncast.Cast[A](pb) // lateral: B and A are unrelated statically
//	pc := dyncast.Cast[C](pb) // narrowing
//	px := dyncast.Cast[X](pb) // nil, C has no X
//
// Casts that cannot succeed return nil. Type identifiers are arena
// indexes valid for the lifetime of the process only.
package dyncast
