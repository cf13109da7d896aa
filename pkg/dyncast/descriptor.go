package dyncast

import "unsafe"

// Adjust maps the address of an object viewed as one type to the address
// of the same object viewed as one of its direct supertypes.
type Adjust struct {
	// Offset is the byte offset of the embedded field.
	Offset uintptr
	// Indirect is true when the field holds a pointer to the supertype.
	Indirect bool
}

// Apply returns p viewed as the supertype. It returns nil when the
// supertype is reached through a nil pointer field.
func (a Adjust) Apply(p unsafe.Pointer) unsafe.Pointer {
	q := unsafe.Add(p, a.Offset)
	if a.Indirect {
		return *(*unsafe.Pointer)(q)
	}
	return q
}

// Base declares one direct supertype, or for a root type the location of
// its Header. Build it with Embedded, Pointer or HeaderAt.
type Base struct {
	id     func() TypeID
	adjust Adjust
	header bool
}

// Embedded declares S as a supertype stored inline at offset, normally
// unsafe.Offsetof(T{}.S).
func Embedded[S Declarer](offset uintptr) Base {
	return Base{id: IdentifierOf[S], adjust: Adjust{Offset: offset}}
}

// Pointer declares S as a supertype reached through a *S field at offset.
func Pointer[S Declarer](offset uintptr) Base {
	return Base{id: IdentifierOf[S], adjust: Adjust{Offset: offset, Indirect: true}}
}

// HeaderAt declares the offset of the embedded Header of a type that
// embeds no supertype by value, normally unsafe.Offsetof(T{}.Header). It
// is not a supertype.
func HeaderAt(offset uintptr) Base {
	return Base{adjust: Adjust{Offset: offset}, header: true}
}

// Declarer is implemented by every participating type. Bases must use a
// value receiver and return the same list on every call.
type Declarer interface {
	Bases() []Base
}

// descriptor is immutable once its slot's once has fired. supers and
// adjusts are parallel. header is the route to the Header that records
// the concrete type: a declared one, otherwise that of the first
// supertype embedded by value.
type descriptor struct {
	name      string
	size      uintptr
	supers    []TypeID
	adjusts   []Adjust
	header    []Adjust
	ownHeader bool
}
