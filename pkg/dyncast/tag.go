package dyncast

import "unsafe"

// Tag is an object's self-report: the id of its concrete type and its
// address as that type.
type Tag struct {
	ID   TypeID
	Addr unsafe.Pointer
}

// Object is implemented by a pointer to every participating type.
// Each type must implement DynamicType itself as
//
//	func (x *T) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }
//
// rather than inherit the method of an embedded supertype.
type Object interface {
	DynamicType() Tag
}

// TagOf is the body of every DynamicType method. If p is a view of an
// object set up with Init, it returns the tag recorded there. Otherwise p
// is taken to be the whole object and T its concrete type.
//
// A recorded tag is only trusted if the object it names has a T view at
// p. A Header copied into another object by assignment names the source
// object, so the copy reports its static type until it is set up again.
func TagOf[T Declarer](p *T) Tag {
	id := IdentifierOf[T]()
	if p != nil {
		h := headerOf(id, unsafe.Pointer(p))
		if h != nil && h.tag.ID.IsValid() && owns(h.tag, id, unsafe.Pointer(p)) {
			return h.tag
		}
	}
	return Tag{ID: id, Addr: unsafe.Pointer(p)}
}

// owns reports whether the object named by tag has an id view at p.
func owns(tag Tag, id TypeID, p unsafe.Pointer) bool {
	if tag.ID == id {
		return tag.Addr == p
	}
	return locate(id, p, 0, tag.Addr, tag.ID) != nil
}

// TypeOf returns the id of o's concrete type, or NoTypeID for a nil o.
func TypeOf(o Object) TypeID {
	if o == nil {
		return NoTypeID
	}
	return o.DynamicType().ID
}
