package dyncast

import "unsafe"

// Header records the concrete type of the object it is part of. Root
// types embed it and declare it with HeaderAt; Init fills in every Header
// of an object so that any view of the object can report the concrete
// type. The zero Header records nothing.
type Header struct {
	tag Tag
}

// headerOf returns the Header reached from addr viewed as id, or nil.
func headerOf(id TypeID, addr unsafe.Pointer) *Header {
	d := global.descriptor(id)
	if d == nil || d.header == nil {
		return nil
	}
	for _, a := range d.header {
		if addr = a.Apply(addr); addr == nil {
			return nil
		}
	}
	return (*Header)(addr)
}

// Init records p's concrete type in every Header that is part of p and
// returns p. Supertypes reached through a pointer are separate objects
// that may be shared, so their Headers are left alone. Call it before the
// object is shared.
func Init[T Declarer](p *T) *T {
	if p == nil {
		return nil
	}
	tag := Tag{ID: IdentifierOf[T](), Addr: unsafe.Pointer(p)}
	bind(tag, tag.Addr, tag.ID)
	return p
}

// New allocates a T and initializes it with Init.
func New[T Declarer]() *T {
	return Init(new(T))
}

func bind(tag Tag, addr unsafe.Pointer, id TypeID) {
	d := global.descriptor(id)
	if d == nil {
		return
	}
	if d.ownHeader {
		(*Header)(d.header[0].Apply(addr)).tag = tag
	}
	for i, s := range d.supers {
		if !d.adjusts[i].Indirect {
			bind(tag, d.adjusts[i].Apply(addr), s)
		}
	}
}

// unbound returns the first type embedded by value in id, viewed at addr,
// whose own Header does not hold tag, or NoTypeID.
func unbound(tag Tag, addr unsafe.Pointer, id TypeID) TypeID {
	d := global.descriptor(id)
	if d == nil {
		return NoTypeID
	}
	if d.ownHeader && (*Header)(d.header[0].Apply(addr)).tag != tag {
		return id
	}
	for i, s := range d.supers {
		if d.adjusts[i].Indirect {
			continue
		}
		if u := unbound(tag, d.adjusts[i].Apply(addr), s); u.IsValid() {
			return u
		}
	}
	return NoTypeID
}

// headless returns the first type embedded by value in id, id included,
// that has no Header to record the concrete type in, or NoTypeID.
func headless(id TypeID) TypeID {
	d := global.descriptor(id)
	if d == nil {
		return NoTypeID
	}
	if d.header == nil {
		return id
	}
	for i, s := range d.supers {
		if d.adjusts[i].Indirect {
			continue
		}
		if h := headless(s); h.IsValid() {
			return h
		}
	}
	return NoTypeID
}
