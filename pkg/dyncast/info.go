package dyncast

// Info is a read-only snapshot of a type's descriptor.
type Info struct {
	ID         TypeID
	Name       string
	Size       uintptr
	Supertypes []Supertype
}

// Supertype is one declared edge of the supertype graph.
type Supertype struct {
	ID     TypeID
	Adjust Adjust
}

// Lookup returns the descriptor of id. It reports false for ids that were
// never assigned or whose descriptor is still being built.
func Lookup(id TypeID) (Info, bool) {
	d := global.descriptor(id)
	if d == nil {
		return Info{}, false
	}

	info := Info{
		ID:         id,
		Name:       d.name,
		Size:       d.size,
		Supertypes: make([]Supertype, len(d.supers)),
	}
	for i, s := range d.supers {
		info.Supertypes[i] = Supertype{ID: s, Adjust: d.adjusts[i]}
	}
	return info, true
}

// Ancestors returns every type reachable from id, in depth-first
// declaration order. A type reachable along several paths is listed once
// per path.
func Ancestors(id TypeID) []TypeID {
	var out []TypeID
	var walk func(TypeID)
	walk = func(from TypeID) {
		d := global.descriptor(from)
		if d == nil {
			return
		}
		for _, s := range d.supers {
			out = append(out, s)
			walk(s)
		}
	}
	walk(id)
	return out
}
