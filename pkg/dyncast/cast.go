package dyncast

import (
	"sync"
	"unsafe"
)

// Shape classifies a cast from the declared hierarchy alone. It never
// depends on the runtime type of the object being cast.
type Shape uint8

const (
	// Widening converts to a declared ancestor. It needs no runtime check.
	Widening Shape = iota + 1
	// Narrowing converts to a declared descendant that embeds the source
	// by value along a single path, so the offset back is fixed.
	Narrowing
	// Lateral covers everything else and searches the concrete type.
	Lateral
	// ToOpaque discards static type information. Opaque performs it;
	// Cast and ShapeOf never do.
	ToOpaque
)

func (s Shape) String() string {
	switch s {
	case Widening:
		return "widening"
	case Narrowing:
		return "narrowing"
	case Lateral:
		return "lateral"
	case ToOpaque:
		return "opaque"
	default:
		return "invalid"
	}
}

type planKey struct {
	dest, src TypeID
}

// plan is computed once per (destination, source) pair.
type plan struct {
	shape Shape
	dest  TypeID
	// route is the widening path from source to destination.
	route []Adjust
	// offset is the narrowing distance from destination back to source.
	offset uintptr
}

var plans sync.Map // planKey -> *plan

func planFor[D, S Declarer]() *plan {
	key := planKey{dest: IdentifierOf[D](), src: IdentifierOf[S]()}
	if p, ok := plans.Load(key); ok {
		return p.(*plan)
	}
	p, _ := plans.LoadOrStore(key, classify(key.dest, key.src))
	return p.(*plan)
}

func classify(dest, src TypeID) *plan {
	if r, ok := route(dest, src, nil); ok {
		return &plan{shape: Widening, dest: dest, route: r}
	}

	if paths(src, dest, 2) == 1 {
		r, _ := route(src, dest, nil)
		if off, ok := fixedOffset(r); ok {
			return &plan{shape: Narrowing, dest: dest, offset: off}
		}
	}

	return &plan{shape: Lateral, dest: dest}
}

func fixedOffset(r []Adjust) (uintptr, bool) {
	var off uintptr
	for _, a := range r {
		if a.Indirect {
			return 0, false
		}
		off += a.Offset
	}
	return off, true
}

// ShapeOf returns how Cast converts a *S to a *D: Widening, Narrowing or
// Lateral. The ToOpaque conversion has no destination type and is done by
// Opaque.
func ShapeOf[D, S Declarer]() Shape {
	return planFor[D, S]().shape
}

// Cast converts src to a *D. It returns nil when src is nil or the
// object behind src has no D view.
func Cast[D, S Declarer, PS interface {
	*S
	Object
}](src PS) *D {
	ps := (*S)(src)
	if ps == nil {
		return nil
	}

	p := planFor[D, S]()
	switch p.shape {
	case Widening:
		addr := unsafe.Pointer(ps)
		for _, a := range p.route {
			if addr = a.Apply(addr); addr == nil {
				return nil
			}
		}
		return (*D)(addr)

	case Narrowing:
		tag := src.DynamicType()
		if !Convertible(p.dest, tag.ID) {
			return nil
		}
		if d := locate(p.dest, unsafe.Pointer(ps), p.offset, tag.Addr, tag.ID); d != nil {
			return (*D)(d)
		}
		// src is a copy of S that D does not enclose at the fixed offset,
		// as with the second path of a diamond.
		return (*D)(Convert(p.dest, tag.Addr, tag.ID))

	default:
		tag := src.DynamicType()
		return (*D)(Convert(p.dest, tag.Addr, tag.ID))
	}
}

// Is reports whether Cast[D] would succeed on src.
func Is[D, S Declarer, PS interface {
	*S
	Object
}](src PS) bool {
	return Cast[D, S, PS](src) != nil
}

// Opaque returns the address of the object behind src as its concrete
// type, or nil for a nil src.
func Opaque(src Object) unsafe.Pointer {
	if src == nil {
		return nil
	}
	return src.DynamicType().Addr
}
