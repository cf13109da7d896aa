package dyncast

import (
	"fmt"
	"unsafe"
)

// ContractError describes a type that does not uphold the participation
// contract.
type ContractError struct {
	Type   TypeID
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("dyncast: %s: %s", e.Type, e.Reason)
}

// Verify checks that *T reports itself as T, that every inline supertype
// declared by T lies within T, that T and every supertype it embeds by
// value can record the concrete type, and that Init reaches every Header
// of a T. Call it from a test for each participating type.
func Verify[T Declarer, PT interface {
	*T
	Object
}]() error {
	id := IdentifierOf[T]()
	p := new(T)

	tag := PT(p).DynamicType()
	if tag.ID != id {
		return &ContractError{
			Type:   id,
			Reason: fmt.Sprintf("DynamicType reports %s; it must be implemented on *%s itself", tag.ID, id),
		}
	}
	if tag.Addr != unsafe.Pointer(p) {
		return &ContractError{Type: id, Reason: "DynamicType reports another address"}
	}

	info, _ := Lookup(id)
	for i, s := range info.Supertypes {
		need := unsafe.Sizeof(unsafe.Pointer(nil))
		if !s.Adjust.Indirect {
			sup, ok := Lookup(s.ID)
			if !ok {
				return &ContractError{Type: id, Reason: fmt.Sprintf("supertype %d is not built", i)}
			}
			need = sup.Size
		}
		if s.Adjust.Offset+need > info.Size {
			return &ContractError{
				Type:   id,
				Reason: fmt.Sprintf("supertype %s at offset %d overruns %d bytes", s.ID, s.Adjust.Offset, info.Size),
			}
		}
	}

	if h := headless(id); h.IsValid() {
		return &ContractError{
			Type:   id,
			Reason: fmt.Sprintf("%s has no Header; embed dyncast.Header in it or in a supertype it embeds by value", h),
		}
	}

	obj := New[T]()
	if u := unbound(Tag{ID: id, Addr: unsafe.Pointer(obj)}, unsafe.Pointer(obj), id); u.IsValid() {
		return &ContractError{Type: id, Reason: fmt.Sprintf("Header of %s is not set by Init", u)}
	}
	return nil
}
