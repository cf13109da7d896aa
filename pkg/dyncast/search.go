package dyncast

import "unsafe"

// Convertible reports whether target is from itself or one of its direct
// or indirect supertypes. Supertypes are searched depth first in
// declaration order.
func Convertible(target, from TypeID) bool {
	if !from.IsValid() {
		return false
	}
	if target == from {
		return true
	}

	d := global.descriptor(from)
	if d == nil {
		return false
	}
	for _, s := range d.supers {
		if Convertible(target, s) {
			return true
		}
	}
	return false
}

// Convert returns the address of the object at addr, viewed as from, as a
// target. It returns nil if target is not reachable. When several paths
// reach target the first declared one wins.
func Convert(target TypeID, addr unsafe.Pointer, from TypeID) unsafe.Pointer {
	if addr == nil || !from.IsValid() {
		return nil
	}
	if target == from {
		return addr
	}

	d := global.descriptor(from)
	if d == nil {
		return nil
	}
	for i, s := range d.supers {
		p := d.adjusts[i].Apply(addr)
		if p == nil {
			continue
		}
		if r := Convert(target, p, s); r != nil {
			return r
		}
	}
	return nil
}

// locate is Convert restricted to the target view lying offset bytes
// before src. The supertype graph is acyclic, so a target view never
// contains another target view and each path stops at its first target.
func locate(target TypeID, src unsafe.Pointer, offset uintptr, addr unsafe.Pointer, from TypeID) unsafe.Pointer {
	if addr == nil || !from.IsValid() {
		return nil
	}
	if target == from {
		if uintptr(addr)+offset == uintptr(src) {
			return addr
		}
		return nil
	}

	d := global.descriptor(from)
	if d == nil {
		return nil
	}
	for i, s := range d.supers {
		p := d.adjusts[i].Apply(addr)
		if p == nil {
			continue
		}
		if r := locate(target, src, offset, p, s); r != nil {
			return r
		}
	}
	return nil
}

// route returns the adjustments along the first declared path from from
// up to target.
func route(target, from TypeID, acc []Adjust) ([]Adjust, bool) {
	if !from.IsValid() {
		return nil, false
	}
	if target == from {
		return acc, true
	}

	d := global.descriptor(from)
	if d == nil {
		return nil, false
	}
	for i, s := range d.supers {
		if r, ok := route(target, s, append(acc, d.adjusts[i])); ok {
			return r, true
		}
	}
	return nil, false
}

// paths counts the distinct paths from from up to target, stopping once
// limit is reached.
func paths(target, from TypeID, limit int) int {
	if !from.IsValid() {
		return 0
	}
	if target == from {
		return 1
	}

	d := global.descriptor(from)
	if d == nil {
		return 0
	}
	n := 0
	for _, s := range d.supers {
		n += paths(target, s, limit-n)
		if n >= limit {
			break
		}
	}
	return n
}
