package dyncast

import "strconv"

// TypeID names a type for the lifetime of the process. It supports
// equality only; the numeric value is the descriptor's arena slot.
type TypeID uint32

// NoTypeID is the zero TypeID. No type is ever assigned it.
const NoTypeID TypeID = 0

// IsValid returns true if the id was assigned by the store.
func (id TypeID) IsValid() bool { return id != NoTypeID }

func (id TypeID) String() string {
	if !id.IsValid() {
		return "<none>"
	}
	d := global.descriptor(id)
	if d == nil {
		return "#" + strconv.FormatUint(uint64(id), 10)
	}
	return d.name
}
