package shapes

import (
	"unsafe"

	"github.com/funvibe/dyncast/pkg/dyncast"
)

// Shape is the root of the hierarchy.
//
//dyncast:type
type Shape struct {
	dyncast.Header
	Name string
}

//dyncast:type
type Circle struct {
	Shape
	Radius float64
}

// Style is not a participant.
type Style struct {
	Color string
}

//dyncast:type
type Styled struct {
	Style
	Circle
}

// Label is listed in the config instead of marked.
type Label struct {
	dyncast.Header
	Text string
}

//dyncast:type
type Badge struct {
	*Label
	Shape
}

// Custom declares its methods by hand.
//
//dyncast:type
type Custom struct {
	Shape
}

func (Custom) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.Embedded[Shape](unsafe.Offsetof(Custom{}.Shape))}
}

func (x *Custom) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

//dyncast:type
type Draft struct {
	Shape
}

//dyncast:type
type Bare struct {
	N int
}

// Proxy reaches Label only through a pointer.
//
//dyncast:type
type Proxy struct {
	*Label
}
