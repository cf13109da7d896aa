package dyncast_test

import (
	"sync/atomic"
	"unsafe"

	"github.com/funvibe/dyncast/pkg/dyncast"
)

type A struct {
	dyncast.Header
	a int
}

func (A) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.HeaderAt(unsafe.Offsetof(A{}.Header))}
}

func (x *A) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

type B struct {
	b int
	dyncast.Header
}

func (B) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.HeaderAt(unsafe.Offsetof(B{}.Header))}
}

func (x *B) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

type C struct {
	A
	B
	c int
}

func (C) Bases() []dyncast.Base {
	return []dyncast.Base{
		dyncast.Embedded[A](unsafe.Offsetof(C{}.A)),
		dyncast.Embedded[B](unsafe.Offsetof(C{}.B)),
	}
}

func (x *C) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

type X struct {
	dyncast.Header
}

func (X) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.HeaderAt(unsafe.Offsetof(X{}.Header))}
}

func (x *X) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

// D puts C at a non-zero offset.
type D struct {
	pad int64
	C
}

func (D) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.Embedded[C](unsafe.Offsetof(D{}.C))}
}

func (x *D) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

type Top struct {
	dyncast.Header
	t int
}

func (Top) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.HeaderAt(unsafe.Offsetof(Top{}.Header))}
}

func (x *Top) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

type Left struct {
	Top
	l int
}

func (Left) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.Embedded[Top](unsafe.Offsetof(Left{}.Top))}
}

func (x *Left) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

type Right struct {
	r int
	Top
}

func (Right) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.Embedded[Top](unsafe.Offsetof(Right{}.Top))}
}

func (x *Right) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

type Bottom struct {
	Left
	Right
}

func (Bottom) Bases() []dyncast.Base {
	return []dyncast.Base{
		dyncast.Embedded[Left](unsafe.Offsetof(Bottom{}.Left)),
		dyncast.Embedded[Right](unsafe.Offsetof(Bottom{}.Right)),
	}
}

func (x *Bottom) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

// Handle reaches A through a pointer. The A is a separate object, so
// Handle needs a Header of its own.
type Handle struct {
	dyncast.Header
	h int
	*A
}

func (Handle) Bases() []dyncast.Base {
	return []dyncast.Base{
		dyncast.HeaderAt(unsafe.Offsetof(Handle{}.Header)),
		dyncast.Pointer[A](unsafe.Offsetof(Handle{}.A)),
	}
}

func (x *Handle) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

// Forgetful inherits DynamicType from A.
type Forgetful struct {
	A
}

func (Forgetful) Bases() []dyncast.Base {
	return []dyncast.Base{dyncast.Embedded[A](unsafe.Offsetof(Forgetful{}.A))}
}

// Headless is a root without a Header.
type Headless struct {
	n int
}

func (Headless) Bases() []dyncast.Base { return nil }

func (x *Headless) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

// Hybrid embeds a Headless, whose view cannot report Hybrid.
type Hybrid struct {
	A
	Headless
}

func (Hybrid) Bases() []dyncast.Base {
	return []dyncast.Base{
		dyncast.Embedded[A](unsafe.Offsetof(Hybrid{}.A)),
		dyncast.Embedded[Headless](unsafe.Offsetof(Hybrid{}.Headless)),
	}
}

func (x *Hybrid) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

// Overrun declares a supertype offset past its own end.
type Overrun struct {
	dyncast.Header
}

func (Overrun) Bases() []dyncast.Base {
	return []dyncast.Base{
		dyncast.HeaderAt(unsafe.Offsetof(Overrun{}.Header)),
		dyncast.Embedded[A](unsafe.Sizeof(Overrun{})),
	}
}

func (x *Overrun) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }

// Fresh is only used by the concurrency test. freshBases counts the
// calls to its Bases.
type Fresh struct {
	dyncast.Header
}

var freshBases atomic.Int32

func (Fresh) Bases() []dyncast.Base {
	freshBases.Add(1)
	return []dyncast.Base{dyncast.HeaderAt(unsafe.Offsetof(Fresh{}.Header))}
}

func (x *Fresh) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }
