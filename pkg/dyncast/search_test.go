package dyncast_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unsafe"

	"github.com/funvibe/dyncast/pkg/dyncast"
)

func TestConvertible(t *testing.T) {
	var (
		a = dyncast.IdentifierOf[A]()
		b = dyncast.IdentifierOf[B]()
		c = dyncast.IdentifierOf[C]()
		d = dyncast.IdentifierOf[D]()
		x = dyncast.IdentifierOf[X]()
	)

	tests := []struct {
		target, from dyncast.TypeID
		want         bool
	}{
		{a, a, true},
		{a, c, true},
		{b, d, true},
		{c, d, true},
		{d, c, false},
		{x, d, false},
		{a, b, false},
		{a, dyncast.NoTypeID, false},
		{dyncast.NoTypeID, a, false},
	}

	for _, tt := range tests {
		if got := dyncast.Convertible(tt.target, tt.from); got != tt.want {
			t.Errorf("Convertible(%v, %v) = %v; want %v", tt.target, tt.from, got, tt.want)
		}
	}
}

func TestConvert(t *testing.T) {
	d := &D{}
	did := dyncast.IdentifierOf[D]()

	if got := dyncast.Convert(dyncast.IdentifierOf[B](), unsafe.Pointer(d), did); got != unsafe.Pointer(&d.B) {
		t.Errorf("Convert(B, d, D) = %p; want %p", got, &d.B)
	}
	if got := dyncast.Convert(did, unsafe.Pointer(d), did); got != unsafe.Pointer(d) {
		t.Errorf("Convert(D, d, D) = %p; want %p", got, d)
	}
	if got := dyncast.Convert(dyncast.IdentifierOf[X](), unsafe.Pointer(d), did); got != nil {
		t.Errorf("Convert(X, d, D) = %p; want nil", got)
	}
	if got := dyncast.Convert(did, nil, did); got != nil {
		t.Errorf("Convert(D, nil, D) = %p; want nil", got)
	}
}

func TestLookup(t *testing.T) {
	c := dyncast.IdentifierOf[C]()
	info, ok := dyncast.Lookup(c)
	if !ok {
		t.Fatalf("Lookup(C) not found")
	}
	if info.ID != c || info.Name != "dyncast_test.C" || info.Size != unsafe.Sizeof(C{}) {
		t.Errorf("Lookup(C) = %+v", info)
	}

	want := []dyncast.Supertype{
		{ID: dyncast.IdentifierOf[A](), Adjust: dyncast.Adjust{Offset: unsafe.Offsetof(C{}.A)}},
		{ID: dyncast.IdentifierOf[B](), Adjust: dyncast.Adjust{Offset: unsafe.Offsetof(C{}.B)}},
	}
	if !reflect.DeepEqual(info.Supertypes, want) {
		t.Errorf("Lookup(C).Supertypes = %+v; want %+v", info.Supertypes, want)
	}

	h, _ := dyncast.Lookup(dyncast.IdentifierOf[Handle]())
	if len(h.Supertypes) != 1 || !h.Supertypes[0].Adjust.Indirect {
		t.Errorf("Lookup(Handle).Supertypes = %+v; want one indirect supertype", h.Supertypes)
	}

	if _, ok := dyncast.Lookup(dyncast.NoTypeID); ok {
		t.Errorf("Lookup(NoTypeID) found a descriptor")
	}
	if _, ok := dyncast.Lookup(dyncast.TypeID(1 << 30)); ok {
		t.Errorf("Lookup(1<<30) found a descriptor")
	}
}

func TestAncestors(t *testing.T) {
	var (
		top   = dyncast.IdentifierOf[Top]()
		left  = dyncast.IdentifierOf[Left]()
		right = dyncast.IdentifierOf[Right]()
	)

	tests := []struct {
		name string
		id   dyncast.TypeID
		want []dyncast.TypeID
	}{
		{"root", dyncast.IdentifierOf[A](), nil},
		{"D", dyncast.IdentifierOf[D](), []dyncast.TypeID{
			dyncast.IdentifierOf[C](), dyncast.IdentifierOf[A](), dyncast.IdentifierOf[B](),
		}},
		{"diamond", dyncast.IdentifierOf[Bottom](), []dyncast.TypeID{left, top, right, top}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dyncast.Ancestors(tt.id); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Ancestors() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	dyncast.IdentifierOf[D]()
	if n := dyncast.Count(); n < 4 {
		t.Errorf("Count() = %d; want at least 4", n)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		verify  func() error
		wantErr string
	}{
		{"A", dyncast.Verify[A], ""},
		{"C", dyncast.Verify[C], ""},
		{"D", dyncast.Verify[D], ""},
		{"Bottom", dyncast.Verify[Bottom], ""},
		{"Handle", dyncast.Verify[Handle], ""},
		{"promoted DynamicType", dyncast.Verify[Forgetful], "must be implemented on *dyncast_test.Forgetful"},
		{"overrun", dyncast.Verify[Overrun], "overruns"},
		{"root without Header", dyncast.Verify[Headless], "dyncast_test.Headless has no Header"},
		{"embeds a root without Header", dyncast.Verify[Hybrid], "dyncast_test.Headless has no Header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.verify()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() = %v; want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Verify() = nil; want error containing %q", tt.wantErr)
			}
			var ce *dyncast.ContractError
			if !errors.As(err, &ce) {
				t.Errorf("Verify() error %T is not a *ContractError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %q; want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestZeroBasePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("IdentifierOf[Broken]() did not panic")
		}
		if s, _ := r.(string); !strings.Contains(s, "zero Base at index 0") {
			t.Errorf("panic = %v; want it to name the zero Base", r)
		}
	}()
	dyncast.IdentifierOf[Broken]()
}

type Broken struct{}

func (Broken) Bases() []dyncast.Base { return []dyncast.Base{{}} }
