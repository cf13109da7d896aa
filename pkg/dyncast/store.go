package dyncast

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	chunkBits = 8
	chunkSize = 1 << chunkBits
	maxChunks = 1 << 12
)

type slot struct {
	once  sync.Once
	built atomic.Bool
	desc  descriptor
}

type chunk [chunkSize]slot

// store is the process-wide descriptor arena. Chunks are published
// atomically and never move, so a slot's address is stable and readers
// never race with growth.
type store struct {
	ids    sync.Map // type token -> TypeID
	mu     sync.Mutex
	next   atomic.Uint32
	chunks [maxChunks]atomic.Pointer[chunk]
}

var global = &store{}

// reserve returns the id for token, assigning the next arena slot on
// first use.
func (s *store) reserve(token any) TypeID {
	if v, ok := s.ids.Load(token); ok {
		return v.(TypeID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.ids.Load(token); ok {
		return v.(TypeID)
	}

	n := s.next.Load()
	if n >= chunkSize*maxChunks {
		panic("dyncast: type arena exhausted")
	}
	if n%chunkSize == 0 {
		s.chunks[n>>chunkBits].Store(new(chunk))
	}
	s.next.Store(n + 1)

	id := TypeID(n + 1)
	s.ids.Store(token, id)
	return id
}

func (s *store) slot(id TypeID) *slot {
	if !id.IsValid() {
		return nil
	}
	n := uint32(id) - 1
	if n>>chunkBits >= maxChunks {
		return nil
	}
	c := s.chunks[n>>chunkBits].Load()
	if c == nil {
		return nil
	}
	return &c[n&(chunkSize-1)]
}

// descriptor returns the built descriptor for id, or nil if id is unknown
// or still under construction.
func (s *store) descriptor(id TypeID) *descriptor {
	sl := s.slot(id)
	if sl == nil || !sl.built.Load() {
		return nil
	}
	return &sl.desc
}

// IdentifierOf returns the id of T, building T's descriptor and those of
// all its supertypes on first use. Concurrent first calls build once and
// all observe the finished descriptor.
func IdentifierOf[T Declarer]() TypeID {
	id := global.reserve((*T)(nil))
	sl := global.slot(id)
	sl.once.Do(func() {
		sl.desc = describe[T]()
		sl.built.Store(true)
	})
	return id
}

func describe[T Declarer]() descriptor {
	var zero T
	bases := zero.Bases()

	d := descriptor{
		name:    fmt.Sprintf("%T", zero),
		size:    unsafe.Sizeof(zero),
		supers:  make([]TypeID, 0, len(bases)),
		adjusts: make([]Adjust, 0, len(bases)),
	}
	for i, b := range bases {
		switch {
		case b.header:
			d.header = []Adjust{b.adjust}
			d.ownHeader = true
		case b.id == nil:
			panic(fmt.Sprintf("dyncast: %s declares a zero Base at index %d", d.name, i))
		default:
			d.supers = append(d.supers, b.id())
			d.adjusts = append(d.adjusts, b.adjust)
		}
	}

	if !d.ownHeader {
		for i, s := range d.supers {
			if d.adjusts[i].Indirect {
				continue
			}
			sd := global.descriptor(s)
			if sd == nil || sd.header == nil {
				continue
			}
			d.header = append([]Adjust{d.adjusts[i]}, sd.header...)
			break
		}
	}
	return d
}

// Count returns the number of types assigned an id so far.
func Count() int {
	return int(global.next.Load())
}
