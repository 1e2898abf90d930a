package digo

import "slices"

// Handle locates one object inside an Arena. Offsets are relative to the
// start of the arena and stay valid for the arena's lifetime.
type Handle struct {
	Index  int     `json:"index"`
	Offset uintptr `json:"offset"`
	Size   uintptr `json:"size"`
	Align  uintptr `json:"align"`
	Type   TypeID  `json:"-"`
}

// Arena is a bump allocator for registry-owned singletons. It accounts for
// bytes and alignment like a contiguous region would, and keeps each
// object in a per-type slab whose backing arrays are never moved, so the
// *T handed out for an object is stable.
//
// Arena is not safe for concurrent use; the container serializes access.
type Arena struct {
	capacity uintptr
	fixed    bool
	used     uintptr
	handles  []Handle
	slabs    map[TypeID]any
	reserved map[TypeID]int
}

// NewArena returns an arena that never grows past capacity bytes.
func NewArena(capacity uintptr) *Arena {
	return &Arena{
		capacity: capacity,
		fixed:    true,
		slabs:    make(map[TypeID]any),
		reserved: make(map[TypeID]int),
	}
}

// newSizedArena returns an arena whose capacity is the sum of its
// reservations.
func newSizedArena() *Arena {
	a := NewArena(0)
	a.fixed = false
	return a
}

// Reserve records that one more T will be constructed in a. Unless the
// capacity was fixed at creation, it grows by T's worst-case footprint.
func Reserve[T any](a *Arena) {
	a.reserve(TypeOf[T](), Footprint[T]())
}

func (a *Arena) reserve(id TypeID, footprint uintptr) {
	a.reserved[id]++
	if !a.fixed {
		a.capacity += footprint
	}
}

// Allocate advances the cursor to the next multiple of align, claims size
// bytes and returns their handle.
func (a *Arena) Allocate(size, align uintptr) (Handle, error) {
	if align == 0 {
		align = 1
	}
	offset := a.used
	if misalignment := offset % align; misalignment != 0 {
		offset += align - misalignment
	}
	if offset+size > a.capacity {
		return Handle{}, &ArenaExhaustedError{Requested: size, Used: a.used, Capacity: a.capacity}
	}
	h := Handle{Index: len(a.handles), Offset: offset, Size: size, Align: align}
	a.handles = append(a.handles, h)
	a.used = offset + size
	return h, nil
}

// Construct allocates room for a T and stores value there.
func Construct[T any](a *Arena, value T) (*T, Handle, error) {
	id := TypeOf[T]()
	h, err := a.Allocate(SizeOf[T](), AlignOf[T]())
	if err != nil {
		return nil, Handle{}, err
	}
	h.Type = id
	a.handles[h.Index].Type = id

	s, ok := a.slabs[id].(*slab[T])
	if !ok {
		s = &slab[T]{}
		a.slabs[id] = s
	}
	p := s.alloc(a.reserved[id])
	*p = value
	return p, h, nil
}

// Capacity returns the arena size in bytes.
func (a *Arena) Capacity() uintptr { return a.capacity }

// Used returns the bytes consumed so far, padding included.
func (a *Arena) Used() uintptr { return a.used }

// Handles returns the live handles in allocation order.
func (a *Arena) Handles() []Handle { return slices.Clone(a.handles) }

// Release drops every object. Destructors must already have run.
func (a *Arena) Release() {
	a.handles = nil
	a.used = 0
	clear(a.slabs)
}

// slab holds the objects of one type in chunks that are only appended to
// within their capacity.
type slab[T any] struct {
	chunks [][]T
	count  int
}

func (s *slab[T]) alloc(reserved int) *T {
	if n := len(s.chunks); n > 0 {
		last := s.chunks[n-1]
		if len(last) < cap(last) {
			last = append(last, *new(T))
			s.chunks[n-1] = last
			s.count++
			return &last[len(last)-1]
		}
	}
	size := max(reserved-s.count, 1)
	chunk := make([]T, 1, size)
	s.chunks = append(s.chunks, chunk)
	s.count++
	return &chunk[0]
}
