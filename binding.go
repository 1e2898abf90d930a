package digo

import "sync/atomic"

// Ownership tells who is responsible for destroying a bound instance.
type Ownership int

const (
	// OwnedByArena instances live in the container's arena and are
	// destroyed at shutdown.
	OwnedByArena Ownership = iota
	// OwnedByContainer instances were returned by a pointer provider and
	// are destroyed at shutdown.
	OwnedByContainer
	// External instances were supplied by the caller and are never
	// destroyed by the container.
	External
	// Alias bindings are non-owning views of another binding.
	Alias
)

func (o Ownership) String() string {
	switch o {
	case OwnedByArena:
		return "arena"
	case OwnedByContainer:
		return "container"
	case External:
		return "external"
	case Alias:
		return "alias"
	default:
		return "unknown"
	}
}

// createFunc builds the instance of a binding. arg is the opaque argument
// stored next to it, usually the user's provider.
type createFunc func(c *Container, arg any) (any, error)

// setFactory materializes the deduplicated set of a multibinding from a
// snapshot of its entries and returns it with its size.
type setFactory func(c *Container, id TypeID, entries []*bindingData) (any, int, error)

// bindingData is the record kept for every single binding and for every
// entry of a multibinding.
type bindingData struct {
	id        TypeID
	create    createFunc
	arg       any
	destroy   Destroyer
	ownership Ownership

	// instance holds the constructed *T. It is written once.
	instance atomic.Value
}

func (b *bindingData) loaded() any {
	return b.instance.Load()
}

// multibindingData holds every entry registered under one token and the
// set materialized from them.
type multibindingData struct {
	id      TypeID
	entries []*bindingData
	newSet  setFactory

	// set holds the cached *Set[T]. It is written once.
	set atomic.Value
}

func (mb *multibindingData) constructed() int {
	n := 0
	for _, e := range mb.entries {
		if e.loaded() != nil {
			n++
		}
	}
	return n
}
