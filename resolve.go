package digo

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
)

// GetPtr resolves the instance bound to T, constructing it on first use.
// Every call on the same container returns the same pointer.
//
// Pointer, reference and shared-handle requests all map to GetPtr: the
// pointer carries no ownership, the container owns registry-built
// instances and the caller keeps owning instances it supplied.
func GetPtr[T any](c *Container) (*T, error) {
	id := TypeOf[T]()
	inst, err := c.getPtr(id)
	if err != nil {
		return nil, err
	}
	p, ok := inst.(*T)
	if !ok {
		return nil, &TypeMismatchError{Expected: "*" + id.Name(), Got: fmt.Sprintf("%T", inst)}
	}
	return p, nil
}

// Get resolves T and returns a copy of the bound value.
func Get[T any](c *Container) (T, error) {
	p, err := GetPtr[T](c)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// Has reports whether a single binding exists for T.
func Has[T any](c *Container) bool {
	_, err := c.lookup(TypeOf[T]())
	return err == nil
}

// HasMultibindings reports whether at least one multibinding entry exists
// for T.
func HasMultibindings[T any](c *Container) bool {
	mb := c.lookupMultibinding(MultibindingTypeOf[T]())
	return mb != nil
}

func (c *Container) getPtr(id TypeID) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	b, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	if inst := b.loaded(); inst != nil {
		return inst, nil
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ensureConstructed(b)
}

// ensureConstructed runs b's factory unless an instance already exists.
// The caller holds c.lock.
func (c *Container) ensureConstructed(b *bindingData) (any, error) {
	if inst := b.loaded(); inst != nil {
		return inst, nil
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := c.startResolving(b.id); err != nil {
		return nil, err
	}
	defer c.finishResolving(b.id)

	start := time.Now()
	inst, err := b.create(c, b.arg)
	if err == nil && inst == nil {
		err = fmt.Errorf("factory returned no instance")
	}
	c.observer.ObserveConstruction(b.id, time.Since(start), err)
	if err != nil {
		return nil, &InitializationError{Type: b.id.Name(), Err: err}
	}

	b.instance.Store(inst)
	if b.destroy != nil {
		c.owned = append(c.owned, b)
	}
	c.log.V(1).Info("instance constructed", "type", b.id.Name(), "ownership", b.ownership.String())
	return inst, nil
}

// Provider defers resolution of T until Get or GetPtr is called.
type Provider[T any] struct {
	c *Container
}

// GetProvider returns a Provider of T bound to c. It never constructs.
func GetProvider[T any](c *Container) Provider[T] {
	return Provider[T]{c: c}
}

// Get resolves T through the provider's container.
func (p Provider[T]) Get() (T, error) {
	return Get[T](p.c)
}

// GetPtr resolves *T through the provider's container.
func (p Provider[T]) GetPtr() (*T, error) {
	return GetPtr[T](p.c)
}

// Set is the deduplicated result of a multibinding. A materialized Set is
// shared by every caller and must not be modified.
type Set[T any] struct {
	items     []*T
	index     map[any]struct{}
	byPointee bool
}

func newSet[T any](ptrs []*T, byPointee bool) *Set[T] {
	s := &Set[T]{
		items:     make([]*T, 0, len(ptrs)),
		index:     make(map[any]struct{}, len(ptrs)),
		byPointee: byPointee,
	}
	for _, p := range ptrs {
		k := s.key(p)
		if _, dup := s.index[k]; dup {
			continue
		}
		s.index[k] = struct{}{}
		s.items = append(s.items, p)
	}
	return s
}

// key identifies an element by address. For interface tokens each entry
// stores its own *I, so when the interface holds a pointer that pointer is
// the address: aliases of one *C collapse, equal values built apart do not.
func (s *Set[T]) key(p *T) any {
	if s.byPointee && p != nil {
		if v := any(*p); v != nil && reflect.TypeOf(v).Kind() == reflect.Pointer {
			return v
		}
	}
	return p
}

// Len returns the number of distinct elements.
func (s *Set[T]) Len() int { return len(s.items) }

// Contains reports whether p, or an alias of it, is in the set.
func (s *Set[T]) Contains(p *T) bool {
	_, ok := s.index[s.key(p)]
	return ok
}

// Items returns the elements in registration order.
func (s *Set[T]) Items() []*T { return slices.Clone(s.items) }

// All iterates the elements in registration order.
func (s *Set[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, p := range s.items {
			if !yield(p) {
				return
			}
		}
	}
}

// GetMultibindings returns the set of every instance registered for T.
// When nothing was registered the set is empty and no factory runs. The
// first call constructs every entry; later calls return the same *Set.
func GetMultibindings[T any](c *Container) (*Set[T], error) {
	id := MultibindingTypeOf[T]()
	v, err := c.getMultibindings(id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return newSet[T](nil, id.isInterface()), nil
	}
	s, ok := v.(*Set[T])
	if !ok {
		return nil, &TypeMismatchError{Expected: fmt.Sprintf("*digo.Set[%s]", TypeOf[T]().Name()), Got: fmt.Sprintf("%T", v)}
	}
	return s, nil
}

// getMultibindings returns nil without error when id has no entries. The
// empty result is not cached.
func (c *Container) getMultibindings(id TypeID) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	mb := c.lookupMultibinding(id)
	if mb == nil {
		return nil, nil
	}
	if s := mb.set.Load(); s != nil {
		return s, nil
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if s := mb.set.Load(); s != nil {
		return s, nil
	}

	c.mu.RLock()
	entries := slices.Clone(mb.entries)
	materialize := mb.newSet
	c.mu.RUnlock()
	if len(entries) == 0 {
		return nil, nil
	}

	s, size, err := materialize(c, id, entries)
	if err != nil {
		return nil, err
	}
	mb.set.Store(s)
	c.observer.ObserveMultibindings(id, size)
	c.log.V(1).Info("multibinding set materialized", "type", id.Name(), "entries", len(entries), "distinct", size)
	return s, nil
}

// ensureConstructedMultibinding constructs every entry not built yet.
// The caller holds c.lock.
func (c *Container) ensureConstructedMultibinding(entries []*bindingData) error {
	for _, e := range entries {
		if _, err := c.ensureConstructed(e); err != nil {
			return err
		}
	}
	return nil
}

// materializeSet is the setFactory installed for multibindings of T.
func materializeSet[T any](c *Container, id TypeID, entries []*bindingData) (any, int, error) {
	if err := c.ensureConstructedMultibinding(entries); err != nil {
		return nil, 0, err
	}
	ptrs := make([]*T, 0, len(entries))
	for _, e := range entries {
		p, ok := e.loaded().(*T)
		if !ok {
			return nil, 0, &TypeMismatchError{Expected: "*" + TypeOf[T]().Name(), Got: fmt.Sprintf("%T", e.loaded())}
		}
		ptrs = append(ptrs, p)
	}
	s := newSet(ptrs, id.isInterface())
	return s, s.Len(), nil
}

// Eager constructs every single binding and materializes every
// multibinding set. After it succeeds, resolutions only read.
func (c *Container) Eager() error {
	c.mu.RLock()
	singles := slices.Clone(c.order)
	multis := slices.Clone(c.multiOrder)
	c.mu.RUnlock()

	var result *multierror.Error
	for _, id := range singles {
		if _, err := c.getPtr(id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, id := range multis {
		if _, err := c.getMultibindings(id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	c.log.V(1).Info("eager injection complete", "bindings", len(singles), "multibindings", len(multis))
	return nil
}
