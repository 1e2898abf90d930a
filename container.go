package digo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Container is the binding registry and the owner of every registry-owned
// instance. It is created empty; bindings are installed with the Register*,
// Bind* and Add* functions and resolved with Get, GetPtr and
// GetMultibindings.
//
// Registration and resolution may be called from any goroutine. The first
// construction of each binding is serialized; once an instance exists it
// is returned without locking beyond a read lock on the index.
type Container struct {
	id       string
	name     string
	log      logr.Logger
	observer Observer

	mu            sync.RWMutex
	bindings      map[TypeID]*bindingData
	multibindings map[TypeID]*multibindingData
	order         []TypeID
	multiOrder    []TypeID

	// Guarded by lock.
	lock      constructionLock
	arena     *Arena
	resolving []TypeID
	owned     []*bindingData

	closed atomic.Bool
}

// New creates an empty container.
func New(opts ...Option) *Container {
	var s settings
	s.apply(opts)

	id := uuid.NewString()
	c := &Container{
		id:            id,
		name:          s.Name,
		log:           s.rootLogger().WithName("digo").WithValues("container", s.Name, "id", id),
		observer:      s.observer,
		bindings:      make(map[TypeID]*bindingData, 32),
		multibindings: make(map[TypeID]*multibindingData),
	}
	if s.ArenaCapacity > 0 {
		c.arena = NewArena(uintptr(s.ArenaCapacity))
	} else {
		c.arena = newSizedArena()
	}
	for _, err := range s.errs {
		c.log.Error(err, "ignoring invalid options")
	}
	return c
}

// ID returns the unique id of this container instance.
func (c *Container) ID() string { return c.id }

// Name returns the configured container name.
func (c *Container) Name() string { return c.name }

// Logger returns the container's logger.
func (c *Container) Logger() logr.Logger { return c.log }

// createBinding registers a construction strategy for id. It never
// constructs anything.
func (c *Container) createBinding(id TypeID, create createFunc, arg any, destroy Destroyer, ownership Ownership) error {
	return c.addBinding(&bindingData{
		id:        id,
		create:    create,
		arg:       arg,
		destroy:   destroy,
		ownership: ownership,
	})
}

// createBindingInstance registers an instance that already exists and is
// owned elsewhere.
func (c *Container) createBindingInstance(id TypeID, instance any) error {
	b := &bindingData{id: id, ownership: External}
	b.instance.Store(instance)
	return c.addBinding(b)
}

func (c *Container) addBinding(b *bindingData) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.bindings[b.id]; exists {
		return &DuplicateBindingError{Type: b.id.Name()}
	}
	c.bindings[b.id] = b
	c.order = append(c.order, b.id)
	c.log.V(2).Info("binding registered", "type", b.id.Name(), "ownership", b.ownership.String())
	return nil
}

// createMultibinding appends one entry to the multibinding of id. newSet
// is stored once per token; later registrations overwrite it with an
// equivalent function.
func (c *Container) createMultibinding(id TypeID, create createFunc, arg any, destroy Destroyer, ownership Ownership, newSet setFactory) error {
	return c.addMultibinding(&bindingData{
		id:        id,
		create:    create,
		arg:       arg,
		destroy:   destroy,
		ownership: ownership,
	}, newSet)
}

func (c *Container) createMultibindingInstance(id TypeID, instance any, newSet setFactory) error {
	b := &bindingData{id: id, ownership: External}
	b.instance.Store(instance)
	return c.addMultibinding(b, newSet)
}

func (c *Container) addMultibinding(b *bindingData, newSet setFactory) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	mb, ok := c.multibindings[b.id]
	if !ok {
		mb = &multibindingData{id: b.id}
		c.multibindings[b.id] = mb
		c.multiOrder = append(c.multiOrder, b.id)
	}
	if mb.set.Load() != nil {
		return Check(false, func() string {
			return "multibinding added after its set was materialized: " + b.id.Name()
		})
	}
	mb.entries = append(mb.entries, b)
	mb.newSet = newSet
	c.log.V(2).Info("multibinding entry registered", "type", b.id.Name(), "entries", len(mb.entries))
	return nil
}

// lookup returns the record bound to id.
func (c *Container) lookup(id TypeID) (*bindingData, error) {
	c.mu.RLock()
	b, ok := c.bindings[id]
	c.mu.RUnlock()
	if !ok {
		return nil, &BindingNotFoundError{Type: id.Name()}
	}
	return b, nil
}

func (c *Container) lookupMultibinding(id TypeID) *multibindingData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.multibindings[id]
}

// reserve records an arena constructor of the given footprint.
func (c *Container) reserve(id TypeID, footprint uintptr) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.arena.reserve(id, footprint)
}

// startResolving pushes id on the resolution stack and fails when id is
// already being built further up.
func (c *Container) startResolving(id TypeID) error {
	if slices.Contains(c.resolving, id) {
		chain := make([]string, 0, len(c.resolving))
		for _, r := range c.resolving {
			chain = append(chain, r.Name())
		}
		return &CircularDependencyError{Type: id.Name(), Chain: chain}
	}
	c.resolving = append(c.resolving, id)
	return nil
}

func (c *Container) finishResolving(id TypeID) {
	if n := len(c.resolving); n > 0 && c.resolving[n-1] == id {
		c.resolving = c.resolving[:n-1]
	}
}

// Shutdown destroys every container-owned instance in reverse construction
// order and releases the arena. Externally supplied instances are left
// untouched. Shutdown is idempotent; every later resolution fails with
// ErrClosed.
func (c *Container) Shutdown(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var result *multierror.Error
	for i := len(c.owned) - 1; i >= 0; i-- {
		b := c.owned[i]
		if err := b.destroy(ctx, b.loaded()); err != nil {
			result = multierror.Append(result, &ShutdownError{Type: b.id.Name(), Err: err})
		}
	}
	destroyed := len(c.owned)
	c.owned = nil
	c.arena.Release()

	if err := result.ErrorOrNil(); err != nil {
		c.log.Error(err, "shutdown finished with errors", "destroyed", destroyed)
		return err
	}
	c.log.V(1).Info("shutdown complete", "destroyed", destroyed)
	return nil
}

// Closed reports whether Shutdown has been called.
func (c *Container) Closed() bool { return c.closed.Load() }

// BindingInfo describes one registered token.
type BindingInfo struct {
	Type         string `json:"type"`
	Multibinding bool   `json:"multibinding"`
	Entries      int    `json:"entries"`
	Constructed  int    `json:"constructed"`
	Ownership    string `json:"ownership,omitempty"`
}

// Bindings returns every registered token sorted by type name.
func (c *Container) Bindings() []BindingInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]BindingInfo, 0, len(c.bindings)+len(c.multibindings))
	for id, b := range c.bindings {
		info := BindingInfo{Type: id.Name(), Entries: 1, Ownership: b.ownership.String()}
		if b.loaded() != nil {
			info.Constructed = 1
		}
		out = append(out, info)
	}
	for id, mb := range c.multibindings {
		out = append(out, BindingInfo{
			Type:         id.Name(),
			Multibinding: true,
			Entries:      len(mb.entries),
			Constructed:  mb.constructed(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Type < out[j].Type
	})
	return out
}

// ArenaUsage is a snapshot of the arena.
type ArenaUsage struct {
	Capacity uintptr  `json:"capacity"`
	Used     uintptr  `json:"used"`
	Objects  []Object `json:"objects"`
}

// Object is one arena allocation.
type Object struct {
	Handle
	Type string `json:"type"`
}

// ArenaUsage returns a snapshot of the arena.
func (c *Container) ArenaUsage() ArenaUsage {
	c.lock.Lock()
	defer c.lock.Unlock()

	handles := c.arena.Handles()
	usage := ArenaUsage{
		Capacity: c.arena.Capacity(),
		Used:     c.arena.Used(),
		Objects:  make([]Object, 0, len(handles)),
	}
	for _, h := range handles {
		usage.Objects = append(usage.Objects, Object{Handle: h, Type: h.Type.Name()})
	}
	return usage
}
