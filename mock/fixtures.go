package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/centraunit/digo"
)

// Journal records the order in which instances are shut down.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *Journal) Record(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, name)
}

func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Calls counts factory invocations.
type Calls struct {
	n atomic.Int32
}

func (c *Calls) Inc()         { c.n.Add(1) }
func (c *Calls) Count() int32 { return c.n.Load() }

// Core interfaces
type Database interface {
	Connect() error
	IsConnected() bool
}

type Cache interface {
	Get(key string) any
}

// Mock implementations
type MockDB struct {
	Journal   *Journal
	connected bool
}

func (m *MockDB) Connect() error {
	m.connected = true
	return nil
}

func (m *MockDB) IsConnected() bool { return m.connected }

func (m *MockDB) OnShutdown(ctx context.Context) error {
	m.connected = false
	if m.Journal != nil {
		m.Journal.Record("db")
	}
	return nil
}

type MockCache struct {
	DB      *MockDB
	Journal *Journal
}

func (m *MockCache) Get(key string) any { return nil }

func (m *MockCache) Close() error {
	if m.Journal != nil {
		m.Journal.Record("cache")
	}
	return nil
}

// NewMockDB is a provider that connects the database it returns.
func NewMockDB(j *Journal, calls *Calls) func(*digo.Container) (*MockDB, error) {
	return func(*digo.Container) (*MockDB, error) {
		if calls != nil {
			calls.Inc()
		}
		db := &MockDB{Journal: j}
		return db, db.Connect()
	}
}

// NewMockCache is a provider depending on *MockDB.
func NewMockCache(j *Journal) func(*digo.Container) (*MockCache, error) {
	return func(c *digo.Container) (*MockCache, error) {
		db, err := digo.GetPtr[MockDB](c)
		if err != nil {
			return nil, err
		}
		return &MockCache{DB: db, Journal: j}, nil
	}
}

// Settings is a plain value type stored in the arena.
type Settings struct {
	Name    string
	Retries int
}

// Deep dependency chain
type DeepService3 struct {
	Value string
}

type DeepService2 struct {
	Service3 *DeepService3
}

type DeepService1 struct {
	Service2 *DeepService2
}

// RegisterDeep binds the three deep services, the innermost with value.
func RegisterDeep(c *digo.Container, value string) error {
	return errors.Join(
		digo.RegisterConstructor(c, func(*digo.Container) (DeepService3, error) {
			return DeepService3{Value: value}, nil
		}),
		digo.RegisterConstructor(c, func(c *digo.Container) (DeepService2, error) {
			s3, err := digo.GetPtr[DeepService3](c)
			return DeepService2{Service3: s3}, err
		}),
		digo.RegisterConstructor(c, func(c *digo.Container) (DeepService1, error) {
			s2, err := digo.GetPtr[DeepService2](c)
			return DeepService1{Service2: s2}, err
		}),
	)
}

// Circular dependencies
type CircularA struct {
	B *CircularB
}

type CircularB struct {
	A *CircularA
}

// RegisterCircular binds CircularA and CircularB to each other.
func RegisterCircular(c *digo.Container) error {
	return errors.Join(
		digo.RegisterProvider(c, func(c *digo.Container) (*CircularA, error) {
			b, err := digo.GetPtr[CircularB](c)
			return &CircularA{B: b}, err
		}),
		digo.RegisterProvider(c, func(c *digo.Container) (*CircularB, error) {
			a, err := digo.GetPtr[CircularA](c)
			return &CircularB{A: a}, err
		}),
	)
}

// Plugins for multibindings
type Plugin interface {
	Name() string
}

type EchoPlugin struct {
	Label string
}

func (p *EchoPlugin) Name() string { return "echo:" + p.Label }

type UpperPlugin struct{}

func (UpperPlugin) Name() string { return "upper" }

// Greeting is produced by assisted factories.
type Greeting struct {
	Settings *Settings
	Who      string
	Times    int
}

func (g Greeting) String() string {
	return fmt.Sprintf("%s greets %s x%d", g.Settings.Name, g.Who, g.Times)
}

// Failing always fails to construct.
type Failing struct{}

var ErrBoom = errors.New("boom")

// Unregistered is never bound.
type Unregistered struct{}
