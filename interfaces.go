package digo

import (
	"context"
	"io"
	"time"
)

// Shutdowner is implemented by container-owned instances that hold
// resources. OnShutdown runs once, when the owning container shuts down,
// in reverse construction order.
type Shutdowner interface {
	OnShutdown(ctx context.Context) error
}

// Destroyer releases one owned instance. The instance is always the *T
// stored for the binding.
type Destroyer func(ctx context.Context, instance any) error

// Observer receives construction events. Implementations must be cheap and
// must not call back into the container.
type Observer interface {
	// ObserveConstruction is called after every factory invocation.
	ObserveConstruction(id TypeID, elapsed time.Duration, err error)

	// ObserveMultibindings is called once per materialized set.
	ObserveMultibindings(id TypeID, size int)
}

type nopObserver struct{}

func (nopObserver) ObserveConstruction(TypeID, time.Duration, error) {}
func (nopObserver) ObserveMultibindings(TypeID, int)                 {}

// release runs the shutdown hook of an owned instance, looking at the
// pointer first and at the stored value second.
func release[T any](ctx context.Context, p *T) error {
	if s, ok := any(p).(Shutdowner); ok {
		return s.OnShutdown(ctx)
	}
	if c, ok := any(p).(io.Closer); ok {
		return c.Close()
	}
	switch v := any(*p).(type) {
	case Shutdowner:
		return v.OnShutdown(ctx)
	case io.Closer:
		return v.Close()
	}
	return nil
}
