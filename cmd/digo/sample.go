package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/centraunit/digo"
)

// The sample graph wires a small request pipeline with every kind of
// binding the container supports.

type Clock struct {
	Started time.Time
}

type Store struct {
	clock  *Clock
	hits   atomic.Int64
	closed atomic.Bool
}

func (s *Store) Hit() int64 { return s.hits.Add(1) }

func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

type Greeter interface {
	Greet(name string) string
}

type politeGreeter struct {
	store *Store
}

func (g *politeGreeter) Greet(name string) string {
	return fmt.Sprintf("hello %s (#%d)", name, g.store.Hit())
}

func (g *politeGreeter) OnShutdown(context.Context) error { return nil }

type Middleware interface {
	Wrap(s string) string
}

type upperMiddleware struct{}

func (upperMiddleware) Wrap(s string) string { return strings.ToUpper(s) }

type bracketMiddleware struct {
	Open, Close string
}

func (m *bracketMiddleware) Wrap(s string) string { return m.Open + s + m.Close }

type Request struct {
	Path    string
	Retries int
	Greeter Greeter
	Chain   *digo.Set[Middleware]
}

func (r *Request) Render(name string) string {
	out := r.Greeter.Greet(name)
	for m := range r.Chain.All() {
		out = (*m).Wrap(out)
	}
	return out
}

func installSample(c *digo.Container) error {
	var upper Middleware = upperMiddleware{}
	return firstError(
		digo.RegisterConstructor(c, func(*digo.Container) (Clock, error) {
			return Clock{Started: time.Now()}, nil
		}),
		digo.RegisterProvider(c, func(c *digo.Container) (*Store, error) {
			clock, err := digo.GetPtr[Clock](c)
			if err != nil {
				return nil, err
			}
			return &Store{clock: clock}, nil
		}),
		digo.RegisterProvider(c, func(c *digo.Container) (*politeGreeter, error) {
			store, err := digo.GetPtr[Store](c)
			if err != nil {
				return nil, err
			}
			return &politeGreeter{store: store}, nil
		}),
		digo.Bind[Greeter, politeGreeter](c),
		digo.AddInstanceMultibinding(c, &upper),
		digo.AddMultibindingProvider[Middleware](c, func(*digo.Container) (*bracketMiddleware, error) {
			return &bracketMiddleware{Open: "[", Close: "]"}, nil
		}),
		digo.RegisterProvider(c, func(*digo.Container) (*bracketMiddleware, error) {
			return &bracketMiddleware{Open: "<", Close: ">"}, nil
		}),
		digo.AddMultibinding[Middleware, bracketMiddleware](c),
		digo.RegisterPointerFactory(c, digo.Annotate(
			digo.Assisted[string](),
			digo.Inject[Greeter](),
			digo.Assisted[int](),
			digo.InjectMultibindings[Middleware](),
		), newRequest),
	)
}

func newRequest(args []any) (*Request, error) {
	path, pathErr := digo.Arg[string](args, 0)
	greeter, greeterErr := digo.Arg[Greeter](args, 1)
	retries, retriesErr := digo.Arg[int](args, 2)
	chain, chainErr := digo.Arg[*digo.Set[Middleware]](args, 3)
	if err := errors.Join(pathErr, greeterErr, retriesErr, chainErr); err != nil {
		return nil, err
	}
	return &Request{Path: path, Greeter: greeter, Retries: retries, Chain: chain}, nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
