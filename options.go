package digo

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/imdario/mergo"
)

// Options are the serializable container settings.
type Options struct {
	// Name labels the container in logs and metrics.
	Name string
	// ArenaCapacity fixes the arena size in bytes. Zero sizes the arena
	// from the registered constructors.
	ArenaCapacity uint64
	// Verbosity of the default logger. Ignored when WithLogger is used.
	Verbosity int
}

func defaultOptions() Options {
	return Options{Name: "digo"}
}

// Option configures a Container.
type Option func(*settings)

type settings struct {
	Options
	logger   *logr.Logger
	observer Observer
	errs     []error
}

func (s *settings) merge(src Options, opts ...func(*mergo.Config)) {
	if err := mergo.Merge(&s.Options, src, opts...); err != nil {
		s.errs = append(s.errs, fmt.Errorf("merge options: %w", err))
	}
}

// WithOptions overrides settings with every non-zero field of o.
func WithOptions(o Options) Option {
	return func(s *settings) {
		s.merge(o, mergo.WithOverride)
	}
}

// WithName sets the container name.
func WithName(name string) Option {
	return func(s *settings) {
		s.Name = name
	}
}

// WithArenaCapacity fixes the arena size in bytes.
func WithArenaCapacity(bytes uint64) Option {
	return func(s *settings) {
		s.ArenaCapacity = bytes
	}
}

// WithVerbosity sets the verbosity of the default logger.
func WithVerbosity(v int) Option {
	return func(s *settings) {
		s.Verbosity = v
	}
}

// WithLogger replaces the default stderr logger.
func WithLogger(logger logr.Logger) Option {
	return func(s *settings) {
		s.logger = &logger
	}
}

// WithObserver installs an Observer for construction events.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observer = o
	}
}

func (s *settings) apply(opts []Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.merge(defaultOptions())
	if s.observer == nil {
		s.observer = nopObserver{}
	}
}

func (s *settings) rootLogger() logr.Logger {
	if s.logger != nil {
		return *s.logger
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintln(os.Stderr, prefix, args)
		} else {
			fmt.Fprintln(os.Stderr, args)
		}
	}, funcr.Options{Verbosity: s.Verbosity})
}
