package digo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies container errors.
type ErrorKind int

const (
	// KindUnknown is reported for errors that did not originate in digo.
	KindUnknown ErrorKind = iota
	// KindConfiguration marks a defect in how bindings were installed or
	// requested. There is no recoverable path for these.
	KindConfiguration
	// KindResourceExhaustion marks an undersized arena.
	KindResourceExhaustion
	// KindConstruction marks a factory or destroyer that reported failure.
	KindConstruction
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindResourceExhaustion:
		return "resource-exhaustion"
	case KindConstruction:
		return "construction"
	default:
		return "unknown"
	}
}

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// IsFatal reports whether err signals a violated invariant rather than a
// failing factory.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConfiguration, KindResourceExhaustion:
		return true
	}
	return false
}

// ErrClosed is returned by every operation on a container that has been
// shut down.
var ErrClosed = &closedError{}

type closedError struct{}

func (*closedError) Error() string   { return "container is shut down" }
func (*closedError) Kind() ErrorKind { return KindConfiguration }

// CheckError is produced by Check when its condition does not hold.
type CheckError struct {
	Message string
}

func (e *CheckError) Error() string   { return e.Message }
func (e *CheckError) Kind() ErrorKind { return KindConfiguration }

// Check returns nil when ok holds. Otherwise it formats the diagnostic by
// calling message, which is never invoked on the success path.
func Check(ok bool, message func() string) error {
	if ok {
		return nil
	}
	return &CheckError{Message: message()}
}

// CircularDependencyError represents a dependency cycle reaching the engine.
type CircularDependencyError struct {
	Type  string
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("circular dependency detected for type: %s", e.Type)
	}
	return fmt.Sprintf("circular dependency detected for type: %s (%s -> %s)",
		e.Type, strings.Join(e.Chain, " -> "), e.Type)
}

func (e *CircularDependencyError) Kind() ErrorKind { return KindConfiguration }

// BindingNotFoundError represents a lookup of a type that was never bound.
type BindingNotFoundError struct {
	Type string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("no binding found for type: %s", e.Type)
}

func (e *BindingNotFoundError) Kind() ErrorKind { return KindConfiguration }

// DuplicateBindingError represents a second single binding for one type.
type DuplicateBindingError struct {
	Type string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("type already bound: %s", e.Type)
}

func (e *DuplicateBindingError) Kind() ErrorKind { return KindConfiguration }

// NilServiceError represents an attempt to bind a nil instance.
type NilServiceError struct {
	Type string
}

func (e *NilServiceError) Error() string {
	return fmt.Sprintf("nil service provided for type: %s", e.Type)
}

func (e *NilServiceError) Kind() ErrorKind { return KindConfiguration }

// NilFactoryError represents an attempt to register a nil provider or
// factory.
type NilFactoryError struct {
	Type string
}

func (e *NilFactoryError) Error() string {
	return fmt.Sprintf("attempting to register nil as provider for type: %s", e.Type)
}

func (e *NilFactoryError) Kind() ErrorKind { return KindConfiguration }

// InitializationError represents a factory failure.
type InitializationError struct {
	Type string
	Err  error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed for type %s: %v", e.Type, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Kind reports the kind of the underlying cause when it has one, so a
// missing dependency deep in the graph stays a configuration error.
func (e *InitializationError) Kind() ErrorKind {
	if k := KindOf(e.Err); k != KindUnknown {
		return k
	}
	return KindConstruction
}

// TypeMismatchError represents a type assertion failure.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

func (e *TypeMismatchError) Kind() ErrorKind { return KindConfiguration }

// ShutdownError represents a destroyer failure.
type ShutdownError struct {
	Type string
	Err  error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown failed for type %s: %v", e.Type, e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}

func (e *ShutdownError) Kind() ErrorKind { return KindConstruction }

// ArenaExhaustedError represents an allocation past the arena capacity.
type ArenaExhaustedError struct {
	Requested uintptr
	Used      uintptr
	Capacity  uintptr
}

func (e *ArenaExhaustedError) Error() string {
	return fmt.Sprintf("arena exhausted: requested %d bytes with %d of %d used",
		e.Requested, e.Used, e.Capacity)
}

func (e *ArenaExhaustedError) Kind() ErrorKind { return KindResourceExhaustion }

// AssistedArgumentError represents an assisted factory called with the
// wrong number of runtime arguments.
type AssistedArgumentError struct {
	Factory string
	Want    int
	Got     int
}

func (e *AssistedArgumentError) Error() string {
	return fmt.Sprintf("assisted factory %s takes %d arguments, got %d", e.Factory, e.Want, e.Got)
}

func (e *AssistedArgumentError) Kind() ErrorKind { return KindConfiguration }
