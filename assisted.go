package digo

import (
	"fmt"
	"reflect"
	"strings"
)

type paramKind int

const (
	injected paramKind = iota
	assisted
)

// Param is one slot of an assisted factory signature.
type Param struct {
	kind    paramKind
	id      TypeID
	resolve func(c *Container) (any, error)
}

// Inject marks a slot filled with a copy of the instance bound to T.
func Inject[T any]() Param {
	return Param{kind: injected, id: TypeOf[T](), resolve: func(c *Container) (any, error) {
		return Get[T](c)
	}}
}

// InjectPtr marks a slot filled with the *T bound in the container.
func InjectPtr[T any]() Param {
	return Param{kind: injected, id: TypeOf[T](), resolve: func(c *Container) (any, error) {
		return GetPtr[T](c)
	}}
}

// InjectProvider marks a slot filled with a Provider[T]. Nothing is
// resolved until the provider is used.
func InjectProvider[T any]() Param {
	return Param{kind: injected, id: TypeOf[T](), resolve: func(c *Container) (any, error) {
		return GetProvider[T](c), nil
	}}
}

// InjectMultibindings marks a slot filled with the *Set[T] of T's
// multibindings.
func InjectMultibindings[T any]() Param {
	return Param{kind: injected, id: MultibindingTypeOf[T](), resolve: func(c *Container) (any, error) {
		return GetMultibindings[T](c)
	}}
}

// Assisted marks a slot the caller supplies when invoking the factory.
func Assisted[T any]() Param {
	return Param{kind: assisted, id: TypeOf[T]()}
}

// accepts reports whether v may fill an assisted slot of p's type.
func (p Param) accepts(v any) bool {
	if v == nil {
		return p.id.nillable()
	}
	t := reflect.TypeOf(v)
	if p.id.isInterface() {
		return t.Implements(p.id.typ)
	}
	return t == p.id.typ
}

// Signature is the ordered list of slots of an assisted factory.
type Signature struct {
	params        []Param
	assistedIndex []int
	numAssisted   int
}

// Annotate builds a Signature. assistedIndex[i] is the number of assisted
// slots before slot i, so the runtime argument for an assisted slot is
// args[assistedIndex[i]].
func Annotate(params ...Param) Signature {
	sig := Signature{
		params:        params,
		assistedIndex: make([]int, len(params)),
	}
	for i, p := range params {
		sig.assistedIndex[i] = sig.numAssisted
		if p.kind == assisted {
			sig.numAssisted++
		}
	}
	return sig
}

// Len returns the number of slots.
func (s Signature) Len() int { return len(s.params) }

// NumAssisted returns the number of caller-supplied slots.
func (s Signature) NumAssisted() int { return s.numAssisted }

// AssistedIndex returns the number of assisted slots before slot i.
func (s Signature) AssistedIndex(i int) int { return s.assistedIndex[i] }

func (s Signature) String() string {
	parts := make([]string, len(s.params))
	for i, p := range s.params {
		if p.kind == assisted {
			parts[i] = "assisted " + p.id.Name()
		} else {
			parts[i] = p.id.Name()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (s Signature) validate() error {
	for i, p := range s.params {
		if err := Check(!p.id.IsZero() && (p.kind == assisted || p.resolve != nil), func() string {
			return fmt.Sprintf("signature slot %d is not declared with Inject or Assisted", i)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Factory produces a new R from the caller's assisted arguments, given in
// the order their slots appear in the signature.
type Factory[R any] func(args ...any) (R, error)

// bindAssisted returns the Factory that fills sig from c and args and
// passes every slot, in declared order, to raw.
func bindAssisted[R any](c *Container, sig Signature, raw func(args []any) (R, error)) Factory[R] {
	name := TypeOf[R]().Name() + sig.String()
	return func(args ...any) (R, error) {
		var zero R
		if len(args) != sig.numAssisted {
			return zero, &AssistedArgumentError{Factory: name, Want: sig.numAssisted, Got: len(args)}
		}
		full := make([]any, len(sig.params))
		for i, p := range sig.params {
			if p.kind == assisted {
				v := args[sig.assistedIndex[i]]
				if !p.accepts(v) {
					return zero, &TypeMismatchError{Expected: p.id.Name(), Got: fmt.Sprintf("%T", v)}
				}
				full[i] = v
				continue
			}
			v, err := p.resolve(c)
			if err != nil {
				return zero, err
			}
			full[i] = v
		}
		return raw(full)
	}
}

// RegisterFactory binds Factory[R]. Each call of the factory resolves the
// injected slots, takes the assisted ones from its arguments and returns
// whatever raw returns.
func RegisterFactory[R any](c *Container, sig Signature, raw func(args []any) (R, error)) error {
	id := TypeOf[Factory[R]]()
	if raw == nil {
		return &NilFactoryError{Type: id.Name()}
	}
	if err := sig.validate(); err != nil {
		return err
	}
	return RegisterProvider(c, func(c *Container) (*Factory[R], error) {
		f := bindAssisted(c, sig, raw)
		return &f, nil
	})
}

// RegisterPointerFactory binds Factory[*C]. Every call returns a new *C
// owned by the caller.
func RegisterPointerFactory[C any](c *Container, sig Signature, raw func(args []any) (*C, error)) error {
	if raw == nil {
		return &NilFactoryError{Type: TypeOf[Factory[*C]]().Name()}
	}
	return RegisterFactory(c, sig, func(args []any) (*C, error) {
		p, err := raw(args)
		if err == nil && p == nil {
			err = fmt.Errorf("factory returned a nil %s", TypeOf[*C]().Name())
		}
		return p, err
	})
}

// Arg returns slot i of a raw factory's arguments as a T. Injected slots
// hold what their Param resolved: T for Inject, *T for InjectPtr,
// Provider[T] for InjectProvider and *Set[T] for InjectMultibindings.
// A slot that does not hold a T yields a *TypeMismatchError; a nil
// assisted argument is the zero T when T is nillable.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if err := Check(i >= 0 && i < len(args), func() string {
		return fmt.Sprintf("argument %d out of range for %d slots", i, len(args))
	}); err != nil {
		return zero, err
	}
	if args[i] == nil && TypeOf[T]().nillable() {
		return zero, nil
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: TypeOf[T]().Name(), Got: fmt.Sprintf("%T", args[i])}
	}
	return v, nil
}
