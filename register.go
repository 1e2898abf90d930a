package digo

import (
	"context"
	"fmt"
	"reflect"
)

// RegisterConstructor binds C to the value returned by ctor. The value is
// stored in the container's arena and is owned by the container: it is
// released at Shutdown (OnShutdown or Close on *C first, then on C).
//
// ctor resolves its own dependencies through the container it receives.
func RegisterConstructor[C any](c *Container, ctor func(*Container) (C, error)) error {
	id := TypeOf[C]()
	if ctor == nil {
		return &NilFactoryError{Type: id.Name()}
	}
	if err := c.createBinding(id, constructInArena[C], ctor, destroyArenaValue[C], OwnedByArena); err != nil {
		return err
	}
	c.reserve(id, Footprint[C]())
	return nil
}

// RegisterProvider binds C to the pointer returned by provider. The
// container takes ownership of the pointer and releases it at Shutdown.
func RegisterProvider[C any](c *Container, provider func(*Container) (*C, error)) error {
	id := TypeOf[C]()
	if provider == nil {
		return &NilFactoryError{Type: id.Name()}
	}
	return c.createBinding(id, provideOwned[C], provider, destroyOwned[C], OwnedByContainer)
}

// BindInstance binds C to an instance owned by the caller. Resolving C
// returns instance itself; the container never destroys it.
func BindInstance[C any](c *Container, instance *C) error {
	id := TypeOf[C]()
	if instance == nil {
		return &NilServiceError{Type: id.Name()}
	}
	return c.createBindingInstance(id, instance)
}

// Bind resolves the interface I through the binding of C. *C (or C) must
// implement I. The binding does not own anything: the instance stays the
// one bound to C.
func Bind[I, C any](c *Container) error {
	id := TypeOf[I]()
	if err := checkImplements(id, TypeOf[C]()); err != nil {
		return err
	}
	return c.createBinding(id, upcast[I, C], nil, nil, Alias)
}

// AddMultibinding adds the instance bound to C to the multibinding of I.
func AddMultibinding[I, C any](c *Container) error {
	id := MultibindingTypeOf[I]()
	if err := checkImplements(TypeOf[I](), TypeOf[C]()); err != nil {
		return err
	}
	return c.createMultibinding(id, upcast[I, C], nil, nil, Alias, materializeSet[I])
}

// AddInstanceMultibinding adds a caller-owned instance to the multibinding
// of C.
func AddInstanceMultibinding[C any](c *Container, instance *C) error {
	id := MultibindingTypeOf[C]()
	if instance == nil {
		return &NilServiceError{Type: id.Name()}
	}
	return c.createMultibindingInstance(id, instance, materializeSet[C])
}

// RegisterMultibindingProvider adds the pointer returned by provider to
// the multibinding of C. The container owns it.
func RegisterMultibindingProvider[C any](c *Container, provider func(*Container) (*C, error)) error {
	id := MultibindingTypeOf[C]()
	if provider == nil {
		return &NilFactoryError{Type: id.Name()}
	}
	return c.createMultibinding(id, provideOwned[C], provider, destroyOwned[C], OwnedByContainer, materializeSet[C])
}

// RegisterMultibindingConstructor adds the value returned by ctor to the
// multibinding of C. The value lives in the arena.
func RegisterMultibindingConstructor[C any](c *Container, ctor func(*Container) (C, error)) error {
	id := MultibindingTypeOf[C]()
	if ctor == nil {
		return &NilFactoryError{Type: id.Name()}
	}
	if err := c.createMultibinding(id, constructInArena[C], ctor, destroyArenaValue[C], OwnedByArena, materializeSet[C]); err != nil {
		return err
	}
	// Slabs are keyed by the value type.
	c.reserve(TypeOf[C](), Footprint[C]())
	return nil
}

// AddMultibindingProvider adds the pointer returned by provider to the
// multibinding of the interface I. The container owns the *C; *C must
// implement I.
func AddMultibindingProvider[I, C any](c *Container, provider func(*Container) (*C, error)) error {
	id := MultibindingTypeOf[I]()
	if provider == nil {
		return &NilFactoryError{Type: id.Name()}
	}
	if err := checkImplements(TypeOf[I](), TypeOf[C]()); err != nil {
		return err
	}
	return c.createMultibinding(id, provideAs[I, C], provider, destroyOwned[I], OwnedByContainer, materializeSet[I])
}

func constructInArena[C any](c *Container, arg any) (any, error) {
	ctor := arg.(func(*Container) (C, error))
	v, err := ctor(c)
	if err != nil {
		return nil, err
	}
	p, _, err := Construct(c.arena, v)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func destroyArenaValue[C any](ctx context.Context, instance any) error {
	p := instance.(*C)
	err := release(ctx, p)
	var zero C
	*p = zero
	return err
}

func provideOwned[C any](c *Container, arg any) (any, error) {
	provider := arg.(func(*Container) (*C, error))
	p, err := provider(c)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("provider returned a nil %s", TypeOf[*C]().Name())
	}
	return p, nil
}

// provideAs builds the *I view of a provided *C. The view holds the *C
// itself, so release reaches its shutdown hook.
func provideAs[I, C any](c *Container, arg any) (any, error) {
	p, err := provideOwned[C](c, arg)
	if err != nil {
		return nil, err
	}
	iv, ok := p.(I)
	if !ok {
		return nil, &TypeMismatchError{Expected: TypeOf[I]().Name(), Got: TypeOf[*C]().Name()}
	}
	view := new(I)
	*view = iv
	return view, nil
}

func destroyOwned[C any](ctx context.Context, instance any) error {
	return release(ctx, instance.(*C))
}

// upcast builds the *I view of the instance bound to C.
func upcast[I, C any](c *Container, _ any) (any, error) {
	cp, err := GetPtr[C](c)
	if err != nil {
		return nil, err
	}
	iv, ok := any(cp).(I)
	if !ok {
		if iv, ok = any(*cp).(I); !ok {
			return nil, &TypeMismatchError{Expected: TypeOf[I]().Name(), Got: TypeOf[*C]().Name()}
		}
	}
	view := new(I)
	*view = iv
	return view, nil
}

func checkImplements(iface, concrete TypeID) error {
	if iface.typ.Kind() != reflect.Interface {
		return Check(iface.typ == concrete.typ || iface.typ == reflect.PointerTo(concrete.typ), func() string {
			return fmt.Sprintf("cannot bind %s to %s: not an interface", iface.Name(), concrete.Name())
		})
	}
	if reflect.PointerTo(concrete.typ).Implements(iface.typ) {
		return nil
	}
	return &TypeMismatchError{Expected: iface.Name(), Got: "*" + concrete.Name()}
}
