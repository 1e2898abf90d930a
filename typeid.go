package digo

import (
	"reflect"
	"sync"
	"unsafe"
)

// TypeID is the identity token every registry mapping is keyed by.
// Two TypeIDs are equal only when they name the same Go type and the same
// binding kind, so T and "multibinding collection of T" never collide.
type TypeID struct {
	typ   reflect.Type
	multi bool
}

var typeStringCache sync.Map

// TypeOf returns the token for single bindings of T.
func TypeOf[T any]() TypeID {
	return TypeID{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// MultibindingTypeOf returns the token for the multibinding collection of T.
func MultibindingTypeOf[T any]() TypeID {
	return TypeID{typ: reflect.TypeOf((*T)(nil)).Elem(), multi: true}
}

// Multi reports whether id names a multibinding collection.
func (id TypeID) Multi() bool { return id.multi }

// IsZero reports whether id is the zero token.
func (id TypeID) IsZero() bool { return id.typ == nil }

// Name returns a human readable name for diagnostics.
func (id TypeID) Name() string {
	if id.typ == nil {
		return "<nil>"
	}
	name := typeName(id.typ)
	if id.multi {
		return "multibinding[" + name + "]"
	}
	return name
}

func (id TypeID) String() string { return id.Name() }

func (id TypeID) isInterface() bool {
	return id.typ != nil && id.typ.Kind() == reflect.Interface
}

func (id TypeID) nillable() bool {
	if id.typ == nil {
		return false
	}
	switch id.typ.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func typeName(t reflect.Type) string {
	if cached, ok := typeStringCache.Load(t); ok {
		return cached.(string)
	}
	name := t.String()
	typeStringCache.Store(t, name)
	return name
}

// SizeOf returns the number of bytes a T occupies in the arena.
func SizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// AlignOf returns the alignment the arena honours for T.
func AlignOf[T any]() uintptr {
	var zero T
	return unsafe.Alignof(zero)
}

// Footprint is the worst-case number of arena bytes one T consumes,
// padding included.
func Footprint[T any]() uintptr {
	return SizeOf[T]() + AlignOf[T]() - 1
}
