package digo_test

import (
	"testing"

	"github.com/centraunit/digo"
	"github.com/centraunit/digo/mock"
	"github.com/stretchr/testify/assert"
)

func TestTypeIDIdentity(t *testing.T) {
	assert.Equal(t, digo.TypeOf[mock.Settings](), digo.TypeOf[mock.Settings]())
	assert.NotEqual(t, digo.TypeOf[mock.Settings](), digo.TypeOf[*mock.Settings]())
	assert.NotEqual(t, digo.TypeOf[mock.Plugin](), digo.MultibindingTypeOf[mock.Plugin]())
	assert.True(t, digo.MultibindingTypeOf[mock.Plugin]().Multi())
	assert.True(t, digo.TypeID{}.IsZero())
}

func TestTypeIDName(t *testing.T) {
	assert.Equal(t, "mock.Settings", digo.TypeOf[mock.Settings]().Name())
	assert.Equal(t, "*mock.MockDB", digo.TypeOf[*mock.MockDB]().Name())
	assert.Equal(t, "multibinding[mock.Plugin]", digo.MultibindingTypeOf[mock.Plugin]().String())
	assert.Equal(t, "<nil>", digo.TypeID{}.Name())
}

func TestFootprint(t *testing.T) {
	assert.Equal(t, uintptr(8), digo.SizeOf[int64]())
	assert.Equal(t, uintptr(8), digo.AlignOf[int64]())
	assert.Equal(t, uintptr(15), digo.Footprint[int64]())
	assert.Equal(t, uintptr(1), digo.Footprint[byte]())
}
