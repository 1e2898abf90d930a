package digo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultibindingConstructorsShareOneChunk(t *testing.T) {
	c := New(WithLogger(funcr.New(func(string, string) {}, funcr.Options{})))
	for i := range 3 {
		require.NoError(t, RegisterMultibindingConstructor(c, func(*Container) (int64, error) {
			return int64(i), nil
		}))
	}
	set, err := GetMultibindings[int64](c)
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	s, ok := c.arena.slabs[TypeOf[int64]()].(*slab[int64])
	require.True(t, ok)
	assert.Len(t, s.chunks, 1, "reservations size the first chunk for every entry")
	assert.Equal(t, 3, cap(s.chunks[0]))
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestNewLogsOptionErrors(t *testing.T) {
	var logged []string
	logger := funcr.New(func(prefix, args string) {
		logged = append(logged, args)
	}, funcr.Options{})

	c := New(WithLogger(logger), func(s *settings) {
		s.errs = append(s.errs, errors.New("bad capacity"))
	}, WithName("svc"))

	assert.Equal(t, "svc", c.Name())
	require.Len(t, logged, 1)
	assert.True(t, strings.Contains(logged[0], "ignoring invalid options"), logged[0])
	assert.True(t, strings.Contains(logged[0], "bad capacity"), logged[0])
}
