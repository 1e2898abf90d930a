package digo_test

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/centraunit/digo"
	"github.com/centraunit/digo/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustGetExitsOnMissingBinding(t *testing.T) {
	if os.Getenv("DIGO_DEATH_TEST") == "1" {
		c := digo.New()
		digo.MustGet[mock.Unregistered](c)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestMustGetExitsOnMissingBinding$")
	cmd.Env = append(os.Environ(), "DIGO_DEATH_TEST=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "process should exit abnormally, got %v: %s", err, out)
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.Contains(t, string(out), "mock.Unregistered")
	assert.Contains(t, string(out), "unrecoverable container error")
}

func TestCheckFormatsLazily(t *testing.T) {
	formatted := false
	msg := func() string {
		formatted = true
		return "slot 3 is not declared"
	}

	assert.NoError(t, digo.Check(true, msg))
	assert.False(t, formatted)

	err := digo.Check(false, msg)
	assert.True(t, formatted)
	assert.EqualError(t, err, "slot 3 is not declared")
	assert.Equal(t, digo.KindConfiguration, digo.KindOf(err))
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err   error
		kind  digo.ErrorKind
		fatal bool
	}{
		{&digo.BindingNotFoundError{Type: "x"}, digo.KindConfiguration, true},
		{&digo.ArenaExhaustedError{Requested: 8}, digo.KindResourceExhaustion, true},
		{&digo.InitializationError{Type: "x", Err: mock.ErrBoom}, digo.KindConstruction, false},
		{&digo.InitializationError{Type: "x", Err: &digo.BindingNotFoundError{Type: "y"}}, digo.KindConfiguration, true},
		{fmt.Errorf("wrapped: %w", digo.ErrClosed), digo.KindConfiguration, true},
		{mock.ErrBoom, digo.KindUnknown, false},
		{nil, digo.KindUnknown, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, digo.KindOf(tc.err), "%v", tc.err)
		assert.Equal(t, tc.fatal, digo.IsFatal(tc.err), "%v", tc.err)
	}
	assert.Equal(t, "resource-exhaustion", digo.KindResourceExhaustion.String())
}
