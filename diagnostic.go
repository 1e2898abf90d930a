package digo

import "os"

// exit is replaced in tests.
var exit = os.Exit

// Fatal logs err through c's logger and terminates the process with
// status 2. It is meant for the outermost caller: the rest of the package
// returns errors.
func Fatal(c *Container, err error) {
	c.log.Error(err, "unrecoverable container error", "kind", KindOf(err).String())
	exit(2)
}

// MustGet is Get for callers that treat a failed resolution as fatal.
func MustGet[T any](c *Container) T {
	v, err := Get[T](c)
	if err != nil {
		Fatal(c, err)
	}
	return v
}

// MustGetPtr is GetPtr for callers that treat a failed resolution as
// fatal.
func MustGetPtr[T any](c *Container) *T {
	p, err := GetPtr[T](c)
	if err != nil {
		Fatal(c, err)
	}
	return p
}
