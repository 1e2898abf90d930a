package digo

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// goid returns the current goroutine ID.
// It is only consulted on the construction slow path.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(idField, 10, 64)
	return id
}

// constructionLock serializes first-time construction across goroutines
// while letting the goroutine that holds it re-enter, which is what a
// factory does when it resolves its own dependencies.
type constructionLock struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth int
}

func (l *constructionLock) Lock() {
	id := goid()
	if l.owner.Load() == id {
		l.depth++
		return
	}
	l.mu.Lock()
	l.owner.Store(id)
	l.depth = 1
}

func (l *constructionLock) Unlock() {
	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.mu.Unlock()
	}
}
