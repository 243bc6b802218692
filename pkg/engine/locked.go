package engine

import "sync"

// Locked serializes access to an engine shared between goroutines, such as
// an HTTP server and an autosave ticker. Every exported operation is a
// single critical section, so readers like the autosaver always observe a
// settled diagram.
type Locked struct {
	mu sync.Mutex
	e  *Engine
}

// NewLocked wraps e. The caller must not use e directly afterwards.
func NewLocked(e *Engine) *Locked { return &Locked{e: e} }

// Do runs fn with exclusive access to the engine.
func (l *Locked) Do(fn func(e *Engine)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.e)
}

// DoErr is Do for functions that can fail.
func (l *Locked) DoErr(fn func(e *Engine) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.e)
}

// Dispatch runs one operation under the lock.
func (l *Locked) Dispatch(op Op) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Dispatch(op)
}
