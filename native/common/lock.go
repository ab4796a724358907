package common

import (
	"errors"
	"sync"
)

// ErrReentrantCall is returned when a state-mutating entry point is invoked
// while an earlier invocation on the same lock has not finished. External
// collaborator calls are potential re-entry points, so every mutating entry
// point takes the lock for its full duration.
var ErrReentrantCall = errors.New("reentrant call")

// Lock is a non-blocking reentrancy flag. Unlike a mutex it fails fast rather
// than queueing, matching revert-on-reentry semantics.
type Lock struct {
	mu   sync.Mutex
	busy bool
}

// Enter acquires the lock or reports ErrReentrantCall if it is already held.
func (l *Lock) Enter() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrReentrantCall
	}
	l.busy = true
	return nil
}

// Exit releases the lock. Calling Exit on an unheld lock is a no-op.
func (l *Lock) Exit() {
	l.mu.Lock()
	l.busy = false
	l.mu.Unlock()
}
