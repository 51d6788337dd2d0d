// Package lock provides advisory file lock strategies for file managers.
//
// Acquisition is always non-blocking: if another process (or another open
// handle in the same process) holds a conflicting lock, Lock returns
// ErrContention immediately instead of waiting. Callers that want to retry
// implement their own backoff around errors.Is(err, ErrContention).
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrContention is returned when a non-blocking lock attempt finds the file
// already locked elsewhere.
var ErrContention = errors.New("file already locked")

// Strategy decides how a file manager locks its file for the duration of
// the manager's lifetime. The flock handle is owned by the manager and is
// distinct from the fd used for I/O; flock(2) locks conflict per open file
// description, so two managers in one process still exclude each other.
type Strategy interface {
	// Lock acquires the advisory lock without blocking.
	Lock(fl *flock.Flock) error
	// Unlock releases the advisory lock. Safe to call after a no-op Lock.
	Unlock(fl *flock.Flock) error
}

// compile-time interface checks.
var (
	_ Strategy = None{}
	_ Strategy = Shared{}
	_ Strategy = Exclusive{}
)

// None applies no lock. Concurrent external processes can corrupt the file;
// callers accept that tradeoff when they don't need cross-process safety.
type None struct{}

func (None) Lock(*flock.Flock) error   { return nil }
func (None) Unlock(*flock.Flock) error { return nil }

// Shared acquires a shared (read) advisory lock. Multiple shared holders
// coexist; an exclusive holder elsewhere causes ErrContention.
type Shared struct{}

func (Shared) Lock(fl *flock.Flock) error {
	return acquire(fl, fl.TryRLock)
}

func (Shared) Unlock(fl *flock.Flock) error {
	return release(fl)
}

// Exclusive acquires an exclusive (write) advisory lock. Any other holder,
// shared or exclusive, causes ErrContention.
type Exclusive struct{}

func (Exclusive) Lock(fl *flock.Flock) error {
	return acquire(fl, fl.TryLock)
}

func (Exclusive) Unlock(fl *flock.Flock) error {
	return release(fl)
}

func acquire(fl *flock.Flock, try func() (bool, error)) error {
	locked, err := try()
	if err != nil {
		return fmt.Errorf("acquire flock %s: %w", fl.Path(), err)
	}
	if !locked {
		return fmt.Errorf("acquire flock %s: %w", fl.Path(), ErrContention)
	}
	return nil
}

func release(fl *flock.Flock) error {
	if fl == nil || (!fl.Locked() && !fl.RLocked()) {
		return nil
	}
	if err := fl.Unlock(); err != nil {
		return fmt.Errorf("release flock %s: %w", fl.Path(), err)
	}
	return nil
}
