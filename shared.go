package onefile

import (
	"sync"
	"sync/atomic"

	"github.com/mivra/onefile/format"
	"github.com/mivra/onefile/lock"
)

// Shared is a clonable handle to a container guarded by a read-write
// lock. All clones observe the same container; cloning copies a pointer,
// never file state. At most one writer or many readers touch the inner
// container at a time, and since the file handle lives inside the lock,
// every manager-level read and write is serialized across handles.
type Shared[T any] struct {
	state *sharedState[T]
}

type sharedState[T any] struct {
	mu        sync.RWMutex
	container *Container[T]
	handles   atomic.Int64
}

// NewShared wraps an owned container into a shared handle.
func NewShared[T any](container *Container[T]) *Shared[T] {
	state := &sharedState[T]{container: container}
	state.handles.Store(1)
	return &Shared[T]{state: state}
}

// OpenShared opens an existing file as a shared container.
func OpenShared[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy) (*Shared[T], error) {
	container, err := Open(path, f, mode, ls)
	if err != nil {
		return nil, err
	}
	return NewShared(container), nil
}

// CreateOverwriteShared creates or truncates the file, writes value, and
// opens a shared container over it.
func CreateOverwriteShared[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (*Shared[T], error) {
	container, err := CreateOverwrite(path, f, mode, ls, value)
	if err != nil {
		return nil, err
	}
	return NewShared(container), nil
}

// CreateOrShared decodes the file if it exists, otherwise creates it
// holding value, and opens a shared container over it.
func CreateOrShared[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (*Shared[T], error) {
	container, err := CreateOr(path, f, mode, ls, value)
	if err != nil {
		return nil, err
	}
	return NewShared(container), nil
}

// CreateOrElseShared behaves like CreateOrShared with a lazily computed
// initial value.
func CreateOrElseShared[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, init func() T) (*Shared[T], error) {
	container, err := CreateOrElse(path, f, mode, ls, init)
	if err != nil {
		return nil, err
	}
	return NewShared(container), nil
}

// CreateOrDefaultShared behaves like CreateOrShared with the zero value
// of T.
func CreateOrDefaultShared[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy) (*Shared[T], error) {
	container, err := CreateOrDefault(path, f, mode, ls)
	if err != nil {
		return nil, err
	}
	return NewShared(container), nil
}

// Clone returns a new handle to the same container. Handles must be
// created through Clone (not by copying the struct) for TryUnwrap to
// count them.
func (s *Shared[T]) Clone() *Shared[T] {
	s.state.handles.Add(1)
	return &Shared[T]{state: s.state}
}

// Release drops this handle from the count, allowing a later TryUnwrap
// by the remaining holder to succeed. Releasing the last handle closes
// the container; close errors on this path are discarded, the OS
// reclaims the lock either way. Prefer TryUnwrap plus Container.Close
// when the error matters. The handle must not be used afterwards.
func (s *Shared[T]) Release() {
	if s.state.handles.Add(-1) > 0 {
		return
	}
	s.state.container.Close() //nolint:errcheck
}

// TryUnwrap reclaims the owned container if this is the last handle
// (clones count until they are Released). It never blocks and never
// copies file state; on success the handle must not be used again.
func (s *Shared[T]) TryUnwrap() (*Container[T], bool) {
	if !s.state.handles.CompareAndSwap(1, 0) {
		return nil, false
	}
	return s.state.container, true
}

// Access acquires a read guard, blocking until no writer holds the lock.
func (s *Shared[T]) Access() *Guard[T] {
	s.state.mu.RLock()
	return &Guard[T]{state: s.state}
}

// AccessMut acquires a write guard, blocking until the lock is free.
func (s *Shared[T]) AccessMut() *GuardMut[T] {
	s.state.mu.Lock()
	return &GuardMut[T]{state: s.state}
}

// TryAccess acquires a read guard without blocking, reporting false on
// contention.
func (s *Shared[T]) TryAccess() (*Guard[T], bool) {
	if !s.state.mu.TryRLock() {
		return nil, false
	}
	return &Guard[T]{state: s.state}, true
}

// TryAccessMut acquires a write guard without blocking, reporting false
// on contention.
func (s *Shared[T]) TryAccessMut() (*GuardMut[T], bool) {
	if !s.state.mu.TryLock() {
		return nil, false
	}
	return &GuardMut[T]{state: s.state}, true
}

// Operate grants read access to the value for exactly the duration of
// fn. The closure must not mutate through the pointer.
func (s *Shared[T]) Operate(fn func(value *T)) {
	g := s.Access()
	defer g.Release()
	fn(g.Value())
}

// OperateMut grants write access to the value for exactly the duration
// of fn. Changes stay in memory; pair with Commit or use
// OperateMutCommit to persist.
func (s *Shared[T]) OperateMut(fn func(value *T)) {
	g := s.AccessMut()
	defer g.Release()
	fn(g.Value())
}

// OperateRefresh refreshes from disk under the write lock, then invokes
// fn with the new value and the previous one. The write lock is held
// through fn, so no writer can interleave between the refresh and the
// closure's observation.
func (s *Shared[T]) OperateRefresh(fn func(value *T, previous T)) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	previous, err := s.state.container.Refresh()
	if err != nil {
		return err
	}
	fn(s.state.container.Value(), previous)
	return nil
}

// OperateMutCommit grants write access for the duration of fn and
// commits to disk only if fn returned nil. A non-nil error from fn is
// returned verbatim and skips the commit entirely; any mutation fn
// already applied is not rolled back, so closures should either fail
// before mutating or restore consistency themselves.
func (s *Shared[T]) OperateMutCommit(fn func(value *T) error) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if err := fn(s.state.container.Value()); err != nil {
		return err
	}
	return s.state.container.Commit()
}

// Refresh reads a fresh value from disk under the write lock, returning
// the previous in-memory value.
func (s *Shared[T]) Refresh() (T, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.container.Refresh()
}

// Commit writes the current in-memory value to disk under the write
// lock.
func (s *Shared[T]) Commit() error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.container.Commit()
}

// Overwrite replaces the in-memory value and commits, under the write
// lock.
func (s *Shared[T]) Overwrite(value T) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.container.Overwrite(value)
}

// Guard is a scoped read permit over the shared container.
type Guard[T any] struct {
	state    *sharedState[T]
	released bool
}

// Value returns the guarded value. The caller must not mutate through
// the pointer while holding only a read guard.
func (g *Guard[T]) Value() *T {
	return g.state.container.Value()
}

// Container returns the guarded container.
func (g *Guard[T]) Container() *Container[T] {
	return g.state.container
}

// Release gives the permit back. Further use of the guard is invalid.
func (g *Guard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.state.mu.RUnlock()
}

// GuardMut is a scoped write permit over the shared container.
type GuardMut[T any] struct {
	state    *sharedState[T]
	released bool
}

// Value returns the guarded value for reading or mutation.
func (g *GuardMut[T]) Value() *T {
	return g.state.container.Value()
}

// Container returns the guarded container, allowing Refresh, Commit and
// Overwrite while the permit is held.
func (g *GuardMut[T]) Container() *Container[T] {
	return g.state.container
}

// Release gives the permit back. Further use of the guard is invalid.
func (g *GuardMut[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.state.mu.Unlock()
}
