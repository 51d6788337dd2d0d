// Package onefile provides managed, typed access to a single file on
// disk, keeping an in-memory decoded value synchronized with persistent
// storage.
//
// A Container pairs a value of type T with a Manager that composes three
// independent choices: how the bytes are interpreted (a format.Format
// adapter), how the file is locked for the manager's lifetime (a
// lock.Strategy), and which operations are allowed and how writes reach
// the disk (a Mode). Shared and Async wrap a Container for multi-handle
// use from goroutines, the latter with context-aware locking and disk
// I/O offloaded to a worker.
package onefile

import (
	"github.com/mivra/onefile/format"
	"github.com/mivra/onefile/lock"
)

// Container pairs an in-memory value with the manager for its file.
//
// Immediately after Open, the CreateOr family, Refresh, Commit and
// Overwrite, the in-memory value and the on-disk contents are equal
// under the format's round trip. Between those calls the value may
// freely diverge: mutating through Value does not persist anything
// until Commit.
type Container[T any] struct {
	value   T
	manager *Manager[T]
}

// NewContainer wraps an already-opened manager and value directly.
func NewContainer[T any](value T, manager *Manager[T]) *Container[T] {
	return &Container[T]{value: value, manager: manager}
}

// Open opens an existing file and decodes its contents into memory.
func Open[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy) (*Container[T], error) {
	manager, err := OpenManager(path, f, mode, ls)
	if err != nil {
		return nil, err
	}
	value, err := manager.Read()
	if err != nil {
		manager.Close() //nolint:errcheck
		return nil, err
	}
	return &Container[T]{value: value, manager: manager}, nil
}

// CreateOverwrite creates or truncates the file, writes value, and opens
// a container over it.
func CreateOverwrite[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (*Container[T], error) {
	value, manager, err := CreateOverwriteManager(path, f, mode, ls, value)
	if err != nil {
		return nil, err
	}
	return &Container[T]{value: value, manager: manager}, nil
}

// CreateOr decodes the file if it exists (discarding value), otherwise
// creates it holding value. See CreateOrManager for the cross-process
// race caveat under the None lock strategy.
func CreateOr[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (*Container[T], error) {
	value, manager, err := CreateOrManager(path, f, mode, ls, value)
	if err != nil {
		return nil, err
	}
	return &Container[T]{value: value, manager: manager}, nil
}

// CreateOrElse behaves like CreateOr, computing the initial value only
// when the file has to be created.
func CreateOrElse[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, init func() T) (*Container[T], error) {
	value, manager, err := CreateOrElseManager(path, f, mode, ls, init)
	if err != nil {
		return nil, err
	}
	return &Container[T]{value: value, manager: manager}, nil
}

// CreateOrDefault behaves like CreateOr with the zero value of T.
func CreateOrDefault[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy) (*Container[T], error) {
	value, manager, err := CreateOrDefaultManager(path, f, mode, ls)
	if err != nil {
		return nil, err
	}
	return &Container[T]{value: value, manager: manager}, nil
}

// Value returns a pointer to the contained value. Mutations through it
// stay in memory until Commit.
func (c *Container[T]) Value() *T {
	return &c.value
}

// Manager returns the underlying file manager. Manipulating it while
// the container is alive is rarely a good idea.
func (c *Container[T]) Manager() *Manager[T] {
	return c.manager
}

// Refresh reads a fresh value from disk, swaps it into the container and
// returns the previous in-memory value. On failure the in-memory value
// is untouched.
func (c *Container[T]) Refresh() (T, error) {
	value, err := c.manager.Read()
	if err != nil {
		var zero T
		return zero, err
	}
	previous := c.value
	c.value = value
	return previous, nil
}

// Commit writes the current in-memory value to disk. On failure the
// in-memory value is untouched; the on-disk state follows the mode's
// partial-failure semantics.
func (c *Container[T]) Commit() error {
	return c.manager.Write(c.value)
}

// Overwrite replaces the in-memory value, then commits. Unlike Commit,
// a failed write still leaves the new value in memory.
func (c *Container[T]) Overwrite(value T) error {
	c.value = value
	return c.manager.Write(c.value)
}

// Close releases the lock, closes the file and returns the contained
// value.
func (c *Container[T]) Close() (T, error) {
	if err := c.manager.Close(); err != nil {
		var zero T
		return zero, err
	}
	return c.value, nil
}
