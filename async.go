package onefile

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/mivra/onefile/format"
	"github.com/mivra/onefile/lock"
)

// maxReaders bounds concurrent read guards on one async container. A
// writer acquires the full weight, excluding all readers. The semaphore
// is FIFO, so a waiting writer also holds back readers that arrive after
// it, which keeps writers from starving.
const maxReaders = 1 << 16

// Async is a clonable handle to a container whose guard acquisition
// suspends the calling goroutine with context cancellation instead of
// blocking uninterruptibly, and whose disk I/O runs on a dedicated
// worker goroutine rather than the caller.
//
// Cancelling a context after an operation has been handed to the worker
// abandons the result, but the in-flight disk operation still completes;
// the lock is released only once it has.
type Async[T any] struct {
	state *asyncState[T]
}

type asyncState[T any] struct {
	sem       *semaphore.Weighted
	container *Container[T]
	jobs      chan func()
	handles   atomic.Int64
}

// OpenAsync opens an existing file as an async shared container. The
// open itself runs on the worker.
func OpenAsync[T any](ctx context.Context, path string, f format.Format[T], mode Mode, ls lock.Strategy) (*Async[T], error) {
	return newAsync(ctx, func() (*Container[T], error) {
		return Open(path, f, mode, ls)
	})
}

// CreateOverwriteAsync creates or truncates the file, writes value, and
// opens an async shared container over it.
func CreateOverwriteAsync[T any](ctx context.Context, path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (*Async[T], error) {
	return newAsync(ctx, func() (*Container[T], error) {
		return CreateOverwrite(path, f, mode, ls, value)
	})
}

// CreateOrAsync decodes the file if it exists, otherwise creates it
// holding value, and opens an async shared container over it.
func CreateOrAsync[T any](ctx context.Context, path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (*Async[T], error) {
	return newAsync(ctx, func() (*Container[T], error) {
		return CreateOr(path, f, mode, ls, value)
	})
}

// CreateOrElseAsync behaves like CreateOrAsync with a lazily computed
// initial value.
func CreateOrElseAsync[T any](ctx context.Context, path string, f format.Format[T], mode Mode, ls lock.Strategy, init func() T) (*Async[T], error) {
	return newAsync(ctx, func() (*Container[T], error) {
		return CreateOrElse(path, f, mode, ls, init)
	})
}

// CreateOrDefaultAsync behaves like CreateOrAsync with the zero value
// of T.
func CreateOrDefaultAsync[T any](ctx context.Context, path string, f format.Format[T], mode Mode, ls lock.Strategy) (*Async[T], error) {
	return newAsync(ctx, func() (*Container[T], error) {
		return CreateOrDefault(path, f, mode, ls)
	})
}

// NewAsync wraps an owned container into an async shared handle,
// starting its I/O worker.
func NewAsync[T any](container *Container[T]) *Async[T] {
	state := newAsyncState[T]()
	state.container = container
	return &Async[T]{state: state}
}

// newAsync starts the worker and runs open on it. The open is awaited
// unconditionally once submitted, otherwise a cancelled constructor
// could leave a locked file behind with nobody owning it.
func newAsync[T any](ctx context.Context, open func() (*Container[T], error)) (*Async[T], error) {
	state := newAsyncState[T]()
	done := make(chan struct{})
	var container *Container[T]
	var err error
	select {
	case state.jobs <- func() { defer close(done); container, err = open() }:
	case <-ctx.Done():
		state.stop()
		return nil, ctx.Err()
	}
	<-done
	if err != nil {
		state.stop()
		return nil, err
	}
	state.container = container
	return &Async[T]{state: state}, nil
}

func newAsyncState[T any]() *asyncState[T] {
	state := &asyncState[T]{
		sem:  semaphore.NewWeighted(maxReaders),
		jobs: make(chan func()),
	}
	state.handles.Store(1)
	go state.worker()
	return state
}

func (st *asyncState[T]) worker() {
	for job := range st.jobs {
		job()
	}
}

func (st *asyncState[T]) stop() {
	close(st.jobs)
}

// dispatch runs job on the worker and waits for it. The caller must
// already hold weight on the semaphore and keeps holding it when
// dispatch returns nil. On cancellation the weight transfers to
// dispatch: released immediately if the job never reached the worker,
// otherwise only once the in-flight job finishes, so no guard can be
// granted while the worker is still touching the container.
func (st *asyncState[T]) dispatch(ctx context.Context, job func(), weight int64) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		job()
	}
	select {
	case st.jobs <- wrapped:
	case <-ctx.Done():
		st.sem.Release(weight)
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		go func() {
			<-done
			st.sem.Release(weight)
		}()
		return ctx.Err()
	}
}

// Clone returns a new handle to the same container. Handles must be
// created through Clone (not by copying the struct) for TryUnwrap to
// count them.
func (a *Async[T]) Clone() *Async[T] {
	a.state.handles.Add(1)
	return &Async[T]{state: a.state}
}

// Release drops this handle from the count, allowing a later TryUnwrap
// or Close by the remaining holder to succeed. Releasing the last
// handle closes the container on the worker and stops it; close errors
// on this path are discarded, the OS reclaims the lock either way.
// Prefer Close when the error matters. The handle must not be used
// afterwards.
func (a *Async[T]) Release() {
	if a.state.handles.Add(-1) > 0 {
		return
	}
	done := make(chan struct{})
	a.state.jobs <- func() {
		defer close(done)
		a.state.container.Close() //nolint:errcheck
	}
	<-done
	a.state.stop()
}

// TryUnwrap reclaims the owned container and stops the I/O worker if
// this is the last handle (clones count until they are Released). On
// success the async handle must not be used again; the returned
// container is the single-owner, blocking API.
func (a *Async[T]) TryUnwrap() (*Container[T], bool) {
	if !a.state.handles.CompareAndSwap(1, 0) {
		return nil, false
	}
	a.state.stop()
	return a.state.container, true
}

// Close releases the lock, closes the file on the worker, stops the
// worker and returns the contained value. It fails with ErrShared if
// other handles still exist. The close itself is always awaited, even
// past ctx cancellation, so the worker shuts down deterministically.
func (a *Async[T]) Close(ctx context.Context) (T, error) {
	var zero T
	if !a.state.handles.CompareAndSwap(1, 0) {
		return zero, ErrShared
	}
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		a.state.handles.Store(1)
		return zero, err
	}
	done := make(chan struct{})
	var value T
	var err error
	a.state.jobs <- func() {
		defer close(done)
		value, err = a.state.container.Close()
	}
	<-done
	a.state.stop()
	a.state.sem.Release(maxReaders)
	return value, err
}

// Access acquires a read guard, suspending until granted or ctx is
// cancelled.
func (a *Async[T]) Access(ctx context.Context) (*AsyncGuard[T], error) {
	if err := a.state.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &AsyncGuard[T]{state: a.state}, nil
}

// AccessMut acquires a write guard, suspending until granted or ctx is
// cancelled.
func (a *Async[T]) AccessMut(ctx context.Context) (*AsyncGuardMut[T], error) {
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		return nil, err
	}
	return &AsyncGuardMut[T]{state: a.state}, nil
}

// TryAccess acquires a read guard without suspending, reporting false on
// contention.
func (a *Async[T]) TryAccess() (*AsyncGuard[T], bool) {
	if !a.state.sem.TryAcquire(1) {
		return nil, false
	}
	return &AsyncGuard[T]{state: a.state}, true
}

// TryAccessMut acquires a write guard without suspending, reporting
// false on contention.
func (a *Async[T]) TryAccessMut() (*AsyncGuardMut[T], bool) {
	if !a.state.sem.TryAcquire(maxReaders) {
		return nil, false
	}
	return &AsyncGuardMut[T]{state: a.state}, true
}

// Operate grants read access for the duration of fn, which runs on the
// calling goroutine and must not block.
func (a *Async[T]) Operate(ctx context.Context, fn func(value *T)) error {
	g, err := a.Access(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	fn(g.Value())
	return nil
}

// OperateMut grants write access for the duration of fn, which runs on
// the calling goroutine and must not block. Changes stay in memory.
func (a *Async[T]) OperateMut(ctx context.Context, fn func(value *T)) error {
	g, err := a.AccessMut(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	fn(g.Value())
	return nil
}

// OperateNonblocking is Operate for closures that may block: fn runs on
// the I/O worker instead of the calling goroutine.
func (a *Async[T]) OperateNonblocking(ctx context.Context, fn func(value *T)) error {
	if err := a.state.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	value := a.state.container.Value()
	if err := a.state.dispatch(ctx, func() { fn(value) }, 1); err != nil {
		return err
	}
	a.state.sem.Release(1)
	return nil
}

// OperateMutNonblocking is OperateMut for closures that may block: fn
// runs on the I/O worker instead of the calling goroutine.
func (a *Async[T]) OperateMutNonblocking(ctx context.Context, fn func(value *T)) error {
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		return err
	}
	value := a.state.container.Value()
	if err := a.state.dispatch(ctx, func() { fn(value) }, maxReaders); err != nil {
		return err
	}
	a.state.sem.Release(maxReaders)
	return nil
}

// OperateRefresh refreshes from disk on the worker under the write
// guard, then invokes fn on the calling goroutine with the new value and
// the previous one, still under the guard.
func (a *Async[T]) OperateRefresh(ctx context.Context, fn func(value *T, previous T)) error {
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		return err
	}
	var previous T
	var err error
	if derr := a.state.dispatch(ctx, func() { previous, err = a.state.container.Refresh() }, maxReaders); derr != nil {
		return derr
	}
	defer a.state.sem.Release(maxReaders)
	if err != nil {
		return err
	}
	fn(a.state.container.Value(), previous)
	return nil
}

// OperateMutCommit grants write access for the duration of fn (run on
// the calling goroutine) and commits on the worker only if fn returned
// nil. A non-nil error from fn skips the commit and is returned
// verbatim; mutations fn already applied are not rolled back.
func (a *Async[T]) OperateMutCommit(ctx context.Context, fn func(value *T) error) error {
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		return err
	}
	if err := fn(a.state.container.Value()); err != nil {
		a.state.sem.Release(maxReaders)
		return err
	}
	var err error
	if derr := a.state.dispatch(ctx, func() { err = a.state.container.Commit() }, maxReaders); derr != nil {
		return derr
	}
	a.state.sem.Release(maxReaders)
	return err
}

// Refresh reads a fresh value from disk on the worker, returning the
// previous in-memory value.
func (a *Async[T]) Refresh(ctx context.Context) (T, error) {
	var zero T
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		return zero, err
	}
	var previous T
	var err error
	if derr := a.state.dispatch(ctx, func() { previous, err = a.state.container.Refresh() }, maxReaders); derr != nil {
		return zero, derr
	}
	a.state.sem.Release(maxReaders)
	return previous, err
}

// Commit writes the current in-memory value to disk on the worker.
func (a *Async[T]) Commit(ctx context.Context) error {
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		return err
	}
	var err error
	if derr := a.state.dispatch(ctx, func() { err = a.state.container.Commit() }, maxReaders); derr != nil {
		return derr
	}
	a.state.sem.Release(maxReaders)
	return err
}

// Overwrite replaces the in-memory value and commits, on the worker.
func (a *Async[T]) Overwrite(ctx context.Context, value T) error {
	if err := a.state.sem.Acquire(ctx, maxReaders); err != nil {
		return err
	}
	var err error
	if derr := a.state.dispatch(ctx, func() { err = a.state.container.Overwrite(value) }, maxReaders); derr != nil {
		return derr
	}
	a.state.sem.Release(maxReaders)
	return err
}

// AsyncGuard is a scoped read permit over the async shared container.
type AsyncGuard[T any] struct {
	state    *asyncState[T]
	released bool
}

// Value returns the guarded value. The caller must not mutate through
// the pointer while holding only a read permit.
func (g *AsyncGuard[T]) Value() *T {
	return g.state.container.Value()
}

// Container returns the guarded container.
func (g *AsyncGuard[T]) Container() *Container[T] {
	return g.state.container
}

// Release gives the permit back.
func (g *AsyncGuard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.state.sem.Release(1)
}

// AsyncGuardMut is a scoped write permit over the async shared
// container.
type AsyncGuardMut[T any] struct {
	state    *asyncState[T]
	released bool
}

// Value returns the guarded value for reading or mutation.
func (g *AsyncGuardMut[T]) Value() *T {
	return g.state.container.Value()
}

// Container returns the guarded container.
func (g *AsyncGuardMut[T]) Container() *Container[T] {
	return g.state.container
}

// Release gives the permit back.
func (g *AsyncGuardMut[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.state.sem.Release(maxReaders)
}
