package onefile

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mivra/onefile/format"
	jsonfmt "github.com/mivra/onefile/format/json"
	"github.com/mivra/onefile/lock"
)

// gateFormat decodes like Text but parks inside Decode until released,
// letting a test hold a disk operation in flight on the worker.
type gateFormat struct {
	started chan struct{}
	release chan struct{}
}

func (g gateFormat) Encode(w io.Writer, value string) error {
	return format.Text{}.Encode(w, value)
}

func (g gateFormat) Decode(r io.Reader) (string, error) {
	g.started <- struct{}{}
	<-g.release
	return format.Text{}.Decode(r)
}

func TestAsyncConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOrDefaultAsync[counter](ctx, path, jsonfmt.New[counter](), Writable, lock.None{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var eg errgroup.Group
	for i := 0; i < 3; i++ {
		h := a.Clone()
		eg.Go(func() error {
			defer h.Release()
			return h.OperateMutCommit(ctx, func(value *counter) error {
				value.N++
				return nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("increment: %v", err)
	}

	final, err := a.Close(ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if final.N != 3 {
		t.Fatalf("closed value = %d, want 3", final.N)
	}

	reopened, err := Open[counter](path, jsonfmt.New[counter](), Readonly, lock.None{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close() //nolint:errcheck
	if reopened.Value().N != 3 {
		t.Fatalf("committed value = %d, want 3", reopened.Value().N)
	}
}

func TestAsyncCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOrDefaultAsync[counter](context.Background(), path, jsonfmt.New[counter](), Writable, lock.None{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Access(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("access error = %v, want %v", err, context.Canceled)
	}
	if err := a.Operate(cancelled, func(*counter) { t.Error("closure ran under cancelled context") }); !errors.Is(err, context.Canceled) {
		t.Fatalf("operate error = %v, want %v", err, context.Canceled)
	}
	if err := a.Commit(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("commit error = %v, want %v", err, context.Canceled)
	}

	// The handle stays usable after cancelled attempts.
	if err := a.Operate(context.Background(), func(*counter) {}); err != nil {
		t.Fatalf("operate after cancellation: %v", err)
	}
	if _, err := a.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAsyncOperateNonblocking(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOverwriteAsync[counter](ctx, path, jsonfmt.New[counter](), Writable, lock.None{}, counter{N: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var seen int
	if err := a.OperateNonblocking(ctx, func(value *counter) { seen = value.N }); err != nil {
		t.Fatalf("operate nonblocking: %v", err)
	}
	if seen != 5 {
		t.Fatalf("seen = %d, want 5", seen)
	}

	if err := a.OperateMutNonblocking(ctx, func(value *counter) { value.N = 6 }); err != nil {
		t.Fatalf("operate mut nonblocking: %v", err)
	}

	final, err := a.Close(ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if final.N != 6 {
		t.Fatalf("closed value = %d, want 6", final.N)
	}
}

func TestAsyncTryAccessContention(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOrDefaultAsync[counter](ctx, path, jsonfmt.New[counter](), Writable, lock.None{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w, err := a.AccessMut(ctx)
	if err != nil {
		t.Fatalf("access mut: %v", err)
	}
	if _, ok := a.TryAccess(); ok {
		t.Fatal("read guard granted while write guard held")
	}
	if _, ok := a.TryAccessMut(); ok {
		t.Fatal("second write guard granted while write guard held")
	}
	w.Release()
	w.Release() // idempotent

	r, ok := a.TryAccess()
	if !ok {
		t.Fatal("read guard denied with permits free")
	}
	if _, ok := a.TryAccessMut(); ok {
		t.Fatal("write guard granted while read guard held")
	}
	r.Release()

	if _, err := a.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAsyncCloseRequiresSoleHandle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOverwriteAsync[counter](ctx, path, jsonfmt.New[counter](), Writable, lock.None{}, counter{N: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clone := a.Clone()
	if _, err := a.Close(ctx); !errors.Is(err, ErrShared) {
		t.Fatalf("close error = %v, want %v", err, ErrShared)
	}
	if _, ok := a.TryUnwrap(); ok {
		t.Fatal("unwrap succeeded with an outstanding clone")
	}
	clone.Release()

	value, err := a.Close(ctx)
	if err != nil {
		t.Fatalf("close after release: %v", err)
	}
	if value.N != 2 {
		t.Fatalf("closed value = %d, want 2", value.N)
	}
}

func TestAsyncCancelledInFlightHoldsGuard(t *testing.T) {
	path := seedTextFile(t, "x")
	started := make(chan struct{}, 2)
	release := make(chan struct{}, 1)
	release <- struct{}{} // let the opening read through

	a, err := OpenAsync[string](context.Background(), path, gateFormat{started: started, release: release}, Writable, lock.None{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	<-started

	rctx, cancel := context.WithCancel(context.Background())
	refreshErr := make(chan error, 1)
	go func() {
		refreshErr <- a.OperateRefresh(rctx, func(*string, string) {
			t.Error("closure ran for an abandoned refresh")
		})
	}()

	<-started // the refresh is now decoding on the worker
	cancel()
	if err := <-refreshErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("refresh error = %v, want %v", err, context.Canceled)
	}
	// The result is abandoned but the refresh itself is still running:
	// no guard may be granted until the worker is done with the
	// container.
	if _, ok := a.TryAccessMut(); ok {
		t.Fatal("write guard granted while the refresh still runs on the worker")
	}

	release <- struct{}{}
	var g *AsyncGuardMut[string]
	for i := 0; ; i++ {
		if gm, ok := a.TryAccessMut(); ok {
			g = gm
			break
		}
		if i >= 5000 {
			t.Fatal("write guard never freed after the refresh finished")
		}
		time.Sleep(time.Millisecond)
	}
	g.Release()

	if _, err := a.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAsyncLastReleaseClosesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOrDefaultAsync[counter](ctx, path, jsonfmt.New[counter](), Writable, lock.Exclusive{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clone := a.Clone()
	clone.Release()
	a.Release()

	// The advisory lock must be free again once the last handle is gone.
	c, err := Open[counter](path, jsonfmt.New[counter](), Writable, lock.Exclusive{})
	if err != nil {
		t.Fatalf("open after last release: %v", err)
	}
	c.Close() //nolint:errcheck
}

func TestAsyncOperateRefresh(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOverwriteAsync[counter](ctx, path, jsonfmt.New[counter](), Writable, lock.None{}, counter{N: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := a.OperateMut(ctx, func(value *counter) { value.N = 99 }); err != nil {
		t.Fatalf("operate mut: %v", err)
	}
	other, err := Open[counter](path, jsonfmt.New[counter](), Writable, lock.None{})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if err := other.Overwrite(counter{N: 7}); err != nil {
		t.Fatalf("external overwrite: %v", err)
	}
	if _, err := other.Close(); err != nil {
		t.Fatalf("close second: %v", err)
	}

	err = a.OperateRefresh(ctx, func(value *counter, previous counter) {
		if previous.N != 99 {
			t.Errorf("previous = %d, want the divergent in-memory 99", previous.N)
		}
		if value.N != 7 {
			t.Errorf("refreshed value = %d, want the on-disk 7", value.N)
		}
	})
	if err != nil {
		t.Fatalf("operate refresh: %v", err)
	}

	final, err := a.Close(ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if final.N != 7 {
		t.Fatalf("closed value = %d, want 7", final.N)
	}
}

func TestAsyncUnwrapReturnsBlockingContainer(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	a, err := CreateOverwriteAsync[counter](ctx, path, jsonfmt.New[counter](), Writable, lock.None{}, counter{N: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	container, ok := a.TryUnwrap()
	if !ok {
		t.Fatal("unwrap failed with no outstanding clones")
	}
	container.Value().N++
	if err := container.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	final, err := container.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if final.N != 5 {
		t.Fatalf("closed value = %d, want 5", final.N)
	}
}
