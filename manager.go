package onefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	units "github.com/docker/go-units"
	"github.com/gofrs/flock"

	"github.com/mivra/onefile/format"
	"github.com/mivra/onefile/lock"
)

const newFilePerm = 0o644

// Manager owns one open file handle together with a lock strategy and an
// access mode. The advisory lock is held for the manager's entire
// lifetime: acquired during open, released exactly once by Close.
//
// Between operations the file cursor always sits at offset zero, so the
// handle stays reusable for any sequence of reads and writes without
// reopening.
type Manager[T any] struct {
	file   *os.File
	fl     *flock.Flock
	lock   lock.Strategy
	mode   Mode
	format format.Format[T]
	path   string
}

// OpenManager opens an existing file with the permissions the mode
// requires and applies the lock strategy. The file must already exist;
// a missing file is an error, and a held conflicting lock surfaces as
// lock.ErrContention.
func OpenManager[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy) (*Manager[T], error) {
	path = filepath.Clean(path)
	file, err := os.OpenFile(path, mode.openFlag(), 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	fl := flock.New(path)
	if err := ls.Lock(fl); err != nil {
		file.Close() //nolint:errcheck
		return nil, err
	}
	slog.Debug("opened file manager", "path", path, "mode", mode.String())
	return &Manager[T]{file: file, fl: fl, lock: ls, mode: mode, format: f, path: path}, nil
}

// CreateOverwriteManager unconditionally creates or truncates the file,
// writes value, then opens it normally. Use when prior contents must be
// discarded.
func CreateOverwriteManager[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (T, *Manager[T], error) {
	var zero T
	if err := ensureParentDir(path); err != nil {
		return zero, nil, err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, newFilePerm)
	if err != nil {
		return zero, nil, fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeInitial(file, f, value); err != nil {
		file.Close() //nolint:errcheck
		return zero, nil, err
	}
	if err := file.Close(); err != nil {
		return zero, nil, fmt.Errorf("close %s: %w", path, err)
	}
	if err := syncParentDir(path); err != nil {
		return zero, nil, fmt.Errorf("sync parent dir: %w", err)
	}
	m, err := OpenManager(path, f, mode, ls)
	if err != nil {
		return zero, nil, err
	}
	return value, m, nil
}

// CreateOrManager reads and decodes the file if it exists, ignoring the
// supplied value; otherwise it creates the file holding value. The
// existence check and the creation are not transactional against other
// processes: under the None lock strategy two racing creators can
// interleave. Callers needing that guarantee pick an exclusive strategy.
func CreateOrManager[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, value T) (T, *Manager[T], error) {
	return CreateOrElseManager(path, f, mode, ls, func() T { return value })
}

// CreateOrElseManager behaves like CreateOrManager, computing the
// initial value only when the file has to be created.
func CreateOrElseManager[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy, init func() T) (T, *Manager[T], error) {
	var zero T
	value, err := readOrCreate(path, f, init)
	if err != nil {
		return zero, nil, err
	}
	m, err := OpenManager(path, f, mode, ls)
	if err != nil {
		return zero, nil, err
	}
	return value, m, nil
}

// CreateOrDefaultManager behaves like CreateOrManager with the zero
// value of T as the initial value.
func CreateOrDefaultManager[T any](path string, f format.Format[T], mode Mode, ls lock.Strategy) (T, *Manager[T], error) {
	return CreateOrElseManager(path, f, mode, ls, func() T { var v T; return v })
}

// Path returns the cleaned path the manager was opened with.
func (m *Manager[T]) Path() string {
	return m.path
}

// Mode returns the manager's access mode.
func (m *Manager[T]) Mode() Mode {
	return m.mode
}

// Read decodes a value from the file and resets the cursor to the start,
// leaving the handle reusable. Codec failures surface as *FormatError.
func (m *Manager[T]) Read() (T, error) {
	value, err := format.DecodeBuffered(m.format, m.file)
	if err != nil {
		var zero T
		return zero, &FormatError{Op: "decode", Err: err}
	}
	if _, err := m.file.Seek(0, io.SeekStart); err != nil {
		var zero T
		return zero, fmt.Errorf("rewind %s: %w", m.path, err)
	}
	return value, nil
}

// Write encodes value into the file using the mode's write algorithm,
// then resets the cursor and syncs the handle to storage.
func (m *Manager[T]) Write(value T) error {
	switch m.mode {
	case Writable:
		return m.writeDirect(value)
	case Atomic:
		return m.writeAtomic(value)
	default:
		return fmt.Errorf("write %s: %w", m.path, ErrReadonly)
	}
}

// writeDirect truncates first and streams the encoder straight into the
// handle. A mid-encode failure leaves the file truncated or partial.
func (m *Manager[T]) writeDirect(value T) error {
	if err := m.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", m.path, err)
	}
	if err := format.EncodeBuffered(m.format, m.file, value); err != nil {
		return &FormatError{Op: "encode", Err: err}
	}
	n, err := m.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("measure %s: %w", m.path, err)
	}
	return m.finishWrite(n)
}

// writeAtomic encodes fully into memory and only touches the file after
// the encoder succeeded, so a codec failure cannot corrupt the contents.
func (m *Manager[T]) writeAtomic(value T) error {
	buf, err := format.EncodeBytes(m.format, value)
	if err != nil {
		return &FormatError{Op: "encode", Err: err}
	}
	if err := m.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", m.path, err)
	}
	if _, err := io.Copy(m.file, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	return m.finishWrite(int64(len(buf)))
}

func (m *Manager[T]) finishWrite(n int64) error {
	if _, err := m.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", m.path, err)
	}
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", m.path, err)
	}
	slog.Debug("wrote file", "path", m.path, "size", units.BytesSize(float64(n)))
	return nil
}

// Close releases the advisory lock, syncs the handle and closes it. The
// manager must not be used afterwards.
func (m *Manager[T]) Close() error {
	err := errors.Join(
		m.lock.Unlock(m.fl),
		m.file.Sync(),
		m.file.Close(),
	)
	if err != nil {
		return fmt.Errorf("close %s: %w", m.path, err)
	}
	slog.Debug("closed file manager", "path", m.path)
	return nil
}

// writeInitial is the write algorithm used while seeding a freshly
// created file, before any manager exists for it.
func writeInitial[T any](file *os.File, f format.Format[T], value T) error {
	if err := format.EncodeBuffered(f, file, value); err != nil {
		return &FormatError{Op: "encode", Err: err}
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", file.Name(), err)
	}
	return nil
}

// readOrCreate implements the read-if-present-else-initialize policy: a
// read-only open that succeeds wins and the initial value is discarded;
// a missing file is created and seeded; any other error propagates.
func readOrCreate[T any](path string, f format.Format[T], init func() T) (T, error) {
	var zero T
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close() //nolint:errcheck
		value, err := format.DecodeBuffered(f, file)
		if err != nil {
			return zero, &FormatError{Op: "decode", Err: err}
		}
		return value, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := ensureParentDir(path); err != nil {
			return zero, err
		}
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, newFilePerm)
		if err != nil {
			return zero, fmt.Errorf("create %s: %w", path, err)
		}
		value := init()
		werr := writeInitial(file, f, value)
		cerr := file.Close()
		if werr != nil {
			return zero, werr
		}
		if cerr != nil {
			return zero, fmt.Errorf("close %s: %w", path, cerr)
		}
		if err := syncParentDir(path); err != nil {
			return zero, fmt.Errorf("sync parent dir: %w", err)
		}
		slog.Debug("created file", "path", path)
		return value, nil
	default:
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
}
