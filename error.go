package onefile

import (
	"errors"
	"fmt"

	"github.com/mivra/onefile/lock"
)

// ErrReadonly is returned when a write is attempted through a manager
// opened with the Readonly mode.
var ErrReadonly = errors.New("manager is read-only")

// ErrShared is returned when an operation requires sole ownership of a
// shared container but other handles still exist.
var ErrShared = errors.New("container has other handles")

// FormatError wraps a failure reported by the format adapter while
// encoding or decoding. It is always recoverable by the caller: the core
// never corrupts its own state over a codec failure, though under the
// Writable mode a mid-encode failure may leave the file truncated.
type FormatError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %s: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormat reports whether err originated from the format adapter, as
// opposed to the filesystem or a user closure.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsContention reports whether err is a non-blocking lock acquisition
// failing because the file is locked elsewhere. Callers use this to
// implement their own backoff or to surface "file in use".
func IsContention(err error) bool {
	return errors.Is(err, lock.ErrContention)
}
