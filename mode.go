package onefile

import "os"

// Mode selects which operations a manager permits and how writes reach
// the disk.
type Mode int

const (
	// Readonly permits reads only.
	Readonly Mode = iota
	// Writable permits reads and direct writes: the file is truncated,
	// then the encoder streams straight into the handle. If the encoder
	// fails partway the file is left truncated or partial.
	Writable
	// Atomic permits reads and buffered writes: the value is fully
	// encoded in memory first, and the file is only touched after the
	// encoder succeeded. This costs one in-memory copy of the encoded
	// contents and does not protect against concurrent writers (that is
	// the lock strategy's job) or partial writes at the OS level.
	Atomic
)

func (m Mode) String() string {
	switch m {
	case Readonly:
		return "readonly"
	case Writable:
		return "writable"
	case Atomic:
		return "atomic"
	default:
		return "unknown"
	}
}

func (m Mode) writable() bool {
	return m == Writable || m == Atomic
}

func (m Mode) openFlag() int {
	if m.writable() {
		return os.O_RDWR
	}
	return os.O_RDONLY
}
