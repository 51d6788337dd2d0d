// Package compress provides a format wrapper that compresses the wire
// bytes of another format before they reach the file.
package compress

import (
	"io"

	"github.com/mivra/onefile/format"
)

// Codec is a lossless stream compression algorithm.
type Codec interface {
	// WrapWriter wraps w so that data written to the returned writer is
	// compressed into w. The caller must Close the returned writer to
	// flush trailers.
	WrapWriter(w io.Writer, level int) (io.WriteCloser, error)
	// WrapReader wraps r so that reads from the returned reader yield
	// decompressed data.
	WrapReader(r io.Reader) (io.ReadCloser, error)

	// FastestLevel, DefaultLevel and BestLevel are the codec's own level
	// presets; the meaning of a level value differs between codecs.
	FastestLevel() int
	DefaultLevel() int
	BestLevel() int
}

// Compressed wraps an inner format, compressing its output with a Codec.
type Compressed[T any] struct {
	inner format.Format[T]
	codec Codec
	level int
}

var _ format.Format[int] = Compressed[int]{}

// New wraps inner with the codec's default compression level.
func New[T any](inner format.Format[T], codec Codec) Compressed[T] {
	return WithLevel(inner, codec, codec.DefaultLevel())
}

// Fastest wraps inner with the codec's fastest compression level.
func Fastest[T any](inner format.Format[T], codec Codec) Compressed[T] {
	return WithLevel(inner, codec, codec.FastestLevel())
}

// Best wraps inner with the codec's best compression level.
func Best[T any](inner format.Format[T], codec Codec) Compressed[T] {
	return WithLevel(inner, codec, codec.BestLevel())
}

// WithLevel wraps inner with an explicit compression level.
func WithLevel[T any](inner format.Format[T], codec Codec, level int) Compressed[T] {
	return Compressed[T]{inner: inner, codec: codec, level: level}
}

func (c Compressed[T]) Encode(w io.Writer, value T) error {
	cw, err := c.codec.WrapWriter(w, c.level)
	if err != nil {
		return err
	}
	if err := c.inner.Encode(cw, value); err != nil {
		cw.Close() //nolint:errcheck
		return err
	}
	return cw.Close()
}

func (c Compressed[T]) Decode(r io.Reader) (T, error) {
	cr, err := c.codec.WrapReader(r)
	if err != nil {
		var zero T
		return zero, err
	}
	defer cr.Close() //nolint:errcheck
	return c.inner.Decode(cr)
}
