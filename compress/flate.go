package compress

import (
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// compile-time interface checks.
var (
	_ Codec = Gzip{}
	_ Codec = Zlib{}
	_ Codec = Flate{}
)

// Gzip compresses with the gzip container format.
type Gzip struct{}

func (Gzip) WrapWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, level)
}

func (Gzip) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (Gzip) FastestLevel() int { return gzip.BestSpeed }
func (Gzip) DefaultLevel() int { return gzip.DefaultCompression }
func (Gzip) BestLevel() int    { return gzip.BestCompression }

// Zlib compresses with the zlib container format.
type Zlib struct{}

func (Zlib) WrapWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return zlib.NewWriterLevel(w, level)
}

func (Zlib) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

func (Zlib) FastestLevel() int { return zlib.BestSpeed }
func (Zlib) DefaultLevel() int { return zlib.DefaultCompression }
func (Zlib) BestLevel() int    { return zlib.BestCompression }

// Flate compresses with raw DEFLATE, no container framing.
type Flate struct{}

func (Flate) WrapWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return flate.NewWriter(w, level)
}

func (Flate) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

func (Flate) FastestLevel() int { return flate.BestSpeed }
func (Flate) DefaultLevel() int { return flate.DefaultCompression }
func (Flate) BestLevel() int    { return flate.BestCompression }
