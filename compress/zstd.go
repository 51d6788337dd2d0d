package compress

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

var _ Codec = Zstd{}

// Zstd compresses with Zstandard. Levels follow the zstd scale (1–22) and
// are mapped onto the encoder's speed presets.
type Zstd struct{}

func (Zstd) WrapWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
}

func (Zstd) WrapReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func (Zstd) FastestLevel() int { return 1 }
func (Zstd) DefaultLevel() int { return 3 }
func (Zstd) BestLevel() int    { return 19 }
