package compress

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

var _ Codec = LZ4{}

// LZ4 compresses with the lz4 frame format. Levels 0–9 map onto the
// library's compression levels, 0 being the fast path.
type LZ4 struct{}

func (LZ4) WrapWriter(w io.Writer, level int) (io.WriteCloser, error) {
	lw := lz4.NewWriter(w)
	if err := lw.Apply(lz4.CompressionLevelOption(lz4Level(level))); err != nil {
		return nil, err
	}
	return lw, nil
}

func (LZ4) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func (LZ4) FastestLevel() int { return 0 }
func (LZ4) DefaultLevel() int { return 0 }
func (LZ4) BestLevel() int    { return 9 }

func lz4Level(level int) lz4.CompressionLevel {
	switch level {
	case 1:
		return lz4.Level1
	case 2:
		return lz4.Level2
	case 3:
		return lz4.Level3
	case 4:
		return lz4.Level4
	case 5:
		return lz4.Level5
	case 6:
		return lz4.Level6
	case 7:
		return lz4.Level7
	case 8:
		return lz4.Level8
	case 9:
		return lz4.Level9
	default:
		return lz4.Fast
	}
}
