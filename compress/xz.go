package compress

import (
	"io"

	"github.com/ulikunitz/xz"
)

var _ Codec = XZ{}

// XZ compresses with the xz container format. The writer does not expose
// preset levels, so the level argument is ignored.
type XZ struct{}

func (XZ) WrapWriter(w io.Writer, _ int) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func (XZ) WrapReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

func (XZ) FastestLevel() int { return 0 }
func (XZ) DefaultLevel() int { return 0 }
func (XZ) BestLevel() int    { return 0 }
