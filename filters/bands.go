package filters

import (
	"fmt"
	"image"

	"github.com/samber/lo"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// Band is the half-open span [Start, End) of one color band.
type Band struct {
	Start, End int
}

// Len returns the band width.
func (b Band) Len() int { return b.End - b.Start }

// Bands partitions [0, extent) into n contiguous bands of floor(extent/n)
// each.  The last band runs to extent, so the bands never leave a gap.
func Bands(extent, n int) []Band {
	if n <= 0 || extent < 0 {
		return nil
	}
	size := extent / n
	return lo.Times(n, func(i int) Band {
		b := Band{Start: i * size, End: (i + 1) * size}
		if i == n-1 {
			b.End = extent
		}
		return b
	})
}

// ColorBands splits b into len(colors) bands along d and paints each band's
// color over it, first color at the origin edge.  An empty color list fails
// with NoColorInput.
func ColorBands(b *core.Buffer, colors []core.Color, d Direction) (*core.Buffer, error) {
	if len(colors) == 0 {
		return nil, apperrors.New(apperrors.NoColorInput, "filters.bands", nil)
	}
	extent, ok := d.extent(b.Width(), b.Height())
	if !ok {
		return nil, apperrors.New(apperrors.NotImplemented, "filters.bands", fmt.Errorf("unknown direction %s", d))
	}
	if b.Empty() {
		return b, nil
	}
	for i, band := range Bands(extent, len(colors)) {
		r := image.Rect(band.Start, 0, band.End, b.Height())
		if d == Vertical {
			r = image.Rect(0, band.Start, b.Width(), band.End)
		}
		fillOver(b, r, colors[i])
	}
	return b, nil
}
