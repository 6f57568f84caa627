package filters

import (
	"fmt"
	"image"
	"math"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// Pattern selects the stripe geometry of PixelPattern.
type Pattern uint8

const (
	PatternVertical Pattern = iota + 1
	PatternHorizontal
	PatternDiagonal
	PatternCircle
)

func (p Pattern) String() string {
	switch p {
	case PatternVertical:
		return "vertical"
	case PatternHorizontal:
		return "horizontal"
	case PatternDiagonal:
		return "diagonal"
	case PatternCircle:
		return "circle"
	}
	return fmt.Sprintf("pattern(%d)", uint8(p))
}

// ParsePattern maps a pattern name to its value.
func ParsePattern(s string) (Pattern, error) {
	for _, p := range []Pattern{PatternVertical, PatternHorizontal, PatternDiagonal, PatternCircle} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, apperrors.New(apperrors.NotImplemented, "filters.pattern", fmt.Errorf("unknown pattern %q", s))
}

// PatternOptions holds the stripe geometry.  A pixel is painted when its
// coordinate modulo Period is below StripeWidth.
type PatternOptions struct {
	Period      int
	StripeWidth int
}

// DefaultPatternOptions paints every 4th line.
var DefaultPatternOptions = PatternOptions{Period: 4, StripeWidth: 1}

func (o PatternOptions) normalize() PatternOptions {
	if o.Period <= 0 {
		o.Period = DefaultPatternOptions.Period
	}
	if o.StripeWidth <= 0 || o.StripeWidth > o.Period {
		o.StripeWidth = min(DefaultPatternOptions.StripeWidth, o.Period)
	}
	return o
}

// predicate returns the painting rule of p for a w x h buffer.
//
//	vertical    x mod P < W
//	horizontal  y mod P < W
//	diagonal    (x+y) mod P < W
//	circle      floor(distance from pixel center to buffer center) mod P < W
func (p Pattern) predicate(w, h int, o PatternOptions) (func(x, y int) bool, bool) {
	on := func(v int) bool { return v%o.Period < o.StripeWidth }
	switch p {
	case PatternVertical:
		return func(x, _ int) bool { return on(x) }, true
	case PatternHorizontal:
		return func(_, y int) bool { return on(y) }, true
	case PatternDiagonal:
		return func(x, y int) bool { return on(x + y) }, true
	case PatternCircle:
		cx, cy := float64(w)/2, float64(h)/2
		return func(x, y int) bool {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			return on(int(d))
		}, true
	}
	return nil, false
}

// PatternMask returns the painted pixels of p as an alpha mask.
func PatternMask(w, h int, p Pattern, opts PatternOptions) (*image.Alpha, error) {
	pred, ok := p.predicate(w, h, opts.normalize())
	if !ok {
		return nil, apperrors.New(apperrors.NotImplemented, "filters.pattern", fmt.Errorf("unknown pattern %s", p))
	}
	mask := image.NewAlpha(image.Rect(0, 0, max(w, 0), max(h, 0)))
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x := range row {
			if pred(x, y) {
				row[x] = 0xff
			}
		}
	}
	return mask, nil
}

// PixelPattern paints c over every pixel selected by p.  The alpha of c sets
// the blend strength; unselected pixels are untouched.
func PixelPattern(b *core.Buffer, p Pattern, c core.Color, opts PatternOptions) (*core.Buffer, error) {
	mask, err := PatternMask(b.Width(), b.Height(), p, opts)
	if err != nil {
		return nil, err
	}
	if b.Empty() {
		return b, nil
	}
	maskOver(b, mask, c)
	return b, nil
}
