package filters

import (
	"fmt"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// Direction is the axis along which gradients and bands vary.
type Direction uint8

const (
	// Horizontal varies along x, left to right.
	Horizontal Direction = iota + 1
	// Vertical varies along y, top to bottom.
	Vertical
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// ParseDirection maps a direction name to its value.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	}
	return 0, apperrors.New(apperrors.NotImplemented, "filters.direction", fmt.Errorf("unknown direction %q", s))
}

// extent returns the length of the axis d runs along.
func (d Direction) extent(w, h int) (int, bool) {
	switch d {
	case Horizontal:
		return w, true
	case Vertical:
		return h, true
	}
	return 0, false
}

// Lerp returns the i-th of n evenly spaced colors from `from` to `to`,
// channel by channel including alpha.  Step 0 is from, step n-1 is to; halves
// round up.
func Lerp(from, to core.Color, i, n int) core.Color {
	if n <= 1 || i <= 0 {
		return from
	}
	if i >= n-1 {
		return to
	}
	ch := func(a, b uint8) uint8 {
		span := n - 1
		return uint8((int(a)*(span-i)*2 + int(b)*i*2 + span) / (2 * span))
	}
	return core.Color{
		Red:   ch(from.Red, to.Red),
		Green: ch(from.Green, to.Green),
		Blue:  ch(from.Blue, to.Blue),
		Alpha: ch(from.Alpha, to.Alpha),
	}
}

// GradientImage renders the w x h gradient from `from` to `to` along d.
func GradientImage(w, h int, from, to core.Color, d Direction) (*core.Buffer, error) {
	n, ok := d.extent(w, h)
	if !ok {
		return nil, apperrors.New(apperrors.NotImplemented, "filters.gradient", fmt.Errorf("unknown direction %s", d))
	}
	g := core.NewBuffer(w, h)
	for i := 0; i < n; i++ {
		c := Lerp(from, to, i, n)
		if d == Horizontal {
			for y := 0; y < h; y++ {
				g.Set(i, y, c)
			}
		} else {
			for x := 0; x < w; x++ {
				g.Set(x, i, c)
			}
		}
	}
	return g, nil
}

// Gradient composites a linear gradient from `from` to `to` onto b.
func Gradient(b *core.Buffer, from, to core.Color, d Direction) (*core.Buffer, error) {
	g, err := GradientImage(b.Width(), b.Height(), from, to, d)
	if err != nil {
		return nil, err
	}
	if b.Empty() {
		return b, nil
	}
	return Overlay(b, g.Image()), nil
}
