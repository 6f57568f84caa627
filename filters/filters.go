// Package filters implements the custom overlay filters (pixel pattern,
// gradient, color bands) and the Sobel edge-gradient filter.
//
// Every filter takes ownership of its input buffer and returns the buffer the
// caller must use from then on.  Overlay filters paint into the input; the
// edge-gradient filter allocates a new one.
package filters

import (
	"fmt"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// Request is one custom filter invocation.  The set of variants is closed:
// PixelPatternRequest, GradientRequest, ColorBandRequest and
// EdgeGradientRequest.
type Request interface {
	Kind() string
	request()
}

// PixelPatternRequest paints Color over the pixels selected by Pattern.
type PixelPatternRequest struct {
	Pattern Pattern
	Color   core.Color
}

// GradientRequest overlays a linear gradient from From to To.
type GradientRequest struct {
	From, To  core.Color
	Direction Direction
}

// ColorBandRequest overlays one band per color.
type ColorBandRequest struct {
	Colors    []core.Color
	Direction Direction
}

// EdgeGradientRequest replaces the image with its Sobel magnitude.
type EdgeGradientRequest struct{}

func (PixelPatternRequest) Kind() string { return "pixel_pattern" }
func (GradientRequest) Kind() string     { return "gradient" }
func (ColorBandRequest) Kind() string    { return "color_band" }
func (EdgeGradientRequest) Kind() string { return "edge_gradient" }

func (PixelPatternRequest) request() {}
func (GradientRequest) request()     {}
func (ColorBandRequest) request()    {}
func (EdgeGradientRequest) request() {}

// Apply runs req on b.  Requests are passed by value; anything else, and
// unknown enum values, fail with NotImplemented.  On error no buffer is
// returned.
func Apply(b *core.Buffer, req Request, opts PatternOptions) (*core.Buffer, error) {
	if b == nil {
		return nil, apperrors.New(apperrors.UnableToDecode, "filters.apply", apperrors.ErrEmptyInput)
	}
	switch r := req.(type) {
	case PixelPatternRequest:
		return PixelPattern(b, r.Pattern, r.Color, opts)
	case GradientRequest:
		return Gradient(b, r.From, r.To, r.Direction)
	case ColorBandRequest:
		return ColorBands(b, r.Colors, r.Direction)
	case EdgeGradientRequest:
		return EdgeGradient(b), nil
	}
	return nil, apperrors.New(apperrors.NotImplemented, "filters.apply", fmt.Errorf("unsupported filter %T", req))
}

// Presets used by the CLI when no colors are given.
var (
	DefaultPatternColor = core.NewColor(0, 0, 0, 100)
	DefaultGradientFrom = core.NewColor(0, 128, 0, 0)
	DefaultGradientTo   = core.NewColor(255, 255, 255, 255)
)

// DefaultBandPalette returns the stock five-band palette.
func DefaultBandPalette() []core.Color {
	return []core.Color{
		core.NewColor(214, 110, 250, 150),
		core.NewColor(155, 100, 220, 150),
		core.NewColor(150, 120, 240, 150),
		core.NewColor(95, 105, 220, 150),
		core.NewColor(110, 150, 250, 160),
	}
}
