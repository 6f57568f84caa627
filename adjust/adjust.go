// Package adjust implements the standard global adjustments: brighten, blur,
// hue rotation, grayscale, contrast and invert.
//
// Adjustments always run in that fixed order.  Each present field of a Spec
// becomes one Op; each Op fully replaces the buffer before the next reads it.
package adjust

import (
	"image/color"
	"math"

	bildadjust "github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"

	"github.com/Skryldev/image-filter/core"
)

// Spec selects which adjustments to apply.  A nil field means "skip";
// a non-nil field means "apply", even when its value is the identity.
type Spec struct {
	Brighten  *int     // signed delta added to every color channel
	Blur      *float64 // gaussian sigma; <= 0 is identity
	Hue       *int     // rotation in degrees
	Grayscale *bool
	Contrast  *float64 // percentage; 0 is identity, -100 flattens to mid-gray
	Invert    *bool
}

// Neutral returns a Spec with every field present at its identity value.
func Neutral() *Spec {
	var (
		zeroInt   = 0
		zeroFloat = 0.0
		no        = false
	)
	return &Spec{
		Brighten:  &zeroInt,
		Blur:      &zeroFloat,
		Hue:       &zeroInt,
		Grayscale: &no,
		Contrast:  &zeroFloat,
		Invert:    &no,
	}
}

// Op is one named adjustment bound to its parameter.
type Op struct {
	Name  string
	Apply func(*core.Buffer) *core.Buffer
}

// Ops returns the present adjustments of s in pipeline order.
func Ops(s *Spec) []Op {
	if s == nil {
		return nil
	}
	var ops []Op
	if s.Brighten != nil {
		delta := *s.Brighten
		ops = append(ops, Op{"brighten", func(b *core.Buffer) *core.Buffer { return Brighten(b, delta) }})
	}
	if s.Blur != nil {
		sigma := *s.Blur
		ops = append(ops, Op{"blur", func(b *core.Buffer) *core.Buffer { return Blur(b, sigma) }})
	}
	if s.Hue != nil {
		deg := *s.Hue
		ops = append(ops, Op{"hue", func(b *core.Buffer) *core.Buffer { return HueRotate(b, deg) }})
	}
	if s.Grayscale != nil {
		on := *s.Grayscale
		ops = append(ops, Op{"grayscale", func(b *core.Buffer) *core.Buffer {
			if !on {
				return b
			}
			return Grayscale(b)
		}})
	}
	if s.Contrast != nil {
		c := *s.Contrast
		ops = append(ops, Op{"contrast", func(b *core.Buffer) *core.Buffer { return Contrast(b, c) }})
	}
	if s.Invert != nil {
		on := *s.Invert
		ops = append(ops, Op{"invert", func(b *core.Buffer) *core.Buffer {
			if !on {
				return b
			}
			return Invert(b)
		}})
	}
	return ops
}

// Apply runs every present adjustment of s on b.  It never fails.
func Apply(b *core.Buffer, s *Spec) *core.Buffer {
	for _, op := range Ops(s) {
		b = op.Apply(b)
	}
	return b
}

// Brighten adds delta to the red, green and blue channels, saturating at
// [0, 255].  Alpha is untouched.
func Brighten(b *core.Buffer, delta int) *core.Buffer {
	if delta == 0 {
		return b
	}
	return core.WrapNRGBA(imaging.AdjustFunc(b.Image(), func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(int(c.R) + delta),
			G: clamp8(int(c.G) + delta),
			B: clamp8(int(c.B) + delta),
			A: c.A,
		}
	}))
}

// Blur applies a gaussian blur with the given sigma.
func Blur(b *core.Buffer, sigma float64) *core.Buffer {
	if sigma <= 0 || b.Empty() {
		return b
	}
	return core.WrapNRGBA(imaging.Blur(b.Image(), sigma))
}

// HueRotate rotates every pixel's hue by deg degrees in HSL space, wrapping
// around the color wheel.  Alpha is preserved; translucent pixels go through
// premultiplied form and may lose a little color precision.
func HueRotate(b *core.Buffer, deg int) *core.Buffer {
	deg = ((deg % 360) + 360) % 360
	if deg == 0 || b.Empty() {
		return b
	}
	return core.BufferFromImage(bildadjust.Hue(b.Image(), deg))
}

// Grayscale replaces every pixel by its Rec.601 luma.  Alpha is preserved.
// Applying it twice equals applying it once.
func Grayscale(b *core.Buffer) *core.Buffer {
	return core.WrapNRGBA(imaging.Grayscale(b.Image()))
}

// Contrast stretches channel values around mid-gray.  The factor follows the
// usual percentage convention: p = ((100 + c) / 100)^2 and
// v' = (v - 127.5) * p + 127.5, rounded and clamped to [0, 255].
func Contrast(b *core.Buffer, c float64) *core.Buffer {
	if c == 0 {
		return b
	}
	p := math.Pow((100+c)/100, 2)
	var lut [256]uint8
	for i := range lut {
		v := (float64(i)-127.5)*p + 127.5
		lut[i] = clamp8(int(math.Round(v)))
	}
	return core.WrapNRGBA(imaging.AdjustFunc(b.Image(), func(px color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[px.R], G: lut[px.G], B: lut[px.B], A: px.A}
	}))
}

// Invert replaces every color channel v by 255 - v.  Alpha is preserved.
func Invert(b *core.Buffer) *core.Buffer {
	return core.WrapNRGBA(imaging.Invert(b.Image()))
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
