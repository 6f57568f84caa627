package filters

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/Skryldev/image-filter/core"
)

// Overlay composites src onto dst at the origin with the source-over operator.
// Pixels of src outside dst are dropped.  dst is modified and returned.
func Overlay(dst *core.Buffer, src image.Image) *core.Buffer {
	if dst.Empty() || src == nil {
		return dst
	}
	xdraw.Draw(dst.Image(), dst.Image().Bounds(), src, src.Bounds().Min, xdraw.Over)
	return dst
}

// fillOver paints c over the rectangle r of dst.
func fillOver(dst *core.Buffer, r image.Rectangle, c core.Color) {
	r = r.Intersect(dst.Image().Bounds())
	if r.Empty() {
		return
	}
	xdraw.Draw(dst.Image(), r, image.NewUniform(c.NRGBA()), image.Point{}, xdraw.Over)
}

// maskOver paints c over every pixel of dst whose mask alpha is non-zero.
func maskOver(dst *core.Buffer, mask *image.Alpha, c core.Color) {
	xdraw.DrawMask(dst.Image(), dst.Image().Bounds(), image.NewUniform(c.NRGBA()), image.Point{}, mask, image.Point{}, xdraw.Over)
}
