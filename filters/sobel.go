package filters

import (
	"math"

	"github.com/disintegration/imaging"

	"github.com/Skryldev/image-filter/core"
)

// EdgeGradient returns a new opaque grayscale buffer holding the Sobel
// gradient magnitude of b's Rec.601 luma.  Samples outside the buffer take
// the value of the nearest edge pixel.  Magnitudes are rounded and clamped
// to 255.
func EdgeGradient(b *core.Buffer) *core.Buffer {
	w, h := b.Width(), b.Height()
	if b.Empty() {
		return core.NewBuffer(w, h)
	}

	gray := imaging.Grayscale(b.Image())
	luma := make([]int, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			luma[y*w+x] = int(row[x*4])
		}
	}
	at := func(x, y int) int {
		return luma[clampInt(y, 0, h-1)*w+clampInt(x, 0, w-1)]
	}

	out := core.NewBuffer(w, h)
	pix := out.Image().Pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, t, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			l, r := at(x-1, y), at(x+1, y)
			bl, bm, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			gx := (tr + 2*r + br) - (tl + 2*l + bl)
			gy := (bl + 2*bm + br) - (tl + 2*t + tr)
			m := math.Round(math.Sqrt(float64(gx*gx + gy*gy)))
			v := uint8(min(m, 255))

			i := y*out.Image().Stride + x*4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 0xff
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
