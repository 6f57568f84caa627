package core

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// Buffer is a decoded raster: width, height and row-major pixels held as
// non-premultiplied RGBA anchored at (0,0).  Filters take a *Buffer and return
// a *Buffer; callers must not reuse the input after the call.
type Buffer struct {
	img *image.NRGBA
}

// NewBuffer allocates a fully transparent buffer.  Negative sizes are
// treated as zero.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{img: image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))}
}

// NewFilledBuffer allocates a buffer where every pixel is c.
func NewFilledBuffer(width, height int, c Color) *Buffer {
	b := NewBuffer(width, height)
	n := c.NRGBA()
	pix := b.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = n.R, n.G, n.B, n.A
	}
	return b
}

// BufferFromImage converts a decoded image into a Buffer.  The result never
// aliases m.
func BufferFromImage(m image.Image) *Buffer {
	if m == nil {
		return NewBuffer(0, 0)
	}
	return &Buffer{img: imaging.Clone(m)}
}

// WrapNRGBA adopts m as the backing store without copying.  Images whose
// bounds do not start at the origin are copied.
func WrapNRGBA(m *image.NRGBA) *Buffer {
	if m == nil {
		return NewBuffer(0, 0)
	}
	if m.Bounds().Min != (image.Point{}) {
		return BufferFromImage(m)
	}
	return &Buffer{img: m}
}

func (b *Buffer) Width() int  { return b.img.Rect.Dx() }
func (b *Buffer) Height() int { return b.img.Rect.Dy() }

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool { return b.Width() == 0 || b.Height() == 0 }

// At returns the pixel at (x, y).  Out-of-range coordinates yield the zero Color.
func (b *Buffer) At(x, y int) Color {
	if !(image.Point{X: x, Y: y}).In(b.img.Rect) {
		return Color{}
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	return Color{Red: p[0], Green: p[1], Blue: p[2], Alpha: p[3]}
}

// Set replaces the pixel at (x, y).  Out-of-range coordinates are ignored.
func (b *Buffer) Set(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}).In(b.img.Rect) {
		return
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.Red, c.Green, c.Blue, c.Alpha
}

// Pixels returns a row-major copy of every pixel.
func (b *Buffer) Pixels() []Color {
	w, h := b.Width(), b.Height()
	out := make([]Color, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out = append(out, b.At(x, y))
		}
	}
	return out
}

// Image exposes the backing image for codecs and image libraries.
func (b *Buffer) Image() *image.NRGBA { return b.img }

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	cp := &image.NRGBA{
		Pix:    append([]uint8(nil), b.img.Pix...),
		Stride: b.img.Stride,
		Rect:   b.img.Rect,
	}
	return &Buffer{img: cp}
}

// Equal reports whether both buffers have the same size and pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Width() != o.Width() || b.Height() != o.Height() {
		return false
	}
	w := b.Width() * 4
	for y := 0; y < b.Height(); y++ {
		i, j := b.img.PixOffset(0, y), o.img.PixOffset(0, y)
		if !bytes.Equal(b.img.Pix[i:i+w], o.img.Pix[j:j+w]) {
			return false
		}
	}
	return true
}
