package core

import "image/color"

// Color is a 4-channel, 8-bit-per-channel, non-premultiplied color.
type Color struct {
	Red, Green, Blue, Alpha uint8
}

// NewColor returns a Color from its four channels.
func NewColor(red, green, blue, alpha uint8) Color {
	return Color{Red: red, Green: green, Blue: blue, Alpha: alpha}
}

// ColorFrom converts any color.Color into a Color.
func ColorFrom(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{Red: n.R, Green: n.G, Blue: n.B, Alpha: n.A}
}

// NRGBA returns the native pixel representation of c.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.Red, G: c.Green, B: c.Blue, A: c.Alpha}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return c.NRGBA().RGBA() }

// Opaque reports whether the alpha channel is fully set.
func (c Color) Opaque() bool { return c.Alpha == 0xff }
