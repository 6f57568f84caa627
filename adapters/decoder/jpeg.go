// Package decoder provides format-specific image decoders.
package decoder

import (
	"context"
	"image"
	"image/jpeg"
	"io"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool { return format == core.FormatJPEG }

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decodeWith(ctx, r, core.FormatJPEG, jpeg.Decode)
}

// decodeWith runs fn and converts its output into a decoded ImageData.  Any
// codec failure surfaces as UnableToDecode.
func decodeWith(ctx context.Context, r io.Reader, format core.Format, fn func(io.Reader) (image.Image, error)) (*core.ImageData, error) {
	op := string(format) + ".decode"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, op, err)
	}

	img, err := fn(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, op, err)
	}
	return FromImage(img, format), nil
}

// FromImage wraps a decoded image.Image as ImageData in StageDecoded.
func FromImage(img image.Image, format core.Format) *core.ImageData {
	buf := core.BufferFromImage(img)
	return &core.ImageData{
		Format: format,
		Buffer: buf,
		Stage:  core.StageDecoded,
		Meta: core.Metadata{
			Width:      buf.Width(),
			Height:     buf.Height(),
			Format:     format,
			ColorSpace: colorSpace(img),
			HasAlpha:   hasAlpha(img),
		},
	}
}

// colorSpace returns the colour space of an image.Image.
func colorSpace(img image.Image) core.ColorSpace {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return core.ColorSpaceGray
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return core.ColorSpaceRGBA
	case *image.CMYK:
		return core.ColorSpaceCMYK
	case *image.Paletted:
		return core.ColorSpaceIndex
	}
	return core.ColorSpaceRGB
}

func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
