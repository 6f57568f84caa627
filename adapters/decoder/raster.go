package decoder

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"io"

	"github.com/Skryldev/image-filter/core"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Raster decodes one of the less common still formats: GIF (first frame),
// BMP or TIFF.
type Raster struct {
	format core.Format
	decode func(io.Reader) (image.Image, error)
}

// NewRaster returns a decoder for format, which must be one of
// RasterFormats().
func NewRaster(format core.Format) (*Raster, error) {
	var fn func(io.Reader) (image.Image, error)
	switch format {
	case core.FormatGIF:
		fn = gif.Decode
	case core.FormatBMP:
		fn = bmp.Decode
	case core.FormatTIFF:
		fn = tiff.Decode
	default:
		return nil, fmt.Errorf("raster decoder: unsupported format %q", format)
	}
	return &Raster{format: format, decode: fn}, nil
}

// RasterFormats lists the formats NewRaster accepts.
func RasterFormats() []core.Format {
	return []core.Format{core.FormatGIF, core.FormatBMP, core.FormatTIFF}
}

func (d *Raster) CanDecode(format core.Format) bool { return format == d.format }

func (d *Raster) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decodeWith(ctx, r, d.format, d.decode)
}
