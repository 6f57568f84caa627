// Package encoder provides output encoders.  The engine always writes PNG so
// that decode(encode(b)) == b holds for every buffer it produces.
package encoder

import (
	"bytes"
	"context"
	"image/png"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// PNG encodes buffers to PNG format.
type PNG struct {
	enc png.Encoder
}

// NewPNG returns a PNG encoder.  compression is one of "default", "none",
// "speed" or "best"; anything else means "default".
func NewPNG(compression string) *PNG {
	return &PNG{enc: png.Encoder{CompressionLevel: compressionLevel(compression)}}
}

func compressionLevel(name string) png.CompressionLevel {
	switch name {
	case "none":
		return png.NoCompression
	case "speed":
		return png.BestSpeed
	case "best":
		return png.BestCompression
	}
	return png.DefaultCompression
}

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, buf *core.Buffer) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, "png.encode", err)
	}
	if buf == nil {
		return nil, apperrors.New(apperrors.UnableToDecode, "png.encode", apperrors.ErrEmptyInput)
	}

	var out bytes.Buffer
	if err := p.enc.Encode(&out, buf.Image()); err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, "png.encode", err)
	}
	return out.Bytes(), nil
}
