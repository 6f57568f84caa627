//go:build vips

// Package vips provides a libvips-backed decoder.  It is built only with the
// "vips" build tag because it needs libvips and cgo.
package vips

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-filter/adapters/decoder"
	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
	"github.com/Skryldev/image-filter/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	MaxCacheSize int
	MaxWorkers   int
	ReportLeaks  bool
	// AutoRotate applies the EXIF orientation before pixels are handed over.
	AutoRotate bool
}

// Backend is a libvips-powered Decoder.  Safe for concurrent use.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// Formats lists the formats the backend registers itself for.
func (b *Backend) Formats() []core.Format {
	return []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatGIF, core.FormatTIFF}
}

func (b *Backend) CanDecode(f core.Format) bool {
	for _, x := range b.Formats() {
		if x == f {
			return true
		}
	}
	return false
}

// Decode loads r with libvips and converts the result into a Buffer through
// a lossless PNG export.
func (b *Backend) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, "vips.decode.drain", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, "vips.decode", err)
	}
	defer ref.Close()

	format := vipsFormatToCore(ref.Format())
	if b.cfg.AutoRotate {
		if err := ref.AutoRotate(); err != nil {
			return nil, apperrors.Wrap(apperrors.UnableToDecode, "vips.decode.rotate", err)
		}
	}

	ep := govips.NewPngExportParams()
	ep.StripMetadata = true
	encoded, _, err := ref.ExportPng(ep)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, "vips.decode.export", err)
	}
	img, err := png.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, "vips.decode.export", err)
	}

	out := decoder.FromImage(img, format)
	out.Meta.ColorSpace = vipsInterpretationToColorSpace(ref.Interpretation())
	out.Meta.SizeBytes = int64(len(raw))
	out.OriginalSize = int64(len(raw))
	return out, nil
}

// RegisterVipsBackend replaces the Go codecs with libvips for every format
// the backend handles.  Encoding stays with the PNG encoder.
func RegisterVipsBackend(reg core.Registry, b *Backend) error {
	for _, f := range b.Formats() {
		if err := reg.RegisterDecoder(f, b); err != nil {
			return err
		}
	}
	return nil
}

func vipsFormatToCore(f govips.ImageType) core.Format {
	switch f {
	case govips.ImageTypeJPEG:
		return core.FormatJPEG
	case govips.ImageTypePNG:
		return core.FormatPNG
	case govips.ImageTypeWEBP:
		return core.FormatWebP
	case govips.ImageTypeGIF:
		return core.FormatGIF
	case govips.ImageTypeTIFF:
		return core.FormatTIFF
	default:
		return core.FormatUnknown
	}
}

func vipsInterpretationToColorSpace(i govips.Interpretation) core.ColorSpace {
	switch i {
	case govips.InterpretationBW:
		return core.ColorSpaceGray
	case govips.InterpretationCMYK:
		return core.ColorSpaceCMYK
	default:
		return core.ColorSpaceRGB
	}
}

var _ core.Decoder = (*Backend)(nil)
