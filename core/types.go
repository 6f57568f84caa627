package core

import (
	"context"
	"io"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatUnknown Format = "unknown"
)

// Extension returns the file extension used when saving f.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatUnknown, "":
		return "bin"
	}
	return string(f)
}

// ColorSpace represents the colour model of the decoded source.
type ColorSpace string

const (
	ColorSpaceRGB   ColorSpace = "rgb"
	ColorSpaceRGBA  ColorSpace = "rgba"
	ColorSpaceCMYK  ColorSpace = "cmyk"
	ColorSpaceGray  ColorSpace = "gray"
	ColorSpaceIndex ColorSpace = "paletted"
)

// Metadata holds information extracted while decoding.
type Metadata struct {
	Width      int
	Height     int
	Format     Format
	ColorSpace ColorSpace
	HasAlpha   bool
	SizeBytes  int64
}

// Stage tracks how far an ImageData has travelled through a request.
type Stage uint8

const (
	StageCreated Stage = iota
	StageDecoded
	StageFiltered
	StageEncoded
)

func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageDecoded:
		return "decoded"
	case StageFiltered:
		return "filtered"
	case StageEncoded:
		return "encoded"
	}
	return "unknown"
}

// ImageData is the per-request value passed between pipeline steps.
// Data holds encoded bytes; Buffer holds decoded pixels once a decode step ran.
type ImageData struct {
	// Encoded bytes: raw input before decode, encoder output after encode,
	// nil in between.
	Data   []byte
	Format Format

	Buffer *Buffer
	Stage  Stage

	// Metadata extracted during decode.
	Meta Metadata

	// Size of the original raw input.
	OriginalSize int64
}

// Source abstracts where raw bytes come from.
type Source struct {
	Reader      io.Reader
	ContentType string // optional hint
	Name        string // optional logical name / filename
	Size        int64  // -1 if unknown
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *ImageData value and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}

// StorageKey uniquely identifies a stored image.  For filesystem stores
// Bucket is a directory and Path a file name.
type StorageKey struct {
	Bucket string
	Path   string
}
