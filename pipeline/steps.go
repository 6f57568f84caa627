package pipeline

import (
	"context"
	"fmt"

	"github.com/Skryldev/image-filter/adjust"
	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
	"github.com/Skryldev/image-filter/filters"
	"github.com/Skryldev/image-filter/utils"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes raw bytes in img.Data into a Buffer.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Buffer != nil && img.Stage >= core.StageDecoded {
		return img, nil // already decoded
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.UnableToDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	dec, ok := s.Registry.DecoderFor(img.Format)
	if !ok {
		return nil, apperrors.New(apperrors.UnableToDecode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	decoded, err := dec.Decode(ctx, utils.BytesReader(img.Data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, s.Name(), err)
	}
	if decoded == nil || decoded.Buffer == nil {
		return nil, apperrors.New(apperrors.UnableToDecode, s.Name(), apperrors.ErrEmptyInput)
	}

	out := *decoded
	out.Data = nil
	out.Stage = core.StageDecoded
	out.OriginalSize = img.OriginalSize
	out.Meta.SizeBytes = img.OriginalSize
	return &out, nil
}

// ── Buffer transforms ─────────────────────────────────────────────────────────

// BufferFunc transforms a decoded buffer.  It owns its input and returns the
// buffer to use from then on.
type BufferFunc func(*core.Buffer) (*core.Buffer, error)

// BufferStep runs a BufferFunc on the decoded pixels and marks the image
// filtered.
type BufferStep struct {
	StepName string
	Fn       BufferFunc
}

func (s *BufferStep) Name() string { return s.StepName }

func (s *BufferStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Buffer == nil {
		return nil, apperrors.New(apperrors.UnableToDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	buf, err := s.Fn(img.Buffer)
	if err != nil {
		return nil, err
	}

	out := *img
	out.Buffer = buf
	out.Data = nil
	out.Stage = core.StageFiltered
	out.Meta.Width = buf.Width()
	out.Meta.Height = buf.Height()
	return &out, nil
}

// AdjustSteps returns one step per present adjustment of spec, in the fixed
// adjustment order.  Step names are prefixed with "adjust.".
func AdjustSteps(spec *adjust.Spec) []core.Step {
	ops := adjust.Ops(spec)
	steps := make([]core.Step, 0, len(ops))
	for _, op := range ops {
		apply := op.Apply
		steps = append(steps, &BufferStep{
			StepName: "adjust." + op.Name,
			Fn:       func(b *core.Buffer) (*core.Buffer, error) { return apply(b), nil },
		})
	}
	return steps
}

// FilterStep runs one custom filter request.
type FilterStep struct {
	Request filters.Request
	Options filters.PatternOptions
}

func (s *FilterStep) Name() string {
	if s.Request == nil {
		return "filter"
	}
	return "filter." + s.Request.Kind()
}

func (s *FilterStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	step := &BufferStep{
		StepName: s.Name(),
		Fn: func(b *core.Buffer) (*core.Buffer, error) {
			return filters.Apply(b, s.Request, s.Options)
		},
	}
	return step.Execute(ctx, img)
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStep serialises the Buffer to PNG using the registry.
type EncodeStep struct {
	Registry core.Registry
}

func (s *EncodeStep) Name() string { return "encode" }

func (s *EncodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Buffer == nil {
		return nil, apperrors.New(apperrors.UnableToDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	enc, ok := s.Registry.EncoderFor(core.FormatPNG)
	if !ok {
		return nil, apperrors.New(apperrors.UnableToDecode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, core.FormatPNG))
	}

	data, err := enc.Encode(ctx, img.Buffer)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.UnableToDecode, s.Name(), err)
	}

	out := *img
	out.Data = data
	out.Format = core.FormatPNG
	out.Stage = core.StageEncoded
	out.Meta.Format = core.FormatPNG
	out.Meta.SizeBytes = int64(len(data))
	return &out, nil
}
