package imagefilter

import (
	"bytes"
	"context"

	"github.com/Skryldev/image-filter/adjust"
	"github.com/Skryldev/image-filter/core"
	"github.com/Skryldev/image-filter/filters"
	"github.com/Skryldev/image-filter/pipeline"
	"github.com/Skryldev/image-filter/utils"
)

// ImageProcess is one loaded request in the Created state: raw input bytes
// only.  Every Compute call decodes those bytes afresh, so an ImageProcess can
// be reused for several outputs.  It is not tied to a goroutine, but calls on
// the same value share nothing mutable.
type ImageProcess struct {
	proc *Processor
	name string
	data []byte
}

// WithName returns a copy of ip whose logs and step events carry name.
func (ip *ImageProcess) WithName(name string) *ImageProcess {
	cp := *ip
	cp.name = name
	return &cp
}

// Len returns the size of the raw input.
func (ip *ImageProcess) Len() int { return len(ip.data) }

// Format returns the sniffed input format.
func (ip *ImageProcess) Format() core.Format { return core.Format(utils.DetectFormat(ip.data)) }

// Decode decodes the raw bytes into a new Buffer.
func (ip *ImageProcess) Decode(ctx context.Context) (*core.Buffer, error) {
	ip.proc.mu.RLock()
	hooks := ip.proc.hooks
	ip.proc.mu.RUnlock()

	out, _, err := pipeline.New().
		Use(&pipeline.DecodeStep{Registry: ip.proc.reg}).
		AddHook(hooks...).
		Run(ctx, &core.ImageData{
			Data:         ip.data,
			Format:       ip.Format(),
			Stage:        core.StageCreated,
			OriginalSize: int64(len(ip.data)),
		})
	if err != nil {
		return nil, err
	}
	return out.Buffer, nil
}

// Save decodes the input and writes it under dest.  See Processor.Save.
func (ip *ImageProcess) Save(ctx context.Context, dest string) (string, error) {
	buf, err := ip.Decode(ctx)
	if err != nil {
		return "", err
	}
	return ip.proc.Save(ctx, buf, dest)
}

// ComputeAdjustments applies the standard adjustments in their fixed order.
// A nil spec applies the neutral spec, which leaves the pixels unchanged.
func (ip *ImageProcess) ComputeAdjustments(ctx context.Context, spec *adjust.Spec) (*core.ProcessingResult, error) {
	if spec == nil {
		spec = adjust.Neutral()
	}
	return ip.run(ctx, pipeline.AdjustSteps(spec)...)
}

// ComputeFilter runs one custom filter request.
func (ip *ImageProcess) ComputeFilter(ctx context.Context, req filters.Request) (*core.ProcessingResult, error) {
	return ip.run(ctx, &pipeline.FilterStep{Request: req, Options: ip.proc.patternOptions()})
}

// ComputePixelPattern overlays c on the pixels selected by pattern.
func (ip *ImageProcess) ComputePixelPattern(ctx context.Context, pattern filters.Pattern, c core.Color) (*core.ProcessingResult, error) {
	return ip.ComputeFilter(ctx, filters.PixelPatternRequest{Pattern: pattern, Color: c})
}

// ComputeGradient overlays a linear gradient from `from` to `to` along d.
func (ip *ImageProcess) ComputeGradient(ctx context.Context, from, to core.Color, d filters.Direction) (*core.ProcessingResult, error) {
	return ip.ComputeFilter(ctx, filters.GradientRequest{From: from, To: to, Direction: d})
}

// ComputeColorBands overlays one band per color along d.  An empty list
// fails with NoColorInput.
func (ip *ImageProcess) ComputeColorBands(ctx context.Context, colors []core.Color, d filters.Direction) (*core.ProcessingResult, error) {
	return ip.ComputeFilter(ctx, filters.ColorBandRequest{Colors: colors, Direction: d})
}

// ComputeEdgeGradient replaces the image with its Sobel edge magnitude.
func (ip *ImageProcess) ComputeEdgeGradient(ctx context.Context) (*core.ProcessingResult, error) {
	return ip.ComputeFilter(ctx, filters.EdgeGradientRequest{})
}

// run drives Created -> Decoded -> Filtered -> Encoded through the core
// processor.
func (ip *ImageProcess) run(ctx context.Context, steps ...core.Step) (*core.ProcessingResult, error) {
	pl := pipeline.New().
		Use(&pipeline.DecodeStep{Registry: ip.proc.reg}).
		Use(steps...).
		Use(&pipeline.EncodeStep{Registry: ip.proc.reg})

	src := core.Source{
		Reader: bytes.NewReader(ip.data),
		Name:   ip.name,
		Size:   int64(len(ip.data)),
	}
	return ip.proc.inner.Process(ctx, src, pl.Steps()...)
}
