package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skryldev/image-filter/config"
	apperrors "github.com/Skryldev/image-filter/errors"
	"github.com/Skryldev/image-filter/utils"
)

// Processor runs one request at a time through a list of steps:
// Created -> Decoded -> Filtered -> Encoded.  It holds no per-request state,
// so concurrent calls to Process are independent.  Observers may be attached
// while requests are in flight; a request sees the set present when it began.
type Processor struct {
	cfg      config.Config
	registry Registry

	mu      sync.RWMutex
	hooks   []Hook
	logger  Logger
	metrics MetricsCollector

	processedCount int64
	errorCount     int64
}

// New creates a Processor with the given config and codec registry.
func New(cfg config.Config, reg Registry) *Processor {
	return &Processor{
		cfg:      cfg,
		registry: reg,
		logger:   NopLogger(),
	}
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger()
	}
	p.mu.Lock()
	p.logger = l
	p.mu.Unlock()
}

// Logger returns the attached logger.
func (p *Processor) Logger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m MetricsCollector) {
	p.mu.Lock()
	p.metrics = m
	p.mu.Unlock()
}

// AddHook registers a pipeline hook.
func (p *Processor) AddHook(h Hook) {
	p.mu.Lock()
	// copy so snapshots held by running requests stay intact
	p.hooks = append(p.hooks[:len(p.hooks):len(p.hooks)], h)
	p.mu.Unlock()
}

// observers snapshots the attached logger, metrics collector and hooks.
func (p *Processor) observers() (Logger, MetricsCollector, []Hook) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger, p.metrics, p.hooks
}

// Registry returns the underlying codec registry.
func (p *Processor) Registry() Registry { return p.registry }

// Config returns the configuration the processor was built with.
func (p *Processor) Config() config.Config { return p.cfg }

// Process reads src, runs steps in order and returns the encoded result.
// The last step must leave the image in StageEncoded.
func (p *Processor) Process(ctx context.Context, src Source, steps ...Step) (*ProcessingResult, error) {
	if len(steps) == 0 {
		return nil, apperrors.New(apperrors.NotImplemented, "process", apperrors.ErrEmptyInput)
	}

	start := time.Now()
	logger, metrics, hooks := p.observers()

	// --- 1. Drain source into memory (respecting max size limit) -------------
	var limitedR = src.Reader
	if p.cfg.MaxImageBytes > 0 {
		limitedR = &utils.LimitedReader{R: src.Reader, Max: p.cfg.MaxImageBytes}
	}

	buf, err := utils.DrainReader(ctx, limitedR, p.cfg.ChunkSize)
	if err != nil {
		return nil, p.fail(logger, apperrors.Wrap(apperrors.UnableToDecode, "process.drain", err))
	}
	rawBytes := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	// --- 2. Detect format ----------------------------------------------------
	format := Format(utils.DetectFormat(rawBytes))
	if f := contentTypeToFormat(src.ContentType); f != FormatUnknown {
		format = f
	}

	img := &ImageData{
		Data:         rawBytes,
		Format:       format,
		Stage:        StageCreated,
		OriginalSize: int64(len(rawBytes)),
	}
	logger.Debug("process.start", "name", src.Name, "format", format, "bytes", len(rawBytes), "steps", len(steps))

	// --- 3. Run steps --------------------------------------------------------
	timings := make(map[string]time.Duration, len(steps))
	current := img
	for _, step := range steps {
		for _, h := range hooks {
			h.BeforeStep(ctx, step.Name(), current)
		}
		t := time.Now()
		next, stepErr := step.Execute(ctx, current)
		elapsed := time.Since(t)
		timings[step.Name()] += elapsed
		for _, h := range hooks {
			h.AfterStep(ctx, step.Name(), next, elapsed, stepErr)
		}
		if stepErr != nil {
			return nil, p.fail(logger, stepErr)
		}
		current = next
	}

	if current.Stage != StageEncoded || len(current.Data) == 0 {
		return nil, p.fail(logger, apperrors.New(apperrors.NotImplemented, "process",
			fmt.Errorf("%w: stopped at stage %s", apperrors.ErrIncomplete, current.Stage)))
	}

	atomic.AddInt64(&p.processedCount, 1)
	if metrics != nil {
		metrics.RecordThroughput(int64(len(current.Data)))
	}

	res := NewProcessingResult(current.Data, current.Format)
	res.elapsed = time.Since(start)
	res.timings = timings
	logger.Debug("process.done",
		"name", src.Name,
		"duration_ms", res.elapsed.Milliseconds(),
		"output_bytes", res.Len(),
	)
	return res, nil
}

func (p *Processor) fail(logger Logger, err error) error {
	atomic.AddInt64(&p.errorCount, 1)
	code, _ := apperrors.CodeOf(err)
	logger.Error("process.failed", "code", code.String(), "error", err.Error())
	return err
}

// contentTypeToFormat maps MIME types to Format values.
func contentTypeToFormat(ct string) Format {
	switch ct {
	case "image/jpeg", "image/jpg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	case "image/webp":
		return FormatWebP
	case "image/gif":
		return FormatGIF
	case "image/bmp":
		return FormatBMP
	case "image/tiff":
		return FormatTIFF
	}
	return FormatUnknown
}

// ProcessedCount returns the total number of successfully processed images.
func (p *Processor) ProcessedCount() int64 { return atomic.LoadInt64(&p.processedCount) }

// ErrorCount returns the total number of processing errors.
func (p *Processor) ErrorCount() int64 { return atomic.LoadInt64(&p.errorCount) }
