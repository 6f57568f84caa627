// Package imagefilter is the entry point of the image filter engine.
//
// A Processor is built once from a config.Config.  Each request starts with
// Load, which normalises the input into raw bytes, and then runs one of the
// Compute entry points: decode, apply adjustments or a custom filter, and
// encode to PNG.  Save writes a decoded buffer to a destination under a
// timestamped file name.
package imagefilter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Skryldev/image-filter/adapters/decoder"
	"github.com/Skryldev/image-filter/adapters/encoder"
	"github.com/Skryldev/image-filter/adapters/storage"
	"github.com/Skryldev/image-filter/config"
	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
	"github.com/Skryldev/image-filter/filters"
	"github.com/Skryldev/image-filter/pipeline"
	"github.com/Skryldev/image-filter/utils"
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP
)

var errNoStorage = errors.New("no storage configured")

// SaveTimeLayout is the timestamp layout of saved file names.
const SaveTimeLayout = "2006-01-02_15-04-05"

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Processor is the primary entry point.
type Processor struct {
	cfg   config.Config
	inner *core.Processor
	reg   *core.DefaultRegistry

	// encode-only template cloned by every Save
	savePipeline *pipeline.Pipeline

	mu         sync.RWMutex
	storage    core.StorageAdapter
	storageErr error
	hooks      []core.Hook
	clock      func() time.Time
}

// New creates a fully wired Processor with the PNG encoder, every built-in
// decoder and local filesystem storage.  Use SetStorage for other backends.
func New(cfg config.Config) *Processor {
	reg := core.NewRegistry()
	mustRegister(reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG()))
	mustRegister(reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG()))
	mustRegister(reg.RegisterDecoder(core.FormatWebP, decoder.NewWebP()))
	for _, f := range decoder.RasterFormats() {
		d, err := decoder.NewRaster(f)
		mustRegister(err)
		mustRegister(reg.RegisterDecoder(f, d))
	}
	mustRegister(reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG(cfg.PNG.Compression)))

	p := &Processor{
		cfg:          cfg,
		inner:        core.New(cfg, reg),
		reg:          reg,
		savePipeline: pipeline.New().Use(&pipeline.EncodeStep{Registry: reg}),
		clock:        time.Now,
	}
	if cfg.Storage == config.StorageS3 {
		// no store until UseS3 supplies a client
		p.storageErr = errNoStorage
		return p
	}
	local, err := storage.NewLocal(cfg.Local.RootDir, os.FileMode(cfg.Local.Permissions))
	if err != nil {
		p.storageErr = err
		return p
	}
	p.storage = local
	return p
}

// mustRegister panics on a built-in codec that rejects its own format.
func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// SetLogger attaches a structured logger.  A storage backend that failed to
// initialise in New is reported on it once.
func (p *Processor) SetLogger(l core.Logger) {
	p.inner.SetLogger(l)
	p.mu.RLock()
	store, err := p.storage, p.storageErr
	p.mu.RUnlock()
	if store == nil && err != nil && !errors.Is(err, errNoStorage) {
		p.inner.Logger().Warn("storage.unavailable", "backend", string(p.cfg.Storage), "error", err.Error())
	}
}

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m core.MetricsCollector) { p.inner.SetMetrics(m) }

// AddHook registers an observer for pipeline step events, including the
// encode step of Save.
func (p *Processor) AddHook(h core.Hook) {
	p.inner.AddHook(h)
	p.mu.Lock()
	p.hooks = append(p.hooks, h)
	p.mu.Unlock()
}

// RegisterDecoder registers a custom decoder for the given format.  d must
// report that it can decode f.
func (p *Processor) RegisterDecoder(f core.Format, d core.Decoder) error {
	return p.reg.RegisterDecoder(f, d)
}

// Registry exposes the codec registry.
func (p *Processor) Registry() core.Registry { return p.reg }

// SetStorage replaces the save collaborator.
func (p *Processor) SetStorage(s core.StorageAdapter) {
	p.mu.Lock()
	p.storage, p.storageErr = s, nil
	if s == nil {
		p.storageErr = errNoStorage
	}
	p.mu.Unlock()
}

// SetClock replaces the time source used for saved file names.
func (p *Processor) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	p.mu.Lock()
	p.clock = now
	p.mu.Unlock()
}

// UseS3 switches Save to the S3-compatible store named by the config's
// S3.Bucket, talking through client.
func (p *Processor) UseS3(client storage.S3Client) error {
	s3, err := storage.NewS3(client, p.cfg.S3.Bucket)
	if err != nil {
		return err
	}
	p.SetStorage(s3)
	return nil
}

// Config returns the configuration the processor was built with.
func (p *Processor) Config() config.Config { return p.cfg }

// Stats returns lightweight processing statistics.
func (p *Processor) Stats() (processed, failed int64) {
	return p.inner.ProcessedCount(), p.inner.ErrorCount()
}

// Load normalises in into raw bytes.  Malformed base64 fails with
// InvalidParsing; nothing is decoded yet.
func (p *Processor) Load(in core.Input) (*ImageProcess, error) {
	if in == nil {
		return nil, apperrors.New(apperrors.InvalidParsing, "load", apperrors.ErrEmptyInput)
	}
	data, err := in.Bytes()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidParsing, "load", err)
	}
	return &ImageProcess{proc: p, data: data}, nil
}

// SaveFileName returns the file name Save uses for time t.
func SaveFileName(t time.Time) string {
	return "image_save_" + t.Format(SaveTimeLayout) + "." + core.FormatPNG.Extension()
}

// Save encodes buf to PNG and writes it under dest with a timestamped file
// name.  When that name is already taken, a numeric suffix is appended
// rather than overwriting.  It returns the location the store wrote to.  Any
// failure, including a failed encode, is reported as UnableToSave.
func (p *Processor) Save(ctx context.Context, buf *core.Buffer, dest string) (string, error) {
	p.mu.RLock()
	store, storeErr, hooks, now := p.storage, p.storageErr, p.hooks, p.clock
	p.mu.RUnlock()

	if buf == nil || buf.Empty() {
		return "", p.saveFailed(apperrors.New(apperrors.UnableToSave, "save", apperrors.ErrEmptyInput))
	}
	if store == nil {
		if storeErr == nil {
			storeErr = errNoStorage
		}
		return "", p.saveFailed(apperrors.New(apperrors.UnableToSave, "save", storeErr))
	}

	encoded, _, err := p.savePipeline.Clone().
		AddHook(hooks...).
		Run(ctx, &core.ImageData{Buffer: buf, Stage: core.StageFiltered})
	if err != nil {
		return "", p.saveFailed(apperrors.New(apperrors.UnableToSave, "save.encode", err))
	}

	key, err := freeKey(ctx, store, dest, now())
	if err != nil {
		return "", p.saveFailed(apperrors.New(apperrors.UnableToSave, "save.exists", err))
	}
	if err := store.Put(ctx, key, utils.BytesReader(encoded.Data), nil); err != nil {
		return "", p.saveFailed(apperrors.New(apperrors.UnableToSave, "save", err))
	}
	loc := store.Location(key)
	p.inner.Logger().Info("image.saved", "path", loc, "bytes", len(encoded.Data))
	return loc, nil
}

// maxNameAttempts bounds the suffixes tried for one timestamp.
const maxNameAttempts = 1000

// freeKey returns the first key under dest, for time t, that the store does
// not hold yet: SaveFileName(t), then the same name with _1, _2, ...
func freeKey(ctx context.Context, store core.StorageAdapter, dest string, t time.Time) (core.StorageKey, error) {
	base := SaveFileName(t)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 0; i < maxNameAttempts; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		key := core.StorageKey{Bucket: dest, Path: name}
		taken, err := store.Exists(ctx, key)
		if err != nil {
			return core.StorageKey{}, err
		}
		if !taken {
			return key, nil
		}
	}
	return core.StorageKey{}, fmt.Errorf("no free name for %s after %d attempts", base, maxNameAttempts)
}

func (p *Processor) saveFailed(err error) error {
	p.inner.Logger().Error("image.save.failed", "error", err.Error())
	return err
}

func (p *Processor) patternOptions() filters.PatternOptions {
	return filters.PatternOptions{Period: p.cfg.Pattern.Period, StripeWidth: p.cfg.Pattern.StripeWidth}
}
