package core

import (
	"fmt"
	"sync"

	apperrors "github.com/Skryldev/image-filter/errors"
)

// DefaultRegistry is a thread-safe implementation of Registry.  A codec is
// only accepted for a format it reports it can handle.
type DefaultRegistry struct {
	mu       sync.RWMutex
	decoders map[Format]Decoder
	encoders map[Format]Encoder
}

// NewRegistry returns an empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		decoders: make(map[Format]Decoder),
		encoders: make(map[Format]Encoder),
	}
}

// RegisterDecoder binds d to f, replacing any previous decoder.  It fails
// with NotImplemented when d is nil or does not decode f.
func (r *DefaultRegistry) RegisterDecoder(f Format, d Decoder) error {
	if d == nil || !d.CanDecode(f) {
		return apperrors.New(apperrors.NotImplemented, "registry.decoder",
			fmt.Errorf("%w: no decoder for %s", apperrors.ErrUnsupportedFormat, f))
	}
	r.mu.Lock()
	r.decoders[f] = d
	r.mu.Unlock()
	return nil
}

// RegisterEncoder binds e to f under the same rules as RegisterDecoder.
func (r *DefaultRegistry) RegisterEncoder(f Format, e Encoder) error {
	if e == nil || !e.CanEncode(f) {
		return apperrors.New(apperrors.NotImplemented, "registry.encoder",
			fmt.Errorf("%w: no encoder for %s", apperrors.ErrUnsupportedFormat, f))
	}
	r.mu.Lock()
	r.encoders[f] = e
	r.mu.Unlock()
	return nil
}

func (r *DefaultRegistry) DecoderFor(f Format) (Decoder, bool) {
	r.mu.RLock()
	d, ok := r.decoders[f]
	r.mu.RUnlock()
	return d, ok
}

func (r *DefaultRegistry) EncoderFor(f Format) (Encoder, bool) {
	r.mu.RLock()
	e, ok := r.encoders[f]
	r.mu.RUnlock()
	return e, ok
}
