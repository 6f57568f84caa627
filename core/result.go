package core

import (
	"encoding/base64"
	"time"

	"github.com/Skryldev/image-filter/utils"
)

// ProcessingResult is the terminal artifact of a successful request: the
// encoded image plus timing observations.  It is never mutated.
type ProcessingResult struct {
	data    []byte
	format  Format
	elapsed time.Duration
	timings map[string]time.Duration
}

// NewProcessingResult copies data into a new result.
func NewProcessingResult(data []byte, format Format) *ProcessingResult {
	return &ProcessingResult{data: utils.CloneBytes(data), format: format}
}

// Bytes returns a copy of the encoded image.
func (r *ProcessingResult) Bytes() []byte { return utils.CloneBytes(r.data) }

// Base64 returns the encoded image as standard base64 text.
func (r *ProcessingResult) Base64() string { return base64.StdEncoding.EncodeToString(r.data) }

// Format is the encoding of Bytes.
func (r *ProcessingResult) Format() Format { return r.format }

// Len is the size of the encoded image in bytes.
func (r *ProcessingResult) Len() int { return len(r.data) }

// ProcessingTime is the wall time of the whole request.
func (r *ProcessingResult) ProcessingTime() time.Duration { return r.elapsed }

// StepTimings returns a copy of the time spent in each named step.
func (r *ProcessingResult) StepTimings() map[string]time.Duration {
	out := make(map[string]time.Duration, len(r.timings))
	for k, v := range r.timings {
		out[k] = v
	}
	return out
}
