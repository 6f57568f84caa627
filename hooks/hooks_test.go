package hooks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

func TestLogrusLogger(t *testing.T) {
	l, hook := logtest.NewNullLogger()
	l.SetLevel(log.DebugLevel)
	logger := NewLogrusLogger(l).With("request", "r1")

	logger.Info("process.done", "bytes", 42, "format", "png")
	require.Len(t, hook.Entries, 1)
	e := hook.LastEntry()
	assert.Equal(t, log.InfoLevel, e.Level)
	assert.Equal(t, "process.done", e.Message)
	assert.Equal(t, log.Fields{"request": "r1", "bytes": 42, "format": "png"}, e.Data)

	logger.Error("odd", "lonely")
	assert.Equal(t, "lonely", hook.LastEntry().Data["!BADKEY"])

	logger.Debug("dbg", 7, true)
	assert.Equal(t, true, hook.LastEntry().Data["7"])
	assert.Equal(t, log.DebugLevel, hook.LastEntry().Level)

	logger.Warn("warn")
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	assert.Len(t, hook.Entries, 4)
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Debug("step", "name", "decode")
	logger.Error("failed", "code", "UnableToDecode")
	assert.Contains(t, buf.String(), "name=decode")
	assert.Contains(t, buf.String(), "code=UnableToDecode")
}

func TestLoggingHook(t *testing.T) {
	l, hook := logtest.NewNullLogger()
	l.SetLevel(log.DebugLevel)
	h := NewLoggingHook(NewLogrusLogger(l))

	img := &core.ImageData{Stage: core.StageDecoded, Format: core.FormatPNG}
	h.BeforeStep(context.Background(), "adjust.blur", img)
	assert.Equal(t, "pipeline.step.start", hook.LastEntry().Message)
	assert.Equal(t, "decoded", hook.LastEntry().Data["stage"])

	h.AfterStep(context.Background(), "adjust.blur", img, time.Millisecond, nil)
	assert.Equal(t, "pipeline.step.done", hook.LastEntry().Message)

	err := apperrors.New(apperrors.NoColorInput, "filters.bands", nil)
	h.AfterStep(context.Background(), "filter.color_band", nil, time.Millisecond, err)
	e := hook.LastEntry()
	assert.Equal(t, log.ErrorLevel, e.Level)
	assert.Equal(t, "NoColorInput", e.Data["code"])
}

func TestMetricsHook(t *testing.T) {
	m := NewInMemoryMetrics()
	h := NewMetricsHook(m)
	ctx := context.Background()

	h.AfterStep(ctx, "decode", nil, 2*time.Millisecond, nil)
	h.AfterStep(ctx, "decode", nil, 3*time.Millisecond, nil)
	h.AfterStep(ctx, "decode", nil, time.Millisecond, apperrors.New(apperrors.UnableToDecode, "decode", nil))
	h.AfterStep(ctx, "encode", nil, time.Millisecond, errors.New("plain"))
	m.RecordThroughput(100)
	m.RecordThroughput(50)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.StepCalls["decode"])
	assert.Equal(t, 6*time.Millisecond, snap.StepDurations["decode"])
	assert.Equal(t, int64(1), snap.StepErrors["decode"])
	assert.Equal(t, int64(1), snap.ErrorCodes["UnableToDecode"])
	assert.Equal(t, int64(1), snap.ErrorCodes["unknown"])
	assert.Equal(t, int64(150), snap.TotalThroughputB)

	// snapshots are copies
	snap.StepCalls["decode"] = 99
	assert.Equal(t, int64(3), m.Snapshot().StepCalls["decode"])
}

func TestInMemoryMetricsConcurrent(t *testing.T) {
	m := NewInMemoryMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordProcessingTime("encode", time.Microsecond)
				m.RecordThroughput(1)
			}
		}()
	}
	wg.Wait()
	snap := m.Snapshot()
	assert.Equal(t, int64(1600), snap.StepCalls["encode"])
	assert.Equal(t, int64(1600), snap.TotalThroughputB)
}
