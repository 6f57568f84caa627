package imagefilter_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imagefilter "github.com/Skryldev/image-filter"
	"github.com/Skryldev/image-filter/adapters/decoder"
	"github.com/Skryldev/image-filter/adjust"
	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
	"github.com/Skryldev/image-filter/filters"
	"github.com/Skryldev/image-filter/hooks"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func solidPNG(t testing.TB, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func redJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(t testing.TB, data []byte) *core.Buffer {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return core.BufferFromImage(img)
}

func newProc(t testing.TB) *imagefilter.Processor {
	t.Helper()
	cfg := imagefilter.DefaultConfig()
	cfg.Workers = 2
	return imagefilter.New(cfg)
}

var red = color.NRGBA{R: 200, G: 10, B: 30, A: 255}

// ── Input normalisation ───────────────────────────────────────────────────────

func TestBrightenScenario(t *testing.T) {
	proc := newProc(t)
	b64 := base64.StdEncoding.EncodeToString(solidPNG(t, 4, 4, color.NRGBA{R: 255, G: 0, B: 0, A: 255}))

	ip, err := proc.Load(core.Base64Input(b64))
	require.NoError(t, err)
	res, err := ip.ComputeAdjustments(context.Background(), &adjust.Spec{Brighten: lo.ToPtr(50)})
	require.NoError(t, err)

	out := decodePNG(t, res.Bytes())
	require.Equal(t, 4, out.Width())
	require.Equal(t, 4, out.Height())
	for _, px := range out.Pixels() {
		assert.Equal(t, core.NewColor(255, 50, 50, 255), px)
	}
	assert.Equal(t, core.FormatPNG, res.Format())
}

func TestBrighten_AddsToEveryColorChannel(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput(solidPNG(t, 3, 3, red)))
	require.NoError(t, err)

	res, err := ip.ComputeAdjustments(context.Background(), &adjust.Spec{Brighten: lo.ToPtr(50)})
	require.NoError(t, err)
	assert.Equal(t, core.NewColor(250, 60, 80, 255), decodePNG(t, res.Bytes()).At(1, 1))
}

func TestLoad_MalformedBase64(t *testing.T) {
	proc := newProc(t)
	_, err := proc.Load(core.Base64Input("not-base64!!"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.InvalidParsing))
	assert.ErrorIs(t, err, apperrors.InvalidParsing)
	assert.Equal(t, "Invalid parsing", apperrors.InvalidParsing.Message())
}

func TestLoad_DataURIPrefix(t *testing.T) {
	proc := newProc(t)
	b64 := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(solidPNG(t, 2, 2, red))

	ip, err := proc.Load(core.Base64Input(b64))
	require.NoError(t, err)
	assert.Equal(t, core.FormatPNG, ip.Format())

	buf, err := ip.Decode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.NewColor(200, 10, 30, 255), buf.At(0, 0))
}

func TestCompute_GarbageBytes(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput("definitely not an image"))
	require.NoError(t, err)

	res, err := ip.ComputeEdgeGradient(context.Background())
	assert.Nil(t, res)
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToDecode))

	_, failed := proc.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestCompute_TruncatedPNG(t *testing.T) {
	proc := newProc(t)
	raw := solidPNG(t, 8, 8, red)
	ip, err := proc.Load(core.RawInput(raw[:len(raw)/2]))
	require.NoError(t, err)

	_, err = ip.ComputeAdjustments(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToDecode))
}

// ── Entry points ──────────────────────────────────────────────────────────────

func TestRoundTrip(t *testing.T) {
	proc := newProc(t)
	src := core.NewBuffer(5, 3)
	for i := 0; i < 15; i++ {
		src.Set(i%5, i/5, core.NewColor(uint8(i*17), uint8(255-i), uint8(i*3), uint8(100+i*10)))
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, src.Image()))

	ip, err := proc.Load(core.RawInput(encoded.Bytes()))
	require.NoError(t, err)
	res, err := ip.ComputeAdjustments(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, src.Equal(decodePNG(t, res.Bytes())))
	// base64 and raw views agree
	raw, err := base64.StdEncoding.DecodeString(res.Base64())
	require.NoError(t, err)
	assert.Equal(t, res.Bytes(), raw)
}

func TestJPEGInputEncodesPNG(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput(redJPEG(t, 16, 8)))
	require.NoError(t, err)

	res, err := ip.ComputeAdjustments(context.Background(), &adjust.Spec{Grayscale: lo.ToPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, core.FormatPNG, res.Format())

	out := decodePNG(t, res.Bytes())
	assert.Equal(t, 16, out.Width())
	px := out.At(3, 3)
	assert.Equal(t, px.Red, px.Green)
	assert.Equal(t, px.Green, px.Blue)
}

func TestComputePixelPattern(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput(solidPNG(t, 8, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})))
	require.NoError(t, err)

	black := core.NewColor(0, 0, 0, 255)
	res, err := ip.ComputePixelPattern(context.Background(), filters.PatternVertical, black)
	require.NoError(t, err)

	out := decodePNG(t, res.Bytes())
	for x := 0; x < 8; x++ {
		if x%4 == 0 {
			assert.Equal(t, black, out.At(x, 0), "column %d", x)
		} else {
			assert.Equal(t, core.NewColor(255, 255, 255, 255), out.At(x, 0), "column %d", x)
		}
	}
}

func TestComputePixelPattern_ConfiguredPeriod(t *testing.T) {
	cfg := imagefilter.DefaultConfig()
	cfg.Pattern.Period = 2
	proc := imagefilter.New(cfg)
	ip, err := proc.Load(core.RawInput(solidPNG(t, 4, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})))
	require.NoError(t, err)

	res, err := ip.ComputePixelPattern(context.Background(), filters.PatternVertical, core.NewColor(0, 0, 0, 255))
	require.NoError(t, err)
	out := decodePNG(t, res.Bytes())
	assert.Equal(t, uint8(0), out.At(2, 0).Red)
	assert.Equal(t, uint8(255), out.At(3, 0).Red)
}

func TestComputeGradient(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput(solidPNG(t, 5, 2, red)))
	require.NoError(t, err)

	from, to := core.NewColor(0, 0, 0, 255), core.NewColor(0, 0, 255, 255)
	res, err := ip.ComputeGradient(context.Background(), from, to, filters.Horizontal)
	require.NoError(t, err)

	out := decodePNG(t, res.Bytes())
	assert.Equal(t, from, out.At(0, 1))
	assert.Equal(t, to, out.At(4, 0))
}

func TestComputeColorBands(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput(solidPNG(t, 10, 10, red)))
	require.NoError(t, err)

	_, err = ip.ComputeColorBands(context.Background(), nil, filters.Horizontal)
	assert.True(t, apperrors.IsCode(err, apperrors.NoColorInput))

	a, b := core.NewColor(1, 2, 3, 255), core.NewColor(4, 5, 6, 255)
	res, err := ip.ComputeColorBands(context.Background(), []core.Color{a, b, a}, filters.Vertical)
	require.NoError(t, err)
	out := decodePNG(t, res.Bytes())
	assert.Equal(t, a, out.At(0, 2))
	assert.Equal(t, b, out.At(9, 3))
	assert.Equal(t, a, out.At(5, 9))
}

func TestComputeEdgeGradient_Uniform(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput(solidPNG(t, 6, 6, red)))
	require.NoError(t, err)

	res, err := ip.ComputeEdgeGradient(context.Background())
	require.NoError(t, err)
	for _, px := range decodePNG(t, res.Bytes()).Pixels() {
		assert.Equal(t, core.NewColor(0, 0, 0, 255), px)
	}
}

func TestComputeFilter_Unsupported(t *testing.T) {
	proc := newProc(t)
	ip, err := proc.Load(core.RawInput(solidPNG(t, 2, 2, red)))
	require.NoError(t, err)

	_, err = ip.ComputeFilter(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.NotImplemented))
}

func TestMaxImageBytes(t *testing.T) {
	cfg := imagefilter.DefaultConfig()
	cfg.MaxImageBytes = 16
	proc := imagefilter.New(cfg)

	ip, err := proc.Load(core.RawInput(solidPNG(t, 4, 4, red)))
	require.NoError(t, err)
	_, err = ip.ComputeAdjustments(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToDecode))
}

// ── Save ──────────────────────────────────────────────────────────────────────

func TestSave(t *testing.T) {
	proc := newProc(t)
	proc.SetClock(func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) })
	dir := t.TempDir()

	buf := core.NewFilledBuffer(3, 2, core.NewColor(10, 20, 30, 40))
	path, err := proc.Save(context.Background(), buf, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "image_save_2024-03-09_14-05-07.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, buf.Equal(decodePNG(t, data)))
}

func TestImageProcessSave(t *testing.T) {
	proc := newProc(t)
	proc.SetClock(func() time.Time { return time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC) })
	dir := t.TempDir()

	ip, err := proc.Load(core.RawInput(solidPNG(t, 2, 2, red)))
	require.NoError(t, err)
	path, err := ip.Save(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "image_save_2030-01-02_03-04-05.png", filepath.Base(path))
	assert.FileExists(t, path)
}

func TestSave_Failure(t *testing.T) {
	proc := newProc(t)
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")

	_, err := proc.Save(context.Background(), core.NewFilledBuffer(1, 1, core.NewColor(0, 0, 0, 255)), missing)
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToSave))

	_, err = proc.Save(context.Background(), nil, t.TempDir())
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToSave))
}

type failingStore struct{}

func (failingStore) Put(context.Context, core.StorageKey, io.Reader, map[string]string) error {
	return apperrors.New(apperrors.NotImplemented, "store", nil)
}
func (failingStore) Exists(context.Context, core.StorageKey) (bool, error) { return false, nil }
func (failingStore) Location(k core.StorageKey) string                     { return k.Path }

func TestSave_StoreErrorBecomesUnableToSave(t *testing.T) {
	proc := newProc(t)
	proc.SetStorage(failingStore{})
	_, err := proc.Save(context.Background(), core.NewFilledBuffer(1, 1, core.NewColor(0, 0, 0, 255)), "out")
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToSave))
}

type memObjects struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func (m *memObjects) PutObject(_ context.Context, bucket, key string, body io.Reader, _ map[string]string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objs == nil {
		m.objs = map[string][]byte{}
	}
	m.objs[bucket+"/"+key] = data
	return nil
}

func (m *memObjects) HeadObject(_ context.Context, bucket, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objs[bucket+"/"+key]
	return ok, nil
}

func TestSave_S3(t *testing.T) {
	cfg := imagefilter.DefaultConfig()
	cfg.Storage = "s3"
	cfg.S3.Bucket = "images"
	proc := imagefilter.New(cfg)
	proc.SetClock(func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) })
	buf := core.NewFilledBuffer(2, 2, core.NewColor(1, 2, 3, 255))

	_, err := proc.Save(context.Background(), buf, "out")
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToSave), "no store before UseS3")

	assert.Error(t, proc.UseS3(nil))

	client := &memObjects{}
	require.NoError(t, proc.UseS3(client))
	loc, err := proc.Save(context.Background(), buf, "out")
	require.NoError(t, err)
	assert.Equal(t, "out/image_save_2024-03-09_14-05-07.png", loc)

	data, ok := client.objs["images/out/image_save_2024-03-09_14-05-07.png"]
	require.True(t, ok)
	assert.True(t, buf.Equal(decodePNG(t, data)))
}

func TestSave_RootDirReturnsWrittenPath(t *testing.T) {
	root := t.TempDir()
	cfg := imagefilter.DefaultConfig()
	cfg.Local.RootDir = root
	proc := imagefilter.New(cfg)
	proc.SetClock(func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) })

	buf := core.NewFilledBuffer(2, 1, core.NewColor(9, 8, 7, 255))
	path, err := proc.Save(context.Background(), buf, "out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "out", "image_save_2024-03-09_14-05-07.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, buf.Equal(decodePNG(t, data)))
}

func TestSave_SameSecondDoesNotOverwrite(t *testing.T) {
	proc := newProc(t)
	proc.SetClock(func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) })
	dir := t.TempDir()

	first := core.NewFilledBuffer(1, 1, core.NewColor(255, 0, 0, 255))
	second := core.NewFilledBuffer(1, 1, core.NewColor(0, 0, 255, 255))
	third := core.NewFilledBuffer(1, 1, core.NewColor(0, 255, 0, 255))

	p1, err := proc.Save(context.Background(), first, dir)
	require.NoError(t, err)
	p2, err := proc.Save(context.Background(), second, dir)
	require.NoError(t, err)
	p3, err := proc.Save(context.Background(), third, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "image_save_2024-03-09_14-05-07.png"), p1)
	assert.Equal(t, filepath.Join(dir, "image_save_2024-03-09_14-05-07_1.png"), p2)
	assert.Equal(t, filepath.Join(dir, "image_save_2024-03-09_14-05-07_2.png"), p3)

	for path, want := range map[string]*core.Buffer{p1: first, p2: second, p3: third} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, want.Equal(decodePNG(t, data)), path)
	}
}

func TestSave_StorageInitFailureIsReported(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := imagefilter.DefaultConfig()
	cfg.Local.RootDir = filepath.Join(blocker, "images")
	proc := imagefilter.New(cfg)

	l, logs := logtest.NewNullLogger()
	proc.SetLogger(hooks.NewLogrusLogger(l))
	entry := logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "storage.unavailable", entry.Message)
	assert.Contains(t, entry.Data["error"], "mkdir")

	_, err := proc.Save(context.Background(), core.NewFilledBuffer(1, 1, core.NewColor(0, 0, 0, 255)), "out")
	assert.True(t, apperrors.IsCode(err, apperrors.UnableToSave))
	assert.ErrorContains(t, err, "mkdir")
}

func TestRegisterDecoder_RejectsWrongFormat(t *testing.T) {
	proc := newProc(t)
	err := proc.RegisterDecoder(core.FormatTIFF, decoder.NewPNG())
	assert.True(t, apperrors.IsCode(err, apperrors.NotImplemented))
	require.NoError(t, proc.RegisterDecoder(core.FormatPNG, decoder.NewPNG()))
}

// ── Batch, hooks, concurrency ─────────────────────────────────────────────────

func TestBatch(t *testing.T) {
	proc := newProc(t)
	raw := solidPNG(t, 4, 4, red)
	jobs := []imagefilter.Job{
		{Name: "adjust", Input: core.RawInput(raw), Adjust: &adjust.Spec{Invert: lo.ToPtr(true)}},
		{Name: "bad", Input: core.Base64Input("not-base64!!")},
		{Name: "edges", Input: core.RawInput(raw), Filter: filters.EdgeGradientRequest{}},
		{Name: "bands", Input: core.RawInput(raw), Filter: filters.ColorBandRequest{Direction: filters.Horizontal}},
	}

	results := proc.Batch(context.Background(), jobs)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, jobs[i].Name, r.Name)
	}
	require.NoError(t, results[0].Err)
	assert.Equal(t, core.NewColor(55, 245, 225, 255), decodePNG(t, results[0].Result.Bytes()).At(0, 0))
	assert.True(t, apperrors.IsCode(results[1].Err, apperrors.InvalidParsing))
	require.NoError(t, results[2].Err)
	assert.True(t, apperrors.IsCode(results[3].Err, apperrors.NoColorInput))

	assert.Empty(t, proc.Batch(context.Background(), nil))
}

func TestMetricsHook(t *testing.T) {
	proc := newProc(t)
	m := hooks.NewInMemoryMetrics()
	proc.AddHook(hooks.NewMetricsHook(m))
	proc.SetMetrics(m)

	ip, err := proc.Load(core.RawInput(solidPNG(t, 4, 4, red)))
	require.NoError(t, err)
	_, err = ip.ComputeAdjustments(context.Background(), adjust.Neutral())
	require.NoError(t, err)
	_, err = ip.ComputeColorBands(context.Background(), nil, filters.Vertical)
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.StepCalls["decode"])
	assert.Equal(t, int64(1), snap.StepCalls["adjust.contrast"])
	assert.Equal(t, int64(1), snap.StepCalls["encode"])
	assert.Equal(t, int64(1), snap.StepErrors["filter.color_band"])
	assert.Equal(t, int64(1), snap.ErrorCodes["NoColorInput"])
	assert.Positive(t, snap.TotalThroughputB)
}

func TestConcurrentSafety(t *testing.T) {
	proc := newProc(t)
	raw := solidPNG(t, 32, 32, red)
	ip, err := proc.Load(core.RawInput(raw))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = ip.ComputePixelPattern(context.Background(), filters.PatternCircle, filters.DefaultPatternColor)
			} else {
				_, err = ip.ComputeAdjustments(context.Background(), &adjust.Spec{Blur: lo.ToPtr(1.0)})
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	processed, _ := proc.Stats()
	assert.Equal(t, int64(20), processed)
}

func TestSaveFileName(t *testing.T) {
	name := imagefilter.SaveFileName(time.Date(1999, 12, 31, 23, 59, 58, 0, time.Local))
	assert.Equal(t, "image_save_1999-12-31_23-59-58.png", name)
}

// ── Benchmarks ────────────────────────────────────────────────────────────────

func BenchmarkComputeAdjustments(b *testing.B) {
	proc := newProc(b)
	ip, err := proc.Load(core.RawInput(solidPNG(b, 256, 256, red)))
	require.NoError(b, err)
	spec := &adjust.Spec{Brighten: lo.ToPtr(20), Contrast: lo.ToPtr(15.0), Invert: lo.ToPtr(true)}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ip.ComputeAdjustments(context.Background(), spec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComputeEdgeGradient(b *testing.B) {
	proc := newProc(b)
	ip, err := proc.Load(core.RawInput(redJPEG(b, 256, 256)))
	require.NoError(b, err)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ip.ComputeEdgeGradient(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
