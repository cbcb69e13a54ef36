package decoder

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/logging"
	"github.com/ironsheep/inscription-decoder/internal/metrics"
	"github.com/ironsheep/inscription-decoder/internal/script"
)

func stoneImage(t *testing.T) imaging.RawImage {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 24, 12))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	for y := 3; y < 9; y++ {
		img.SetGray(6, y, color.Gray{Y: 30})
		img.SetGray(7, y, color.Gray{Y: 30})
	}
	raw, err := imaging.NewRawImage(img)
	require.NoError(t, err)
	return raw
}

func referenceTables(t *testing.T) *script.Tables {
	t.Helper()
	tt, err := script.NewTransliterationTable(script.MapEntries("𑀅", "அ", "𑀓", "க", "𑀸", "வ"))
	require.NoError(t, err)
	gt, err := script.NewGlossTable(script.MapEntries("கோ", "Temple", "வன்", "King", "நாதன்", "Lord"))
	require.NoError(t, err)
	return &script.Tables{Transliteration: tt, Gloss: gt}
}

func quietPipeline(opts Options) *Pipeline {
	opts.Logger = logging.Discard()
	return NewPipeline(opts)
}

func TestDecode_ZeroDetections(t *testing.T) {
	res, err := Decode(context.Background(), stoneImage(t), detection.NewStubDetector(), referenceTables(t))
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.False(t, math.IsNaN(res.Confidence))
}

func TestDecode_ReferenceDetections(t *testing.T) {
	det := detection.NewStubDetector(detection.ReferenceDetections()...)
	report, err := quietPipeline(Options{}).Run(context.Background(), stoneImage(t), det, referenceTables(t))
	require.NoError(t, err)

	assert.Equal(t, "𑀅𑀓𑀸", report.Result.ArchaicText)
	assert.Equal(t, "அகவ", report.Result.ModernText)
	assert.Equal(t, "அகவ", report.Result.GlossedText)
	assert.InDelta(t, 0.92, report.Result.Confidence, 1e-4)
	assert.Len(t, report.Detections, 3)
	assert.Equal(t, 1.0, report.Scale)
	assert.Equal(t, Trace{
		StageIdle, StageNormalizing, StageDetecting,
		StageTransliterating, StageAnnotating, StageAggregated,
	}, report.Trace)
}

func TestDecode_GlossCascade(t *testing.T) {
	empty, err := script.NewTransliterationTable(nil)
	require.NoError(t, err)
	tables := referenceTables(t)
	tables.Transliteration = empty

	det := detection.NewStubDetector(
		detection.GlyphDetection{Symbol: "கோ", Confidence: 1},
		detection.GlyphDetection{Symbol: "வன்", Confidence: 1},
		detection.GlyphDetection{Symbol: " ", Confidence: 1},
		detection.GlyphDetection{Symbol: "நாதன்", Confidence: 1},
	)

	for _, mode := range []script.Mode{script.ModeSequential, script.ModeSinglePass} {
		t.Run(string(mode), func(t *testing.T) {
			report, err := quietPipeline(Options{GlossMode: mode}).Run(context.Background(), stoneImage(t), det, tables)
			require.NoError(t, err)
			assert.Equal(t, "கோவன் நாதன்", report.Result.ModernText)
			assert.Equal(t, "கோ [Temple]வன் [King] நாதன் [Lord]", report.Result.GlossedText)
		})
	}
}

func TestDecode_UnknownSymbolsPassThrough(t *testing.T) {
	det := detection.NewStubDetector(
		detection.GlyphDetection{Symbol: "𑀅", Confidence: 0.5},
		detection.GlyphDetection{Symbol: "𑀩", Confidence: 0.5},
	)
	res, err := Decode(context.Background(), stoneImage(t), det, referenceTables(t))
	require.NoError(t, err)
	assert.Equal(t, "அ𑀩", res.ModernText)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestDecode_Failures(t *testing.T) {
	tables := referenceTables(t)
	good := detection.NewStubDetector(detection.ReferenceDetections()...)

	tests := []struct {
		name     string
		raw      imaging.RawImage
		det      detection.Detector
		tables   *script.Tables
		kind     Kind
		sentinel error
		stage    Stage
	}{
		{"zero-size image", imaging.RawImage{}, good, tables, KindInvalidImage, ErrInvalidImage, StageNormalizing},
		{"detector unavailable", stoneImage(t), detection.NewUnavailableDetector("model missing"), tables, KindDetectionUnavailable, ErrDetectionUnavailable, StageDetecting},
		{"no detector", stoneImage(t), nil, tables, KindDetectionUnavailable, ErrDetectionUnavailable, StageDetecting},
		{"detector error", stoneImage(t), detection.DetectorFunc(func(context.Context, *imaging.NormalizedImage) ([]detection.GlyphDetection, error) {
			return nil, errors.New("model crashed")
		}), tables, KindDetectionUnavailable, ErrDetectionUnavailable, StageDetecting},
		{"confidence out of range", stoneImage(t), detection.NewStubDetector(detection.GlyphDetection{Symbol: "𑀅", Confidence: 1.5}), tables, KindDetectionUnavailable, ErrDetectionUnavailable, StageDetecting},
		{"no tables", stoneImage(t), good, nil, KindTableLoad, ErrTableLoad, StageIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := quietPipeline(Options{}).Run(context.Background(), tt.raw, tt.det, tt.tables)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.stage, StageOf(err))

			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, StageFailed, de.Trace.Last())
			assert.Equal(t, tt.stage, de.Trace[len(de.Trace)-2])
		})
	}
}

func TestError_IsWithoutWrappedSentinel(t *testing.T) {
	err := &Error{Kind: KindDetectionUnavailable, Stage: StageDetecting, Err: errors.New("boom")}
	assert.ErrorIs(t, err, ErrDetectionUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "detecting")
	assert.Contains(t, err.Error(), "detection_unavailable")
	assert.Equal(t, Kind(0), KindOf(errors.New("other")))
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, 0.0, Aggregate(nil, "", "").Confidence)

	dets := []detection.GlyphDetection{{Symbol: "a", Confidence: 0.2}, {Symbol: "b", Confidence: 0.4}}
	res := Aggregate(dets, "A", "A [x]")
	assert.Equal(t, "ab", res.ArchaicText)
	assert.Equal(t, "A", res.ModernText)
	assert.Equal(t, "A [x]", res.GlossedText)
	assert.InDelta(t, 0.3, res.Confidence, 1e-9)

	clamped := Aggregate([]detection.GlyphDetection{{Symbol: "a", Confidence: 3}}, "", "")
	assert.Equal(t, 1.0, clamped.Confidence)
	nan := Aggregate([]detection.GlyphDetection{{Symbol: "a", Confidence: math.NaN()}}, "", "")
	assert.Equal(t, 0.0, nan.Confidence)
}

func TestStageAndKindNames(t *testing.T) {
	assert.Equal(t, "transliterating", StageTransliterating.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StageDetecting.Terminal())
	assert.Equal(t, StageAggregated, StageAggregated.next())
	assert.Equal(t, "idle -> normalizing -> failed", Trace{StageIdle, StageNormalizing, StageFailed}.String())

	b, err := KindTableLoad.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "table_load", string(b))
}

func TestReport_JSONRoundTrip(t *testing.T) {
	svc := newService(t, detection.NewStubDetector(detection.ReferenceDetections()...), nil)
	report, err := svc.Decode(context.Background(), stoneImage(t))
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trace":["idle","normalizing","detecting","transliterating","annotating","aggregated"]`)

	var back Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *report, back)
}

func TestStageAndKind_TextRoundTrip(t *testing.T) {
	for s := StageIdle; s <= StageFailed; s++ {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got Stage
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	for _, k := range []Kind{KindInvalidImage, KindDetectionUnavailable, KindTableLoad} {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var got Kind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}

	var kinds []Kind
	require.NoError(t, json.Unmarshal([]byte(`["table_load","invalid_image"]`), &kinds))
	assert.Equal(t, []Kind{KindTableLoad, KindInvalidImage}, kinds)

	var st Stage
	assert.Error(t, st.UnmarshalText([]byte("sleeping")))
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("kind(0)")))
}

func newService(t *testing.T, det detection.Detector, m *metrics.DecoderMetrics) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Pipeline: Options{Logger: logging.Discard(), Metrics: m},
		Detector: det,
		Tables:   script.NewStaticRegistry(referenceTables(t)),
	})
	require.NoError(t, err)
	return svc
}

func TestService_PublishesOnSuccess(t *testing.T) {
	svc := newService(t, detection.NewStubDetector(detection.ReferenceDetections()...), nil)
	assert.False(t, svc.Available("s1"))

	report, err := svc.DecodeSession(context.Background(), "s1", stoneImage(t))
	require.NoError(t, err)

	got, ok := svc.Result("s1")
	require.True(t, ok)
	assert.Equal(t, report.Result, got)
	assert.False(t, svc.Available("s2"))

	svc.Clear("s1")
	assert.False(t, svc.Available("s1"))
}

func TestService_ClearAll(t *testing.T) {
	svc := newService(t, detection.NewStubDetector(detection.ReferenceDetections()...), nil)
	for _, id := range []string{"s1", "s2"} {
		_, err := svc.DecodeSession(context.Background(), id, stoneImage(t))
		require.NoError(t, err)
	}

	svc.ClearAll()
	assert.False(t, svc.Available("s1"))
	assert.False(t, svc.Available("s2"))
}

func TestService_FailureKeepsPriorResult(t *testing.T) {
	svc := newService(t, detection.NewStubDetector(detection.ReferenceDetections()...), nil)
	first, err := svc.DecodeSession(context.Background(), "s1", stoneImage(t))
	require.NoError(t, err)

	_, err = svc.DecodeSession(context.Background(), "s1", imaging.RawImage{})
	require.ErrorIs(t, err, ErrInvalidImage)

	got, ok := svc.Result("s1")
	require.True(t, ok)
	assert.Equal(t, first.Result, got)
}

func TestService_DecodeDoesNotPublish(t *testing.T) {
	svc := newService(t, detection.NewStubDetector(detection.ReferenceDetections()...), nil)
	_, err := svc.Decode(context.Background(), stoneImage(t))
	require.NoError(t, err)
	_, err = svc.DecodeSession(context.Background(), "", stoneImage(t))
	assert.Error(t, err)
}

func TestService_TableLoadFailure(t *testing.T) {
	reg := script.NewRegistry(script.Source{GlossPath: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, reg.Init())

	svc, err := NewService(ServiceConfig{
		Pipeline: Options{Logger: logging.Discard()},
		Detector: detection.NewStubDetector(),
		Tables:   reg,
	})
	require.NoError(t, err)

	_, err = svc.DecodeSession(context.Background(), "s1", stoneImage(t))
	assert.ErrorIs(t, err, ErrTableLoad)
	assert.Equal(t, KindTableLoad, KindOf(err))
	assert.Contains(t, err.Error(), "missing.json")
	assert.False(t, svc.Available("s1"))
}

func TestService_EmptyTransliterationTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transliteration.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	reg := script.NewRegistry(script.Source{TransliterationPath: path})
	require.ErrorIs(t, reg.Init(), ErrTableLoad)

	svc, err := NewService(ServiceConfig{
		Pipeline: Options{Logger: logging.Discard()},
		Detector: detection.NewStubDetector(detection.ReferenceDetections()...),
		Tables:   reg,
	})
	require.NoError(t, err)

	_, err = svc.DecodeSession(context.Background(), "s1", stoneImage(t))
	assert.Equal(t, KindTableLoad, KindOf(err))
	assert.Equal(t, StageIdle, StageOf(err))
	assert.False(t, svc.Available("s1"))
}

func TestService_DetectorTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	blocking := detection.DetectorFunc(func(ctx context.Context, _ *imaging.NormalizedImage) ([]detection.GlyphDetection, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc, err := NewService(ServiceConfig{
		Pipeline:        Options{Logger: logging.Discard()},
		Detector:        blocking,
		Tables:          script.NewStaticRegistry(referenceTables(t)),
		DetectorTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.DecodeSession(context.Background(), "s1", stoneImage(t))
	assert.ErrorIs(t, err, ErrDetectionUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.Error(t, err)

	_, err = NewService(ServiceConfig{
		Tables:          script.NewStaticRegistry(referenceTables(t)),
		DetectorTimeout: -time.Second,
	})
	assert.Error(t, err)
}

func TestService_Metrics(t *testing.T) {
	m, err := metrics.NewDecoderMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	svc := newService(t, detection.NewStubDetector(detection.ReferenceDetections()...), m)

	_, err = svc.DecodeSession(context.Background(), "s1", stoneImage(t))
	require.NoError(t, err)
	_, err = svc.DecodeSession(context.Background(), "s1", imaging.RawImage{})
	require.Error(t, err)
	require.NoError(t, svc.ReloadTables())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodesTotal.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("invalid_image", "normalizing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TableReloads.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 4, testutil.CollectAndCount(m.StageDuration))
}

func TestService_ConcurrentSessions(t *testing.T) {
	svc := newService(t, detection.NewStubDetector(detection.ReferenceDetections()...), nil)
	raw := stoneImage(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.DecodeSession(context.Background(), id, raw)
			assert.NoError(t, err)
		}(string(rune('a' + i)))
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		got, ok := svc.Result(string(rune('a' + i)))
		assert.True(t, ok)
		assert.Equal(t, "அகவ", got.ModernText)
	}
}
