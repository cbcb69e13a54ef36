package decoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/logging"
	"github.com/ironsheep/inscription-decoder/internal/metrics"
	"github.com/ironsheep/inscription-decoder/internal/script"
)

// Options configures a Pipeline.
type Options struct {
	// Normalizer prepares images. Nil uses the default options.
	Normalizer *imaging.Normalizer
	// GlossMode selects how gloss entries are applied.
	GlossMode script.Mode
	// Logger defaults to the decoder module logger.
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *metrics.DecoderMetrics
}

// Pipeline runs Normalize, Detect, Transliterate, Annotate and Aggregate in
// order. It holds no per-run state and may be shared between goroutines.
type Pipeline struct {
	normalizer *imaging.Normalizer
	mode       script.Mode
	log        *slog.Logger
	metrics    *metrics.DecoderMetrics
}

// NewPipeline builds a pipeline from opts.
func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{
		normalizer: opts.Normalizer,
		mode:       opts.GlossMode,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
	if p.normalizer == nil {
		p.normalizer, _ = imaging.NewNormalizer(imaging.DefaultNormalizeOptions())
	}
	if p.mode == "" {
		p.mode = script.ModeSequential
	}
	if p.log == nil {
		p.log = logging.ForModule("decoder")
	}
	return p
}

// GlossMode returns the gloss mode in effect.
func (p *Pipeline) GlossMode() script.Mode { return p.mode }

// Normalizer returns the normalizer in use.
func (p *Pipeline) Normalizer() *imaging.Normalizer { return p.normalizer }

// Report is everything one successful run produced.
type Report struct {
	Result     Result                     `json:"result"`
	Detections []detection.GlyphDetection `json:"detections"`
	Trace      Trace                      `json:"trace"`
	// Scale maps raw image coordinates to detection coordinates.
	Scale float64 `json:"scale"`
}

// Decode runs the default pipeline.
func Decode(ctx context.Context, raw imaging.RawImage, det detection.Detector, tables *script.Tables) (Result, error) {
	r, err := NewPipeline(Options{}).Run(ctx, raw, det, tables)
	if err != nil {
		return Result{}, err
	}
	return r.Result, nil
}

// Run decodes raw. It either returns a complete report or a single *Error
// naming the stage that failed; nothing partial is returned.
func (p *Pipeline) Run(ctx context.Context, raw imaging.RawImage, det detection.Detector, tables *script.Tables) (*Report, error) {
	return p.run(ctx, p.log, raw, det, tables)
}

// tracker advances through the stages and times each one.
type tracker struct {
	log     *slog.Logger
	metrics *metrics.DecoderMetrics
	trace   Trace
	started time.Time
}

func (t *tracker) current() Stage { return t.trace.Last() }

func (t *tracker) advance() {
	from := t.current()
	t.observe(from)
	to := from.next()
	t.trace = append(t.trace, to)
	t.log.Debug("stage transition", "from", from, "to", to)
}

func (t *tracker) observe(s Stage) {
	if s != StageIdle && !s.Terminal() {
		t.metrics.ObserveStageDuration(s.String(), time.Since(t.started).Seconds())
	}
	t.started = time.Now()
}

func (t *tracker) fail(kind Kind, err error) *Error {
	stage := t.current()
	t.observe(stage)
	t.trace = append(t.trace, StageFailed)
	t.log.Debug("stage transition", "from", stage, "to", StageFailed)
	return &Error{Kind: kind, Stage: stage, Trace: t.trace, Err: err}
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, raw imaging.RawImage, det detection.Detector, tables *script.Tables) (*Report, error) {
	t := &tracker{log: log, metrics: p.metrics, trace: Trace{StageIdle}, started: time.Now()}

	if tables == nil || tables.Transliteration == nil || tables.Gloss == nil {
		return nil, t.fail(KindTableLoad, fmt.Errorf("%w: tables not loaded", ErrTableLoad))
	}

	t.advance()
	img, err := p.normalizer.Normalize(raw)
	if err != nil {
		return nil, t.fail(KindInvalidImage, err)
	}

	t.advance()
	dets, err := detect(ctx, det, img)
	if err != nil {
		return nil, t.fail(KindDetectionUnavailable, err)
	}

	t.advance()
	modern := script.Transliterate(detection.Symbols(dets), tables.Transliteration)

	t.advance()
	glossed := script.Annotate(modern, tables.Gloss, p.mode)

	t.advance()
	return &Report{
		Result:     Aggregate(dets, modern, glossed),
		Detections: dets,
		Trace:      t.trace,
		Scale:      p.normalizer.Scale(raw),
	}, nil
}

func detect(ctx context.Context, det detection.Detector, img *imaging.NormalizedImage) ([]detection.GlyphDetection, error) {
	if det == nil {
		return nil, fmt.Errorf("%w: no detector configured", ErrDetectionUnavailable)
	}
	dets, err := det.Detect(ctx, img)
	if err != nil {
		if !errors.Is(err, ErrDetectionUnavailable) {
			err = fmt.Errorf("%w: %w", ErrDetectionUnavailable, err)
		}
		return nil, err
	}
	if err := detection.ValidateDetections(dets); err != nil {
		return nil, err
	}
	if dets == nil {
		dets = []detection.GlyphDetection{}
	}
	return dets, nil
}
