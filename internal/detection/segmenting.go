package detection

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/logging"
)

// Classifier recognises a single glyph crop.
//
// An empty symbol means the crop holds nothing legible; the region is then
// left out of the result. Errors are treated as a capability failure.
type Classifier interface {
	Classify(ctx context.Context, glyph image.Image) (symbol string, confidence float64, err error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, glyph image.Image) (string, float64, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, glyph image.Image) (string, float64, error) {
	return f(ctx, glyph)
}

// SegmentingOptions configures a SegmentingDetector.
type SegmentingOptions struct {
	Segment SegmentOptions
	Crop    imaging.GlyphCropOptions
	// Concurrency bounds the number of in-flight classifications. Values
	// below 1 mean 1.
	Concurrency int
	Logger      *slog.Logger
}

// SegmentingDetector segments the image into glyph regions and classifies
// them in parallel, emitting detections in left-to-right order.
type SegmentingDetector struct {
	classifier Classifier
	opts       SegmentingOptions
	logger     *slog.Logger
}

// NewSegmentingDetector returns a detector driven by c.
func NewSegmentingDetector(c Classifier, opts SegmentingOptions) *SegmentingDetector {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.ForModule("detection")
	}
	return &SegmentingDetector{classifier: c, opts: opts, logger: logger}
}

// Detect implements Detector.
func (d *SegmentingDetector) Detect(ctx context.Context, img *imaging.NormalizedImage) ([]GlyphDetection, error) {
	if d.classifier == nil {
		return nil, fmt.Errorf("%w: no classifier configured", ErrDetectionUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectionUnavailable, err)
	}

	lines := DetectLines(img, d.opts.Segment)
	var regions []Bounds
	for _, line := range lines {
		regions = append(regions, line.Glyphs...)
	}
	d.logger.Debug("segmented glyph regions", "lines", len(lines), "regions", len(regions))

	results := make([]GlyphDetection, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	for i, r := range regions {
		g.Go(func() error {
			crop, err := imaging.CropGlyph(img, r.Rect(), d.opts.Crop)
			if err != nil {
				return fmt.Errorf("%w: glyph %d: %v", ErrDetectionUnavailable, i, err)
			}
			sym, conf, err := d.classifier.Classify(gctx, crop)
			if err != nil {
				return fmt.Errorf("%w: glyph %d: %v", ErrDetectionUnavailable, i, err)
			}
			pos := r
			results[i] = GlyphDetection{Symbol: sym, Confidence: conf, Position: &pos}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, det := range results {
		if det.Symbol == "" {
			continue
		}
		out = append(out, det)
	}
	return out, nil
}
