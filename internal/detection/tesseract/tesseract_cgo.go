//go:build cgo

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
)

// Detector recognises every symbol of a normalized image in one engine pass.
type Detector struct {
	opts Options
}

// NewDetector returns a whole-image Tesseract detector.
func NewDetector(opts Options) *Detector {
	return &Detector{opts: opts}
}

// Detect implements detection.Detector.
//
// The engine cannot be interrupted; on cancellation Detect returns at once
// and the engine call finishes in the background.
func (d *Detector) Detect(ctx context.Context, img *imaging.NormalizedImage) ([]detection.GlyphDetection, error) {
	if img == nil || img.Empty() {
		return nil, nil
	}
	return runBounded(ctx, func() ([]detection.GlyphDetection, error) {
		return d.detect(img)
	})
}

func (d *Detector) detect(img *imaging.NormalizedImage) ([]detection.GlyphDetection, error) {
	client, err := newClient(d.opts, gosseract.PSM_SINGLE_LINE)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := setImage(client, img.Gray()); err != nil {
		return nil, err
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("%w: symbol boxes: %v", detection.ErrDetectionUnavailable, err)
	}

	dets := make([]detection.GlyphDetection, 0, len(boxes))
	for _, box := range boxes {
		sym := strings.TrimSpace(box.Word)
		if sym == "" {
			continue
		}
		pos := detection.BoundsFromRect(box.Box)
		dets = append(dets, detection.GlyphDetection{
			Symbol:     sym,
			Confidence: confidence(box.Confidence),
			Position:   &pos,
		})
	}
	detection.SortReadingOrder(dets)
	return dets, nil
}

// Classifier reads one glyph per call.
type Classifier struct {
	opts Options
}

// NewClassifier returns a single-character Tesseract classifier.
func NewClassifier(opts Options) *Classifier {
	return &Classifier{opts: opts}
}

// Classify implements detection.Classifier. The most confident symbol wins.
func (c *Classifier) Classify(ctx context.Context, glyph image.Image) (string, float64, error) {
	type reading struct {
		sym  string
		conf float64
	}
	res, err := runBounded(ctx, func() (reading, error) {
		client, err := newClient(c.opts, gosseract.PSM_SINGLE_CHAR)
		if err != nil {
			return reading{}, err
		}
		defer client.Close()

		if err := setImage(client, glyph); err != nil {
			return reading{}, err
		}
		boxes, err := client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
		if err != nil {
			return reading{}, fmt.Errorf("%w: symbol boxes: %v", detection.ErrDetectionUnavailable, err)
		}
		sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].Confidence > boxes[j].Confidence })
		for _, box := range boxes {
			if sym := strings.TrimSpace(box.Word); sym != "" {
				return reading{sym: sym, conf: confidence(box.Confidence)}, nil
			}
		}
		return reading{}, nil
	})
	return res.sym, res.conf, err
}

// Version reports the linked engine version.
func Version() string {
	return gosseract.Version()
}

func newClient(opts Options, mode gosseract.PageSegMode) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: tessdata: %v", detection.ErrDetectionUnavailable, err)
		}
	}
	if err := client.SetLanguage(opts.language()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: language: %v", detection.ErrDetectionUnavailable, err)
	}
	if err := client.SetPageSegMode(mode); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: page segmentation: %v", detection.ErrDetectionUnavailable, err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: whitelist: %v", detection.ErrDetectionUnavailable, err)
		}
	}
	return client, nil
}

func setImage(client *gosseract.Client, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: set image: %v", detection.ErrDetectionUnavailable, err)
	}
	return nil
}

// runBounded runs fn and returns early with ErrDetectionUnavailable when ctx
// ends first.
func runBounded[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", detection.ErrDetectionUnavailable, ctx.Err())
	}
}
