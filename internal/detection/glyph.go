package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/inscription-decoder/internal/imaging"
)

// ErrDetectionUnavailable reports that no detection capability is available
// or that it failed.
var ErrDetectionUnavailable = errors.New("detection unavailable")

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// BoundsFromRect converts an image.Rectangle.
func BoundsFromRect(r image.Rectangle) Bounds {
	r = r.Canon()
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle { return image.Rect(b.X1, b.Y1, b.X2, b.Y2) }

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Area returns Width × Height.
func (b Bounds) Area() int { return b.Width() * b.Height() }

// Scale multiplies every coordinate by f, rounding outward.
func (b Bounds) Scale(f float64) Bounds {
	if f == 1 {
		return b
	}
	return Bounds{
		X1: int(math.Floor(float64(b.X1) * f)),
		Y1: int(math.Floor(float64(b.Y1) * f)),
		X2: int(math.Ceil(float64(b.X2) * f)),
		Y2: int(math.Ceil(float64(b.Y2) * f)),
	}
}

// mergeBounds combines two bounds into their union.
func mergeBounds(a, b Bounds) Bounds {
	return Bounds{
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
		X2: max(a.X2, b.X2),
		Y2: max(a.Y2, b.Y2),
	}
}

// GlyphDetection is one recognised archaic glyph.
type GlyphDetection struct {
	// Symbol is the archaic-script code point (or short cluster) detected.
	Symbol string `json:"symbol"`

	// Confidence is the detector's certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// Position is where the glyph sits in the normalized image, when the
	// detector reports it.
	Position *Bounds `json:"position,omitempty"`
}

// Detector maps a normalized image to glyph detections in left-to-right
// reading order.
//
// Implementations report a missing or failing capability by wrapping
// ErrDetectionUnavailable. They should honour ctx cancellation.
type Detector interface {
	Detect(ctx context.Context, img *imaging.NormalizedImage) ([]GlyphDetection, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img *imaging.NormalizedImage) ([]GlyphDetection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img *imaging.NormalizedImage) ([]GlyphDetection, error) {
	return f(ctx, img)
}

// ValidateDetections checks the detector contract: every confidence lies in
// [0,1] and every symbol is non-empty. Violations wrap ErrDetectionUnavailable.
func ValidateDetections(dets []GlyphDetection) error {
	for i, d := range dets {
		if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
			return fmt.Errorf("%w: detection %d has confidence %v outside [0,1]", ErrDetectionUnavailable, i, d.Confidence)
		}
		if d.Symbol == "" {
			return fmt.Errorf("%w: detection %d has an empty symbol", ErrDetectionUnavailable, i)
		}
	}
	return nil
}

// Symbols returns the detected symbols in order.
func Symbols(dets []GlyphDetection) []string {
	out := make([]string, len(dets))
	for i, d := range dets {
		out[i] = d.Symbol
	}
	return out
}

// SortReadingOrder orders detections left to right by their position. The
// sort is stable and only applied when every detection carries a position;
// otherwise the detector's order is kept.
func SortReadingOrder(dets []GlyphDetection) {
	for _, d := range dets {
		if d.Position == nil {
			return
		}
	}
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Position.X1 < dets[j].Position.X1
	})
}

// Boxes returns the positions of dets as rectangles, skipping detections
// without one.
func Boxes(dets []GlyphDetection) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(dets))
	for _, d := range dets {
		if d.Position != nil {
			out = append(out, d.Position.Rect())
		}
	}
	return out
}
