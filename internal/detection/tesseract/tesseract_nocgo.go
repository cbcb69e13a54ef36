//go:build !cgo

package tesseract

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
)

var errNoEngine = fmt.Errorf("%w: tesseract requires a cgo build", detection.ErrDetectionUnavailable)

// Detector is unavailable without cgo.
type Detector struct{}

// NewDetector returns a detector that always fails.
func NewDetector(Options) *Detector { return &Detector{} }

// Detect implements detection.Detector.
func (*Detector) Detect(context.Context, *imaging.NormalizedImage) ([]detection.GlyphDetection, error) {
	return nil, errNoEngine
}

// Classifier is unavailable without cgo.
type Classifier struct{}

// NewClassifier returns a classifier that always fails.
func NewClassifier(Options) *Classifier { return &Classifier{} }

// Classify implements detection.Classifier.
func (*Classifier) Classify(context.Context, image.Image) (string, float64, error) {
	return "", 0, errNoEngine
}

// Version reports that no engine is linked.
func Version() string { return "unavailable" }
