package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/inscription-decoder/internal/imaging"
)

// StubDetector returns a fixed detection sequence regardless of the image.
type StubDetector struct {
	detections []GlyphDetection
	err        error
}

// NewStubDetector returns a detector that always yields dets.
func NewStubDetector(dets ...GlyphDetection) *StubDetector {
	return &StubDetector{detections: cloneDetections(dets)}
}

// NewUnavailableDetector returns a detector that always fails with reason
// wrapped in ErrDetectionUnavailable.
func NewUnavailableDetector(reason string) *StubDetector {
	return &StubDetector{err: fmt.Errorf("%w: %s", ErrDetectionUnavailable, reason)}
}

// Detect returns a copy of the configured sequence.
func (s *StubDetector) Detect(ctx context.Context, _ *imaging.NormalizedImage) ([]GlyphDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectionUnavailable, err)
	}
	if s.err != nil {
		return nil, s.err
	}
	return cloneDetections(s.detections), nil
}

// ReferenceDetections is the sequence the demo deployment reports for every
// photograph: the Tamil-Brahmi signs read as a, ka and va.
func ReferenceDetections() []GlyphDetection {
	return []GlyphDetection{
		{Symbol: "𑀅", Confidence: 0.95},
		{Symbol: "𑀓", Confidence: 0.92},
		{Symbol: "𑀸", Confidence: 0.89},
	}
}

// DecodeDetections reads a JSON array of detections.
func DecodeDetections(r io.Reader) ([]GlyphDetection, error) {
	var dets []GlyphDetection
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dets); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	if err := ValidateDetections(dets); err != nil {
		return nil, err
	}
	return dets, nil
}

// LoadDetections reads a JSON detections file.
func LoadDetections(path string) ([]GlyphDetection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detections: %w", err)
	}
	defer f.Close()
	return DecodeDetections(f)
}

func cloneDetections(dets []GlyphDetection) []GlyphDetection {
	out := make([]GlyphDetection, len(dets))
	for i, d := range dets {
		out[i] = d
		if d.Position != nil {
			p := *d.Position
			out[i].Position = &p
		}
	}
	return out
}
