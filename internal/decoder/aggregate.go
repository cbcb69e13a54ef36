package decoder

import (
	"math"
	"strings"

	"github.com/ironsheep/inscription-decoder/internal/detection"
)

// Result is the outcome of one successful decode. It is a value and is never
// modified after it is built.
type Result struct {
	ArchaicText string  `json:"archaic_text"`
	ModernText  string  `json:"modern_text"`
	GlossedText string  `json:"glossed_text"`
	Confidence  float64 `json:"confidence"`
}

// Aggregate builds the result for dets. The archaic text is the detected
// symbols in order. Confidence is their mean, 0 when dets is empty.
func Aggregate(dets []detection.GlyphDetection, modernText, glossedText string) Result {
	var b strings.Builder
	for _, d := range dets {
		b.WriteString(d.Symbol)
	}
	return Result{
		ArchaicText: b.String(),
		ModernText:  modernText,
		GlossedText: glossedText,
		Confidence:  meanConfidence(dets),
	}
}

func meanConfidence(dets []detection.GlyphDetection) float64 {
	if len(dets) == 0 {
		return 0
	}
	var sum float64
	for _, d := range dets {
		sum += d.Confidence
	}
	mean := sum / float64(len(dets))
	switch {
	case math.IsNaN(mean) || mean < 0:
		return 0
	case mean > 1:
		return 1
	default:
		return mean
	}
}
