package tesseract

import "math"

// Options configures the engine.
type Options struct {
	// Language is the traineddata name, e.g. "eng" or a custom model.
	Language string `mapstructure:"language" json:"language"`
	// TessdataPrefix is the directory holding traineddata. Empty uses the
	// engine's default search path.
	TessdataPrefix string `mapstructure:"tessdata" json:"tessdata"`
	// Whitelist restricts recognition to these characters when non-empty.
	Whitelist string `mapstructure:"whitelist" json:"whitelist"`
}

func (o Options) language() string {
	if o.Language == "" {
		return "eng"
	}
	return o.Language
}

// confidence converts Tesseract's 0-100 score to [0,1].
func confidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(0, math.Min(1, c/100.0))
}
