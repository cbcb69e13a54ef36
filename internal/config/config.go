// Package config loads the decoder settings from defaults, an optional YAML
// file, INSCRIPTION_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/detection/tesseract"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/script"
)

// EnvPrefix prefixes every environment variable, e.g. INSCRIPTION_LOG_LEVEL.
const EnvPrefix = "INSCRIPTION"

// Detector kinds.
const (
	DetectorStub                = "stub"
	DetectorTesseract           = "tesseract"
	DetectorSegmentingTesseract = "segmenting-tesseract"
)

// Config is the complete decoder configuration.
type Config struct {
	Normalize imaging.NormalizeOptions `mapstructure:"normalize"`
	Tables    script.Source            `mapstructure:"tables"`
	Gloss     GlossConfig              `mapstructure:"gloss"`
	Detector  DetectorConfig           `mapstructure:"detector"`
	Session   SessionConfig            `mapstructure:"session"`
	Metrics   MetricsConfig            `mapstructure:"metrics"`
	Log       LogConfig                `mapstructure:"log"`
}

// GlossConfig selects the annotation mode.
type GlossConfig struct {
	Mode string `mapstructure:"mode"`
}

// DetectorConfig selects and tunes the glyph detector.
type DetectorConfig struct {
	Kind    string        `mapstructure:"kind"`
	Timeout time.Duration `mapstructure:"timeout"`
	// StubFile is a JSON detection list served by the stub detector. Empty
	// serves the reference detections.
	StubFile  string            `mapstructure:"stub_file"`
	Tesseract tesseract.Options `mapstructure:"tesseract"`
	Segment   SegmentConfig     `mapstructure:"segment"`
}

// SegmentConfig tunes the segmenting detector.
type SegmentConfig struct {
	detection.SegmentOptions `mapstructure:",squash"`
	Crop                     imaging.GlyphCropOptions `mapstructure:"crop"`
	Concurrency              int                      `mapstructure:"concurrency"`
}

// SessionConfig controls result retention.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GlossMode parses the configured gloss mode.
func (c *Config) GlossMode() (script.Mode, error) {
	return script.ParseMode(c.Gloss.Mode)
}

// setDefaults registers every key with its default value. Keys without a
// default are invisible to environment lookup.
func setDefaults(v *viper.Viper) {
	n := imaging.DefaultNormalizeOptions()
	v.SetDefault("normalize.denoise_strength", n.DenoiseStrength)
	v.SetDefault("normalize.threshold_window", n.ThresholdWindow)
	v.SetDefault("normalize.threshold_bias", n.ThresholdBias)
	v.SetDefault("normalize.close_kernel_size", n.CloseKernelSize)
	v.SetDefault("normalize.luminance", n.Luminance)
	v.SetDefault("normalize.max_dimension", n.MaxDimension)

	v.SetDefault("tables.transliteration", "")
	v.SetDefault("tables.gloss", "")
	v.SetDefault("gloss.mode", string(script.ModeSequential))

	s := detection.DefaultSegmentOptions()
	v.SetDefault("detector.kind", DetectorStub)
	v.SetDefault("detector.timeout", 30*time.Second)
	v.SetDefault("detector.stub_file", "")
	v.SetDefault("detector.tesseract.language", "eng")
	v.SetDefault("detector.tesseract.tessdata", "")
	v.SetDefault("detector.tesseract.whitelist", "")
	v.SetDefault("detector.segment.min_area", s.MinArea)
	v.SetDefault("detector.segment.merge_gap", s.MergeGap)
	v.SetDefault("detector.segment.line_gap", s.LineGap)
	v.SetDefault("detector.segment.max_aspect", s.MaxAspect)
	v.SetDefault("detector.segment.concurrency", 4)
	v.SetDefault("detector.segment.crop.padding", 8)
	v.SetDefault("detector.segment.crop.scale", 2.0)

	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("metrics.listen", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"detector":              "detector.kind",
	"detector-timeout":      "detector.timeout",
	"detections":            "detector.stub_file",
	"transliteration-table": "tables.transliteration",
	"gloss-table":           "tables.gloss",
	"gloss-mode":            "gloss.mode",
	"tessdata":              "detector.tesseract.tessdata",
	"language":              "detector.tesseract.language",
	"max-dimension":         "normalize.max_dimension",
	"session-ttl":           "session.ttl",
	"metrics-listen":        "metrics.listen",
	"log-level":             "log.level",
	"log-format":            "log.format",
}

// RegisterFlags adds the configuration flags to fs. Their defaults are
// placeholders; unset flags never override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("detector", "", "glyph detector: stub, tesseract or segmenting-tesseract")
	fs.Duration("detector-timeout", 0, "bound on each detector call")
	fs.String("detections", "", "JSON detection list for the stub detector")
	fs.String("transliteration-table", "", "transliteration table file (JSON or YAML)")
	fs.String("gloss-table", "", "gloss table file (JSON or YAML)")
	fs.String("gloss-mode", "", "gloss mode: sequential or single-pass")
	fs.String("tessdata", "", "tesseract traineddata directory")
	fs.String("language", "", "tesseract language")
	fs.Int("max-dimension", 0, "downscale images whose longer side exceeds this")
	fs.Duration("session-ttl", 0, "expire session results after this long")
	fs.String("metrics-listen", "", "serve Prometheus metrics on this address")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// File is a YAML file to read. When empty the "config" flag, if any,
	// names it.
	File string
	// Flags are bound by the names registered in RegisterFlags.
	Flags *pflag.FlagSet
}

// Load reads and validates the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v, err := newViper(opts)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return &cfg
}

func newViper(opts LoadOptions) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("error binding flag %s: %w", name, err)
			}
		}
	}

	file := opts.File
	if file == "" && opts.Flags != nil {
		if f := opts.Flags.Lookup("config"); f != nil {
			file = f.Value.String()
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}
	return v, nil
}

// Validate checks every value the decoder cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Normalize.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("normalize: %w", err))
	}
	if _, err := c.GlossMode(); err != nil {
		errs = append(errs, fmt.Errorf("gloss: %w", err))
	}
	switch c.Detector.Kind {
	case DetectorStub, DetectorTesseract, DetectorSegmentingTesseract:
	default:
		errs = append(errs, fmt.Errorf("detector: unknown kind %q", c.Detector.Kind))
	}
	if c.Detector.Timeout < 0 {
		errs = append(errs, fmt.Errorf("detector: timeout must be >= 0, got %v", c.Detector.Timeout))
	}
	seg := c.Detector.Segment
	if seg.MinArea < 1 {
		errs = append(errs, fmt.Errorf("detector.segment: min_area must be >= 1, got %d", seg.MinArea))
	}
	if seg.MergeGap < 0 {
		errs = append(errs, fmt.Errorf("detector.segment: merge_gap must be >= 0, got %d", seg.MergeGap))
	}
	if seg.LineGap < 0 {
		errs = append(errs, fmt.Errorf("detector.segment: line_gap must be >= 0, got %d", seg.LineGap))
	}
	if seg.MaxAspect < 0 {
		errs = append(errs, fmt.Errorf("detector.segment: max_aspect must be >= 0, got %v", seg.MaxAspect))
	}
	if seg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("detector.segment: concurrency must be >= 1, got %d", seg.Concurrency))
	}
	if seg.Crop.Padding < 0 {
		errs = append(errs, fmt.Errorf("detector.segment.crop: padding must be >= 0, got %d", seg.Crop.Padding))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, fmt.Errorf("session: ttl must be >= 0, got %v", c.Session.TTL))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
