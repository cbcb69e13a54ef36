package main

import (
	"fmt"
	"log/slog"

	"github.com/ironsheep/inscription-decoder/internal/config"
	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/detection/tesseract"
)

// newDetector returns the detector named by cfg.Kind.
func newDetector(cfg config.DetectorConfig, log *slog.Logger) (detection.Detector, error) {
	switch cfg.Kind {
	case config.DetectorStub:
		if cfg.StubFile == "" {
			return detection.NewStubDetector(detection.ReferenceDetections()...), nil
		}
		dets, err := detection.LoadDetections(cfg.StubFile)
		if err != nil {
			return nil, err
		}
		return detection.NewStubDetector(dets...), nil

	case config.DetectorTesseract:
		log.Debug("using tesseract detector", "engine", tesseract.Version(), "language", cfg.Tesseract.Language)
		return tesseract.NewDetector(cfg.Tesseract), nil

	case config.DetectorSegmentingTesseract:
		log.Debug("using segmenting detector", "engine", tesseract.Version(), "concurrency", cfg.Segment.Concurrency)
		return detection.NewSegmentingDetector(tesseract.NewClassifier(cfg.Tesseract), detection.SegmentingOptions{
			Segment:     cfg.Segment.SegmentOptions,
			Crop:        cfg.Segment.Crop,
			Concurrency: cfg.Segment.Concurrency,
			Logger:      log,
		}), nil

	default:
		return nil, fmt.Errorf("unknown detector kind %q", cfg.Kind)
	}
}
