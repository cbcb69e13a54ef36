package decoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ironsheep/inscription-decoder/internal/detection"
	"github.com/ironsheep/inscription-decoder/internal/imaging"
	"github.com/ironsheep/inscription-decoder/internal/metrics"
	"github.com/ironsheep/inscription-decoder/internal/script"
	"github.com/ironsheep/inscription-decoder/internal/session"
)

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Pipeline Options
	Detector detection.Detector
	Tables   *script.Registry
	// Sessions defaults to a store without expiry.
	Sessions *session.Store[Result]
	// DetectorTimeout bounds each Detect call. Zero means no limit.
	DetectorTimeout time.Duration
}

// Service decodes images on behalf of sessions and publishes each session's
// latest result.
type Service struct {
	pipeline *Pipeline
	detector detection.Detector
	tables   *script.Registry
	sessions *session.Store[Result]
	timeout  time.Duration
	metrics  *metrics.DecoderMetrics
	log      *slog.Logger
}

// NewService creates a service. The table registry is required.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Tables == nil {
		return nil, errors.New("decoder: table registry is required")
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewStore[Result](0)
	}
	if cfg.DetectorTimeout < 0 {
		return nil, fmt.Errorf("decoder: negative detector timeout %v", cfg.DetectorTimeout)
	}
	p := NewPipeline(cfg.Pipeline)
	return &Service{
		pipeline: p,
		detector: cfg.Detector,
		tables:   cfg.Tables,
		sessions: cfg.Sessions,
		timeout:  cfg.DetectorTimeout,
		metrics:  cfg.Pipeline.Metrics,
		log:      p.log,
	}, nil
}

// Pipeline returns the pipeline the service runs.
func (s *Service) Pipeline() *Pipeline { return s.pipeline }

// Detector returns the configured detector.
func (s *Service) Detector() detection.Detector { return s.detector }

// Tables returns the currently loaded tables.
func (s *Service) Tables() (*script.Tables, error) { return s.tables.Current() }

// DecodeSession decodes raw and, on success only, replaces the result held
// for sessionID. A failure leaves any earlier result in place.
func (s *Service) DecodeSession(ctx context.Context, sessionID string, raw imaging.RawImage) (*Report, error) {
	if sessionID == "" {
		return nil, session.ErrEmptyID
	}
	log := s.log.With("session", sessionID)

	report, err := s.decode(ctx, log, raw)
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			s.metrics.RecordFailure(de.Kind.String(), de.Stage.String())
			log.Warn("decode failed", "stage", de.Stage, "kind", de.Kind, "error", de.Err)
		}
		return nil, err
	}

	if err := s.sessions.Set(sessionID, report.Result); err != nil {
		return nil, err
	}
	s.metrics.RecordSuccess(len(report.Detections), report.Result.Confidence)
	log.Info("decode published",
		"glyphs", len(report.Detections),
		"confidence", report.Result.Confidence)
	return report, nil
}

// Decode runs the pipeline without publishing anything.
func (s *Service) Decode(ctx context.Context, raw imaging.RawImage) (*Report, error) {
	return s.decode(ctx, s.log, raw)
}

func (s *Service) decode(ctx context.Context, log *slog.Logger, raw imaging.RawImage) (*Report, error) {
	tables, tablesErr := s.tables.Current()
	if tablesErr != nil {
		tables = nil
	}
	report, err := s.pipeline.run(ctx, log, raw, s.boundedDetector(), tables)
	if err != nil {
		var de *Error
		if tablesErr != nil && errors.As(err, &de) && de.Kind == KindTableLoad {
			de.Err = tablesErr
		}
		return nil, err
	}
	return report, nil
}

// boundedDetector wraps the detector with the host timeout.
func (s *Service) boundedDetector() detection.Detector {
	if s.detector == nil || s.timeout <= 0 {
		return s.detector
	}
	det, timeout := s.detector, s.timeout
	return detection.DetectorFunc(func(ctx context.Context, img *imaging.NormalizedImage) ([]detection.GlyphDetection, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return det.Detect(ctx, img)
	})
}

// Result returns the result published for sessionID.
func (s *Service) Result(sessionID string) (Result, bool) {
	return s.sessions.Get(sessionID)
}

// Available reports whether sessionID has a published result.
func (s *Service) Available(sessionID string) bool {
	return s.sessions.Available(sessionID)
}

// Clear drops the result published for sessionID.
func (s *Service) Clear(sessionID string) {
	s.sessions.Clear(sessionID)
	s.log.Debug("session cleared", "session", sessionID)
}

// ClearAll drops every published result.
func (s *Service) ClearAll() {
	s.sessions.Flush()
	s.log.Debug("all sessions cleared")
}

// ReloadTables re-reads the tables. On failure the loaded tables stay in use.
func (s *Service) ReloadTables() error {
	err := s.tables.Reload()
	s.metrics.RecordTableReload(err)
	return err
}
