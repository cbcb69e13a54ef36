package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Decode outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// DecoderMetrics holds the Prometheus metrics of the decoding pipeline.
type DecoderMetrics struct {
	DecodesTotal   *prometheus.CounterVec
	FailuresTotal  *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	GlyphsDetected prometheus.Histogram
	Confidence     prometheus.Histogram
	TableReloads   *prometheus.CounterVec
	registry       prometheus.Registerer
}

// NewDecoderMetrics creates the pipeline metrics and registers them with
// registry.
func NewDecoderMetrics(registry prometheus.Registerer) (*DecoderMetrics, error) {
	m := &DecoderMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register decoder metrics: %w", err)
	}
	return m, nil
}

func (m *DecoderMetrics) initMetrics() {
	m.DecodesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inscription_decodes_total",
		Help: "Total number of pipeline invocations by outcome.",
	}, []string{"outcome"})

	m.FailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inscription_decode_failures_total",
		Help: "Total number of failed invocations by error kind and failing stage.",
	}, []string{"kind", "stage"})

	m.StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inscription_stage_duration_seconds",
		Help:    "Time spent in each pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"stage"})

	m.GlyphsDetected = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inscription_glyphs_detected",
		Help:    "Number of glyphs detected per successful decode.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	m.Confidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "inscription_decode_confidence",
		Help:    "Aggregate confidence of successful decodes.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	m.TableReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inscription_table_reloads_total",
		Help: "Total number of table reloads by outcome.",
	}, []string{"outcome"})
}

// RecordSuccess counts a successful decode and its glyph count and confidence.
func (m *DecoderMetrics) RecordSuccess(glyphs int, confidence float64) {
	if m == nil {
		return
	}
	m.DecodesTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.GlyphsDetected.Observe(float64(glyphs))
	m.Confidence.Observe(confidence)
}

// RecordFailure counts a failed decode.
func (m *DecoderMetrics) RecordFailure(kind, stage string) {
	if m == nil {
		return
	}
	m.DecodesTotal.WithLabelValues(OutcomeFailure).Inc()
	m.FailuresTotal.WithLabelValues(kind, stage).Inc()
}

// ObserveStageDuration records how long a stage ran, in seconds.
func (m *DecoderMetrics) ObserveStageDuration(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordTableReload counts a table reload attempt.
func (m *DecoderMetrics) RecordTableReload(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.TableReloads.WithLabelValues(outcome).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *DecoderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.DecodesTotal.Describe(ch)
	m.FailuresTotal.Describe(ch)
	m.StageDuration.Describe(ch)
	m.GlyphsDetected.Describe(ch)
	m.Confidence.Describe(ch)
	m.TableReloads.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *DecoderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.DecodesTotal.Collect(ch)
	m.FailuresTotal.Collect(ch)
	m.StageDuration.Collect(ch)
	m.GlyphsDetected.Collect(ch)
	m.Confidence.Collect(ch)
	m.TableReloads.Collect(ch)
}
