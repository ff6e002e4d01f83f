package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the ensemble service.
type Metrics struct {
	// SourceFetches counts upstream fetches by source, field-group
	// (current/hourly/daily) and outcome (success/error).
	SourceFetches *prometheus.CounterVec

	// SourceFetchDuration observes how long one source's full
	// current+hourly+daily round-trip took.
	SourceFetchDuration *prometheus.HistogramVec

	// MergeCalls counts orchestration calls by merge strategy.
	MergeCalls *prometheus.CounterVec

	// ReliabilityScore exports the tracker's current per-source score.
	ReliabilityScore *prometheus.GaugeVec

	// AlertsDetected counts derived alerts by type and severity.
	AlertsDetected *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ensemble",
			Name:      "source_fetches_total",
			Help:      "Upstream fetches by source, field-group and outcome.",
		}, []string{"source", "group", "outcome"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_ensemble",
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of one source's current+hourly+daily round-trip.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"source"}),
		MergeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ensemble",
			Name:      "merge_calls_total",
			Help:      "Orchestration calls by merge strategy.",
		}, []string{"strategy"}),
		ReliabilityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "weather_ensemble",
			Name:      "source_reliability_score",
			Help:      "Current reliability score per source (0.0-2.0).",
		}, []string{"source"}),
		AlertsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ensemble",
			Name:      "alerts_detected_total",
			Help:      "Derived alerts by type and severity.",
		}, []string{"type", "severity"}),
	}
}

// NewMetrics creates the collectors and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SourceFetches,
		m.SourceFetchDuration,
		m.MergeCalls,
		m.ReliabilityScore,
		m.AlertsDetected,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so parallel tests do
// not trip the default registry's duplicate-registration panic.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
