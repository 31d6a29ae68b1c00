package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assignment outcomes
const (
	AssignmentNew      = "new"
	AssignmentExisting = "existing"
	AssignmentNone     = "none"
)

// Conversion outcomes
const (
	ConversionRecorded = "recorded"
	ConversionDropped  = "dropped"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	assignments    *prometheus.CounterVec
	conversions    *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	resultsLatency prometheus.Histogram
}

// New registers the collectors on reg. Pass a fresh prometheus.Registry in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// assignments counts Assign calls.
		// Labels: outcome (new, existing, none)
		assignments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "variant_goat",
			Subsystem: "engine",
			Name:      "assignments_total",
			Help:      "Total assignment requests by outcome",
		}, []string{"outcome"}),

		// conversions counts TrackConversion calls.
		// Labels: outcome (recorded, dropped)
		conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "variant_goat",
			Subsystem: "engine",
			Name:      "conversions_total",
			Help:      "Total conversion events by outcome",
		}, []string{"outcome"}),

		// transitions counts successful lifecycle transitions.
		// Labels: action (start, pause, stop)
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "variant_goat",
			Subsystem: "engine",
			Name:      "lifecycle_transitions_total",
			Help:      "Total test lifecycle transitions by action",
		}, []string{"action"}),

		resultsLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "variant_goat",
			Subsystem: "engine",
			Name:      "results_duration_seconds",
			Help:      "Time to recompute a test results snapshot",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) Assignment(outcome string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Conversion(outcome string) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}

func (m *Metrics) ResultsComputed(d time.Duration) {
	if m == nil {
		return
	}
	m.resultsLatency.Observe(d.Seconds())
}
