package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headline-goat/variant-goat/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Assignment(metrics.AssignmentNew)
	m.Assignment(metrics.AssignmentNew)
	m.Assignment(metrics.AssignmentExisting)
	m.Conversion(metrics.ConversionDropped)
	m.Transition("start")
	m.ResultsComputed(20 * time.Millisecond)

	expected := `
# HELP variant_goat_engine_assignments_total Total assignment requests by outcome
# TYPE variant_goat_engine_assignments_total counter
variant_goat_engine_assignments_total{outcome="existing"} 1
variant_goat_engine_assignments_total{outcome="new"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "variant_goat_engine_assignments_total"))

	count, err := testutil.GatherAndCount(reg, "variant_goat_engine_results_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.Assignment(metrics.AssignmentNone)
		m.Conversion(metrics.ConversionRecorded)
		m.Transition("stop")
		m.ResultsComputed(time.Second)
	})
}
