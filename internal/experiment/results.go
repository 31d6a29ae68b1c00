package experiment

import (
	"context"
	"time"

	"github.com/headline-goat/variant-goat/internal/broker"
	"github.com/headline-goat/variant-goat/internal/stats"
	"github.com/headline-goat/variant-goat/internal/store"
)

// CalculateResults recomputes the results of a test from its assignments
// and primary-metric events and stores them as the test's snapshot,
// replacing any earlier one.
func (e *Engine) CalculateResults(ctx context.Context, testID string) (*store.Results, error) {
	started := time.Now()

	test, err := e.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	counts, err := e.store.GetVariantCounts(ctx, testID, test.PrimaryMetric)
	if err != nil {
		return nil, persistence("count visitors", err)
	}
	if !hasVisitors(counts) {
		return nil, &NotFoundError{TestID: testID, What: "assignments"}
	}

	results := stats.Analyze(test, counts, e.stats)
	results.GeneratedAt = e.clock()

	if err := e.store.SaveResults(ctx, testID, results); err != nil {
		return nil, persistence("save results", err)
	}

	e.metrics.ResultsComputed(time.Since(started))
	e.logger.Info().Str("test_id", testID).Int("visitors", results.TotalVisitors).
		Str("winner", results.WinnerVariantID).Msg("results computed")
	e.notify(ctx, broker.ResultsComputed, testID, results)

	return results, nil
}

// GetResults returns the stored snapshot, computing one when there is none
// or refresh is set.
func (e *Engine) GetResults(ctx context.Context, testID string, refresh bool) (*store.Results, error) {
	if !refresh {
		test, err := e.GetTest(ctx, testID)
		if err != nil {
			return nil, err
		}
		if test.Results != nil {
			return test.Results, nil
		}
	}
	return e.CalculateResults(ctx, testID)
}

func hasVisitors(counts []store.VariantCounts) bool {
	for _, c := range counts {
		if c.Visitors > 0 {
			return true
		}
	}
	return false
}
