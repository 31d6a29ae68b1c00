package stats

import (
	"math"

	"github.com/headline-goat/variant-goat/internal/store"
)

// Options tune the analysis. Zero fields fall back to DefaultOptions.
type Options struct {
	ConfidenceLevel       float64 // 0.95 or 0.99
	SignificanceThreshold float64 // minimum significance for a winner
	MinSampleSize         int     // total visitors below which results are flagged
}

func DefaultOptions() Options {
	return Options{
		ConfidenceLevel:       0.95,
		SignificanceThreshold: 0.95,
		MinSampleSize:         100,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConfidenceLevel == 0 {
		o.ConfidenceLevel = d.ConfidenceLevel
	}
	if o.SignificanceThreshold == 0 {
		o.SignificanceThreshold = d.SignificanceThreshold
	}
	if o.MinSampleSize == 0 {
		o.MinSampleSize = d.MinSampleSize
	}
	return o
}

// Significance scores a variant against the control with a pooled
// two-proportion z-test, then maps z linearly onto [0, 0.99] with
// (z - 1.96) / 2.58. The mapping is a heuristic kept for compatibility with
// existing reports; it is not a p-value.
func Significance(conv, visitors, controlConv, controlVisitors int) float64 {
	// Need data from both variants
	if visitors == 0 || controlVisitors == 0 {
		return 0
	}

	p := float64(conv) / float64(visitors)
	pControl := float64(controlConv) / float64(controlVisitors)

	// Pooled proportion under null hypothesis
	pooled := float64(conv+controlConv) / float64(visitors+controlVisitors)

	// Standard error of the difference
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(visitors) + 1/float64(controlVisitors)))
	if se == 0 {
		return 0
	}

	z := math.Abs(p-pControl) / se

	return clamp((z-1.96)/2.58, 0, 0.99)
}

// Improvement is the relative change of rate over controlRate, in percent.
func Improvement(rate, controlRate float64) float64 {
	if controlRate == 0 {
		return 0
	}
	return (rate - controlRate) / controlRate * 100
}

// Analyze computes a results snapshot for test from per-variant counts.
// Counts for variants the test does not define are ignored; defined variants
// without counts are reported with zero visitors. GeneratedAt is left for the
// caller to stamp.
func Analyze(test *store.Test, counts []store.VariantCounts, opts Options) *store.Results {
	opts = opts.withDefaults()

	// Create a map for quick lookup
	countsMap := make(map[string]store.VariantCounts, len(counts))
	for _, c := range counts {
		countsMap[c.VariantID] = c
	}

	result := &store.Results{
		ConfidenceLevel: opts.ConfidenceLevel,
		Variants:        make([]store.VariantResult, len(test.Variants)),
	}

	for i, v := range test.Variants {
		c := countsMap[v.ID] // Will be zero-valued if not present

		lower, upper := ConfidenceInterval(c.Conversions, c.Visitors, opts.ConfidenceLevel)
		result.Variants[i] = store.VariantResult{
			VariantID:      v.ID,
			Name:           v.Name,
			Visitors:       c.Visitors,
			Conversions:    c.Conversions,
			ConversionRate: Rate(c.Conversions, c.Visitors),
			CILower:        lower,
			CIUpper:        upper,
		}

		result.TotalVisitors += c.Visitors
		result.TotalConversions += c.Conversions
	}
	result.ConversionRate = Rate(result.TotalConversions, result.TotalVisitors)

	if len(result.Variants) > 0 {
		control := result.Variants[0]
		winner := -1

		for i := 1; i < len(result.Variants); i++ {
			v := &result.Variants[i]
			v.Improvement = Improvement(v.ConversionRate, control.ConversionRate)
			v.Significance = Significance(v.Conversions, v.Visitors, control.Conversions, control.Visitors)

			if v.Significance > result.Significance {
				result.Significance = v.Significance
			}
			if v.Significance >= opts.SignificanceThreshold &&
				(winner < 0 || v.ConversionRate > result.Variants[winner].ConversionRate) {
				winner = i
			}
		}

		if winner >= 0 {
			result.WinnerVariantID = result.Variants[winner].VariantID
		}
	}

	result.Insights = insights(result, opts)
	result.Recommendations = recommendations(result, opts)

	return result
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
