package stats

import (
	"fmt"

	"github.com/headline-goat/variant-goat/internal/store"
)

func insights(r *store.Results, opts Options) []string {
	var out []string

	// Variants nobody has seen yet have no rate to compare
	best, worst, seen := -1, -1, 0
	for i, v := range r.Variants {
		if v.Visitors == 0 {
			continue
		}
		seen++
		if best < 0 || v.ConversionRate > r.Variants[best].ConversionRate {
			best = i
		}
		if worst < 0 || v.ConversionRate < r.Variants[worst].ConversionRate {
			worst = i
		}
	}

	if seen >= 2 {
		switch {
		case best == worst && seen == len(r.Variants):
			out = append(out, fmt.Sprintf("All variants convert at %.2f%%", r.Variants[best].ConversionRate))
		case best == worst:
			out = append(out, fmt.Sprintf("All variants with visitors convert at %.2f%%", r.Variants[best].ConversionRate))
		default:
			b, w := r.Variants[best], r.Variants[worst]
			out = append(out, fmt.Sprintf("%q converts at %.2f%%, %.2f percentage points above %q (%.2f%%)",
				b.Name, b.ConversionRate, b.ConversionRate-w.ConversionRate, w.Name, w.ConversionRate))
		}
	}

	if r.TotalVisitors < opts.MinSampleSize {
		out = append(out, fmt.Sprintf("Sample size of %d visitors is below the recommended minimum of %d; results may not be reliable",
			r.TotalVisitors, opts.MinSampleSize))
	}

	return out
}

func recommendations(r *store.Results, opts Options) []string {
	var out []string

	if r.HasWinner() {
		for _, v := range r.Variants {
			if v.VariantID == r.WinnerVariantID {
				out = append(out, fmt.Sprintf("Implement %q: it improves conversion by %.1f%% over control", v.Name, v.Improvement))
				break
			}
		}
	} else {
		out = append(out, fmt.Sprintf("Continue the test: no variant has reached %.0f%% significance yet", opts.SignificanceThreshold*100))
	}

	if r.TotalVisitors < opts.MinSampleSize {
		out = append(out, fmt.Sprintf("Increase traffic or extend the test duration to reach at least %d visitors", opts.MinSampleSize))
	}

	return out
}
