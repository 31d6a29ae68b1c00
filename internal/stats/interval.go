package stats

import "math"

// ZScore returns the two-sided critical value used for confidence intervals.
// Only the 95% and 99% levels are supported:
//   - 0.99 -> 2.58
//   - anything else -> 1.96
func ZScore(confidence float64) float64 {
	if confidence >= 0.99 {
		return 2.58
	}
	return 1.96
}

// ConfidenceInterval returns the normal-approximation interval for a
// conversion rate, in percent and clamped to [0, 100]. With no visitors the
// margin is zero.
func ConfidenceInterval(conversions, visitors int, confidence float64) (lower, upper float64) {
	rate := Rate(conversions, visitors)
	if visitors == 0 {
		return rate, rate
	}

	p := float64(conversions) / float64(visitors)
	margin := ZScore(confidence) * math.Sqrt(p*(1-p)/float64(visitors)) * 100

	return math.Max(0, rate-margin), math.Min(100, rate+margin)
}

// Rate returns conversions/visitors in percent, or 0 with no visitors.
func Rate(conversions, visitors int) float64 {
	if visitors == 0 {
		return 0
	}
	return float64(conversions) / float64(visitors) * 100
}
