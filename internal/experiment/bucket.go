package experiment

import "github.com/headline-goat/variant-goat/internal/store"

// SelectVariant picks the first variant whose cumulative weight reaches r,
// with r in [0, 100). If rounding leaves nothing selected it falls back to
// the control. It returns nil only for an empty list.
func SelectVariant(variants []store.Variant, r float64) *store.Variant {
	if len(variants) == 0 {
		return nil
	}

	var cumulative float64
	for i := range variants {
		cumulative += variants[i].Weight
		if cumulative >= r {
			return &variants[i]
		}
	}
	return &variants[0]
}
