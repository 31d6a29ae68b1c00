package experiment

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/headline-goat/variant-goat/internal/store"
)

func weighted(weights ...float64) []store.Variant {
	variants := make([]store.Variant, len(weights))
	for i, w := range weights {
		variants[i] = store.Variant{ID: string(rune('a' + i)), Weight: w}
	}
	return variants
}

func TestSelectVariant(t *testing.T) {
	variants := weighted(50, 30, 20)

	tests := []struct {
		r    float64
		want string
	}{
		{0, "a"},
		{49.99, "a"},
		{50, "a"},
		{50.01, "b"},
		{80, "b"},
		{80.5, "c"},
		{99.99, "c"},
	}

	for _, tt := range tests {
		got := SelectVariant(variants, tt.r)
		assert.Equal(t, tt.want, got.ID, "r=%v", tt.r)
	}
}

func TestSelectVariant_FallsBackToControl(t *testing.T) {
	// Weights a hair short of 100 leave the top of the range unclaimed
	variants := weighted(49.995, 49.995)

	assert.Equal(t, "a", SelectVariant(variants, 99.999).ID)
}

func TestSelectVariant_Empty(t *testing.T) {
	assert.Nil(t, SelectVariant(nil, 42))
}

func TestSelectVariant_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Split 0..100 at random cut points so the weights sum to exactly 100
		n := rapid.IntRange(1, 6).Draw(t, "variants")
		cuts := make([]int, n-1)
		for i := range cuts {
			cuts[i] = rapid.IntRange(0, 100).Draw(t, "cut")
		}
		sort.Ints(cuts)

		weights := make([]float64, n)
		prev := 0
		for i, c := range cuts {
			weights[i] = float64(c - prev)
			prev = c
		}
		weights[n-1] = float64(100 - prev)

		variants := weighted(weights...)
		r := rapid.Float64Range(0, 100).Draw(t, "r")

		got := SelectVariant(variants, r)
		if got == nil {
			t.Fatalf("no variant selected")
		}

		idx := int(got.ID[0] - 'a')
		var before float64
		for i := 0; i < idx; i++ {
			before += weights[i]
		}
		through := before + weights[idx]

		if through < r {
			t.Fatalf("selected %s with cumulative %v below r=%v", got.ID, through, r)
		}
		if idx > 0 && before >= r {
			t.Fatalf("selected %s but an earlier variant already reached r=%v", got.ID, r)
		}
		if r > 0 && got.Weight == 0 {
			t.Fatalf("selected zero-weight variant %s for r=%v", got.ID, r)
		}
	})
}
