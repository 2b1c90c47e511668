package editdist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinKnownValues(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
		{"abc", "acb", 2},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein([]rune(tt.a), []rune(tt.b)))
		})
	}
}

func TestLevenshteinProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomLabels := func() []int {
		out := make([]int, rng.Intn(8))
		for i := range out {
			out[i] = rng.Intn(4)
		}
		return out
	}

	for range 200 {
		a, b, c := randomLabels(), randomLabels(), randomLabels()

		assert.Equal(t, 0, Levenshtein(a, a))
		assert.Equal(t, Levenshtein(a, b), Levenshtein(b, a))
		assert.LessOrEqual(t, Levenshtein(a, c), Levenshtein(a, b)+Levenshtein(b, c))
		if Levenshtein(a, b) == 0 {
			assert.Equal(t, a, b)
		}
	}
}

func TestErrorRate(t *testing.T) {
	assert.InDelta(t, 0.5, ErrorRate([]int{1, 2}, []int{1, 3}), 1e-12)
	assert.InDelta(t, 2.0, ErrorRate([]int{1, 2}, []int{}), 1e-12)
}
