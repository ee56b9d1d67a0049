package facematch

import "fmt"

// DefaultThreshold is the recommended maximum distance for 128-d face descriptors.
const DefaultThreshold = 0.6

// Matcher classifies a query descriptor against a corpus.
// Implementations never mutate the corpus.
type Matcher interface {
	Match(query Vector, corpus Corpus, threshold float64) (Result, error)
}

// LinearMatcher performs an exact nearest-neighbour scan over the whole corpus.
type LinearMatcher struct {
	Dim int
}

// NewLinearMatcher creates an exact matcher for descriptors of length dim.
func NewLinearMatcher(dim int) *LinearMatcher {
	return &LinearMatcher{Dim: dim}
}

// Match returns the label of the closest corpus vector when it lies within threshold.
// The boundary is inclusive. On exact distance ties the entry that appears first
// in corpus order wins.
func (m *LinearMatcher) Match(query Vector, corpus Corpus, threshold float64) (Result, error) {
	if len(query) != m.Dim {
		return Result{}, fmt.Errorf("query: %w: expected %d, got %d", ErrDimensionMismatch, m.Dim, len(query))
	}

	entries := corpus.Entries()
	if len(entries) == 0 {
		return Unknown(nil), nil
	}

	best := -1
	var bestDistance float64
	for i := range entries {
		if len(entries[i].Vector) != m.Dim {
			return Result{}, fmt.Errorf("corpus entry %d (%s): %w: expected %d, got %d",
				i, entries[i].Label, ErrDimensionMismatch, m.Dim, len(entries[i].Vector))
		}
		d := EuclideanDistance(query, entries[i].Vector)
		// Strict comparison keeps the earlier entry on ties.
		if best < 0 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	return Decide(entries[best].Label, bestDistance, threshold), nil
}

// Decide applies the acceptance threshold to the nearest candidate.
func Decide(label string, distance, threshold float64) Result {
	if distance <= threshold {
		return Known(label, distance)
	}
	return Unknown(&distance)
}
