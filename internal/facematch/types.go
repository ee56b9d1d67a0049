// Package facematch holds the labeled-embedding data model and the nearest-neighbour
// classifier used by both the CLI and the web handlers.
package facematch

import (
	"fmt"
	"math"
	"slices"
)

// DefaultDim is the descriptor length produced by the 128-d face recognition models.
const DefaultDim = 128

// UnknownLabel is reported for faces that did not match any enrolled identity.
const UnknownLabel = "unknown"

// Vector is a face descriptor of a fixed, system-wide dimension.
type Vector []float32

// NewVector copies values into a Vector after checking its length against dim.
// Non-finite components are rejected because they poison every distance they touch.
func NewVector(values []float32, dim int) (Vector, error) {
	v := Vector(slices.Clone(values))
	if err := v.Validate(dim); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks that v has exactly dim finite components.
func (v Vector) Validate(dim int) error {
	if len(v) != dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dim, len(v))
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidVector, i)
		}
	}
	return nil
}

// Entry is a single (label, vector) pair of the enrolled corpus.
type Entry struct {
	Label  string
	Vector Vector
}

// Corpus is a read-only, ordered view of enrolled entries.
type Corpus interface {
	Entries() []Entry
}

// Entries adapts a plain slice to the Corpus interface.
type Entries []Entry

// Entries returns the slice itself.
func (e Entries) Entries() []Entry {
	return e
}

// Result is the outcome of classifying one query descriptor.
//
// A known result carries the matched label and its distance. An unknown result
// carries the best distance observed, which is nil only when the corpus was empty.
type Result struct {
	Label    string   `json:"label"`
	Distance *float64 `json:"distance"`
	Known    bool     `json:"known"`
}

// Known builds a matched result.
func Known(label string, distance float64) Result {
	return Result{Label: label, Distance: &distance, Known: true}
}

// Unknown builds an unmatched result; best may be nil.
func Unknown(best *float64) Result {
	return Result{Label: UnknownLabel, Distance: best}
}

// BestDistance returns the reported distance and whether one was available.
func (r Result) BestDistance() (float64, bool) {
	if r.Distance == nil {
		return 0, false
	}
	return *r.Distance, true
}

// String mirrors the "label (distance)" form used in CLI output.
func (r Result) String() string {
	if r.Distance == nil {
		return r.Label
	}
	return fmt.Sprintf("%s (%.2f)", r.Label, *r.Distance)
}
