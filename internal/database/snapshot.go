package database

import (
	"github.com/kozaktomas/face-registry/internal/facematch"
)

// Snapshot is an immutable, ordered view of the corpus at one point in time.
// It implements facematch.Corpus.
type Snapshot struct {
	entries []facematch.Entry
	index   *HNSWIndex // shared with later snapshots of the same generation, may be nil
}

// NewSnapshot wraps entries in a snapshot without an index.
func NewSnapshot(entries []facematch.Entry) *Snapshot {
	n := len(entries)
	return &Snapshot{entries: entries[:n:n]}
}

// Entries returns one (label, vector) pair per stored vector in append order.
// Callers must not modify the returned slice.
func (s *Snapshot) Entries() []facematch.Entry {
	return s.entries
}

// Len returns the number of vectors in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Index returns the HNSW index shared by this snapshot's generation, or nil.
func (s *Snapshot) Index() *HNSWIndex {
	return s.index
}

// Labels returns per-label descriptor counts sorted by label.
func (s *Snapshot) Labels() []LabelStats {
	counts := make(map[string]int)
	for _, e := range s.entries {
		counts[e.Label]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	facematch.SortLabels(labels)

	stats := make([]LabelStats, len(labels))
	for i, label := range labels {
		stats[i] = LabelStats{Label: label, Descriptors: counts[label]}
	}
	return stats
}
