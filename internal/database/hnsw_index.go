package database

import (
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-registry/internal/facematch"
)

// HNSWIndex wraps an HNSW graph over corpus positions. Keys are positions in the
// generation's entry slice, so they stay valid for every snapshot of that generation.
type HNSWIndex struct {
	graph *hnsw.Graph[int]
	size  int
	mu    sync.RWMutex
}

// NewHNSWIndex creates a new empty index using Euclidean distance.
func NewHNSWIndex() *HNSWIndex {
	g := hnsw.NewGraph[int]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return &HNSWIndex{graph: g}
}

// Add inserts entries under consecutive keys starting at start.
func (h *HNSWIndex) Add(start int, entries []facematch.Entry) {
	if len(entries) == 0 {
		return
	}

	nodes := make([]hnsw.Node[int], len(entries))
	for i, e := range entries {
		nodes[i] = hnsw.MakeNode(start+i, []float32(e.Vector))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph.Add(nodes...)
	h.size += len(nodes)
}

// Search returns the keys of up to k approximate nearest neighbours of query.
func (h *HNSWIndex) Search(query facematch.Vector, k int) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 || k <= 0 {
		return nil
	}

	neighbors := h.graph.Search([]float32(query), k)
	keys := make([]int, len(neighbors))
	for i, n := range neighbors {
		keys[i] = n.Key
	}
	return keys
}

// Count returns the number of indexed vectors.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// HNSWMatcher narrows the corpus to approximate neighbours from the snapshot's
// index, then ranks those candidates exactly. Results can differ from
// LinearMatcher when the graph misses the true nearest vector.
type HNSWMatcher struct {
	linear     *facematch.LinearMatcher
	candidates int
}

// NewHNSWMatcher creates an approximate matcher that re-ranks candidates exactly.
func NewHNSWMatcher(dim, candidates int) *HNSWMatcher {
	return &HNSWMatcher{
		linear:     facematch.NewLinearMatcher(dim),
		candidates: max(candidates, HNSWMinCandidates),
	}
}

// Match implements facematch.Matcher. Corpora without an index fall back to an exact scan.
func (m *HNSWMatcher) Match(query facematch.Vector, corpus facematch.Corpus, threshold float64) (facematch.Result, error) {
	snap, ok := corpus.(*Snapshot)
	if !ok || snap.index == nil || len(query) != m.linear.Dim {
		return m.linear.Match(query, corpus, threshold)
	}

	entries := snap.Entries()
	if len(entries) == 0 {
		return facematch.Unknown(nil), nil
	}

	best := -1
	var bestDistance float64
	for _, key := range snap.index.Search(query, m.candidates) {
		// The shared index may already hold vectors appended after this snapshot.
		if key >= len(entries) {
			continue
		}
		d := facematch.EuclideanDistance(query, entries[key].Vector)
		if best < 0 || d < bestDistance || (d == bestDistance && key < best) {
			best = key
			bestDistance = d
		}
	}
	if best < 0 {
		return m.linear.Match(query, corpus, threshold)
	}

	return facematch.Decide(entries[best].Label, bestDistance, threshold), nil
}
