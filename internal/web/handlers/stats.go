package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-registry/internal/database"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	store     *database.Store
	threshold float64
	backend   string
}

// StatsResponse represents the stats response
type StatsResponse struct {
	Labels      int     `json:"labels"`
	Descriptors int     `json:"descriptors"`
	Dim         int     `json:"dim"`
	Model       string  `json:"model"`
	Threshold   float64 `json:"threshold"`
	Matcher     string  `json:"matcher"`
	Backend     string  `json:"backend"`
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(store *database.Store, threshold float64, backend string) *StatsHandler {
	return &StatsHandler{store: store, threshold: threshold, backend: backend}
}

// Get returns corpus statistics computed from one snapshot
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	matcher := "linear"
	if h.store.IsHNSWEnabled() {
		matcher = "hnsw"
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		Labels:      len(snap.Labels()),
		Descriptors: snap.Len(),
		Dim:         h.store.Dim(),
		Model:       h.store.Model(),
		Threshold:   h.threshold,
		Matcher:     matcher,
		Backend:     h.backend,
	})
}
