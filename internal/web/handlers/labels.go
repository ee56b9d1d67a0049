package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
)

// LabelsHandler lists and removes enrolled labels.
type LabelsHandler struct {
	store *database.Store
}

// NewLabelsHandler creates a new labels handler.
func NewLabelsHandler(store *database.Store) *LabelsHandler {
	return &LabelsHandler{store: store}
}

// LabelsResponse lists labels with their descriptor counts.
type LabelsResponse struct {
	Labels []database.LabelStats `json:"labels"`
	Count  int                   `json:"count"`
}

// List returns every enrolled label. The optional q parameter filters labels
// ignoring case, diacritics and dashes ("jan-novak" finds "Jan Novák").
func (h *LabelsHandler) List(w http.ResponseWriter, r *http.Request) {
	labels := h.store.Labels()

	if q := facematch.NormalizePersonName(r.URL.Query().Get("q")); q != "" {
		filtered := make([]database.LabelStats, 0, len(labels))
		for _, l := range labels {
			if strings.Contains(facematch.NormalizePersonName(l.Label), q) {
				filtered = append(filtered, l)
			}
		}
		labels = filtered
	}

	respondJSON(w, http.StatusOK, LabelsResponse{Labels: labels, Count: len(labels)})
}

// Delete removes every descriptor of a label.
func (h *LabelsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	label, err := url.PathUnescape(chi.URLParam(r, "label"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid label")
		return
	}

	removed, err := h.store.DeleteLabel(r.Context(), label)
	if err != nil {
		log.Printf("delete label %q: %v", sanitizeForLog(label), err)
		respondPipelineError(w, err)
		return
	}
	if removed == 0 {
		respondError(w, http.StatusNotFound, "label not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"label": label, "removed": removed})
}
