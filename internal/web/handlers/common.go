// Package handlers implements the HTTP endpoints of the face registry.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/fingerprint"
	"github.com/kozaktomas/face-registry/internal/recognition"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps pipeline errors to HTTP status codes. Extraction failures
// of a query image are 422 whatever their cause, unless the embedding service
// itself failed.
func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, fingerprint.ErrServiceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, recognition.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, recognition.ErrNoFaceDetected),
		errors.Is(err, database.ErrEmptyBatch),
		errors.Is(err, fingerprint.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, facematch.ErrInvalidLabel),
		errors.Is(err, facematch.ErrInvalidVector),
		errors.Is(err, facematch.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondPipelineError reports err with its mapped status. Internal errors
// get a generic message so storage details never leak to clients.
func respondPipelineError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondError(w, status, constants.MessageSomethingWrong)
		return
	}
	respondError(w, status, err.Error())
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": constants.MessageServerUp,
	})
}
