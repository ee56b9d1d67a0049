package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/fingerprint"
	"github.com/kozaktomas/face-registry/internal/recognition"
)

func TestRespondJSON(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusCreated, map[string]any{"message": "hello", "count": 42})

	if recorder.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
	}

	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["message"] != "hello" || result["count"] != float64(42) {
		t.Errorf("unexpected body: %v", result)
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["error"] != "something went wrong" {
		t.Errorf("expected error message, got '%s'", result["error"])
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no face", fmt.Errorf("%w (3 images)", recognition.ErrNoFaceDetected), http.StatusBadRequest},
		{"empty batch", database.ErrEmptyBatch, http.StatusBadRequest},
		{"invalid image", fingerprint.ErrInvalidImage, http.StatusBadRequest},
		{"invalid label", facematch.ErrInvalidLabel, http.StatusUnprocessableEntity},
		{"invalid vector", fmt.Errorf("storing: %w", facematch.ErrInvalidVector), http.StatusUnprocessableEntity},
		{"dimension", facematch.ErrDimensionMismatch, http.StatusUnprocessableEntity},
		{"extraction", fmt.Errorf("%w: boom", recognition.ErrExtraction), http.StatusUnprocessableEntity},
		{"undecodable query image", fmt.Errorf("%w: %w", recognition.ErrExtraction, fingerprint.ErrInvalidImage), http.StatusUnprocessableEntity},
		{"embedding service down", fmt.Errorf("%w: %w", recognition.ErrExtraction, fingerprint.ErrServiceUnavailable), http.StatusBadGateway},
		{"embedding service timeout", fmt.Errorf("%w: %w: %w", recognition.ErrExtraction, fingerprint.ErrServiceUnavailable, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"storage", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.want {
				t.Errorf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestRespondPipelineError_HidesInternalErrors(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondPipelineError(recorder, errors.New("pq: password authentication failed"))

	var result map[string]string
	json.Unmarshal(recorder.Body.Bytes(), &result)
	if result["error"] != "Something went wrong" {
		t.Errorf("expected generic message, got '%s'", result["error"])
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("alice\r\nFAKE LOG LINE"); got != "aliceFAKE LOG LINE" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
	if result["message"] != "Server is up and running!" {
		t.Errorf("unexpected message '%s'", result["message"])
	}
}
