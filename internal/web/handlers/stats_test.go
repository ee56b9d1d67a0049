package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-registry/internal/database"
)

func TestStatsHandler_Get(t *testing.T) {
	handler := NewStatsHandler(seededStore(t, map[string]int{"alice": 2, "bob": 3}), 0.6, "sqlite")

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var resp StatsResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	want := StatsResponse{
		Labels:      2,
		Descriptors: 5,
		Dim:         4,
		Model:       "test-model",
		Threshold:   0.6,
		Matcher:     "linear",
		Backend:     "sqlite",
	}
	if resp != want {
		t.Errorf("got %+v, want %+v", resp, want)
	}
}

func TestStatsHandler_ReportsHNSW(t *testing.T) {
	handler := NewStatsHandler(database.NewStore(128, database.WithHNSW()), 0.6, "memory")

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	var resp StatsResponse
	json.Unmarshal(recorder.Body.Bytes(), &resp)
	if resp.Matcher != "hnsw" || resp.Descriptors != 0 {
		t.Errorf("unexpected stats %+v", resp)
	}
}
