package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/fingerprint"
	"github.com/kozaktomas/face-registry/internal/recognition"
)

func TestCreateFace_Success(t *testing.T) {
	enroller := &fakeEnroller{result: &recognition.EnrollResult{
		Label: "alice", EnrollmentID: "e-1", Accepted: 2, Rejected: 1,
		Failures: []recognition.ImageFailure{{Index: 1, Name: "b.jpg", Reason: "no face found in image"}},
	}}
	handler := NewFacesHandler(enroller, &fakeQuerier{})

	req := multipartRequest(t, "/create-face", map[string]string{"label": "alice"},
		formFile{"File1", "a.jpg", []byte("a")},
		formFile{"File2", "b.jpg", []byte("b")},
		formFile{"File2", "c.jpg", []byte("c")},
	)
	recorder := httptest.NewRecorder()
	handler.CreateFace(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if enroller.label != "alice" {
		t.Errorf("expected label 'alice', got '%s'", enroller.label)
	}
	if len(enroller.images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(enroller.images))
	}
	if string(enroller.images[0].Data) != "a" || string(enroller.images[2].Data) != "c" {
		t.Errorf("expected images ordered by field then position")
	}

	var resp map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["message"] != "Face stored" {
		t.Errorf("expected 'Face stored', got %v", resp["message"])
	}
	if resp["accepted"] != float64(2) || resp["enrollment_id"] != "e-1" {
		t.Errorf("unexpected enrollment details: %v", resp)
	}
}

func TestCreateFace_Validation(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		files   []formFile
		wantMsg string
	}{
		{"missing label", nil, []formFile{{"File1", "a.jpg", []byte("a")}}, "Label is required."},
		{"no images", map[string]string{"label": "alice"}, nil, "No images provided."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enroller := &fakeEnroller{}
			handler := NewFacesHandler(enroller, &fakeQuerier{})

			recorder := httptest.NewRecorder()
			handler.CreateFace(recorder, multipartRequest(t, "/create-face", tc.fields, tc.files...))

			if recorder.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", recorder.Code)
			}
			var resp map[string]string
			json.Unmarshal(recorder.Body.Bytes(), &resp)
			if resp["error"] != tc.wantMsg {
				t.Errorf("expected '%s', got '%s'", tc.wantMsg, resp["error"])
			}
			if enroller.images != nil {
				t.Error("enroller must not be called")
			}
		})
	}
}

func TestCreateFace_NotMultipart(t *testing.T) {
	handler := NewFacesHandler(&fakeEnroller{}, &fakeQuerier{})
	recorder := httptest.NewRecorder()

	handler.CreateFace(recorder, httptest.NewRequest(http.MethodPost, "/create-face", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestCreateFace_PipelineErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no face detected", fmt.Errorf("%w (2 images)", recognition.ErrNoFaceDetected), http.StatusBadRequest},
		{"invalid label", facematch.ErrInvalidLabel, http.StatusUnprocessableEntity},
		{"invalid vector", fmt.Errorf("storing: %w", facematch.ErrInvalidVector), http.StatusUnprocessableEntity},
		{"storage failure", fmt.Errorf("persisting descriptors: connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewFacesHandler(&fakeEnroller{err: tc.err}, &fakeQuerier{})
			recorder := httptest.NewRecorder()

			handler.CreateFace(recorder, multipartRequest(t, "/create-face",
				map[string]string{"label": "alice"}, formFile{"File1", "a.jpg", []byte("a")}))

			if recorder.Code != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, recorder.Code)
			}
		})
	}
}

func TestCheckFace_Success(t *testing.T) {
	d1, d2 := 0.3, 0.9
	querier := &fakeQuerier{results: []recognition.FaceResult{
		{Result: facematch.Known("alice", d1), FaceIndex: 0, BBox: []float64{1, 2, 3, 4}, DetScore: 0.99},
		{Result: facematch.Unknown(&d2), FaceIndex: 1},
	}}
	handler := NewFacesHandler(&fakeEnroller{}, querier)

	recorder := httptest.NewRecorder()
	handler.CheckFace(recorder, multipartRequest(t, "/checkFace", nil, formFile{"File1", "q.jpg", []byte("query")}))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if string(querier.image) != "query" {
		t.Errorf("expected uploaded bytes to reach the querier")
	}

	var resp struct {
		Result []struct {
			Label     string    `json:"label"`
			Distance  *float64  `json:"distance"`
			Known     bool      `json:"known"`
			FaceIndex int       `json:"face_index"`
			BBox      []float64 `json:"bbox"`
		} `json:"result"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Result) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Result))
	}
	if resp.Result[0].Label != "alice" || !resp.Result[0].Known || *resp.Result[0].Distance != 0.3 {
		t.Errorf("unexpected first result: %+v", resp.Result[0])
	}
	if resp.Result[1].Label != "unknown" || resp.Result[1].Known || *resp.Result[1].Distance != 0.9 {
		t.Errorf("unexpected second result: %+v", resp.Result[1])
	}
}

func TestCheckFace_NoFacesReturnsEmptyList(t *testing.T) {
	handler := NewFacesHandler(&fakeEnroller{}, &fakeQuerier{results: []recognition.FaceResult{}})
	recorder := httptest.NewRecorder()

	handler.CheckFace(recorder, multipartRequest(t, "/checkFace", nil, formFile{"File1", "q.jpg", []byte("q")}))

	if recorder.Body.String() != "{\"result\":[]}\n" {
		t.Errorf("expected empty result list, got %s", recorder.Body.String())
	}
}

func TestCheckFace_MissingImage(t *testing.T) {
	handler := NewFacesHandler(&fakeEnroller{}, &fakeQuerier{})
	recorder := httptest.NewRecorder()

	handler.CheckFace(recorder, multipartRequest(t, "/checkFace", nil, formFile{"Other", "q.jpg", []byte("q")}))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestCheckFace_ExtractionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"model crashed", fmt.Errorf("%w: model crashed", recognition.ErrExtraction), http.StatusUnprocessableEntity},
		{"undecodable image", fmt.Errorf("%w: %w", recognition.ErrExtraction, fingerprint.ErrInvalidImage), http.StatusUnprocessableEntity},
		{"service down", fmt.Errorf("%w: %w", recognition.ErrExtraction, fingerprint.ErrServiceUnavailable), http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewFacesHandler(&fakeEnroller{}, &fakeQuerier{err: tc.err})
			recorder := httptest.NewRecorder()

			handler.CheckFace(recorder, multipartRequest(t, "/checkFace", nil, formFile{"File1", "q.jpg", []byte("q")}))

			if recorder.Code != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, recorder.Code)
			}
		})
	}
}
