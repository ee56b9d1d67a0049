package fingerprint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/facematch"
)

func embedding(dim int, seed float32) []float32 {
	e := make([]float32, dim)
	for i := range e {
		e[i] = seed + float32(i)/1000
	}
	return e
}

func faceServer(t *testing.T, faces []FaceDetection) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/embed/face" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		file.Close()
		if header.Header.Get("Content-Type") != "image/png" {
			http.Error(w, "unexpected content type "+header.Header.Get("Content-Type"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FaceResponse{FacesCount: len(faces), Faces: faces, Model: "test"})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string, dim int) *FaceClient {
	return NewFaceClient(&config.EmbeddingConfig{URL: url + "/", Dim: dim, Model: "test"})
}

func TestFaceClient_ExtractAll(t *testing.T) {
	srv, calls := faceServer(t, []FaceDetection{
		{FaceIndex: 0, Dim: 4, Embedding: embedding(4, 0), BBox: []float64{1, 2, 3, 4}, DetScore: 0.99},
		{FaceIndex: 1, Dim: 4, Embedding: embedding(4, 1), BBox: []float64{5, 6, 7, 8}, DetScore: 0.8},
	})

	faces, err := newTestClient(srv.URL, 4).ExtractAll(context.Background(), createTestPNG(t, 16, 16))
	if err != nil {
		t.Fatalf("ExtractAll() error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}
	if faces[1].Index != 1 || faces[1].DetScore != 0.8 || faces[1].BBox[0] != 5 {
		t.Errorf("unexpected second face: %+v", faces[1])
	}
	if len(faces[0].Vector) != 4 {
		t.Errorf("expected 4-d vector, got %d", len(faces[0].Vector))
	}
}

func TestFaceClient_ExtractAllScalesBBoxOfDownscaledImage(t *testing.T) {
	permissive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(FaceResponse{FacesCount: 1, Faces: []FaceDetection{
			{Embedding: embedding(4, 0), BBox: []float64{10, 10, 20, 20}},
		}})
	}))
	defer permissive.Close()

	client := NewFaceClient(&config.EmbeddingConfig{URL: permissive.URL, Dim: 4}, WithMaxImageSize(32))
	faces, err := client.ExtractAll(context.Background(), createTestPNG(t, 64, 64))
	if err != nil {
		t.Fatalf("ExtractAll() error: %v", err)
	}
	want := []float64{20, 20, 40, 40}
	wantRel := []float64{0.3125, 0.3125, 0.625, 0.625}
	for i := range want {
		if faces[0].BBox[i] != want[i] {
			t.Errorf("bbox = %v, want %v", faces[0].BBox, want)
			break
		}
		if faces[0].RelBBox[i] != wantRel[i] {
			t.Errorf("relative bbox = %v, want %v", faces[0].RelBBox, wantRel)
			break
		}
	}
}

func TestFaceClient_ExtractAllRejectsWrongDimension(t *testing.T) {
	srv, _ := faceServer(t, []FaceDetection{{Embedding: embedding(3, 0)}})

	_, err := newTestClient(srv.URL, 4).ExtractAll(context.Background(), createTestPNG(t, 8, 8))
	if !errors.Is(err, facematch.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFaceClient_ExtractOne(t *testing.T) {
	tests := []struct {
		name    string
		faces   []FaceDetection
		wantErr error
	}{
		{"single face", []FaceDetection{{Embedding: embedding(4, 0)}}, nil},
		{"no face", nil, ErrNoFace},
		{"two faces", []FaceDetection{{Embedding: embedding(4, 0)}, {Embedding: embedding(4, 1)}}, ErrMultipleFaces},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := faceServer(t, tc.faces)
			vec, err := newTestClient(srv.URL, 4).ExtractOne(context.Background(), createTestPNG(t, 8, 8))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractOne() error: %v", err)
			}
			if len(vec) != 4 {
				t.Errorf("expected 4-d vector, got %d", len(vec))
			}
		})
	}
}

func TestFaceClient_InvalidImageNeverReachesServer(t *testing.T) {
	srv, calls := faceServer(t, nil)

	_, err := newTestClient(srv.URL, 4).ExtractAll(context.Background(), []byte("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no request, got %d", calls.Load())
	}
}

func TestFaceClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 4).ExtractAll(context.Background(), createTestPNG(t, 8, 8))
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable for 503 response, got %v", err)
	}
}

func TestFaceClient_ClientErrorIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported image", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 4).ExtractAll(context.Background(), createTestPNG(t, 8, 8))
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("400 response must not be reported as unavailable: %v", err)
	}
}

func TestFaceClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, 4).ExtractAll(context.Background(), createTestPNG(t, 8, 8))
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestFaceClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewFaceClient(&config.EmbeddingConfig{URL: srv.URL, Dim: 4, Timeout: 50 * time.Millisecond})
	_, err := client.ExtractAll(context.Background(), createTestPNG(t, 8, 8))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestNewFaceClient_Defaults(t *testing.T) {
	c := NewFaceClient(&config.EmbeddingConfig{RateLimit: 2})
	if c.baseURL != defaultEmbeddingURL {
		t.Errorf("expected default URL, got %s", c.baseURL)
	}
	if c.Dim() != facematch.DefaultDim {
		t.Errorf("expected default dim %d, got %d", facematch.DefaultDim, c.Dim())
	}
	if c.limiter == nil {
		t.Error("expected rate limiter to be configured")
	}
}
