package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-registry/internal/recognition"
)

// fakeEnroller records the last call and returns canned output.
type fakeEnroller struct {
	result *recognition.EnrollResult
	err    error
	label  string
	images []recognition.Image
}

func (f *fakeEnroller) Enroll(ctx context.Context, label string, images []recognition.Image) (*recognition.EnrollResult, error) {
	f.label = label
	f.images = images
	return f.result, f.err
}

// fakeQuerier records the last image and returns canned output.
type fakeQuerier struct {
	results []recognition.FaceResult
	err     error
	image   []byte
}

func (f *fakeQuerier) QueryAll(ctx context.Context, image []byte) ([]recognition.FaceResult, error) {
	f.image = image
	return f.results, f.err
}

type formFile struct {
	field, name string
	data        []byte
}

// multipartRequest builds a multipart POST with the given fields and files.
func multipartRequest(t *testing.T, path string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(f.data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
