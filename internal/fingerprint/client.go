// Package fingerprint turns face images into descriptors by calling a face
// embedding service (or, with the dlib build tag, an in-process model).
package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"golang.org/x/time/rate"
)

const (
	defaultEmbeddingURL = "http://localhost:8000"
	faceEndpoint        = "/embed/face"
	maxResponseSize     = 16 << 20
)

// FaceClient detects faces and computes their descriptors using the embedding server.
type FaceClient struct {
	baseURL      string
	model        string
	dim          int
	maxImageSize int
	timeout      time.Duration
	limiter      *rate.Limiter
	client       *http.Client
}

// ClientOption configures a FaceClient.
type ClientOption func(*FaceClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(fc *FaceClient) {
		fc.client = c
	}
}

// WithMaxImageSize downscales uploads whose longest side exceeds size before sending them.
func WithMaxImageSize(size int) ClientOption {
	return func(fc *FaceClient) {
		fc.maxImageSize = size
	}
}

// NewFaceClient creates a client for the face endpoint of the embedding server.
func NewFaceClient(cfg *config.EmbeddingConfig, opts ...ClientOption) *FaceClient {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	dim := cfg.Dim
	if dim <= 0 {
		dim = facematch.DefaultDim
	}

	c := &FaceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   cfg.Model,
		dim:     dim,
		timeout: cfg.Timeout,
		client:  &http.Client{},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *FaceClient) Model() string {
	return c.model
}

// Dim returns the descriptor length the client accepts from the server.
func (c *FaceClient) Dim() int {
	return c.dim
}

// ExtractOne returns the descriptor of the single face in image.
// Zero faces yields ErrNoFace and more than one yields ErrMultipleFaces.
func (c *FaceClient) ExtractOne(ctx context.Context, image []byte) (facematch.Vector, error) {
	faces, err := c.ExtractAll(ctx, image)
	if err != nil {
		return nil, err
	}
	switch len(faces) {
	case 0:
		return nil, ErrNoFace
	case 1:
		return faces[0].Vector, nil
	default:
		return nil, fmt.Errorf("%w (%d faces)", ErrMultipleFaces, len(faces))
	}
}

// ExtractAll returns every face in image in the server's detection order.
// Bounding boxes are expressed in pixels of the image as submitted, even when
// it was downscaled for the request.
func (c *FaceClient) ExtractAll(ctx context.Context, image []byte) ([]Face, error) {
	prepared, err := PrepareImage(image, c.maxImageSize)
	if err != nil {
		return nil, err
	}

	resp, err := c.ComputeFaceEmbeddings(ctx, prepared.Data)
	if err != nil {
		return nil, err
	}

	faces := make([]Face, 0, len(resp.Faces))
	for i, det := range resp.Faces {
		vec, err := facematch.NewVector(det.Embedding, c.dim)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		bbox := facematch.ScaleBBox(det.BBox, prepared.Scale)
		faces = append(faces, Face{
			Index:    det.FaceIndex,
			Vector:   vec,
			BBox:     bbox,
			RelBBox:  facematch.ConvertPixelBBoxToRelative(bbox, prepared.Width, prepared.Height),
			DetScore: det.DetScore,
		})
	}
	return faces, nil
}

// ComputeFaceEmbeddings detects faces and computes their embeddings
func (c *FaceClient) ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*FaceResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := c.postMultipartImage(ctx, faceEndpoint, imageData)
	if err != nil {
		return nil, err
	}

	var faceResp FaceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &faceResp, nil
}

// postMultipartImage posts the image as the "file" field of a multipart form.
// The part carries an explicit Content-Type based on magic byte detection.
func (c *FaceClient) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}
	return "application/octet-stream"
}
