package fingerprint

import (
	"errors"

	"github.com/kozaktomas/face-registry/internal/facematch"
)

var (
	// ErrNoFace is returned when an image that must hold exactly one face holds none.
	ErrNoFace = errors.New("no face found in image")
	// ErrMultipleFaces is returned when an image that must hold exactly one face holds more.
	ErrMultipleFaces = errors.New("more than one face found in image")
	// ErrInvalidImage is returned for data that cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrServiceUnavailable marks transport failures and 5xx answers of the embedding service.
	ErrServiceUnavailable = errors.New("embedding service unavailable")
)

// Face is one detected face with its descriptor.
type Face struct {
	Index    int              // detection order assigned by the extractor
	Vector   facematch.Vector // descriptor of length Dim
	BBox     []float64        // [x1, y1, x2, y2] in pixels of the submitted image
	RelBBox  []float64        // BBox relative to the image size (0-1)
	DetScore float64
}

// FaceDetection represents a single detected face
type FaceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// FaceResponse represents the response from the face embedding endpoint
type FaceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []FaceDetection `json:"faces"`
	Model      string          `json:"model"`
}
