// Package recognition enrolls labeled face images into a store and classifies
// the faces of query images against it.
package recognition

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/fingerprint"
)

var (
	// ErrNoFaceDetected is returned when no image of an enrollment yielded a usable descriptor.
	ErrNoFaceDetected = errors.New("no face detected in any image")
	// ErrExtraction is returned when face extraction of a query image fails.
	ErrExtraction = errors.New("face extraction failed")
)

// Extractor turns an encoded image into face descriptors.
type Extractor interface {
	// ExtractOne returns the descriptor of the only face in image, or an error
	// when the image holds no face, several faces or cannot be processed.
	ExtractOne(ctx context.Context, image []byte) (facematch.Vector, error)
	// ExtractAll returns every face in image in detection order.
	ExtractAll(ctx context.Context, image []byte) ([]fingerprint.Face, error)
}

// Image is one uploaded image. Name is only used in reports and logs.
type Image struct {
	Name string
	Data []byte
}
