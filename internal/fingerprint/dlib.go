//go:build dlib

package fingerprint

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/kozaktomas/face-registry/internal/facematch"
)

// DlibExtractor runs dlib's 128-d face recognition model in-process.
// Build with -tags dlib; requires dlib and the model files in modelsDir.
type DlibExtractor struct {
	mu           sync.Mutex // the recognizer is not safe for concurrent use
	rec          *face.Recognizer
	maxImageSize int
}

// NewDlibExtractor loads the dlib models from modelsDir.
func NewDlibExtractor(modelsDir string, maxImageSize int) (*DlibExtractor, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading dlib models from %s: %w", modelsDir, err)
	}
	return &DlibExtractor{rec: rec, maxImageSize: maxImageSize}, nil
}

// ExtractOne returns the descriptor of the single face in image.
func (d *DlibExtractor) ExtractOne(ctx context.Context, image []byte) (facematch.Vector, error) {
	faces, err := d.ExtractAll(ctx, image)
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

// ExtractAll returns every face dlib detects, in detector order.
func (d *DlibExtractor) ExtractAll(ctx context.Context, img []byte) ([]Face, error) {
	prepared, err := PrepareImage(img, d.maxImageSize)
	if err != nil {
		return nil, err
	}
	data := prepared.Data
	if prepared.Format != "jpeg" {
		// go-face only decodes JPEG.
		if data, err = reencodeJPEG(data); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	detected, err := d.rec.Recognize(data)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	faces := make([]Face, len(detected))
	for i, f := range detected {
		r := f.Rectangle
		bbox := facematch.ScaleBBox(
			[]float64{float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)},
			prepared.Scale,
		)
		faces[i] = Face{
			Index:    i,
			Vector:   facematch.Vector(f.Descriptor[:]),
			BBox:     bbox,
			RelBBox:  facematch.ConvertPixelBBoxToRelative(bbox, prepared.Width, prepared.Height),
			DetScore: 1,
		}
	}
	return faces, nil
}

// Dim returns the descriptor length of the dlib model.
func (d *DlibExtractor) Dim() int {
	return facematch.DefaultDim
}

// Close releases the dlib models.
func (d *DlibExtractor) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.Close()
}

func reencodeJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
