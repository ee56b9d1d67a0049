//go:build !dlib

package fingerprint

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-registry/internal/facematch"
)

// ErrDlibUnavailable is returned when the binary was built without the dlib tag.
var ErrDlibUnavailable = errors.New("dlib extractor not available: rebuild with -tags dlib")

// DlibExtractor is a placeholder in builds without dlib support.
type DlibExtractor struct{}

// NewDlibExtractor always fails in builds without dlib support.
func NewDlibExtractor(modelsDir string, maxImageSize int) (*DlibExtractor, error) {
	return nil, ErrDlibUnavailable
}

func (d *DlibExtractor) ExtractOne(ctx context.Context, image []byte) (facematch.Vector, error) {
	return nil, ErrDlibUnavailable
}

func (d *DlibExtractor) ExtractAll(ctx context.Context, image []byte) ([]Face, error) {
	return nil, ErrDlibUnavailable
}

func (d *DlibExtractor) Close() {}

func (d *DlibExtractor) Dim() int { return facematch.DefaultDim }
