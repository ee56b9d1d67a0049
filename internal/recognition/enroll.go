package recognition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of images extracted in parallel per enrollment.
const DefaultConcurrency = 4

// ImageFailure describes an image that did not contribute a descriptor.
type ImageFailure struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// EnrollResult reports a successful enrollment.
type EnrollResult struct {
	Label        string         `json:"label"`
	EnrollmentID string         `json:"enrollment_id"`
	Accepted     int            `json:"accepted"`
	Rejected     int            `json:"rejected"`
	Failures     []ImageFailure `json:"failures,omitempty"`
}

// Enroller extracts one descriptor per image and appends the survivors under a label.
type Enroller struct {
	store       *database.Store
	extractor   Extractor
	concurrency int
	logger      *slog.Logger
}

// EnrollerOption configures an Enroller.
type EnrollerOption func(*Enroller)

// WithConcurrency limits parallel extractions per Enroll call.
func WithConcurrency(n int) EnrollerOption {
	return func(e *Enroller) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithEnrollLogger sets the logger used for enrollment events.
func WithEnrollLogger(l *slog.Logger) EnrollerOption {
	return func(e *Enroller) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEnroller creates an enrollment pipeline over store.
func NewEnroller(store *database.Store, extractor Extractor, opts ...EnrollerOption) *Enroller {
	e := &Enroller{
		store:       store,
		extractor:   extractor,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enroll extracts every image independently and appends all usable descriptors
// under label in one atomic store append. Images that fail extraction are skipped
// and reported; if none succeed, ErrNoFaceDetected is returned and nothing is written.
func (e *Enroller) Enroll(ctx context.Context, label string, images []Image) (*EnrollResult, error) {
	if err := facematch.ValidateLabel(label); err != nil {
		return nil, err
	}

	vectors := make([]facematch.Vector, len(images))
	errs := make([]error, len(images))

	// Per-image failures are recorded, never returned, so one bad image cannot cancel the rest.
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, img := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			vectors[i], errs[i] = e.extractor.ExtractOne(ctx, img.Data)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &EnrollResult{Label: label}
	survivors := make([]facematch.Vector, 0, len(images))
	for i, err := range errs {
		if err != nil {
			result.Failures = append(result.Failures, ImageFailure{Index: i, Name: images[i].Name, Reason: err.Error()})
			e.logger.Debug("image rejected", "label", label, "index", i, "name", images[i].Name, "error", err)
			continue
		}
		survivors = append(survivors, vectors[i])
	}
	result.Accepted = len(survivors)
	result.Rejected = len(result.Failures)

	if len(survivors) == 0 {
		e.logger.Info("enrollment rejected", "label", label, "images", len(images))
		return nil, fmt.Errorf("%w (%d images)", ErrNoFaceDetected, len(images))
	}

	id, err := e.store.Append(ctx, label, survivors)
	if err != nil {
		return nil, fmt.Errorf("storing descriptors for %q: %w", label, err)
	}
	result.EnrollmentID = id

	e.logger.Info("enrolled", "label", label, "enrollment_id", id,
		"accepted", result.Accepted, "rejected", result.Rejected)
	return result, nil
}
