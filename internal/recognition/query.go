package recognition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"golang.org/x/sync/errgroup"
)

// FaceResult is the classification of one detected face.
type FaceResult struct {
	facematch.Result
	FaceIndex int       `json:"face_index"`
	BBox      []float64 `json:"bbox,omitempty"`
	RelBBox   []float64 `json:"bbox_rel,omitempty"`
	DetScore  float64   `json:"det_score,omitempty"`
}

// Querier classifies every face of a query image against one store snapshot.
type Querier struct {
	store     *database.Store
	extractor Extractor
	matcher   facematch.Matcher
	threshold float64
	logger    *slog.Logger
}

// QuerierOption configures a Querier.
type QuerierOption func(*Querier)

// WithMatcher replaces the exact linear matcher.
func WithMatcher(m facematch.Matcher) QuerierOption {
	return func(q *Querier) {
		if m != nil {
			q.matcher = m
		}
	}
}

// WithQueryLogger sets the logger used for query events.
func WithQueryLogger(l *slog.Logger) QuerierOption {
	return func(q *Querier) {
		if l != nil {
			q.logger = l
		}
	}
}

// NewQuerier creates a query pipeline matching with the given distance threshold.
func NewQuerier(store *database.Store, extractor Extractor, threshold float64, opts ...QuerierOption) *Querier {
	q := &Querier{
		store:     store,
		extractor: extractor,
		matcher:   facematch.NewLinearMatcher(store.Dim()),
		threshold: threshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// QueryAll extracts every face from image and matches each against the same
// snapshot. Results follow detection order. An image without faces yields an
// empty, non-nil slice.
func (q *Querier) QueryAll(ctx context.Context, image []byte) ([]FaceResult, error) {
	faces, err := q.extractor.ExtractAll(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	results := make([]FaceResult, len(faces))
	if len(faces) == 0 {
		return results, nil
	}

	snap := q.store.Snapshot()

	g, gctx := errgroup.WithContext(ctx)
	for i, face := range faces {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := q.matcher.Match(face.Vector, snap, q.threshold)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			results[i] = FaceResult{
				Result:    res,
				FaceIndex: face.Index,
				BBox:      face.BBox,
				RelBBox:   face.RelBBox,
				DetScore:  face.DetScore,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	q.logger.Debug("query matched", "faces", len(faces), "corpus", snap.Len())
	return results, nil
}
