package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/facematch"
)

// ErrEmptyBatch is returned when Append is called without any vectors.
var ErrEmptyBatch = errors.New("no vectors to append")

// Store is the enrolled corpus: an in-memory, copy-on-write view over an optional
// durable backend. Readers take immutable snapshots; every Append becomes visible
// all at once or not at all.
type Store struct {
	dim     int
	model   string
	backend DescriptorWriter
	hnsw    bool

	// writeMu orders backend writes against corpus rebuilds: appends share it,
	// DeleteLabel and Load hold it exclusively. Extraction never runs under it.
	writeMu sync.RWMutex
	// mu serializes publishes.
	mu      sync.Mutex
	gen     *generation
	current atomic.Pointer[Snapshot]
}

// generation is an append-only run of entries. Deleting a label starts a new one,
// so snapshots taken from an older generation are never affected.
type generation struct {
	entries []facematch.Entry
	index   *HNSWIndex
}

func (g *generation) snapshot() *Snapshot {
	n := len(g.entries)
	return &Snapshot{entries: g.entries[:n:n], index: g.index}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBackend persists every append to w before it becomes visible.
func WithBackend(w DescriptorWriter) StoreOption {
	return func(s *Store) {
		s.backend = w
	}
}

// WithModel records the embedding model name alongside persisted descriptors.
func WithModel(model string) StoreOption {
	return func(s *Store) {
		s.model = model
	}
}

// WithHNSW maintains an approximate nearest-neighbour index next to the corpus.
func WithHNSW() StoreOption {
	return func(s *Store) {
		s.hnsw = true
	}
}

// NewStore creates an empty store for descriptors of length dim.
func NewStore(dim int, opts ...StoreOption) *Store {
	s := &Store{dim: dim}
	for _, opt := range opts {
		opt(s)
	}
	s.gen = s.newGeneration(nil)
	s.current.Store(s.gen.snapshot())
	return s
}

func (s *Store) newGeneration(entries []facematch.Entry) *generation {
	g := &generation{entries: entries}
	if s.hnsw {
		g.index = NewHNSWIndex()
		g.index.Add(0, entries)
	}
	return g
}

// Dim returns the descriptor dimension enforced by the store.
func (s *Store) Dim() int {
	return s.dim
}

// Model returns the configured embedding model name.
func (s *Store) Model() string {
	return s.model
}

// IsHNSWEnabled returns whether the approximate index is maintained.
func (s *Store) IsHNSWEnabled() bool {
	return s.hnsw
}

// Load replaces the in-memory corpus with the contents of the durable backend.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows, err := s.backend.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading descriptors: %w", err)
	}

	entries := make([]facematch.Entry, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		v, err := facematch.NewVector(row.Embedding, s.dim)
		if err != nil {
			return fmt.Errorf("descriptor %d (%s): %w", row.ID, row.Label, err)
		}
		entries = append(entries, facematch.Entry{Label: row.Label, Vector: v})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen = s.newGeneration(entries)
	s.current.Store(s.gen.snapshot())
	return nil
}

// Append adds a non-empty batch of vectors under label.
// Every vector is validated first; a single bad vector rejects the whole batch.
// It returns the enrollment ID assigned to the batch.
func (s *Store) Append(ctx context.Context, label string, vectors []facematch.Vector) (string, error) {
	if err := facematch.ValidateLabel(label); err != nil {
		return "", err
	}
	if len(vectors) == 0 {
		return "", ErrEmptyBatch
	}

	batch := make([]facematch.Entry, len(vectors))
	for i, v := range vectors {
		if err := v.Validate(s.dim); err != nil {
			if errors.Is(err, facematch.ErrInvalidVector) {
				return "", fmt.Errorf("vector %d: %w", i, err)
			}
			return "", fmt.Errorf("%w: vector %d: %w", facematch.ErrInvalidVector, i, err)
		}
		batch[i] = facematch.Entry{Label: label, Vector: slices.Clone(v)}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.writeMu.RLock()
	defer s.writeMu.RUnlock()

	enrollmentID := uuid.NewString()
	if s.backend != nil {
		if _, err := s.backend.AppendDescriptors(ctx, s.toStored(batch, enrollmentID)); err != nil {
			return "", fmt.Errorf("persisting descriptors: %w", err)
		}
	}

	s.publish(batch)
	return enrollmentID, nil
}

func (s *Store) toStored(batch []facematch.Entry, enrollmentID string) []StoredDescriptor {
	now := time.Now().UTC()
	rows := make([]StoredDescriptor, len(batch))
	for i, e := range batch {
		rows[i] = StoredDescriptor{
			Label:        e.Label,
			Embedding:    e.Vector,
			Model:        s.model,
			Dim:          s.dim,
			EnrollmentID: enrollmentID,
			CreatedAt:    now,
		}
	}
	return rows
}

// publish makes batch visible to new snapshots in one pointer swap.
func (s *Store) publish(batch []facematch.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.gen.entries)
	// Older snapshots are capped at their own length, so appending past it is invisible to them.
	s.gen.entries = append(s.gen.entries, batch...)
	if s.gen.index != nil {
		s.gen.index.Add(start, batch)
	}
	s.current.Store(s.gen.snapshot())
}

// DeleteLabel removes a label from the backend and from future snapshots.
// Appends that were acknowledged before it returns are either removed by it
// or kept in both places, never only in the backend.
func (s *Store) DeleteLabel(ctx context.Context, label string) (int, error) {
	if err := facematch.ValidateLabel(label); err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.backend != nil {
		if _, err := s.backend.DeleteLabel(ctx, label); err != nil {
			return 0, fmt.Errorf("deleting label: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]facematch.Entry, 0, len(s.gen.entries))
	for _, e := range s.gen.entries {
		if e.Label != label {
			kept = append(kept, e)
		}
	}
	removed := len(s.gen.entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	s.gen = s.newGeneration(kept)
	s.current.Store(s.gen.snapshot())
	return removed, nil
}

// Snapshot returns an immutable, point-in-time view of the corpus.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// IsEmpty reports whether no descriptors are enrolled.
func (s *Store) IsEmpty() bool {
	return s.Snapshot().Len() == 0
}

// Len returns the number of enrolled descriptors.
func (s *Store) Len() int {
	return s.Snapshot().Len()
}

// Labels returns per-label descriptor counts of the current snapshot.
func (s *Store) Labels() []LabelStats {
	return s.Snapshot().Labels()
}

// PersistedCounts returns the total and per-label descriptor counts held by the
// durable backend. ok is false for a memory-only store.
func (s *Store) PersistedCounts(ctx context.Context) (total int, byLabel map[string]int, ok bool, err error) {
	if s.backend == nil {
		return 0, nil, false, nil
	}
	if total, err = s.backend.Count(ctx); err != nil {
		return 0, nil, true, fmt.Errorf("counting descriptors: %w", err)
	}
	if byLabel, err = s.backend.CountByLabel(ctx); err != nil {
		return 0, nil, true, fmt.Errorf("counting descriptors by label: %w", err)
	}
	return total, byLabel, true, nil
}

// Close closes the durable backend, if any.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("closing backend: %w", err)
	}
	return nil
}
