package database

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/kozaktomas/face-registry/internal/facematch"
)

// Export captures the current snapshot as archive data.
func (s *Store) Export() *ExportData {
	entries := s.Snapshot().Entries()
	data := &ExportData{
		Version:     CurrentExportVersion,
		ExportedAt:  time.Now().UTC(),
		Dim:         s.dim,
		Model:       s.model,
		Descriptors: make([]StoredDescriptor, len(entries)),
	}
	for i, e := range entries {
		data.Descriptors[i] = StoredDescriptor{
			ID:        int64(i + 1),
			Label:     e.Label,
			Embedding: e.Vector,
			Model:     s.model,
			Dim:       len(e.Vector),
		}
	}
	return data
}

// Import appends archived descriptors, one batch per run of consecutive rows
// sharing a label. It returns the number of descriptors imported.
func (s *Store) Import(ctx context.Context, data *ExportData) (int, error) {
	if data.Dim != s.dim {
		return 0, fmt.Errorf("%w: archive has dimension %d, store expects %d",
			facematch.ErrDimensionMismatch, data.Dim, s.dim)
	}

	imported := 0
	rows := data.Descriptors
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end].Label == rows[start].Label {
			end++
		}

		vectors := make([]facematch.Vector, 0, end-start)
		for _, row := range rows[start:end] {
			vectors = append(vectors, facematch.Vector(row.Embedding))
		}
		if _, err := s.Append(ctx, rows[start].Label, vectors); err != nil {
			return imported, fmt.Errorf("importing %q: %w", rows[start].Label, err)
		}

		imported += len(vectors)
		start = end
	}
	return imported, nil
}

// WriteExport encodes data as a zstd-compressed gob stream.
func WriteExport(w io.Writer, data *ExportData) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(data); err != nil {
		zw.Close()
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing zstd writer: %w", err)
	}
	return nil
}

// ReadExport decodes an archive written by WriteExport.
func ReadExport(r io.Reader) (*ExportData, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	var data ExportData
	if err := gob.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	if data.Version != CurrentExportVersion {
		return nil, fmt.Errorf("unsupported export version %d", data.Version)
	}
	return &data, nil
}
