package mariadb

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-registry/internal/database"
)

// DescriptorRepository stores descriptors as float32 blobs in face_descriptors.
type DescriptorRepository struct {
	pool *Pool
}

// NewDescriptorRepository creates a repository over a pool whose schema exists.
func NewDescriptorRepository(pool *Pool) *DescriptorRepository {
	return &DescriptorRepository{pool: pool}
}

// LoadAll returns every descriptor ordered by id.
func (r *DescriptorRepository) LoadAll(ctx context.Context) ([]database.StoredDescriptor, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, label, embedding, model, dim, enrollment_id, created_at
		FROM face_descriptors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	var out []database.StoredDescriptor
	for rows.Next() {
		var d database.StoredDescriptor
		var blob []byte
		if err := rows.Scan(&d.ID, &d.Label, &blob, &d.Model, &d.Dim, &d.EnrollmentID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		if d.Embedding, err = database.DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", d.ID, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return out, nil
}

// Count returns the number of stored descriptors.
func (r *DescriptorRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM face_descriptors").Scan(&n); err != nil {
		return 0, fmt.Errorf("count descriptors: %w", err)
	}
	return n, nil
}

// CountByLabel returns the number of descriptors per label.
func (r *DescriptorRepository) CountByLabel(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.db.QueryContext(ctx, "SELECT label, COUNT(*) FROM face_descriptors GROUP BY label")
	if err != nil {
		return nil, fmt.Errorf("count by label: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label counts: %w", err)
	}
	return counts, nil
}

// AppendDescriptors inserts the batch in one transaction.
func (r *DescriptorRepository) AppendDescriptors(ctx context.Context, descriptors []database.StoredDescriptor) ([]database.StoredDescriptor, error) {
	if len(descriptors) == 0 {
		return nil, nil
	}

	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO face_descriptors (label, embedding, model, dim, enrollment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := make([]database.StoredDescriptor, len(descriptors))
	for i := range descriptors {
		d := descriptors[i]
		res, err := stmt.ExecContext(ctx, d.Label, database.EncodeEmbedding(d.Embedding), d.Model, d.Dim, d.EnrollmentID, d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert descriptor %d of %q: %w", i, d.Label, err)
		}
		if d.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		inserted[i] = d
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// DeleteLabel removes every descriptor stored under label.
func (r *DescriptorRepository) DeleteLabel(ctx context.Context, label string) (int, error) {
	res, err := r.pool.db.ExecContext(ctx, "DELETE FROM face_descriptors WHERE label = ?", label)
	if err != nil {
		return 0, fmt.Errorf("delete descriptors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying pool.
func (r *DescriptorRepository) Close() error {
	return r.pool.Close()
}

var _ database.DescriptorWriter = (*DescriptorRepository)(nil)
