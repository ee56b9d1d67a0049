package database

import (
	"context"
)

// DescriptorReader provides read-only access to persisted descriptors.
type DescriptorReader interface {
	// LoadAll returns every stored descriptor ordered by insertion (ascending ID).
	LoadAll(ctx context.Context) ([]StoredDescriptor, error)
	// Count returns the total number of descriptors stored.
	Count(ctx context.Context) (int, error)
	// CountByLabel returns the number of descriptors stored per label.
	CountByLabel(ctx context.Context) (map[string]int, error)
}

// DescriptorWriter provides write access to persisted descriptors.
type DescriptorWriter interface {
	DescriptorReader

	// AppendDescriptors stores all descriptors in a single transaction: either
	// every row is committed or none is. The returned slice carries assigned IDs.
	AppendDescriptors(ctx context.Context, descriptors []StoredDescriptor) ([]StoredDescriptor, error)

	// DeleteLabel removes every descriptor of a label and returns how many were removed.
	DeleteLabel(ctx context.Context, label string) (int, error)

	// Close releases the underlying connection pool.
	Close() error
}
