// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/face-registry/internal/database"
)

// MockDescriptorWriter is an in-memory implementation of database.DescriptorWriter
type MockDescriptorWriter struct {
	mu          sync.RWMutex
	descriptors []database.StoredDescriptor
	nextID      int64
	closed      bool

	// Error injection
	LoadAllError      error
	CountError        error
	AppendError       error
	DeleteLabelError  error
	AppendCalls       int
	AppendBatchSizes  []int
	BlockAppend       chan struct{} // when set, AppendDescriptors waits for it to be closed
	AppendStarted     chan struct{} // when set, receives one value per AppendDescriptors call
	DeleteLabelCalled []string
	// when set, DeleteLabel signals DeleteLabelDone after removing rows and then
	// waits for BlockDeleteLabel to be closed before returning
	DeleteLabelDone  chan struct{}
	BlockDeleteLabel chan struct{}
}

// NewMockDescriptorWriter creates a new, empty mock backend
func NewMockDescriptorWriter() *MockDescriptorWriter {
	return &MockDescriptorWriter{nextID: 1}
}

// AddDescriptor seeds a descriptor, assigning the next ID
func (m *MockDescriptorWriter) AddDescriptor(d database.StoredDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextID
	m.nextID++
	m.descriptors = append(m.descriptors, d)
}

// LoadAll returns all descriptors in insertion order
func (m *MockDescriptorWriter) LoadAll(ctx context.Context) ([]database.StoredDescriptor, error) {
	if m.LoadAllError != nil {
		return nil, m.LoadAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.descriptors), nil
}

// Count returns the number of stored descriptors
func (m *MockDescriptorWriter) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.descriptors), nil
}

// CountByLabel returns descriptor counts per label
func (m *MockDescriptorWriter) CountByLabel(ctx context.Context) (map[string]int, error) {
	if m.CountError != nil {
		return nil, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, d := range m.descriptors {
		counts[d.Label]++
	}
	return counts, nil
}

// AppendDescriptors stores all descriptors or none of them
func (m *MockDescriptorWriter) AppendDescriptors(ctx context.Context, descriptors []database.StoredDescriptor) ([]database.StoredDescriptor, error) {
	if m.AppendStarted != nil {
		m.AppendStarted <- struct{}{}
	}
	if m.BlockAppend != nil {
		select {
		case <-m.BlockAppend:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	m.AppendBatchSizes = append(m.AppendBatchSizes, len(descriptors))
	if m.AppendError != nil {
		return nil, m.AppendError
	}

	out := make([]database.StoredDescriptor, len(descriptors))
	for i, d := range descriptors {
		d.ID = m.nextID
		m.nextID++
		if d.CreatedAt.IsZero() {
			d.CreatedAt = time.Now()
		}
		out[i] = d
	}
	m.descriptors = append(m.descriptors, out...)
	return out, nil
}

// DeleteLabel removes all descriptors for a label
func (m *MockDescriptorWriter) DeleteLabel(ctx context.Context, label string) (int, error) {
	if m.DeleteLabelError != nil {
		return 0, m.DeleteLabelError
	}
	m.mu.Lock()
	m.DeleteLabelCalled = append(m.DeleteLabelCalled, label)
	before := len(m.descriptors)
	m.descriptors = slices.DeleteFunc(m.descriptors, func(d database.StoredDescriptor) bool {
		return d.Label == label
	})
	removed := before - len(m.descriptors)
	m.mu.Unlock()

	if m.DeleteLabelDone != nil {
		m.DeleteLabelDone <- struct{}{}
	}
	if m.BlockDeleteLabel != nil {
		select {
		case <-m.BlockDeleteLabel:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return removed, nil
}

// Close marks the mock as closed
func (m *MockDescriptorWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close was called
func (m *MockDescriptorWriter) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Ensure interface compliance
var _ database.DescriptorWriter = (*MockDescriptorWriter)(nil)
