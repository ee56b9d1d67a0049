package database

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kozaktomas/face-registry/internal/config"
)

// Opener opens a durable descriptor backend from database configuration.
type Opener func(ctx context.Context, cfg *config.DatabaseConfig) (DescriptorWriter, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Opener)
)

// RegisterBackend registers a backend constructor under a driver name.
// This is called from the init functions of the backend packages to avoid import cycles.
func RegisterBackend(name string, open Opener) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = open
}

// RegisteredBackends returns the sorted names of all registered drivers.
func RegisteredBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends)+1)
	names = append(names, DriverMemory)
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// OpenBackend opens the backend selected by cfg.Driver.
// The memory driver has no durable backend, so it returns a nil writer.
func OpenBackend(ctx context.Context, cfg *config.DatabaseConfig) (DescriptorWriter, error) {
	if cfg.Driver == "" || cfg.Driver == DriverMemory {
		return nil, nil
	}

	backendsMu.RLock()
	open, ok := backends[cfg.Driver]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown database driver %q (available: %v)", cfg.Driver, RegisteredBackends())
	}

	w, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Driver, err)
	}
	return w, nil
}
