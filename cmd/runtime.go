package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/fingerprint"
	"github.com/kozaktomas/face-registry/internal/recognition"

	// Durable backends register themselves with the database package.
	_ "github.com/kozaktomas/face-registry/internal/database/mariadb"
	_ "github.com/kozaktomas/face-registry/internal/database/postgres"
	_ "github.com/kozaktomas/face-registry/internal/database/sqlite"
)

const (
	extractorHTTP = "http"
	extractorDlib = "dlib"
	indexHNSW     = "hnsw"
)

// openStore opens the configured backend and loads its descriptors into a new store.
func openStore(ctx context.Context, cfg *config.Config) (*database.Store, error) {
	backend, err := database.OpenBackend(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	opts := []database.StoreOption{database.WithModel(cfg.Embedding.Model)}
	if backend != nil {
		opts = append(opts, database.WithBackend(backend))
	}
	if cfg.Matching.Index == indexHNSW {
		opts = append(opts, database.WithHNSW())
	}

	store := database.NewStore(cfg.Embedding.Dim, opts...)
	if err := store.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// newExtractor creates the configured face extractor and a function releasing it.
func newExtractor(cfg *config.Config) (recognition.Extractor, func(), error) {
	switch cfg.Embedding.Extractor {
	case "", extractorHTTP:
		if cfg.Embedding.URL == "" {
			fmt.Fprintln(os.Stderr, "Warning: EMBEDDING_URL not set, using the default local embedding server")
		}
		client := fingerprint.NewFaceClient(&cfg.Embedding, fingerprint.WithMaxImageSize(cfg.Matching.MaxImageSize))
		return client, func() {}, nil
	case extractorDlib:
		d, err := fingerprint.NewDlibExtractor(cfg.Embedding.ModelsDir, cfg.Matching.MaxImageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load dlib models: %w", err)
		}
		if d.Dim() != cfg.Embedding.Dim {
			d.Close()
			return nil, nil, fmt.Errorf("dlib produces %d-d descriptors but EMBEDDING_DIM is %d", d.Dim(), cfg.Embedding.Dim)
		}
		return d, d.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown extractor %q (use %q or %q)", cfg.Embedding.Extractor, extractorHTTP, extractorDlib)
	}
}

// newMatcher returns the matcher selected by MATCHER_INDEX.
func newMatcher(cfg *config.Config) facematch.Matcher {
	if cfg.Matching.Index == indexHNSW {
		return database.NewHNSWMatcher(cfg.Embedding.Dim, cfg.Matching.Candidates)
	}
	return facematch.NewLinearMatcher(cfg.Embedding.Dim)
}

// pipeline bundles a loaded store with the extractor-backed pipelines.
type pipeline struct {
	store    *database.Store
	enroller *recognition.Enroller
	querier  *recognition.Querier
	release  func()
}

func openPipeline(ctx context.Context, cfg *config.Config, concurrency int) (*pipeline, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	extractor, release, err := newExtractor(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &pipeline{
		store:    store,
		enroller: recognition.NewEnroller(store, extractor, recognition.WithConcurrency(concurrency)),
		querier:  recognition.NewQuerier(store, extractor, cfg.Matching.Threshold, recognition.WithMatcher(newMatcher(cfg))),
		release:  release,
	}, nil
}

func (p *pipeline) Close() {
	p.release()
	if err := p.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}
