// Package app assembles the ledger, ingestion pipeline and optional cloud
// backends from configuration. Commands share it so they all see the same
// wiring.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/card-ledger/internal/config"
	"github.com/dvloznov/card-ledger/internal/gcsuploader"
	infraBQ "github.com/dvloznov/card-ledger/internal/infra/bigquery"
	"github.com/dvloznov/card-ledger/internal/ledger"
	"github.com/dvloznov/card-ledger/internal/logger"
	"github.com/dvloznov/card-ledger/internal/pipeline"
)

// App holds the services built from a Config. Storage, Repository and
// Hydrator are nil when their backend is not configured.
type App struct {
	Config     *config.Config
	Store      *ledger.MemoryStore
	Ingestor   *pipeline.Ingestor
	Storage    *gcsuploader.GCSStorageService
	Repository *infraBQ.BigQueryRepository
	Hydrator   *ledger.Hydrator

	closers []func() error
}

// New builds the services described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg, Store: ledger.NewMemoryStore()}

	var extractor pipeline.Extractor = pipeline.DisabledExtractor{}
	if cfg.ExtractionEnabled() {
		gemini, err := pipeline.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExtractConcurrency)
		if err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
		extractor = gemini
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - statements will not be read")
	}

	opts := []pipeline.IngestorOption{pipeline.WithModelName(cfg.GeminiModel)}

	if cfg.GCSBucket != "" {
		storage, err := gcsuploader.NewGCSStorageService(ctx, cfg.GCSBucket)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		a.Storage = storage
		a.closers = append(a.closers, storage.Close)
		opts = append(opts, pipeline.WithStorage(storage))
	} else {
		log.Warn().Msg("No GCS bucket configured - statements will not be archived")
	}

	if cfg.BigQueryEnabled() {
		repo, err := infraBQ.NewBigQueryRepository(ctx, cfg.BQProjectID, cfg.BQDataset)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		a.Repository = repo
		a.closers = append(a.closers, repo.Close)
		a.Hydrator = ledger.NewHydrator(a.Store, repo)
		opts = append(opts, pipeline.WithRepository(repo))
	} else {
		log.Warn().Msg("BQ_PROJECT_ID not set - the ledger will not be persisted")
	}

	a.Ingestor = pipeline.NewIngestor(a.Store, extractor, opts...)
	return a, nil
}

// EnsureUser loads userID's persisted ledger when a journal is configured.
func (a *App) EnsureUser(ctx context.Context, userID string) error {
	if a.Hydrator == nil {
		return nil
	}
	return a.Hydrator.Ensure(ctx, userID)
}

// Close releases the cloud clients.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
