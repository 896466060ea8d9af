package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/gcsuploader"
	"github.com/dvloznov/card-ledger/internal/ledger"
	"github.com/dvloznov/card-ledger/internal/logger"
	"github.com/google/uuid"
)

// UploadRequest is one statement document uploaded by a user.
type UploadRequest struct {
	UserID   string
	Filename string
	MIMEType string
	Data     []byte

	// GCSURI is set when the document is already archived.
	GCSURI string
}

// Ingestor runs uploaded statements through the ingestion pipeline.
type Ingestor struct {
	store     ledger.Store
	extractor Extractor
	storage   StorageService
	repo      DocumentRepository
	modelName string
	now       func() time.Time
	newID     func() string

	pipeline *Pipeline
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithStorage archives every upload to storage.
func WithStorage(storage StorageService) IngestorOption {
	return func(i *Ingestor) { i.storage = storage }
}

// WithRepository journals every upload to repo.
func WithRepository(repo DocumentRepository) IngestorOption {
	return func(i *Ingestor) { i.repo = repo }
}

// WithModelName records which model produced the stored outputs.
func WithModelName(name string) IngestorOption {
	return func(i *Ingestor) { i.modelName = name }
}

// WithClock overrides the time source used for fallback dates.
func WithClock(now func() time.Time) IngestorOption {
	return func(i *Ingestor) { i.now = now }
}

// WithDocumentIDs overrides how document ids are minted.
func WithDocumentIDs(newID func() string) IngestorOption {
	return func(i *Ingestor) { i.newID = newID }
}

// NewIngestor creates the statement ingestion pipeline.
func NewIngestor(store ledger.Store, extractor Extractor, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		store:     store,
		extractor: extractor,
		modelName: DefaultModelName,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.pipeline = NewPipeline(
		&ArchiveStep{Storage: i.storage},
		&ExtractStep{Extractor: extractor},
		&StoreModelOutputStep{Repo: i.repo, ModelName: i.modelName},
		&CoerceStep{},
		&ApplyToLedgerStep{Store: store},
		&JournalStep{Repo: i.repo},
	)
	return i
}

// Upload ingests one statement for req.UserID. Documents that cannot be
// read still produce a result carrying the fallback notice; an error means
// the request itself was invalid or cancelled.
func (i *Ingestor) Upload(ctx context.Context, req UploadRequest) (*domain.UploadResult, error) {
	if req.UserID == "" {
		return nil, errors.New("Upload: user id is required")
	}

	sum := sha256.Sum256(req.Data)
	state := &PipelineState{
		UserID:     req.UserID,
		Filename:   req.Filename,
		MIMEType:   req.MIMEType,
		Data:       req.Data,
		Now:        i.now(),
		DocumentID: i.newID(),
		GCSURI:     req.GCSURI,
		Checksum:   hex.EncodeToString(sum[:]),
	}

	log := logger.FromContext(ctx).With().
		Str("user_id", req.UserID).
		Str("document_id", state.DocumentID).
		Logger()
	ctx = logger.WithContext(ctx, log)

	if err := i.pipeline.Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}

	result := &domain.UploadResult{
		Added:        len(state.Added),
		CardID:       state.Card.ID,
		CardName:     state.Card.Name,
		Transactions: make([]domain.UploadedTransaction, 0, len(state.Added)),
	}
	for _, t := range state.Added {
		result.Transactions = append(result.Transactions, domain.UploadedTransaction{
			Description: t.Description,
			Amount:      t.Amount,
			Date:        t.Date,
			Category:    t.Category,
		})
	}
	return result, nil
}

// IngestFromGCS re-reads an archived statement and ingests it for userID.
func (i *Ingestor) IngestFromGCS(ctx context.Context, userID, gcsURI, mimeType string) (*domain.UploadResult, error) {
	if i.storage == nil {
		return nil, errors.New("IngestFromGCS: no storage configured")
	}
	data, err := i.storage.FetchFromGCS(ctx, gcsURI)
	if err != nil {
		return nil, fmt.Errorf("IngestFromGCS: %w", err)
	}
	return i.Upload(ctx, UploadRequest{
		UserID:   userID,
		Filename: gcsuploader.ExtractFilenameFromGCSURI(gcsURI),
		MIMEType: mimeType,
		Data:     data,
		GCSURI:   gcsURI,
	})
}

// Archive stores a statement without ingesting it and returns its URI.
// Used to hand documents to the background job queue.
func (i *Ingestor) Archive(ctx context.Context, userID, filename, mimeType string, data []byte) (string, error) {
	if i.storage == nil {
		return "", errors.New("Archive: no storage configured")
	}
	object := gcsuploader.ObjectName(StatementPrefix, userID, i.newID(), filename)
	uri, err := i.storage.UploadBytes(ctx, object, mimeType, data)
	if err != nil {
		return "", fmt.Errorf("Archive: %w", err)
	}
	return uri, nil
}

// CanArchive reports whether statements can be archived for later ingestion.
func (i *Ingestor) CanArchive() bool {
	return i.storage != nil
}
