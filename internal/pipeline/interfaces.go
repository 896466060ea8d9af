package pipeline

import (
	"context"

	"github.com/dvloznov/card-ledger/internal/domain"
	infra "github.com/dvloznov/card-ledger/internal/infra/bigquery"
)

//go:generate mockgen -destination=mocks/mock_extractor.go -package=mocks github.com/dvloznov/card-ledger/internal/pipeline Extractor

// Extractor reads a statement document and returns the model's decoded
// JSON object.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (map[string]any, error)
}

// StorageService archives uploaded statements and reads them back.
type StorageService interface {
	UploadBytes(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// DocumentRepository journals what an upload changed.
type DocumentRepository interface {
	InsertDocument(ctx context.Context, row *infra.DocumentRow) error
	InsertModelOutput(ctx context.Context, row *infra.ModelOutputRow) error
	UpsertCard(ctx context.Context, card domain.Card) error
	InsertTransactions(ctx context.Context, documentID string, txs []domain.Transaction) error
	ReplaceProjections(ctx context.Context, card domain.Card, projections []domain.MonthlyProjection) error
}

var _ DocumentRepository = (*infra.BigQueryRepository)(nil)
