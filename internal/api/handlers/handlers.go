// Package handlers implements the card ledger HTTP endpoints. Every handler
// expects middleware.Auth to have identified the user.
package handlers

import (
	"context"

	"github.com/dvloznov/card-ledger/internal/advisor"
	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/pipeline"
)

// LedgerReader is the read side of the ledger.
type LedgerReader interface {
	Summary(userID string) domain.GeneralSummary
	Cards(userID string) []domain.Card
	CardDetail(userID, cardID string) (domain.CardDetail, error)
}

// StatementIngestor runs uploads through the ingestion pipeline.
type StatementIngestor interface {
	Upload(ctx context.Context, req pipeline.UploadRequest) (*domain.UploadResult, error)
	Archive(ctx context.Context, userID, filename, mimeType string, data []byte) (string, error)
	CanArchive() bool
}

// Advisor answers finance questions.
type Advisor interface {
	Ask(ctx context.Context, userID, question string) (advisor.Answer, error)
	Stream(ctx context.Context, userID, question string, emit func(chunk string) error) error
}
