package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/gcsuploader"
	infra "github.com/dvloznov/card-ledger/internal/infra/bigquery"
	"github.com/dvloznov/card-ledger/internal/ledger"
	"github.com/dvloznov/card-ledger/internal/logger"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	UserID   string
	Filename string
	MIMEType string
	Data     []byte
	Now      time.Time

	DocumentID string
	GCSURI     string
	Checksum   string

	RawModelOutput map[string]any
	ExtractErr     error

	CardInfo   *domain.CardInfo
	Candidates []domain.Transaction

	Card        domain.Card
	Added       []domain.Transaction
	Projections []domain.MonthlyProjection
}

// Fallback reports whether the upload was answered with the error notice
// instead of extraction results.
func (s *PipelineState) Fallback() bool {
	return s.RawModelOutput == nil
}

// ArchiveStep copies the uploaded bytes to storage. Archiving is best
// effort: a failure is logged and the upload continues.
type ArchiveStep struct {
	Storage StorageService
}

func (s *ArchiveStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Storage == nil || state.GCSURI != "" {
		return nil
	}

	object := gcsuploader.ObjectName(StatementPrefix, state.UserID, state.DocumentID, state.Filename)
	uri, err := s.Storage.UploadBytes(ctx, object, state.MIMEType, state.Data)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("object", object).Msg("Failed to archive statement")
		return nil
	}
	state.GCSURI = uri
	return nil
}

// ExtractStep sends the document to the extractor. Unsupported documents
// and extractor failures leave RawModelOutput empty so the fallback notice
// is stored; only a cancelled request aborts the pipeline.
type ExtractStep struct {
	Extractor Extractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	if Route(state.Filename, state.MIMEType) == KindUnsupported {
		state.ExtractErr = fmt.Errorf("%s (%q): %w", state.Filename, state.MIMEType, ErrUnsupportedDocument)
		log.Warn().Err(state.ExtractErr).Msg("Storing fallback notice")
		return nil
	}

	payload, err := s.Extractor.Extract(ctx, state.Data, ContentType(state.Filename, state.MIMEType))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ExtractStep: %w", ctxErr)
		}
		state.ExtractErr = err
		log.Warn().Err(err).Str("filename", state.Filename).Msg("Extraction failed, storing fallback notice")
		return nil
	}
	state.RawModelOutput = payload
	return nil
}

// StoreModelOutputStep keeps the raw model answer in model_outputs.
type StoreModelOutputStep struct {
	Repo      DocumentRepository
	ModelName string
}

func (s *StoreModelOutputStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Repo == nil || state.RawModelOutput == nil {
		return nil
	}
	log := logger.FromContext(ctx)

	row, err := infra.NewModelOutputRow(state.DocumentID, state.UserID, s.ModelName, state.RawModelOutput)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode model output")
		return nil
	}
	if err := s.Repo.InsertModelOutput(ctx, row); err != nil {
		log.Warn().Err(err).Str("document_id", state.DocumentID).Msg("Failed to store model output")
	}
	return nil
}

// CoerceStep turns the model answer into card info and candidate
// transactions, or the fallback notice when there is no answer.
type CoerceStep struct{}

func (s *CoerceStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Fallback() {
		state.CardInfo = nil
		state.Candidates = fallbackTransactions(state.UserID, state.Now)
		return nil
	}
	state.CardInfo, state.Candidates = Coerce(state.RawModelOutput, state.UserID, state.Now)
	return nil
}

// ApplyToLedgerStep writes the statement into the user's ledger as one
// unit of work: resolve the card, insert new transactions, raise the
// balance by the new charges and regenerate projections.
type ApplyToLedgerStep struct {
	Store ledger.Store
}

func (s *ApplyToLedgerStep) Execute(ctx context.Context, state *PipelineState) error {
	err := s.Store.Update(state.UserID, func(tx *ledger.Tx) error {
		card := resolveCard(tx, state.CardInfo)

		added := tx.AddNewTransactions(card.ID, state.Candidates)
		var newCharges float64
		for _, t := range added {
			if t.IsCharge() {
				newCharges += t.Amount
			}
		}
		if newCharges != 0 {
			if _, err := tx.AddToBalance(card.ID, newCharges); err != nil {
				return err
			}
		}

		state.Projections = tx.RecomputeProjections(card.ID)
		state.Card, _ = tx.Card(card.ID)
		state.Added = added
		return nil
	})
	if err != nil {
		return fmt.Errorf("ApplyToLedgerStep: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("card_id", state.Card.ID).
		Int("candidates", len(state.Candidates)).
		Int("added", len(state.Added)).
		Msg("Statement applied to ledger")
	return nil
}

// resolveCard picks the card a statement belongs to: the card its info
// identifies, else the user's first card, else a new imported card.
func resolveCard(tx *ledger.Tx, info *domain.CardInfo) domain.Card {
	if info != nil {
		return tx.CreateOrUpdateCard(*info)
	}
	if cards := tx.Cards(); len(cards) > 0 {
		return cards[0]
	}
	return tx.CreateOrUpdateCard(domain.CardInfo{
		Name:        domain.StringPtr(ImportedCardName),
		Issuer:      domain.StringPtr(ImportedCardIssuer),
		Last4:       domain.StringPtr(domain.DefaultLast4),
		CreditLimit: domain.Float64Ptr(domain.DefaultCreditLimit),
		Balance:     domain.Float64Ptr(0),
		DueDateDay:  domain.IntPtr(domain.DefaultDueDateDay),
	})
}

// JournalStep mirrors the committed changes to the durable journal. The
// in-memory ledger is authoritative for the request, so failures are
// logged and do not fail the upload.
type JournalStep struct {
	Repo DocumentRepository
}

func (s *JournalStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Repo == nil {
		return nil
	}
	log := logger.FromContext(ctx).With().Str("document_id", state.DocumentID).Logger()

	status := StatusParsed
	if state.Fallback() {
		status = StatusFallback
	}
	doc := &infra.DocumentRow{
		DocumentID:        state.DocumentID,
		UserID:            state.UserID,
		CardID:            state.Card.ID,
		GCSURI:            state.GCSURI,
		DocumentType:      DefaultDocumentType,
		UploadTS:          state.Now,
		ParsingStatus:     status,
		OriginalFilename:  state.Filename,
		FileMimeType:      state.MIMEType,
		ChecksumSHA256:    state.Checksum,
		TransactionsAdded: int64(len(state.Added)),
	}
	if state.CardInfo != nil {
		doc.StatementStartDate, doc.StatementEndDate = infra.NewStatementDates(state.CardInfo.PeriodStart, state.CardInfo.PeriodEnd)
	}

	var errs []error
	if err := s.Repo.InsertDocument(ctx, doc); err != nil {
		errs = append(errs, err)
	}
	if err := s.Repo.UpsertCard(ctx, state.Card); err != nil {
		errs = append(errs, err)
	}
	if err := s.Repo.InsertTransactions(ctx, state.DocumentID, state.Added); err != nil {
		errs = append(errs, err)
	}
	if err := s.Repo.ReplaceProjections(ctx, state.Card, state.Projections); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("Failed to journal statement")
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
