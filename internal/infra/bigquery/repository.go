// Package bigquery journals the card ledger to BigQuery and reads it back.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/card-ledger/internal/domain"
)

// Table names inside the dataset.
const (
	cardsTable        = "cards"
	transactionsTable = "transactions"
	projectionsTable  = "projections"
	documentsTable    = "documents"
	modelOutputsTable = "model_outputs"
)

// Dataset locates the ledger tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// table returns the backtick-quoted fully qualified name of a table.
func (d Dataset) table(name string) string {
	return "`" + d.ProjectID + "." + d.DatasetID + "." + name + "`"
}

// BigQueryRepository holds a shared BigQuery client for the ledger tables.
type BigQueryRepository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewBigQueryRepository creates a repository for projectID.datasetID.
func NewBigQueryRepository(ctx context.Context, projectID, datasetID string) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRepository: creating client: %w", err)
	}
	return &BigQueryRepository{
		client: client,
		ds:     Dataset{ProjectID: projectID, DatasetID: datasetID},
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertDocument records an uploaded statement.
func (r *BigQueryRepository) InsertDocument(ctx context.Context, row *DocumentRow) error {
	return InsertDocumentWithClient(ctx, r.client, r.ds, row)
}

// InsertModelOutput records the raw model answer for a document.
func (r *BigQueryRepository) InsertModelOutput(ctx context.Context, row *ModelOutputRow) error {
	return InsertModelOutputWithClient(ctx, r.client, r.ds, row)
}

// UpsertCard writes the current state of a card.
func (r *BigQueryRepository) UpsertCard(ctx context.Context, card domain.Card) error {
	return UpsertCardWithClient(ctx, r.client, r.ds, NewCardRow(card))
}

// InsertTransactions appends newly added transactions.
func (r *BigQueryRepository) InsertTransactions(ctx context.Context, documentID string, txs []domain.Transaction) error {
	rows, err := NewTransactionRows(txs, documentID)
	if err != nil {
		return fmt.Errorf("InsertTransactions: %w", err)
	}
	return InsertTransactionsWithClient(ctx, r.client, r.ds, rows)
}

// ReplaceProjections swaps the stored projection set of a card.
func (r *BigQueryRepository) ReplaceProjections(ctx context.Context, card domain.Card, projections []domain.MonthlyProjection) error {
	return ReplaceProjectionsWithClient(ctx, r.client, r.ds, card.UserID, card.ID, NewProjectionRows(card, projections))
}

// LoadLedger reads back every card and transaction journaled for userID.
func (r *BigQueryRepository) LoadLedger(ctx context.Context, userID string) ([]domain.Card, []domain.Transaction, error) {
	cardRows, err := ListCardsWithClient(ctx, r.client, r.ds, userID)
	if err != nil {
		return nil, nil, err
	}
	txRows, err := ListTransactionsWithClient(ctx, r.client, r.ds, userID)
	if err != nil {
		return nil, nil, err
	}

	cards := make([]domain.Card, 0, len(cardRows))
	for _, row := range cardRows {
		cards = append(cards, row.ToDomain())
	}
	txs := make([]domain.Transaction, 0, len(txRows))
	for _, row := range txRows {
		txs = append(txs, row.ToDomain())
	}
	return cards, txs, nil
}

// runDML runs a data-manipulation query and waits for it to finish.
func runDML(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}
