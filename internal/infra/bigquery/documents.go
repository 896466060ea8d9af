package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

// DocumentRow records one uploaded statement.
type DocumentRow struct {
	DocumentID string `bigquery:"document_id"` // REQUIRED
	UserID     string `bigquery:"user_id"`     // REQUIRED
	CardID     string `bigquery:"card_id"`     // NULLABLE
	GCSURI     string `bigquery:"gcs_uri"`     // NULLABLE when archiving is off

	DocumentType string `bigquery:"document_type"` // REQUIRED

	StatementStartDate bigquery.NullDate `bigquery:"statement_start_date"` // NULLABLE
	StatementEndDate   bigquery.NullDate `bigquery:"statement_end_date"`   // NULLABLE

	UploadTS      time.Time `bigquery:"upload_ts"`      // REQUIRED
	ParsingStatus string    `bigquery:"parsing_status"` // PARSED | FALLBACK

	OriginalFilename string `bigquery:"original_filename"`
	FileMimeType     string `bigquery:"file_mime_type"`
	ChecksumSHA256   string `bigquery:"checksum_sha256"`

	TransactionsAdded int64 `bigquery:"transactions_added"`
}

// NewStatementDates maps optional ISO period bounds onto DATE columns.
func NewStatementDates(start, end *string) (bigquery.NullDate, bigquery.NullDate) {
	return nullDate(start), nullDate(end)
}

// InsertDocumentWithClient appends a documents row.
func InsertDocumentWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *DocumentRow) error {
	inserter := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(documentsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertDocument: inserting row: %w", err)
	}
	return nil
}
