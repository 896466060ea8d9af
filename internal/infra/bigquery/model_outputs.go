package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
)

// ModelOutputRow keeps the raw model answer for a document so a statement
// can be re-coerced without calling the model again.
type ModelOutputRow struct {
	OutputID   string `bigquery:"output_id"`   // REQUIRED
	DocumentID string `bigquery:"document_id"` // REQUIRED
	UserID     string `bigquery:"user_id"`     // REQUIRED

	ModelName string            `bigquery:"model_name"` // REQUIRED
	RawJSON   bigquery.NullJSON `bigquery:"raw_json"`   // REQUIRED (JSON)

	CreatedTS time.Time `bigquery:"created_ts"`
}

// NewModelOutputRow serializes a decoded payload into a model output row.
func NewModelOutputRow(documentID, userID, modelName string, payload map[string]any) (*ModelOutputRow, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("NewModelOutputRow: marshal payload: %w", err)
	}
	return &ModelOutputRow{
		OutputID:   uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		ModelName:  modelName,
		RawJSON:    bigquery.NullJSON{JSONVal: string(raw), Valid: true},
		CreatedTS:  time.Now().UTC(),
	}, nil
}

// InsertModelOutputWithClient inserts a model_outputs row. DML is used to
// keep the row out of the streaming buffer.
func InsertModelOutputWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *ModelOutputRow) error {
	q := client.Query(`
		INSERT INTO ` + ds.table(modelOutputsTable) + ` (
			output_id, document_id, user_id,
			model_name, raw_json, created_ts
		)
		VALUES (
			@output_id, @document_id, @user_id,
			@model_name, @raw_json, @created_ts
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "document_id", Value: row.DocumentID},
		{Name: "user_id", Value: row.UserID},
		{Name: "model_name", Value: row.ModelName},
		{Name: "raw_json", Value: row.RawJSON},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	return runDML(ctx, q, "InsertModelOutput")
}
