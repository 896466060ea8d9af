package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/card-ledger/internal/domain"
	"google.golang.org/api/iterator"
)

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED
	CardID        string `bigquery:"card_id"`        // REQUIRED

	DocumentID bigquery.NullString `bigquery:"document_id"` // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Description     string     `bigquery:"description"`      // REQUIRED
	Category        string     `bigquery:"category"`         // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC, never negative
	Direction       string     `bigquery:"direction"`        // charge | payment

	InstallmentPlan bigquery.NullInt64 `bigquery:"installment_plan"` // NULLABLE
	MonthsPaid      bigquery.NullInt64 `bigquery:"months_paid"`      // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"`
}

// NewTransactionRows maps transactions onto table rows, tagging them with
// the document they were read from.
func NewTransactionRows(txs []domain.Transaction, documentID string) ([]*TransactionRow, error) {
	now := time.Now().UTC()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		date, err := civil.ParseDate(tx.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: invalid date %q: %w", tx.ID, tx.Date, err)
		}
		rows = append(rows, &TransactionRow{
			TransactionID:   tx.ID,
			UserID:          tx.UserID,
			CardID:          tx.CardID,
			DocumentID:      nullString(documentID),
			TransactionDate: date,
			Description:     tx.Description,
			Category:        tx.Category,
			Amount:          ratFromAmount(tx.Amount),
			Direction:       string(tx.Type),
			InstallmentPlan: nullInt(tx.InstallmentPlan),
			MonthsPaid:      nullInt(tx.MonthsPaid),
			CreatedTS:       now,
		})
	}
	return rows, nil
}

// ToDomain maps the row back onto a transaction. Installments mirrors
// InstallmentPlan for plan rows.
func (r *TransactionRow) ToDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:              r.TransactionID,
		UserID:          r.UserID,
		CardID:          r.CardID,
		Date:            r.TransactionDate.String(),
		Description:     r.Description,
		Category:        r.Category,
		Amount:          amountFromRat(r.Amount),
		Type:            domain.TxType(r.Direction),
		InstallmentPlan: intPtr(r.InstallmentPlan),
		MonthsPaid:      intPtr(r.MonthsPaid),
	}
	if tx.MonthsPaid != nil {
		tx.Installments = intPtr(r.InstallmentPlan)
	}
	return tx
}

// InsertTransactionsWithClient appends rows to the transactions table.
// Transactions are never updated, so the streaming inserter is used.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

func listTransactionsSQL(ds Dataset) string {
	return fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			card_id,
			document_id,
			transaction_date,
			description,
			category,
			amount,
			direction,
			installment_plan,
			months_paid,
			created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts, transaction_date
	`, ds.table(transactionsTable))
}

// ListTransactionsWithClient returns userID's transactions in insertion
// order.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]*TransactionRow, error) {
	q := client.Query(listTransactionsSQL(ds))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: reading query: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iterating: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
