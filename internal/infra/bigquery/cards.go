package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/card-ledger/internal/domain"
	"google.golang.org/api/iterator"
)

// CardRow is one row of the cards table.
type CardRow struct {
	CardID      string   `bigquery:"card_id"`      // REQUIRED
	UserID      string   `bigquery:"user_id"`      // REQUIRED
	Name        string   `bigquery:"name"`         // REQUIRED
	Issuer      string   `bigquery:"issuer"`       // REQUIRED
	Last4       string   `bigquery:"last4"`        // REQUIRED
	CreditLimit *big.Rat `bigquery:"credit_limit"` // REQUIRED NUMERIC
	Balance     *big.Rat `bigquery:"balance"`      // REQUIRED NUMERIC
	DueDateDay  int64    `bigquery:"due_date_day"` // REQUIRED

	MinimumPayment    bigquery.NullFloat64 `bigquery:"minimum_payment"`
	NoInterestPayment bigquery.NullFloat64 `bigquery:"no_interest_payment"`
	CAT               bigquery.NullFloat64 `bigquery:"cat"`
	StatementDate     bigquery.NullDate    `bigquery:"statement_date"`

	UpdatedTS time.Time `bigquery:"updated_ts"`
}

// NewCardRow maps a card onto its table row.
func NewCardRow(c domain.Card) *CardRow {
	return &CardRow{
		CardID:            c.ID,
		UserID:            c.UserID,
		Name:              c.Name,
		Issuer:            c.Issuer,
		Last4:             c.Last4,
		CreditLimit:       ratFromAmount(c.CreditLimit),
		Balance:           ratFromAmount(c.Balance),
		DueDateDay:        int64(c.DueDateDay),
		MinimumPayment:    nullFloat(c.MinimumPayment),
		NoInterestPayment: nullFloat(c.NoInterestPayment),
		CAT:               nullFloat(c.CAT),
		StatementDate:     nullDate(c.StatementDate),
		UpdatedTS:         time.Now().UTC(),
	}
}

// ToDomain maps the row back onto a card.
func (r *CardRow) ToDomain() domain.Card {
	return domain.Card{
		ID:                r.CardID,
		UserID:            r.UserID,
		Name:              r.Name,
		Issuer:            r.Issuer,
		Last4:             r.Last4,
		CreditLimit:       amountFromRat(r.CreditLimit),
		Balance:           amountFromRat(r.Balance),
		DueDateDay:        int(r.DueDateDay),
		MinimumPayment:    floatPtr(r.MinimumPayment),
		NoInterestPayment: floatPtr(r.NoInterestPayment),
		CAT:               floatPtr(r.CAT),
		StatementDate:     datePtr(r.StatementDate),
	}
}

// upsertCardSQL sets created_ts only when the card is first inserted.
func upsertCardSQL(ds Dataset) string {
	return `
		MERGE ` + ds.table(cardsTable) + ` T
		USING (SELECT @card_id AS card_id) S
		ON T.card_id = S.card_id
		WHEN MATCHED THEN UPDATE SET
			name = @name,
			issuer = @issuer,
			last4 = @last4,
			credit_limit = @credit_limit,
			balance = @balance,
			due_date_day = @due_date_day,
			minimum_payment = @minimum_payment,
			no_interest_payment = @no_interest_payment,
			cat = @cat,
			statement_date = @statement_date,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (
			card_id, user_id, name, issuer, last4,
			credit_limit, balance, due_date_day,
			minimum_payment, no_interest_payment, cat,
			statement_date, updated_ts, created_ts
		)
		VALUES (
			@card_id, @user_id, @name, @issuer, @last4,
			@credit_limit, @balance, @due_date_day,
			@minimum_payment, @no_interest_payment, @cat,
			@statement_date, @updated_ts, @updated_ts
		)
	`
}

// UpsertCardWithClient inserts the card or overwrites the stored row with
// the same card_id.
func UpsertCardWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *CardRow) error {
	q := client.Query(upsertCardSQL(ds))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "card_id", Value: row.CardID},
		{Name: "user_id", Value: row.UserID},
		{Name: "name", Value: row.Name},
		{Name: "issuer", Value: row.Issuer},
		{Name: "last4", Value: row.Last4},
		{Name: "credit_limit", Value: row.CreditLimit},
		{Name: "balance", Value: row.Balance},
		{Name: "due_date_day", Value: row.DueDateDay},
		{Name: "minimum_payment", Value: row.MinimumPayment},
		{Name: "no_interest_payment", Value: row.NoInterestPayment},
		{Name: "cat", Value: row.CAT},
		{Name: "statement_date", Value: row.StatementDate},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	return runDML(ctx, q, "UpsertCard")
}

// listCardsSQL orders by created_ts so an update does not move a card.
func listCardsSQL(ds Dataset) string {
	return fmt.Sprintf(`
		SELECT
			card_id,
			user_id,
			name,
			issuer,
			last4,
			credit_limit,
			balance,
			due_date_day,
			minimum_payment,
			no_interest_payment,
			cat,
			statement_date,
			updated_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts, card_id
	`, ds.table(cardsTable))
}

// ListCardsWithClient returns userID's cards in creation order.
func ListCardsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]*CardRow, error) {
	q := client.Query(listCardsSQL(ds))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCards: reading query: %w", err)
	}

	var rows []*CardRow
	for {
		var row CardRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCards: iterating: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}
