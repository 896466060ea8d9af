package bigquery

import (
	"context"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/card-ledger/internal/domain"
)

// ProjectionRow is one month of a card's stored projection.
type ProjectionRow struct {
	UserID              string    `bigquery:"user_id"`
	CardID              string    `bigquery:"card_id"`
	Month               string    `bigquery:"month"` // YYYY-MM
	ProjectedBalance    *big.Rat  `bigquery:"projected_balance"`
	ProjectedMinPayment *big.Rat  `bigquery:"projected_min_payment"`
	NoInterestPayment   *big.Rat  `bigquery:"no_interest_payment"`
	TotalDebt           *big.Rat  `bigquery:"total_debt"`
	ProjectedInterest   *big.Rat  `bigquery:"projected_interest"`
	ComputedTS          time.Time `bigquery:"computed_ts"`
}

// NewProjectionRows maps a card's projection set onto table rows. A missing
// interest figure is stored as zero.
func NewProjectionRows(card domain.Card, projections []domain.MonthlyProjection) []ProjectionRow {
	now := time.Now().UTC()
	rows := make([]ProjectionRow, 0, len(projections))
	for _, p := range projections {
		interest := 0.0
		if p.ProjectedInterest != nil {
			interest = *p.ProjectedInterest
		}
		rows = append(rows, ProjectionRow{
			UserID:              card.UserID,
			CardID:              card.ID,
			Month:               p.Month,
			ProjectedBalance:    ratFromAmount(p.ProjectedBalance),
			ProjectedMinPayment: ratFromAmount(p.ProjectedMinPayment),
			NoInterestPayment:   ratFromAmount(p.NoInterestPayment),
			TotalDebt:           ratFromAmount(p.TotalDebt),
			ProjectedInterest:   ratFromAmount(interest),
			ComputedTS:          now,
		})
	}
	return rows
}

// ReplaceProjectionsWithClient deletes the card's stored projections and
// inserts rows in one transaction. DML is used for both halves so the
// delete never meets rows still in the streaming buffer.
func ReplaceProjectionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, cardID string, rows []ProjectionRow) error {
	table := ds.table(projectionsTable)
	q := client.Query(`
		BEGIN TRANSACTION;

		DELETE FROM ` + table + `
		WHERE user_id = @user_id AND card_id = @card_id;

		INSERT INTO ` + table + ` (
			user_id, card_id, month,
			projected_balance, projected_min_payment, no_interest_payment,
			total_debt, projected_interest, computed_ts
		)
		SELECT
			r.user_id, r.card_id, r.month,
			r.projected_balance, r.projected_min_payment, r.no_interest_payment,
			r.total_debt, r.projected_interest, r.computed_ts
		FROM UNNEST(@rows) AS r;

		COMMIT TRANSACTION;
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "card_id", Value: cardID},
		{Name: "rows", Value: rows},
	}

	return runDML(ctx, q, "ReplaceProjections")
}
