package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ratFromAmount converts a ledger amount into a NUMERIC value rounded to
// cents.
func ratFromAmount(v float64) *big.Rat {
	return decimal.NewFromFloat(v).Round(2).Rat()
}

// amountFromRat converts a NUMERIC value back into a ledger amount. NULL
// reads as zero.
func amountFromRat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	d, err := decimal.NewFromString(r.FloatString(2))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func nullFloat(v *float64) bigquery.NullFloat64 {
	if v == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v bigquery.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v *int) bigquery.NullInt64 {
	if v == nil {
		return bigquery.NullInt64{}
	}
	return bigquery.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v bigquery.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullString(v string) bigquery.NullString {
	return bigquery.NullString{StringVal: v, Valid: v != ""}
}

// nullDate parses an ISO date; anything unparseable is NULL.
func nullDate(v *string) bigquery.NullDate {
	if v == nil {
		return bigquery.NullDate{}
	}
	d, err := civil.ParseDate(*v)
	if err != nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: d, Valid: true}
}

func datePtr(v bigquery.NullDate) *string {
	if !v.Valid {
		return nil
	}
	s := v.Date.String()
	return &s
}
