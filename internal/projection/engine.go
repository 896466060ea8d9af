// Package projection simulates a card's payments over the next six months.
//
// The simulation assumes the holder pays the no-interest amount in full every
// month: month 0 reflects the statement as issued, later months carry only
// the installment-plan charges still running. It is a best-case view even
// though a minimum payment is reported alongside.
package projection

import (
	"math"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// minPaymentRate is the share of the month's installment charges reported
// as the minimum payment for months after the statement month.
const minPaymentRate = 0.03

// monthStride is how far apart consecutive projection months are labelled.
const monthStride = 30

// Installment is one interest-free plan on a card.
type Installment struct {
	Total  float64 // full purchase amount
	Months int     // plan length
}

// Input is the card state a projection is computed from.
type Input struct {
	Balance           float64
	MinimumPayment    *float64
	NoInterestPayment *float64
	CAT               *float64 // annual, percent
	Installments      []Installment
}

// InputFor builds the projection input for card from its transactions,
// keeping only installment-plan charges.
func InputFor(card domain.Card, txs []domain.Transaction) Input {
	return Input{
		Balance:           card.Balance,
		MinimumPayment:    card.MinimumPayment,
		NoInterestPayment: card.NoInterestPayment,
		CAT:               card.CAT,
		Installments:      InstallmentsFrom(txs),
	}
}

// InstallmentsFrom extracts the installment schedule from txs.
//
// Every plan is seeded with its full length regardless of how many months
// are already paid.
func InstallmentsFrom(txs []domain.Transaction) []Installment {
	var out []Installment
	for _, tx := range txs {
		if !tx.IsInstallment() {
			continue
		}
		out = append(out, Installment{Total: tx.Amount, Months: *tx.InstallmentPlan})
	}
	return out
}

// schedule is the mutable per-plan state during one simulation pass.
type schedule []scheduleEntry

type scheduleEntry struct {
	monthly   float64
	remaining int
}

func newSchedule(plans []Installment) schedule {
	s := make(schedule, 0, len(plans))
	for _, p := range plans {
		if p.Months <= 0 {
			continue
		}
		s = append(s, scheduleEntry{monthly: p.Total / float64(p.Months), remaining: p.Months})
	}
	return s
}

// due sums the monthly charge of every plan still running.
func (s schedule) due() float64 {
	var total float64
	for _, e := range s {
		if e.remaining > 0 {
			total += e.monthly
		}
	}
	return total
}

// advance moves every running plan one month forward.
func (s schedule) advance() {
	for i := range s {
		if s[i].remaining > 0 {
			s[i].remaining--
		}
	}
}

// Project returns exactly domain.ProjectionMonths projections starting at
// now. It is a pure function of its arguments.
func Project(in Input, now time.Time) []domain.MonthlyProjection {
	noInterest := valueOr(in.NoInterestPayment)
	minimum := valueOr(in.MinimumPayment)
	monthlyRate := 0.0
	if in.CAT != nil {
		monthlyRate = *in.CAT / 100 / 12
	}

	horizon := noInterestHorizon(noInterest, in.Installments)

	plans := newSchedule(in.Installments)
	out := make([]domain.MonthlyProjection, 0, domain.ProjectionMonths)

	for i := 0; i < domain.ProjectionMonths; i++ {
		month := now.AddDate(0, 0, monthStride*i).Format("2006-01")

		if i == 0 {
			interest := 0.0
			if in.Balance > 0 {
				interest = in.Balance * monthlyRate
			}
			out = append(out, domain.MonthlyProjection{
				Month:               month,
				ProjectedBalance:    round2(noInterest),
				ProjectedMinPayment: round2(minimum),
				NoInterestPayment:   round2(noInterest),
				TotalDebt:           round2(sum(horizon)),
				ProjectedInterest:   domain.Float64Ptr(round2(interest)),
			})
			plans.advance()
			continue
		}

		due := plans.due()
		minPay := 0.0
		if due > 0 {
			minPay = due * minPaymentRate
		}
		out = append(out, domain.MonthlyProjection{
			Month:               month,
			ProjectedBalance:    round2(due),
			ProjectedMinPayment: round2(minPay),
			NoInterestPayment:   round2(due),
			TotalDebt:           round2(sum(horizon[i:])),
			ProjectedInterest:   domain.Float64Ptr(0),
		})
		plans.advance()
	}

	return out
}

// noInterestHorizon computes the no-interest payment due in each month of the
// horizon. It runs on its own copy of the schedule so the emitting pass
// starts from the untouched plan state.
func noInterestHorizon(statementNoInterest float64, installments []Installment) []float64 {
	horizon := make([]float64, domain.ProjectionMonths)
	horizon[0] = statementNoInterest

	plans := newSchedule(installments)
	plans.advance()
	for i := 1; i < domain.ProjectionMonths; i++ {
		horizon[i] = plans.due()
		plans.advance()
	}
	return horizon
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// round2 rounds a money amount to cents, half away from zero on the shortest
// decimal form of v, so 2.675 becomes 2.68 where math.Round on the binary
// value would give 2.67. Amounts that overflowed to ±Inf or NaN become 0.
func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
