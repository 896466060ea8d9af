package projection

import (
	"math"
	"testing"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)

func TestProject_NoInstallments(t *testing.T) {
	in := Input{
		Balance:           1000,
		MinimumPayment:    domain.Float64Ptr(200),
		NoInterestPayment: domain.Float64Ptr(1000),
		CAT:               domain.Float64Ptr(36),
	}

	got := Project(in, fixedNow)
	require.Len(t, got, domain.ProjectionMonths)

	first := got[0]
	assert.Equal(t, "2025-10", first.Month)
	assert.Equal(t, 1000.0, first.ProjectedBalance)
	assert.Equal(t, 200.0, first.ProjectedMinPayment)
	assert.Equal(t, 1000.0, first.NoInterestPayment)
	assert.Equal(t, 1000.0, first.TotalDebt)
	require.NotNil(t, first.ProjectedInterest)
	assert.Equal(t, 30.0, *first.ProjectedInterest)

	for i, p := range got[1:] {
		assert.Equal(t, 0.0, p.ProjectedBalance, "month %d", i+1)
		assert.Equal(t, 0.0, p.ProjectedMinPayment, "month %d", i+1)
		assert.Equal(t, 0.0, p.NoInterestPayment, "month %d", i+1)
		assert.Equal(t, 0.0, p.TotalDebt, "month %d", i+1)
		require.NotNil(t, p.ProjectedInterest)
		assert.Equal(t, 0.0, *p.ProjectedInterest)
	}
}

func TestProject_MonthLabels(t *testing.T) {
	got := Project(Input{}, fixedNow)

	months := make([]string, 0, len(got))
	for _, p := range got {
		months = append(months, p.Month)
	}
	// 30-day strides from Oct 12: Nov 11, Dec 11, Jan 10, Feb 9, Mar 11.
	assert.Equal(t, []string{"2025-10", "2025-11", "2025-12", "2026-01", "2026-02", "2026-03"}, months)
}

func TestProject_WithInstallments(t *testing.T) {
	in := Input{
		Balance:           5000,
		MinimumPayment:    domain.Float64Ptr(450),
		NoInterestPayment: domain.Float64Ptr(2500),
		CAT:               domain.Float64Ptr(60),
		Installments: []Installment{
			{Total: 1200, Months: 3}, // 400 per month
			{Total: 6000, Months: 12}, // 500 per month
		},
	}

	got := Project(in, fixedNow)
	require.Len(t, got, 6)

	// Horizon: month0=2500, month1=900, month2=900, months3..5=500.
	wantNoInterest := []float64{2500, 900, 900, 500, 500, 500}
	wantTotalDebt := []float64{5800, 3300, 2400, 1500, 1000, 500}

	for i, p := range got {
		assert.Equal(t, wantNoInterest[i], p.NoInterestPayment, "no-interest month %d", i)
		assert.Equal(t, wantTotalDebt[i], p.TotalDebt, "total debt month %d", i)
	}

	assert.Equal(t, 2500.0, got[0].ProjectedBalance)
	assert.Equal(t, 450.0, got[0].ProjectedMinPayment)
	assert.Equal(t, 250.0, *got[0].ProjectedInterest)

	assert.Equal(t, 900.0, got[1].ProjectedBalance)
	assert.Equal(t, 27.0, got[1].ProjectedMinPayment)
	assert.Equal(t, 15.0, got[3].ProjectedMinPayment)
	assert.Equal(t, 0.0, *got[1].ProjectedInterest)
}

func TestProject_TotalDebtIsRemainingHorizon(t *testing.T) {
	in := Input{
		NoInterestPayment: domain.Float64Ptr(700),
		Installments:      []Installment{{Total: 999.99, Months: 6}},
	}

	got := Project(in, fixedNow)

	for i := range got {
		var want float64
		for _, p := range got[i:] {
			want += p.NoInterestPayment
		}
		assert.InDelta(t, want, got[i].TotalDebt, 0.05, "month %d", i)
	}
}

func TestProject_ZeroBalanceHasNoInterest(t *testing.T) {
	got := Project(Input{Balance: 0, CAT: domain.Float64Ptr(80), NoInterestPayment: domain.Float64Ptr(100)}, fixedNow)
	assert.Equal(t, 0.0, *got[0].ProjectedInterest)

	got = Project(Input{Balance: -50, CAT: domain.Float64Ptr(80)}, fixedNow)
	assert.Equal(t, 0.0, *got[0].ProjectedInterest)
}

func TestProject_MissingStatementFigures(t *testing.T) {
	got := Project(Input{Balance: 1000}, fixedNow)

	assert.Equal(t, 0.0, got[0].ProjectedBalance)
	assert.Equal(t, 0.0, got[0].ProjectedMinPayment)
	assert.Equal(t, 0.0, got[0].TotalDebt)
	assert.Equal(t, 0.0, *got[0].ProjectedInterest)
}

func TestProject_Deterministic(t *testing.T) {
	in := Input{
		Balance:           3210.55,
		MinimumPayment:    domain.Float64Ptr(321.05),
		NoInterestPayment: domain.Float64Ptr(1999.99),
		CAT:               domain.Float64Ptr(45.7),
		Installments:      []Installment{{Total: 1000, Months: 3}, {Total: 250, Months: 1}},
	}

	assert.Equal(t, Project(in, fixedNow), Project(in, fixedNow))
}

func TestProject_RoundsToCents(t *testing.T) {
	got := Project(Input{Installments: []Installment{{Total: 100, Months: 3}}}, fixedNow)
	// 100/3 = 33.333...
	assert.Equal(t, 33.33, got[1].ProjectedBalance)
	assert.Equal(t, 1.0, got[1].ProjectedMinPayment)
	assert.Equal(t, 66.67, got[1].TotalDebt)
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 2.68, round2(2.675))
	assert.Equal(t, -2.68, round2(-2.675))
	assert.Equal(t, 0.13, round2(0.125))
}

func TestRound2_NonFiniteIsZero(t *testing.T) {
	assert.Equal(t, 0.0, round2(math.Inf(1)))
	assert.Equal(t, 0.0, round2(math.Inf(-1)))
	assert.Equal(t, 0.0, round2(math.NaN()))
}

func TestProject_OverflowDoesNotPanic(t *testing.T) {
	in := Input{
		Balance:           1e200,
		NoInterestPayment: domain.Float64Ptr(5),
		CAT:               domain.Float64Ptr(1e200),
		Installments:      []Installment{{Total: math.MaxFloat64, Months: 1}, {Total: math.MaxFloat64, Months: 1}},
	}

	var got []domain.MonthlyProjection
	require.NotPanics(t, func() { got = Project(in, fixedNow) })
	require.Len(t, got, domain.ProjectionMonths)
	for i, p := range got {
		for _, v := range []float64{p.ProjectedBalance, p.ProjectedMinPayment, p.NoInterestPayment, p.TotalDebt, *p.ProjectedInterest} {
			assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "month %d", i)
		}
	}
	assert.Equal(t, 0.0, *got[0].ProjectedInterest)
}

func TestInstallmentsFrom(t *testing.T) {
	txs := []domain.Transaction{
		{Type: domain.TxTypeCharge, Amount: 1200, InstallmentPlan: domain.IntPtr(12)},
		{Type: domain.TxTypeCharge, Amount: 50},
		{Type: domain.TxTypePayment, Amount: 500, InstallmentPlan: domain.IntPtr(3)},
		{Type: domain.TxTypeCharge, Amount: 80, InstallmentPlan: domain.IntPtr(0)},
		{Type: domain.TxTypeCharge, Amount: 600, InstallmentPlan: domain.IntPtr(6), MonthsPaid: domain.IntPtr(4)},
	}

	got := InstallmentsFrom(txs)
	assert.Equal(t, []Installment{{Total: 1200, Months: 12}, {Total: 600, Months: 6}}, got)
}

func TestInputFor(t *testing.T) {
	card := domain.Card{
		Balance:           900,
		MinimumPayment:    domain.Float64Ptr(90),
		NoInterestPayment: domain.Float64Ptr(900),
		CAT:               domain.Float64Ptr(50),
	}
	txs := []domain.Transaction{{Type: domain.TxTypeCharge, Amount: 300, InstallmentPlan: domain.IntPtr(3)}}

	in := InputFor(card, txs)
	assert.Equal(t, 900.0, in.Balance)
	assert.Equal(t, card.MinimumPayment, in.MinimumPayment)
	assert.Len(t, in.Installments, 1)
}
