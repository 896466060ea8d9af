package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var coerceNow = time.Date(2025, 10, 12, 9, 30, 0, 0, time.UTC)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestCoerce_StatementSummary(t *testing.T) {
	payload := decode(t, `{
		"statement_summary": {
			"card_name": "Oro",
			"issuer": "Banamex",
			"last4": "4321",
			"credit_limit": "$50,000.00",
			"total_balance": "12.345,67",
			"minimum_payment": 600,
			"no_interest_payment": "3,000.00",
			"cat": "58.9%",
			"currency": "MXN",
			"cutoff_date": "2025-10-02",
			"due_date": "2025-10-22"
		},
		"transactions": [
			{"date": "12 OCT", "description": "OXXO", "amount": "150.50", "category": "Groceries"},
			{"date": "2025-09-28", "description": "SU PAGO GRACIAS", "amount": -2000}
		]
	}`)

	info, txs := Coerce(payload, "u1", coerceNow)
	require.NotNil(t, info)

	assert.Equal(t, "Oro", *info.Name)
	assert.Equal(t, "Banamex", *info.Issuer)
	assert.Equal(t, "4321", *info.Last4)
	assert.InDelta(t, 50000.0, *info.CreditLimit, 0.001)
	assert.InDelta(t, 12345.67, *info.Balance, 0.001)
	assert.InDelta(t, 600.0, *info.MinimumPayment, 0.001)
	assert.InDelta(t, 3000.0, *info.NoInterestPayment, 0.001)
	assert.InDelta(t, 58.9, *info.CAT, 0.001)
	assert.Equal(t, "2025-10-02", *info.StatementDate)
	assert.Equal(t, "2025-10-02", *info.CutoffDate)
	assert.Equal(t, 22, *info.DueDateDay)
	// absent summary amounts become zero
	require.NotNil(t, info.PeriodBalance)
	assert.Zero(t, *info.PeriodBalance)

	require.Len(t, txs, 2)

	assert.Equal(t, "2025-10-12", txs[0].Date)
	assert.Equal(t, "OXXO", txs[0].Description)
	assert.Equal(t, "Groceries", txs[0].Category)
	assert.Equal(t, domain.TxTypeCharge, txs[0].Type)
	assert.InDelta(t, 150.50, txs[0].Amount, 0.001)
	assert.Equal(t, "u1", txs[0].UserID)

	assert.Equal(t, "2025-09-28", txs[1].Date)
	assert.Equal(t, domain.TxTypePayment, txs[1].Type)
	assert.Equal(t, domain.CategoryPayment, txs[1].Category)
	assert.InDelta(t, 2000.0, txs[1].Amount, 0.001)
}

func TestCoerce_LegacyCardInfo(t *testing.T) {
	payload := decode(t, `{
		"card_info": {
			"name": "Platinum",
			"issuer": "BBVA",
			"last4": "9876",
			"credit_limit": 20000,
			"balance": 1500,
			"due_date_day": "18"
		},
		"statement_summary": {"last4": "1111"},
		"transactions": []
	}`)

	info, txs := Coerce(payload, "u1", coerceNow)
	require.NotNil(t, info)
	assert.Equal(t, "Platinum", *info.Name)
	assert.Equal(t, "9876", *info.Last4)
	assert.InDelta(t, 20000.0, *info.CreditLimit, 0.001)
	assert.Equal(t, 18, *info.DueDateDay)
	assert.Nil(t, info.MinimumPayment)
	assert.Nil(t, info.CAT)
	assert.Empty(t, txs)
}

func TestCoerce_NoCardInfo(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no header at all", `{"transactions": []}`},
		{"empty legacy object", `{"card_info": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, _ := Coerce(decode(t, tt.payload), "u1", coerceNow)
			assert.Nil(t, info)
		})
	}
}

func TestCoerce_NullSummary(t *testing.T) {
	info, txs := Coerce(decode(t, `{"statement_summary": null, "transactions": [{"amount": 10}]}`), "u1", coerceNow)

	require.NotNil(t, info)
	assert.Nil(t, info.Last4)
	assert.Zero(t, *info.Balance)

	require.Len(t, txs, 1)
	// no year hint, so unreadable dates fall back to today
	assert.Equal(t, "2025-10-12", txs[0].Date)
	assert.Equal(t, defaultDescription, txs[0].Description)
	assert.Equal(t, domain.CategoryOther, txs[0].Category)
}

func TestCoerce_DayMonthDateNeedsYearHint(t *testing.T) {
	payload := decode(t, `{
		"statement_summary": {"period_end": "2024-12-20"},
		"transactions": [{"date": "3 DIC", "description": "Cine", "amount": 90}]
	}`)
	_, txs := Coerce(payload, "u1", coerceNow)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-12-03", txs[0].Date)

	payload = decode(t, `{"transactions": [{"date": "3 DIC", "description": "Cine", "amount": 90}]}`)
	_, txs = Coerce(payload, "u1", coerceNow)
	require.Len(t, txs, 1)
	assert.Equal(t, "2025-10-12", txs[0].Date)
}

func TestCoerce_SkipsNonObjectItems(t *testing.T) {
	payload := decode(t, `{
		"transactions": ["garbage", 42, null, {"description": "Real", "amount": 5}],
		"msi": {"plans": ["x", {"total_purchase_amount": 300}]}
	}`)
	_, txs := Coerce(payload, "u1", coerceNow)
	require.Len(t, txs, 2)
	assert.Equal(t, "Real", txs[0].Description)
	assert.Equal(t, domain.CategoryMSI, txs[1].Category)
}

func TestCoerce_InstallmentPlan(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{"number", `6`, domain.IntPtr(6)},
		{"numeric string", `"12"`, domain.IntPtr(12)},
		{"zero means none", `0`, nil},
		{"unreadable", `"seis"`, nil},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := decode(t, `{"transactions": [{"description": "TV", "amount": 600, "installment_plan": `+tt.raw+`}]}`)
			_, txs := Coerce(payload, "u1", coerceNow)
			require.Len(t, txs, 1)
			assert.Equal(t, tt.want, txs[0].InstallmentPlan)
		})
	}
}

func TestCoerce_MSIPlans(t *testing.T) {
	payload := decode(t, `{
		"statement_summary": {"cutoff_date": "2025-10-02"},
		"msi": {"plans": [
			{"merchant": "Liverpool", "purchase_date": "2025-08-15", "total_purchase_amount": "6,000.00", "installment_index": 3, "installment_total": 12},
			{"total_purchase_amount": 450}
		]}
	}`)

	_, txs := Coerce(payload, "u1", coerceNow)
	require.Len(t, txs, 2)

	first := txs[0]
	assert.Equal(t, "Liverpool (MSI 3 of 12)", first.Description)
	assert.Equal(t, "2025-08-15", first.Date)
	assert.Equal(t, domain.CategoryMSI, first.Category)
	assert.Equal(t, domain.TxTypeCharge, first.Type)
	assert.InDelta(t, 6000.0, first.Amount, 0.001)
	assert.Equal(t, 12, *first.InstallmentPlan)
	assert.Equal(t, 12, *first.Installments)
	assert.Equal(t, 2, *first.MonthsPaid)
	assert.True(t, first.IsInstallment())

	second := txs[1]
	assert.Equal(t, "MSI Purchase (MSI 1 of 1)", second.Description)
	assert.Equal(t, "2025-10-12", second.Date)
	assert.Equal(t, 1, *second.InstallmentPlan)
	assert.Equal(t, 0, *second.MonthsPaid)
}

func TestIntField(t *testing.T) {
	m := map[string]any{
		"float":  6.9,
		"int":    4,
		"str":    " 7 ",
		"fstr":   "3.5",
		"empty":  "",
		"bool":   true,
		"word":   "many",
		"object": map[string]any{},
	}
	tests := []struct {
		key    string
		want   int
		wantOK bool
	}{
		{"float", 6, true},
		{"int", 4, true},
		{"str", 7, true},
		{"fstr", 3, true},
		{"empty", 0, false},
		{"bool", 0, false},
		{"word", 0, false},
		{"object", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := intField(m, tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringField(t *testing.T) {
	m := map[string]any{"s": "x", "n": 4321.0, "nil": nil, "obj": map[string]any{"a": 1}, "list": []any{1}}

	s, ok := stringField(m, "s")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	s, ok = stringField(m, "n")
	assert.True(t, ok)
	assert.Equal(t, "4321", s)

	for _, key := range []string{"nil", "obj", "list", "missing"} {
		_, ok := stringField(m, key)
		assert.False(t, ok, key)
	}
}
