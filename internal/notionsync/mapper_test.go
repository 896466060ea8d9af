package notionsync

import (
	"testing"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueDateIn(t *testing.T) {
	tests := []struct {
		month string
		day   int
		want  string
	}{
		{"2025-10", 15, "2025-10-15"},
		{"2025-11", 31, "2025-11-30"},
		{"2026-02", 30, "2026-02-28"},
		{"2028-02", 30, "2028-02-29"},
		{"2025-12", 0, "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			got, ok := dueDateIn(tt.month, tt.day)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}

	_, ok := dueDateIn("octubre", 15)
	assert.False(t, ok)
}

func TestPaymentRows(t *testing.T) {
	detail := domain.CardDetail{
		Card: domain.Card{ID: "c1", Name: "Oro", Last4: "4321", DueDateDay: 20},
		Projections: []domain.MonthlyProjection{
			{Month: "2025-10", ProjectedBalance: 900, ProjectedMinPayment: 27, NoInterestPayment: 300, TotalDebt: 1200, ProjectedInterest: domain.Float64Ptr(12.5)},
			{Month: "2025-11", ProjectedBalance: 600, ProjectedMinPayment: 18, NoInterestPayment: 300, TotalDebt: 900},
		},
	}

	rows := PaymentRows(detail)
	require.Len(t, rows, 2)
	assert.Equal(t, "c1:2025-10", rows[0].Key)
	assert.Equal(t, "Oro", rows[0].CardName)
	assert.Equal(t, 300.0, rows[0].NoInterest)
	assert.Equal(t, 27.0, rows[0].Minimum)
	assert.False(t, rows[0].Installments)
	require.NotNil(t, rows[1].DueDate)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), *rows[1].DueDate)
}

func TestPaymentToNotionProperties(t *testing.T) {
	due := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	props := PaymentToNotionProperties(PaymentRow{
		Key: "c1:2025-10", CardName: "Oro", Last4: "4321", Month: "2025-10",
		DueDate: &due, NoInterest: 300, Minimum: 27, Balance: 900, TotalDebt: 1200,
	})

	title, ok := props[PropPaymentKey].(notionapi.TitleProperty)
	require.True(t, ok)
	assert.Equal(t, "c1:2025-10", title.Title[0].Text.Content)

	card := props[PropCard].(notionapi.RichTextProperty)
	assert.Equal(t, "Oro •4321", card.RichText[0].Text.Content)

	assert.Equal(t, notionapi.SelectProperty{Select: notionapi.Option{Name: "2025-10"}}, props[PropMonth])
	assert.Equal(t, notionapi.NumberProperty{Number: 300}, props[PropNoInterest])
	assert.Equal(t, notionapi.NumberProperty{Number: 1200}, props[PropTotalDebt])

	date := props[PropDueDate].(notionapi.DateProperty)
	assert.Equal(t, due, time.Time(*date.Date.Start))

	assert.NotContains(t, props, PropInterest)

	props = PaymentToNotionProperties(PaymentRow{Key: "k", Interest: domain.Float64Ptr(12.5)})
	assert.Equal(t, notionapi.NumberProperty{Number: 12.5}, props[PropInterest])
	assert.NotContains(t, props, PropDueDate)
}

func TestExtractPaymentKey(t *testing.T) {
	assert.Equal(t, "c1:2025-10", extractPaymentKey(keyedPage("p", "c1:2025-10")))
	assert.Empty(t, extractPaymentKey(notionapi.Page{}))
}
