package notionsync

import (
	"fmt"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the upcoming payments database.
const (
	PropPaymentKey   = "Payment Key"
	PropCard         = "Card"
	PropLast4        = "Last 4"
	PropMonth        = "Month"
	PropDueDate      = "Due Date"
	PropNoInterest   = "No Interest Payment"
	PropMinimum      = "Minimum Payment"
	PropInterest     = "Projected Interest"
	PropBalance      = "Projected Balance"
	PropTotalDebt    = "Total Debt"
	PropInstallments = "Has Installments"
)

// PaymentRow is one projected month of one card, as exported to Notion.
type PaymentRow struct {
	Key          string
	CardID       string
	CardName     string
	Last4        string
	Month        string // YYYY-MM
	DueDate      *time.Time
	NoInterest   float64
	Minimum      float64
	Interest     *float64
	Balance      float64
	TotalDebt    float64
	Installments bool
}

// PaymentKey identifies a card's projected month across syncs.
func PaymentKey(cardID, month string) string {
	return cardID + ":" + month
}

// PaymentRows flattens a card's projections into export rows.
func PaymentRows(detail domain.CardDetail) []PaymentRow {
	installments := false
	for _, t := range detail.Transactions {
		if t.IsInstallment() {
			installments = true
			break
		}
	}

	rows := make([]PaymentRow, 0, len(detail.Projections))
	for _, p := range detail.Projections {
		row := PaymentRow{
			Key:          PaymentKey(detail.Card.ID, p.Month),
			CardID:       detail.Card.ID,
			CardName:     detail.Card.Name,
			Last4:        detail.Card.Last4,
			Month:        p.Month,
			NoInterest:   p.NoInterestPayment,
			Minimum:      p.ProjectedMinPayment,
			Interest:     p.ProjectedInterest,
			Balance:      p.ProjectedBalance,
			TotalDebt:    p.TotalDebt,
			Installments: installments,
		}
		if due, ok := dueDateIn(p.Month, detail.Card.DueDateDay); ok {
			row.DueDate = &due
		}
		rows = append(rows, row)
	}
	return rows
}

// dueDateIn places dueDay inside month, clamped to the month's last day.
func dueDateIn(month string, dueDay int) (time.Time, bool) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, false
	}
	last := first.AddDate(0, 1, -1).Day()
	if dueDay < 1 || dueDay > last {
		dueDay = last
	}
	return time.Date(first.Year(), first.Month(), dueDay, 0, 0, 0, 0, time.UTC), true
}

// PaymentToNotionProperties converts a PaymentRow to Notion page properties.
func PaymentToNotionProperties(row PaymentRow) notionapi.Properties {
	props := notionapi.Properties{
		PropPaymentKey: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: row.Key},
				},
			},
		},
		PropCard: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: cardLabel(row)},
				},
			},
		},
		PropLast4: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: row.Last4},
				},
			},
		},
		PropMonth: notionapi.SelectProperty{
			Select: notionapi.Option{Name: row.Month},
		},
		PropNoInterest:   notionapi.NumberProperty{Number: row.NoInterest},
		PropMinimum:      notionapi.NumberProperty{Number: row.Minimum},
		PropBalance:      notionapi.NumberProperty{Number: row.Balance},
		PropTotalDebt:    notionapi.NumberProperty{Number: row.TotalDebt},
		PropInstallments: notionapi.CheckboxProperty{Checkbox: row.Installments},
	}

	if row.DueDate != nil {
		d := notionapi.Date(*row.DueDate)
		props[PropDueDate] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}
	}

	// interest is unknown without a CAT
	if row.Interest != nil {
		props[PropInterest] = notionapi.NumberProperty{Number: *row.Interest}
	}

	return props
}

func cardLabel(row PaymentRow) string {
	if row.Last4 == "" {
		return row.CardName
	}
	return fmt.Sprintf("%s •%s", row.CardName, row.Last4)
}

// extractPaymentKey reads the Payment Key title of a queried page.
// Returns empty string if not found.
func extractPaymentKey(page notionapi.Page) string {
	if prop, ok := page.Properties[PropPaymentKey]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
