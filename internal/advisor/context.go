package advisor

import (
	"fmt"
	"math"
	"strings"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// BuildContext renders the user's cards, balances and interest-free
// installment purchases as the Markdown context handed to the model.
// transactions maps card id to that card's transactions.
func BuildContext(summary domain.GeneralSummary, transactions map[string][]domain.Transaction) string {
	var b strings.Builder
	b.WriteString("# Resumen de Tarjetas y Deudas\n\n")

	for i, card := range summary.Cards {
		fmt.Fprintf(&b, "## Tarjeta %d: %s (%s)\n", i+1, orDefault(card.Name, "Sin nombre"), orDefault(card.Last4, "N/A"))
		fmt.Fprintf(&b, "- Saldo: %s\n", money(card.Balance))
		fmt.Fprintf(&b, "- Mínimo: %s\n", money(card.MinimumDue))
		fmt.Fprintf(&b, "- Vencimiento: %s\n", orDefault(card.UpcomingPaymentDate, "N/A"))

		var msi []domain.Transaction
		for _, t := range transactions[card.ID] {
			if planMonths(t) > 1 {
				msi = append(msi, t)
			}
		}
		if len(msi) > 0 {
			b.WriteString("\n### MSI:\n")
			for _, t := range msi {
				paid := 0
				if t.MonthsPaid != nil {
					paid = *t.MonthsPaid
				}
				fmt.Fprintf(&b, "- %s: %s (%d/%d)\n", orDefault(t.Description, "Compra"), money(t.Amount), paid, planMonths(t))
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Deuda total: %s\n", money(summary.TotalDebt))
	return b.String()
}

func planMonths(t domain.Transaction) int {
	switch {
	case t.Installments != nil:
		return *t.Installments
	case t.InstallmentPlan != nil:
		return *t.InstallmentPlan
	default:
		return 0
	}
}

// money formats v as "$1,234.56".
func money(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		v = 0
	}
	s := decimal.NewFromFloat(v).Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if v < 0 && s != "0.00" {
		sign = "-"
	}
	return sign + "$" + grouped.String() + "." + frac
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
