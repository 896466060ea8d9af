package pipeline

import (
	"fmt"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/normalize"
)

const (
	defaultDescription = "Unknown Transaction"
	defaultMerchant    = "MSI Purchase"
)

// Coerce turns a decoded model payload into statement card info and
// candidate transactions for userID. It never fails: missing or malformed
// fields fall back to defaults, and now supplies the date for transactions
// whose own date cannot be read.
//
// Both payload shapes are understood. A legacy "card_info" object is used
// as-is; otherwise "statement_summary" is mapped onto CardInfo. Rows from
// "transactions" come first, followed by one synthetic charge per
// "msi.plans" entry.
func Coerce(payload map[string]any, userID string, now time.Time) (*domain.CardInfo, []domain.Transaction) {
	var info *domain.CardInfo
	summary, hasSummary := objectField(payload, "statement_summary")
	if legacy, ok := objectField(payload, "card_info"); ok && len(legacy) > 0 {
		info = cardInfoFromLegacy(legacy)
	} else if _, present := payload["statement_summary"]; present {
		info = mapSummary(summary)
	}

	yearHint := 0
	if hasSummary {
		yearHint = normalize.YearHint(summary)
	}
	today := normalize.Today(now)

	var txs []domain.Transaction
	items, _ := sliceField(payload, "transactions")
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		txs = append(txs, coerceTransaction(obj, userID, yearHint, today))
	}

	if msi, ok := objectField(payload, "msi"); ok {
		plans, _ := sliceField(msi, "plans")
		for _, p := range plans {
			obj, ok := p.(map[string]any)
			if !ok {
				continue
			}
			txs = append(txs, coercePlan(obj, userID, yearHint, today))
		}
	}

	return info, txs
}

func coerceTransaction(item map[string]any, userID string, yearHint int, today string) domain.Transaction {
	amount := normalize.Amount(item["amount"])
	txType := domain.TxTypeCharge
	category := domain.CategoryOther
	if amount < 0 {
		txType = domain.TxTypePayment
		category = domain.CategoryPayment
		amount = -amount
	}
	if c, ok := nonEmptyString(item, "category"); ok {
		category = c
	}

	description := defaultDescription
	if d, ok := nonEmptyString(item, "description"); ok {
		description = d
	}

	rawDate, _ := stringField(item, "date")

	return domain.Transaction{
		UserID:          userID,
		Date:            normalize.DateOr(rawDate, yearHint, today),
		Description:     description,
		Category:        category,
		Amount:          amount,
		Type:            txType,
		InstallmentPlan: installmentPlan(item),
	}
}

// installmentPlan reads installment_plan as a month count. Zero and
// unreadable values mean no plan.
func installmentPlan(item map[string]any) *int {
	n, ok := intField(item, "installment_plan")
	if !ok || n == 0 {
		return nil
	}
	return domain.IntPtr(n)
}

// coercePlan expands one MSI plan into a synthetic charge for the whole
// purchase. A plan without installment_index is treated as fully paid.
func coercePlan(plan map[string]any, userID string, yearHint int, today string) domain.Transaction {
	total, ok := intField(plan, "installment_total")
	if !ok {
		total = 1
	}
	index, ok := intField(plan, "installment_index")
	if !ok {
		index = total
	}
	merchant := defaultMerchant
	if m, ok := nonEmptyString(plan, "merchant"); ok {
		merchant = m
	}
	rawDate, _ := stringField(plan, "purchase_date")

	return domain.Transaction{
		UserID:          userID,
		Date:            normalize.DateOr(rawDate, yearHint, today),
		Description:     fmt.Sprintf("%s (MSI %d of %d)", merchant, index, total),
		Category:        domain.CategoryMSI,
		Amount:          normalize.Amount(plan["total_purchase_amount"]),
		Type:            domain.TxTypeCharge,
		InstallmentPlan: domain.IntPtr(total),
		Installments:    domain.IntPtr(total),
		MonthsPaid:      domain.IntPtr(index - 1),
	}
}

// mapSummary maps a statement_summary object onto CardInfo. Amounts the
// summary omits become zero, which the ledger treats as "not provided" for
// the payment figures.
func mapSummary(summary map[string]any) *domain.CardInfo {
	amount := func(key string) *float64 {
		return domain.Float64Ptr(normalize.Amount(summary[key]))
	}

	info := &domain.CardInfo{
		Name:              stringPtr(summary, "card_name"),
		Issuer:            stringPtr(summary, "issuer"),
		Last4:             stringPtr(summary, "last4"),
		CreditLimit:       amount("credit_limit"),
		Balance:           amount("total_balance"),
		MinimumPayment:    amount("minimum_payment"),
		NoInterestPayment: amount("no_interest_payment"),
		CAT:               amount("cat"),
		Currency:          stringPtr(summary, "currency"),
		CutoffDate:        stringPtr(summary, "cutoff_date"),
		StatementDate:     stringPtr(summary, "cutoff_date"),
		PeriodStart:       stringPtr(summary, "period_start"),
		PeriodEnd:         stringPtr(summary, "period_end"),
		DueDate:           stringPtr(summary, "due_date"),
		PeriodBalance:     amount("period_balance"),
	}
	if info.DueDate != nil {
		if day, ok := normalize.DayOfMonth(*info.DueDate); ok {
			info.DueDateDay = domain.IntPtr(day)
		}
	}
	return info
}

// cardInfoFromLegacy reads the older card_info shape, whose keys already
// match CardInfo. Absent amounts stay absent.
func cardInfoFromLegacy(legacy map[string]any) *domain.CardInfo {
	info := &domain.CardInfo{
		Name:              stringPtr(legacy, "name"),
		Issuer:            stringPtr(legacy, "issuer"),
		Last4:             stringPtr(legacy, "last4"),
		CreditLimit:       normalize.OptionalAmount(legacy["credit_limit"]),
		Balance:           normalize.OptionalAmount(legacy["balance"]),
		MinimumPayment:    normalize.OptionalAmount(legacy["minimum_payment"]),
		NoInterestPayment: normalize.OptionalAmount(legacy["no_interest_payment"]),
		CAT:               normalize.OptionalAmount(legacy["cat"]),
		Currency:          stringPtr(legacy, "currency"),
		CutoffDate:        stringPtr(legacy, "cutoff_date"),
		StatementDate:     stringPtr(legacy, "statement_date"),
		PeriodStart:       stringPtr(legacy, "period_start"),
		PeriodEnd:         stringPtr(legacy, "period_end"),
		DueDate:           stringPtr(legacy, "due_date"),
		PeriodBalance:     normalize.OptionalAmount(legacy["period_balance"]),
	}
	if day, ok := intField(legacy, "due_date_day"); ok {
		info.DueDateDay = domain.IntPtr(day)
	}
	return info
}
