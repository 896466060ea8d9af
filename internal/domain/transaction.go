package domain

import "strings"

// TxType distinguishes money owed from money paid. Amounts are always stored
// as non-negative magnitudes; the direction lives here.
type TxType string

const (
	TxTypeCharge  TxType = "charge"
	TxTypePayment TxType = "payment"
)

// Category names assigned when extraction leaves them blank, plus the
// category stamped on synthetic installment-plan rows.
const (
	CategoryPayment = "Payment"
	CategoryOther   = "Other"
	CategoryMSI     = "MSI"
)

// DuplicateTolerance is the amount difference under which two otherwise
// matching transactions are treated as the same movement.
const DuplicateTolerance = 0.01

// Transaction represents one normalized statement line (or one synthetic
// installment-plan row) owned by a card.
type Transaction struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	CardID      string  `json:"card_id"`
	Date        string  `json:"date"` // ISO YYYY-MM-DD
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Type        TxType  `json:"type"`

	InstallmentPlan *int `json:"installment_plan,omitempty"` // total months
	Installments    *int `json:"installments,omitempty"`     // alias of InstallmentPlan
	MonthsPaid      *int `json:"months_paid,omitempty"`
}

// IsCharge reports whether the transaction adds to the amount owed.
func (t Transaction) IsCharge() bool {
	return t.Type == TxTypeCharge
}

// IsInstallment reports whether the transaction is a charge carried on an
// interest-free installment plan.
func (t Transaction) IsInstallment() bool {
	return t.IsCharge() && t.InstallmentPlan != nil && *t.InstallmentPlan > 0
}

// SameMovement reports whether t and other describe the same statement line:
// equal date, equal description after trimming and lowercasing, and amounts
// closer than DuplicateTolerance.
func (t Transaction) SameMovement(other Transaction) bool {
	if t.Date != other.Date {
		return false
	}
	diff := t.Amount - other.Amount
	if diff < 0 {
		diff = -diff
	}
	if diff >= DuplicateTolerance {
		return false
	}
	return normalizeDescription(t.Description) == normalizeDescription(other.Description)
}

func normalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
