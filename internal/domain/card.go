package domain

// Defaults applied when a card is first created from partial statement data.
const (
	DefaultCardName    = "Unknown Card"
	DefaultIssuer      = "Unknown Bank"
	DefaultLast4       = "0000"
	DefaultCreditLimit = 10000.0
	DefaultDueDateDay  = 15
)

// Card is a credit card belonging to one user. Identity for upserts is
// (UserID, Last4).
type Card struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Issuer      string  `json:"issuer"`
	Last4       string  `json:"last4"`
	CreditLimit float64 `json:"credit_limit"`
	Balance     float64 `json:"balance"`
	DueDateDay  int     `json:"due_date_day"`

	MinimumPayment    *float64 `json:"minimum_payment,omitempty"`
	NoInterestPayment *float64 `json:"no_interest_payment,omitempty"`
	CAT               *float64 `json:"cat,omitempty"` // annual rate, percent
	StatementDate     *string  `json:"statement_date,omitempty"`
}

// CardInfo is the statement header as extracted from a document. Every field
// is optional; nil means the statement did not provide it.
type CardInfo struct {
	Name              *string  `json:"name,omitempty"`
	Issuer            *string  `json:"issuer,omitempty"`
	Last4             *string  `json:"last4,omitempty"`
	CreditLimit       *float64 `json:"credit_limit,omitempty"`
	Balance           *float64 `json:"balance,omitempty"`
	DueDateDay        *int     `json:"due_date_day,omitempty"`
	MinimumPayment    *float64 `json:"minimum_payment,omitempty"`
	NoInterestPayment *float64 `json:"no_interest_payment,omitempty"`
	CAT               *float64 `json:"cat,omitempty"`

	Currency      *string  `json:"currency,omitempty"`
	CutoffDate    *string  `json:"cutoff_date,omitempty"`
	StatementDate *string  `json:"statement_date,omitempty"`
	PeriodStart   *string  `json:"period_start,omitempty"`
	PeriodEnd     *string  `json:"period_end,omitempty"`
	DueDate       *string  `json:"due_date,omitempty"`
	PeriodBalance *float64 `json:"period_balance,omitempty"`
}

// HasLast4 reports whether the statement identified the card by its last
// four digits.
func (c *CardInfo) HasLast4() bool {
	return c != nil && c.Last4 != nil && *c.Last4 != ""
}
