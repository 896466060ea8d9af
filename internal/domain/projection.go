package domain

// ProjectionMonths is the length of the payment projection horizon.
const ProjectionMonths = 6

// MonthlyProjection is one month of a card's forward payment simulation.
type MonthlyProjection struct {
	Month               string   `json:"month"` // YYYY-MM
	ProjectedBalance    float64  `json:"projected_balance"`
	ProjectedMinPayment float64  `json:"projected_min_payment"`
	NoInterestPayment   float64  `json:"no_interest_payment"`
	TotalDebt           float64  `json:"total_debt"`
	ProjectedInterest   *float64 `json:"projected_interest,omitempty"`
}

// CategoryAggregate is the total charged under one category.
type CategoryAggregate struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// CardSummary is the dashboard view of a single card.
type CardSummary struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Last4               string  `json:"last4"`
	Balance             float64 `json:"balance"`
	UpcomingPaymentDate string  `json:"upcoming_payment_date"`
	MinimumDue          float64 `json:"minimum_due"`
}

// UpcomingPayment is the next payment owed on a card.
type UpcomingPayment struct {
	CardID           string  `json:"card_id"`
	CardName         string  `json:"card_name"`
	DueDate          string  `json:"due_date"`
	EstimatedMinimum float64 `json:"estimated_minimum"`
}

// GeneralSummary aggregates every card a user holds.
type GeneralSummary struct {
	TotalDebt        float64           `json:"total_debt"`
	Cards            []CardSummary     `json:"cards"`
	UpcomingPayments []UpcomingPayment `json:"upcoming_payments"`
}

// CardDetail is everything known about one card.
type CardDetail struct {
	Card               Card                `json:"card"`
	Transactions       []Transaction       `json:"transactions"`
	CategoryAggregates []CategoryAggregate `json:"category_aggregates"`
	Projections        []MonthlyProjection `json:"projections"`
}

// UploadedTransaction is the slice of a newly inserted transaction echoed
// back to the uploader.
type UploadedTransaction struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
}

// UploadResult reports what a statement upload changed.
type UploadResult struct {
	Added        int                   `json:"added"`
	CardID       string                `json:"card_id"`
	CardName     string                `json:"card_name"`
	Transactions []UploadedTransaction `json:"transactions"`
}
