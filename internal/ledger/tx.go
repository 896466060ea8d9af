package ledger

import (
	"fmt"
	"sort"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/normalize"
)

// Snapshot is a read-only view of one user's ledger. It is only valid inside
// the View or Update callback that produced it.
type Snapshot struct {
	store  *MemoryStore
	userID string
	ledger *userLedger
}

// Tx is a read-write view of one user's ledger, valid inside Update.
type Tx struct {
	Snapshot
}

// UserID returns the owner of the ledger.
func (s *Snapshot) UserID() string {
	return s.userID
}

// Cards returns the user's cards in creation order.
func (s *Snapshot) Cards() []domain.Card {
	out := make([]domain.Card, 0, len(s.ledger.cards))
	for _, c := range s.ledger.cards {
		out = append(out, copyCard(*c))
	}
	return out
}

// Card returns one card by id.
func (s *Snapshot) Card(cardID string) (domain.Card, bool) {
	c := s.findCard(cardID)
	if c == nil {
		return domain.Card{}, false
	}
	return copyCard(*c), true
}

// Transactions returns the transactions of cardID, or of every card when
// cardID is empty, in insertion order.
func (s *Snapshot) Transactions(cardID string) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, t := range s.ledger.transactions {
		if cardID == "" || t.CardID == cardID {
			out = append(out, t)
		}
	}
	return out
}

// Projections returns the current projection set of cardID.
func (s *Snapshot) Projections(cardID string) []domain.MonthlyProjection {
	return append([]domain.MonthlyProjection(nil), s.ledger.projections[cardID]...)
}

// CategoryAggregates sums charge amounts per category for cardID, or for
// every card when cardID is empty. Payments are excluded. Results are
// ordered by category name.
func (s *Snapshot) CategoryAggregates(cardID string) []domain.CategoryAggregate {
	totals := make(map[string]float64)
	for _, t := range s.ledger.transactions {
		if cardID != "" && t.CardID != cardID {
			continue
		}
		if !t.IsCharge() {
			continue
		}
		totals[t.Category] += t.Amount
	}

	out := make([]domain.CategoryAggregate, 0, len(totals))
	for category, total := range totals {
		out = append(out, domain.CategoryAggregate{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// GeneralSummary aggregates every card. Once a card has projections, the
// first projection's figures replace the raw statement balance.
func (s *Snapshot) GeneralSummary() domain.GeneralSummary {
	today := s.store.now()
	summary := domain.GeneralSummary{
		Cards:            make([]domain.CardSummary, 0, len(s.ledger.cards)),
		UpcomingPayments: make([]domain.UpcomingPayment, 0, len(s.ledger.cards)),
	}

	for _, c := range s.ledger.cards {
		balance := c.Balance
		debt := c.Balance
		if projections := s.ledger.projections[c.ID]; len(projections) > 0 {
			balance = projections[0].ProjectedBalance
			debt = projections[0].TotalDebt
		}
		summary.TotalDebt += debt

		minimum := 0.0
		if c.MinimumPayment != nil {
			minimum = *c.MinimumPayment
		}
		due := NextDueDate(today, c.DueDateDay)

		summary.Cards = append(summary.Cards, domain.CardSummary{
			ID:                  c.ID,
			Name:                c.Name,
			Last4:               c.Last4,
			Balance:             balance,
			UpcomingPaymentDate: due,
			MinimumDue:          minimum,
		})
		summary.UpcomingPayments = append(summary.UpcomingPayments, domain.UpcomingPayment{
			CardID:           c.ID,
			CardName:         c.Name,
			DueDate:          due,
			EstimatedMinimum: minimum,
		})
	}

	return summary
}

// CardDetail returns the card with its transactions, aggregates and
// projections.
func (s *Snapshot) CardDetail(cardID string) (domain.CardDetail, error) {
	card, ok := s.Card(cardID)
	if !ok {
		return domain.CardDetail{}, fmt.Errorf("CardDetail: %s: %w", cardID, ErrCardNotFound)
	}
	return domain.CardDetail{
		Card:               card,
		Transactions:       s.Transactions(cardID),
		CategoryAggregates: s.CategoryAggregates(cardID),
		Projections:        s.Projections(cardID),
	}, nil
}

func (s *Snapshot) findCard(cardID string) *domain.Card {
	for _, c := range s.ledger.cards {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

func (s *Snapshot) findCardByLast4(last4 string) *domain.Card {
	for _, c := range s.ledger.cards {
		if c.Last4 == last4 {
			return c
		}
	}
	return nil
}

// CreateOrUpdateCard upserts a card by last four digits.
//
// An existing card takes every field info provides; minimum payment,
// no-interest payment and CAT are only taken when non-zero. A new card fills
// gaps with defaults and gets its initial projections.
//
// Stale statements are the one exception to overwriting: when info carries a
// statement_date earlier than the card's, only name and issuer are taken.
// Credit limit, balance, due day, payments, CAT and statement date stay as
// they are, so re-uploading last month's PDF cannot roll the figures back.
// Either date missing or unparseable means the statement is not stale.
func (tx *Tx) CreateOrUpdateCard(info domain.CardInfo) domain.Card {
	if info.HasLast4() {
		if existing := tx.findCardByLast4(*info.Last4); existing != nil {
			applyCardInfo(existing, info)
			return copyCard(*existing)
		}
	}

	card := &domain.Card{
		ID:          tx.store.newID(),
		UserID:      tx.userID,
		Name:        stringOr(info.Name, domain.DefaultCardName),
		Issuer:      stringOr(info.Issuer, domain.DefaultIssuer),
		Last4:       domain.DefaultLast4,
		CreditLimit: domain.DefaultCreditLimit,
		DueDateDay:  domain.DefaultDueDateDay,

		MinimumPayment:    nonZero(info.MinimumPayment),
		NoInterestPayment: nonZero(info.NoInterestPayment),
		CAT:               nonZero(info.CAT),
		StatementDate:     cloneString(info.StatementDate),
	}
	if info.HasLast4() {
		card.Last4 = *info.Last4
	}
	if info.CreditLimit != nil {
		card.CreditLimit = *info.CreditLimit
	}
	if info.Balance != nil {
		card.Balance = *info.Balance
	}
	if info.DueDateDay != nil && *info.DueDateDay != 0 {
		card.DueDateDay = *info.DueDateDay
	}

	tx.ledger.cards = append(tx.ledger.cards, card)
	tx.RecomputeProjections(card.ID)
	return copyCard(*card)
}

func applyCardInfo(card *domain.Card, info domain.CardInfo) {
	if info.Name != nil {
		card.Name = *info.Name
	}
	if info.Issuer != nil {
		card.Issuer = *info.Issuer
	}
	if info.HasLast4() {
		card.Last4 = *info.Last4
	}

	if isStale(card.StatementDate, info.StatementDate) {
		return
	}

	if info.CreditLimit != nil {
		card.CreditLimit = *info.CreditLimit
	}
	if info.Balance != nil {
		card.Balance = *info.Balance
	}
	if info.DueDateDay != nil && *info.DueDateDay != 0 {
		card.DueDateDay = *info.DueDateDay
	}
	if v := nonZero(info.MinimumPayment); v != nil {
		card.MinimumPayment = v
	}
	if v := nonZero(info.NoInterestPayment); v != nil {
		card.NoInterestPayment = v
	}
	if v := nonZero(info.CAT); v != nil {
		card.CAT = v
	}
	if info.StatementDate != nil {
		card.StatementDate = cloneString(info.StatementDate)
	}
}

// isStale reports whether incoming predates current. Unparseable dates are
// never stale.
func isStale(current, incoming *string) bool {
	if current == nil || incoming == nil {
		return false
	}
	cur, ok := normalize.ParseISO(*current)
	if !ok {
		return false
	}
	in, ok := normalize.ParseISO(*incoming)
	if !ok {
		return false
	}
	return in.Before(cur)
}

// AddNewTransactions stores the candidates that are not duplicates of a
// transaction already on cardID, including earlier candidates of the same
// call, and returns the inserted ones in input order.
func (tx *Tx) AddNewTransactions(cardID string, candidates []domain.Transaction) []domain.Transaction {
	inserted := make([]domain.Transaction, 0, len(candidates))
	for _, c := range candidates {
		c.CardID = cardID
		c.UserID = tx.userID
		if tx.isDuplicate(c) {
			continue
		}
		if c.ID == "" {
			c.ID = tx.store.newID()
		}
		tx.ledger.transactions = append(tx.ledger.transactions, c)
		inserted = append(inserted, c)
	}
	return inserted
}

func (tx *Tx) isDuplicate(candidate domain.Transaction) bool {
	for _, existing := range tx.ledger.transactions {
		if existing.CardID == candidate.CardID && existing.SameMovement(candidate) {
			return true
		}
	}
	return false
}

// AddToBalance adds delta to the card's balance.
func (tx *Tx) AddToBalance(cardID string, delta float64) (domain.Card, error) {
	c := tx.findCard(cardID)
	if c == nil {
		return domain.Card{}, fmt.Errorf("AddToBalance: %s: %w", cardID, ErrCardNotFound)
	}
	c.Balance += delta
	return copyCard(*c), nil
}

// RecomputeProjections replaces the projection set of cardID. The card must
// exist; asking for an unknown card is a programming error and panics.
func (tx *Tx) RecomputeProjections(cardID string) []domain.MonthlyProjection {
	c := tx.findCard(cardID)
	if c == nil {
		panic(fmt.Sprintf("ledger: projections requested for unknown card %q", cardID))
	}
	projections := tx.store.project(copyCard(*c), tx.Transactions(cardID), tx.store.now())
	tx.ledger.projections[cardID] = projections
	return append([]domain.MonthlyProjection(nil), projections...)
}

func copyCard(c domain.Card) domain.Card {
	c.MinimumPayment = cloneFloat(c.MinimumPayment)
	c.NoInterestPayment = cloneFloat(c.NoInterestPayment)
	c.CAT = cloneFloat(c.CAT)
	c.StatementDate = cloneString(c.StatementDate)
	return c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return cloneFloat(v)
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
