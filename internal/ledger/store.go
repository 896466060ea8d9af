// Package ledger owns every user's cards, transactions and projections.
//
// State is partitioned by user. Each partition has its own lock: Update runs
// a unit of work exclusively, View runs concurrently with other views and
// always observes cards, transactions and projections from the same moment.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/projection"
	"github.com/google/uuid"
)

// ErrCardNotFound is returned when a card id does not belong to the user.
var ErrCardNotFound = errors.New("card not found")

// ProjectFunc computes the projection set for a card from its transactions.
type ProjectFunc func(card domain.Card, txs []domain.Transaction, now time.Time) []domain.MonthlyProjection

// DefaultProjector runs the six-month projection engine.
func DefaultProjector(card domain.Card, txs []domain.Transaction, now time.Time) []domain.MonthlyProjection {
	return projection.Project(projection.InputFor(card, txs), now)
}

// Store is the unit-of-work surface the rest of the service depends on.
type Store interface {
	Update(userID string, fn func(tx *Tx) error) error
	View(userID string, fn func(s *Snapshot) error) error
}

// MemoryStore is an in-process Store. Data lives for the lifetime of the
// process; durability is layered on top by journaling committed changes.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*userLedger

	now     func() time.Time
	newID   func() string
	project ProjectFunc
}

type userLedger struct {
	mu           sync.RWMutex
	cards        []*domain.Card
	transactions []domain.Transaction
	projections  map[string][]domain.MonthlyProjection
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the time source used for projections and due dates.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithIDGenerator overrides how new card and transaction ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *MemoryStore) { s.newID = newID }
}

// WithProjector overrides the projection engine.
func WithProjector(project ProjectFunc) Option {
	return func(s *MemoryStore) { s.project = project }
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:   make(map[string]*userLedger),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		project: DefaultProjector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) partition(userID string) *userLedger {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.users[userID]
	if !ok {
		l = &userLedger{projections: make(map[string][]domain.MonthlyProjection)}
		s.users[userID] = l
	}
	return l
}

// Update runs fn with exclusive access to userID's ledger. Mutations made
// before fn returns an error are kept; callers validate before mutating.
func (s *MemoryStore) Update(userID string, fn func(tx *Tx) error) error {
	l := s.partition(userID)
	l.mu.Lock()
	defer l.mu.Unlock()

	return fn(&Tx{Snapshot: Snapshot{store: s, userID: userID, ledger: l}})
}

// View runs fn with shared read access to userID's ledger.
func (s *MemoryStore) View(userID string, fn func(s *Snapshot) error) error {
	l := s.partition(userID)
	l.mu.RLock()
	defer l.mu.RUnlock()

	return fn(&Snapshot{store: s, userID: userID, ledger: l})
}

// Summary returns the dashboard summary for userID.
func (s *MemoryStore) Summary(userID string) domain.GeneralSummary {
	var summary domain.GeneralSummary
	_ = s.View(userID, func(snap *Snapshot) error {
		summary = snap.GeneralSummary()
		return nil
	})
	return summary
}

// Cards returns userID's cards in creation order.
func (s *MemoryStore) Cards(userID string) []domain.Card {
	var cards []domain.Card
	_ = s.View(userID, func(snap *Snapshot) error {
		cards = snap.Cards()
		return nil
	})
	return cards
}

// CardDetail returns everything known about one of userID's cards.
func (s *MemoryStore) CardDetail(userID, cardID string) (domain.CardDetail, error) {
	var detail domain.CardDetail
	err := s.View(userID, func(snap *Snapshot) error {
		var err error
		detail, err = snap.CardDetail(cardID)
		return err
	})
	return detail, err
}

// Restore replaces userID's ledger with previously persisted cards and
// transactions and recomputes every card's projections.
func (s *MemoryStore) Restore(userID string, cards []domain.Card, txs []domain.Transaction) error {
	return s.Update(userID, func(tx *Tx) error {
		l := tx.ledger
		l.cards = l.cards[:0]
		for _, c := range cards {
			c := copyCard(c)
			c.UserID = userID
			l.cards = append(l.cards, &c)
		}
		l.transactions = append([]domain.Transaction(nil), txs...)
		l.projections = make(map[string][]domain.MonthlyProjection, len(cards))
		for _, c := range l.cards {
			tx.RecomputeProjections(c.ID)
		}
		return nil
	})
}

var _ Store = (*MemoryStore)(nil)
