package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/card-ledger/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Loader reads a user's persisted cards and transactions.
type Loader interface {
	LoadLedger(ctx context.Context, userID string) ([]domain.Card, []domain.Transaction, error)
}

// Hydrator restores each user's ledger from a Loader the first time the
// user is seen. A failed load is retried on the next call.
//
// Loads for different users run independently; concurrent callers for the
// same user share one load.
type Hydrator struct {
	store  *MemoryStore
	loader Loader
	group  singleflight.Group

	mu     sync.Mutex
	loaded map[string]bool
}

// NewHydrator creates a Hydrator that fills store from loader.
func NewHydrator(store *MemoryStore, loader Loader) *Hydrator {
	return &Hydrator{store: store, loader: loader, loaded: make(map[string]bool)}
}

// Ensure loads userID's ledger unless it was loaded before. It returns
// ctx.Err() if ctx ends while the load is still running; the load itself
// carries on for the other callers.
func (h *Hydrator) Ensure(ctx context.Context, userID string) error {
	if h.isLoaded(userID) {
		return nil
	}

	// detached so one caller giving up does not fail the shared load
	loadCtx := context.WithoutCancel(ctx)
	ch := h.group.DoChan(userID, func() (any, error) {
		if h.isLoaded(userID) {
			return nil, nil
		}
		return nil, h.load(loadCtx, userID)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hydrator) load(ctx context.Context, userID string) error {
	cards, txs, err := h.loader.LoadLedger(ctx, userID)
	if err != nil {
		return fmt.Errorf("Ensure: load ledger: %w", err)
	}
	if err := h.store.Restore(userID, cards, txs); err != nil {
		return fmt.Errorf("Ensure: restore ledger: %w", err)
	}

	h.mu.Lock()
	h.loaded[userID] = true
	h.mu.Unlock()
	return nil
}

func (h *Hydrator) isLoaded(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded[userID]
}
