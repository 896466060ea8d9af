package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	calls atomic.Int32
	err   error
	cards []domain.Card

	// block holds LoadLedger for a user until the channel is closed
	block map[string]chan struct{}
}

func (l *stubLoader) LoadLedger(ctx context.Context, userID string) ([]domain.Card, []domain.Transaction, error) {
	l.calls.Add(1)
	if ch, ok := l.block[userID]; ok {
		<-ch
	}
	if l.err != nil {
		return nil, nil, l.err
	}
	return l.cards, nil, nil
}

func TestHydrator_LoadsOncePerUser(t *testing.T) {
	s := newTestStore()
	loader := &stubLoader{cards: []domain.Card{{ID: "card-a", Name: "Oro", Last4: "5555", Balance: 250, DueDateDay: 3}}}
	h := NewHydrator(s, loader)

	require.NoError(t, h.Ensure(context.Background(), "user-1"))
	require.NoError(t, h.Ensure(context.Background(), "user-1"))
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Len(t, s.Cards("user-1"), 1)

	require.NoError(t, h.Ensure(context.Background(), "user-2"))
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestHydrator_RetriesAfterFailure(t *testing.T) {
	s := newTestStore()
	boom := errors.New("bigquery unavailable")
	loader := &stubLoader{err: boom}
	h := NewHydrator(s, loader)

	assert.ErrorIs(t, h.Ensure(context.Background(), "user-1"), boom)

	loader.err = nil
	require.NoError(t, h.Ensure(context.Background(), "user-1"))
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestHydrator_SlowUserDoesNotBlockOthers(t *testing.T) {
	s := newTestStore()
	release := make(chan struct{})
	loader := &stubLoader{block: map[string]chan struct{}{"slow": release}}
	h := NewHydrator(s, loader)

	require.NoError(t, h.Ensure(context.Background(), "fast"))

	slowDone := make(chan error, 1)
	go func() { slowDone <- h.Ensure(context.Background(), "slow") }()
	require.Eventually(t, func() bool { return loader.calls.Load() == 2 }, time.Second, time.Millisecond)

	// an already-loaded user and a new user both finish while "slow" is stuck
	done := make(chan error, 2)
	go func() { done <- h.Ensure(context.Background(), "fast") }()
	go func() { done <- h.Ensure(context.Background(), "other") }()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Ensure blocked behind another user's load")
		}
	}

	close(release)
	require.NoError(t, <-slowDone)
}

func TestHydrator_WaiterHonoursContext(t *testing.T) {
	s := newTestStore()
	release := make(chan struct{})
	defer close(release)
	loader := &stubLoader{block: map[string]chan struct{}{"slow": release}}
	h := NewHydrator(s, loader)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := h.Ensure(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestHydrator_ConcurrentCallersShareOneLoad(t *testing.T) {
	s := newTestStore()
	release := make(chan struct{})
	loader := &stubLoader{
		cards: []domain.Card{{ID: "card-a", Name: "Oro", Last4: "5555", Balance: 250, DueDateDay: 3}},
		block: map[string]chan struct{}{"user-1": release},
	}
	h := NewHydrator(s, loader)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.Ensure(context.Background(), "user-1")
		}()
	}
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Len(t, s.Cards("user-1"), 1)
}
