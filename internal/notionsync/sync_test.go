package notionsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/ledger"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotion struct {
	pages     []notionapi.Page
	pageSize  int
	queryErr  error
	createErr error

	created  []notionapi.Properties
	updated  map[string]notionapi.Properties
	archived []string
	queries  int
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("new-%d", len(f.created)))}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if f.updated == nil {
		f.updated = make(map[string]notionapi.Properties)
	}
	f.updated[pageID] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.queries++

	size := f.pageSize
	if size == 0 {
		size = len(f.pages) + 1
	}
	start := 0
	if req.StartCursor != "" {
		fmt.Sscanf(string(req.StartCursor), "%d", &start)
	}
	end := start + size
	if end >= len(f.pages) {
		return &notionapi.DatabaseQueryResponse{Results: f.pages[start:]}, nil
	}
	return &notionapi.DatabaseQueryResponse{
		Results:    f.pages[start:end],
		HasMore:    true,
		NextCursor: notionapi.Cursor(fmt.Sprintf("%d", end)),
	}, nil
}

func (f *fakeNotion) ArchivePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

func keyedPage(id, key string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			PropPaymentKey: &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: key}},
			},
		},
	}
}

func seededLedger(t *testing.T) (*ledger.MemoryStore, domain.CardDetail) {
	t.Helper()
	now := time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)
	store := ledger.NewMemoryStore(
		ledger.WithClock(func() time.Time { return now }),
		ledger.WithIDGenerator(func() func() string {
			n := 0
			return func() string { n++; return fmt.Sprintf("id-%d", n) }
		}()),
	)

	var cardID string
	require.NoError(t, store.Update("u1", func(tx *ledger.Tx) error {
		card := tx.CreateOrUpdateCard(domain.CardInfo{
			Name:              domain.StringPtr("Oro"),
			Last4:             domain.StringPtr("4321"),
			Balance:           domain.Float64Ptr(1200),
			NoInterestPayment: domain.Float64Ptr(400),
			DueDateDay:        domain.IntPtr(31),
		})
		cardID = card.ID
		tx.AddNewTransactions(card.ID, []domain.Transaction{{
			Date: "2025-09-01", Description: "TV", Amount: 600, Type: domain.TxTypeCharge,
			InstallmentPlan: domain.IntPtr(6),
		}})
		tx.RecomputeProjections(card.ID)
		return nil
	}))

	detail, err := store.CardDetail("u1", cardID)
	require.NoError(t, err)
	return store, detail
}

func TestSyncUpcomingPayments_CreatesPages(t *testing.T) {
	store, detail := seededLedger(t)
	notion := &fakeNotion{}

	stats, err := SyncUpcomingPayments(context.Background(), store, notion, "db", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Created: domain.ProjectionMonths}, stats)
	require.Len(t, notion.created, domain.ProjectionMonths)

	first := notion.created[0]
	title := first[PropPaymentKey].(notionapi.TitleProperty)
	assert.Equal(t, PaymentKey(detail.Card.ID, detail.Projections[0].Month), title.Title[0].Text.Content)
	assert.Equal(t, notionapi.CheckboxProperty{Checkbox: true}, first[PropInstallments])
}

func TestSyncUpcomingPayments_ReconcilesExistingPages(t *testing.T) {
	store, detail := seededLedger(t)
	rows := PaymentRows(detail)

	notion := &fakeNotion{
		pageSize: 2,
		pages: []notionapi.Page{
			keyedPage("p-current", rows[0].Key),
			keyedPage("p-dup", rows[0].Key),
			keyedPage("p-stale", PaymentKey(detail.Card.ID, "2024-01")),
			{ID: "p-untitled", Properties: notionapi.Properties{}},
			keyedPage("p-second", rows[1].Key),
		},
	}

	stats, err := SyncUpcomingPayments(context.Background(), store, notion, "db", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 3, notion.queries)
	assert.Equal(t, SyncStats{Created: len(rows) - 2, Updated: 2, Archived: 3}, stats)
	assert.ElementsMatch(t, []string{"p-dup", "p-stale", "p-untitled"}, notion.archived)
	assert.Contains(t, notion.updated, "p-current")
	assert.Contains(t, notion.updated, "p-second")
}

func TestSyncUpcomingPayments_DryRun(t *testing.T) {
	store, detail := seededLedger(t)
	rows := PaymentRows(detail)
	notion := &fakeNotion{pages: []notionapi.Page{
		keyedPage("p-current", rows[0].Key),
		keyedPage("p-stale", "gone:2024-01"),
	}}

	stats, err := SyncUpcomingPayments(context.Background(), store, notion, "db", "u1", true)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Created: len(rows) - 1, Updated: 1, Archived: 1}, stats)
	assert.Empty(t, notion.created)
	assert.Empty(t, notion.updated)
	assert.Empty(t, notion.archived)
}

func TestSyncUpcomingPayments_Errors(t *testing.T) {
	store, _ := seededLedger(t)

	_, err := SyncUpcomingPayments(context.Background(), store, &fakeNotion{queryErr: errors.New("unauthorized")}, "db", "u1", false)
	assert.Error(t, err)

	notion := &fakeNotion{createErr: errors.New("rate limited")}
	stats, err := SyncUpcomingPayments(context.Background(), store, notion, "db", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectionMonths, stats.Failed)
	assert.Zero(t, stats.Created)
}

func TestSyncUpcomingPayments_NoCards(t *testing.T) {
	notion := &fakeNotion{pages: []notionapi.Page{keyedPage("p1", "old:2025-01")}}
	stats, err := SyncUpcomingPayments(context.Background(), ledger.NewMemoryStore(), notion, "db", "nobody", false)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Archived: 1}, stats)
}
