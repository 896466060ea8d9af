package notionsync

import (
	"context"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/jomei/notionapi"
)

// NotionService is the part of the Notion API the payment sync uses.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// ArchivePage moves a page to the trash.
	ArchivePage(ctx context.Context, pageID string) error
}

// LedgerReader is the read side of the ledger the sync exports from.
type LedgerReader interface {
	Summary(userID string) domain.GeneralSummary
	CardDetail(userID, cardID string) (domain.CardDetail, error)
}
