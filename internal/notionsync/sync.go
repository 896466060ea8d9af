package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/card-ledger/internal/logger"
	"github.com/jomei/notionapi"
)

// SyncStats counts what a sync changed, or would change in a dry run.
type SyncStats struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// SyncUpcomingPayments exports every projected month of every card the user
// holds to a Notion database. Pages are keyed by "Payment Key": existing
// keys are updated in place, new ones created, and pages whose key no longer
// matches a projection are archived. Failures on single pages are logged
// and counted; only reading the database aborts the sync.
func SyncUpcomingPayments(ctx context.Context, ledger LedgerReader, notionClient NotionService, notionDBID, userID string, dryRun bool) (SyncStats, error) {
	log := logger.FromContext(ctx).With().Str("user_id", userID).Logger()
	var stats SyncStats

	log.Info().Bool("dry_run", dryRun).Msg("Starting upcoming payments sync to Notion")

	summary := ledger.Summary(userID)
	var rows []PaymentRow
	for _, card := range summary.Cards {
		detail, err := ledger.CardDetail(userID, card.ID)
		if err != nil {
			return stats, fmt.Errorf("SyncUpcomingPayments: card %s: %w", card.ID, err)
		}
		rows = append(rows, PaymentRows(detail)...)
	}

	log.Info().Int("cards", len(summary.Cards)).Int("rows", len(rows)).Msg("Built payment rows from ledger")

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return stats, fmt.Errorf("SyncUpcomingPayments: %w", err)
	}

	existing := make(map[string]string, len(pages))
	wanted := make(map[string]bool, len(rows))
	for _, row := range rows {
		wanted[row.Key] = true
	}

	for _, page := range pages {
		key := extractPaymentKey(page)
		if key != "" && wanted[key] {
			if _, dup := existing[key]; !dup {
				existing[key] = string(page.ID)
				continue
			}
		}

		if dryRun {
			log.Info().Str("payment_key", key).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			stats.Archived++
			continue
		}
		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("payment_key", key).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			stats.Failed++
			continue
		}
		stats.Archived++
	}

	for _, row := range rows {
		pageID, found := existing[row.Key]

		if dryRun {
			if found {
				log.Info().Str("payment_key", row.Key).Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				stats.Updated++
			} else {
				log.Info().Str("payment_key", row.Key).Msg("[DRY RUN] Would create Notion page")
				stats.Created++
			}
			continue
		}

		props := PaymentToNotionProperties(row)
		if found {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("payment_key", row.Key).Str("page_id", pageID).Msg("Failed to update Notion page")
				stats.Failed++
				continue
			}
			stats.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().Err(err).Str("payment_key", row.Key).Msg("Failed to create Notion page")
			stats.Failed++
			continue
		}
		log.Debug().Str("payment_key", row.Key).Str("page_id", string(page.ID)).Msg("Created Notion page")
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Upcoming payments sync completed")

	return stats, nil
}

// queryAllNotionPages queries all pages from a Notion database, following
// pagination cursors.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
