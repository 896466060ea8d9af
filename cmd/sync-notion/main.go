package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/card-ledger/internal/app"
	"github.com/dvloznov/card-ledger/internal/config"
	"github.com/dvloznov/card-ledger/internal/logger"
	"github.com/dvloznov/card-ledger/internal/notionsync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logger
	log := logger.NewWithOptions(cfg.LogLevel, cfg.LogFormat)

	// Parse CLI flags
	userID := flag.String("user", "", "User whose upcoming payments to sync (required)")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", cfg.NotionPaymentsDBID, "Notion database ID (or set NOTION_PAYMENTS_DB_ID env)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	if !cfg.BigQueryEnabled() {
		log.Fatal().Msg("Error: BQ_PROJECT_ID is required to read the ledger")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("user_id", *userID).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if err := a.EnsureUser(ctx, *userID); err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	stats, err := notionsync.SyncUpcomingPayments(ctx, a.Store, notionClient, *notionDBID, *userID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		stats.Created, stats.Updated, stats.Archived, stats.Failed)
}
