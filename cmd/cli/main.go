package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/card-ledger/internal/app"
	"github.com/dvloznov/card-ledger/internal/config"
	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/gcsuploader"
	"github.com/dvloznov/card-ledger/internal/logger"
	"github.com/dvloznov/card-ledger/internal/pipeline"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(cfg.LogLevel, cfg.LogFormat)

	switch os.Args[1] {
	case "ingest":
		runIngest(cfg, log)
	case "upload":
		runUpload(log)
	case "reparse":
		runReparse(cfg, log)
	case "project":
		runProject(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Card Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest    Read a local statement (PDF or image) into a user's ledger")
	fmt.Println("  upload    Upload a statement file to GCS")
	fmt.Println("  reparse   Re-ingest a statement already stored in GCS")
	fmt.Println("  project   Print a user's cards and six-month projections")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, userID string) *app.App {
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	if err := a.EnsureUser(ctx, userID); err != nil {
		a.Close()
		log.Fatal().Err(err).Str("user_id", userID).Msg("Failed to load ledger")
	}
	return a
}

func runIngest(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	userID := fs.String("user", "", "User the statement belongs to")
	filePath := fs.String("file", "", "Path to the statement file")
	mimeType := fs.String("mime", "", "MIME type (derived from the extension when empty)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli ingest -user ID -file PATH")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := newApp(ctx, cfg, log, *userID)
	defer a.Close()

	filename := filepath.Base(*filePath)
	mime := pipeline.ContentType(filename, *mimeType)

	log.Info().Str("file", *filePath).Str("user_id", *userID).Msg("Starting ingestion")

	result, err := a.Ingestor.Upload(ctx, pipeline.UploadRequest{
		UserID:   *userID,
		Filename: filename,
		MIMEType: mime,
		Data:     data,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	printResult(a, *userID, result, log)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name (or set GCS_BUCKET env)")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local statement file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	storage, err := gcsuploader.NewGCSStorageService(ctx, *bucketName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := storage.UploadFile(ctx, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, gcsuploader.BuildGCSURI(*bucketName, *objectName))
}

func runReparse(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("reparse", flag.ExitOnError)
	userID := fs.String("user", "", "User the statement belongs to")
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the statement")
	mimeType := fs.String("mime", "", "MIME type (derived from the object name when empty)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *gcsURI == "" {
		log.Fatal().Msg("Usage: cli reparse -user ID -gcs-uri gs://bucket/object")
	}
	if _, _, err := gcsuploader.ParseGCSURI(*gcsURI); err != nil {
		log.Fatal().Err(err).Msg("Invalid GCS URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := newApp(ctx, cfg, log, *userID)
	defer a.Close()

	if !a.Ingestor.CanArchive() {
		log.Fatal().Msg("GCS_BUCKET must be set to read archived statements")
	}

	log.Info().Str("gcs_uri", *gcsURI).Msg("Re-parsing statement")

	mime := pipeline.ContentType(gcsuploader.ExtractFilenameFromGCSURI(*gcsURI), *mimeType)
	result, err := a.Ingestor.IngestFromGCS(ctx, *userID, *gcsURI, mime)
	if err != nil {
		log.Fatal().Err(err).Msg("Re-parse failed")
	}

	printResult(a, *userID, result, log)
}

func runProject(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	userID := fs.String("user", "", "User whose ledger to project")
	write := fs.Bool("write", false, "Store the recomputed projections in BigQuery")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Usage: cli project -user ID [-write]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := newApp(ctx, cfg, log, *userID)
	defer a.Close()

	if a.Repository == nil {
		log.Warn().Msg("BQ_PROJECT_ID not set - projecting an empty ledger")
	}

	summary := a.Store.Summary(*userID)
	fmt.Printf("\n=== %s: %d card(s), total debt %.2f ===\n", *userID, len(summary.Cards), summary.TotalDebt)

	for _, card := range a.Store.Cards(*userID) {
		detail, err := a.Store.CardDetail(*userID, card.ID)
		if err != nil {
			log.Fatal().Err(err).Str("card_id", card.ID).Msg("Failed to load card")
		}
		printProjections(detail)

		if *write && a.Repository != nil {
			if err := a.Repository.ReplaceProjections(ctx, detail.Card, detail.Projections); err != nil {
				log.Fatal().Err(err).Str("card_id", card.ID).Msg("Failed to store projections")
			}
		}
	}
	fmt.Println()
}

// printResult writes the upload result and the card's new projections as
// JSON.
func printResult(a *app.App, userID string, result *domain.UploadResult, log zerolog.Logger) {
	out := struct {
		Result      *domain.UploadResult       `json:"result"`
		Projections []domain.MonthlyProjection `json:"projections"`
	}{Result: result}

	if detail, err := a.Store.CardDetail(userID, result.CardID); err == nil {
		out.Projections = detail.Projections
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func printProjections(detail domain.CardDetail) {
	c := detail.Card
	fmt.Printf("\n%s (%s)  balance %.2f  due day %d  %d transaction(s)\n",
		c.Name, c.Last4, c.Balance, c.DueDateDay, len(detail.Transactions))
	fmt.Printf("  %-8s %12s %12s %12s %12s\n", "Month", "Balance", "Minimum", "No interest", "Total debt")
	for _, p := range detail.Projections {
		fmt.Printf("  %-8s %12.2f %12.2f %12.2f %12.2f\n",
			p.Month, p.ProjectedBalance, p.ProjectedMinPayment, p.NoInterestPayment, p.TotalDebt)
	}
}
