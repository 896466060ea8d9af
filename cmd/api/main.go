package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/card-ledger/internal/advisor"
	"github.com/dvloznov/card-ledger/internal/api"
	"github.com/dvloznov/card-ledger/internal/api/handlers"
	"github.com/dvloznov/card-ledger/internal/app"
	"github.com/dvloznov/card-ledger/internal/config"
	"github.com/dvloznov/card-ledger/internal/jobs"
	"github.com/dvloznov/card-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/card-ledger/internal/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.NewWithOptions(cfg.LogLevel, cfg.LogFormat)
	ctx := logger.WithContext(context.Background(), log)

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer application.Close()

	var chat handlers.Advisor = advisor.DisabledAdvisor{}
	if cfg.ExtractionEnabled() {
		gemini, err := advisor.NewGeminiAdvisor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, application.Store)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create advisor")
		}
		chat = gemini
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobBuffer, jobStore, inmemory.WithWorkers(cfg.JobWorkers))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	ingest := jobs.IngestHandler(application.Ingestor)
	jobHandler := func(ctx context.Context, job *jobs.IngestStatementJob) error {
		if err := application.EnsureUser(ctx, job.UserID); err != nil {
			return err
		}
		return ingest(ctx, job)
	}

	log.Info().Int("workers", cfg.JobWorkers).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	deps := api.Deps{
		Ledger:   application.Store,
		Ingestor: application.Ingestor,
		Jobs:     jobStore,
		Advisor:  chat,
	}
	if application.Ingestor.CanArchive() {
		deps.Publisher = jobQueue
	}
	if application.Hydrator != nil {
		deps.Hydrator = application.Hydrator
	}

	// Create HTTP server
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.NewRouter(deps, log),
		ReadTimeout: 30 * time.Second,
		// extraction and streamed chat answers can take a while
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
