// Package api wires the HTTP handlers and middleware into one handler.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/card-ledger/internal/api/handlers"
	"github.com/dvloznov/card-ledger/internal/api/middleware"
	"github.com/dvloznov/card-ledger/internal/jobs"
	"github.com/dvloznov/card-ledger/internal/logger"
	"github.com/rs/zerolog"
)

// Hydrator makes sure a user's ledger is in memory before it is served.
type Hydrator interface {
	Ensure(ctx context.Context, userID string) error
}

// Deps are the services behind the HTTP surface. Publisher and Hydrator
// may be nil.
type Deps struct {
	Ledger    handlers.LedgerReader
	Ingestor  handlers.StatementIngestor
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	Advisor   handlers.Advisor
	Hydrator  Hydrator
}

// NewRouter builds the service handler.
func NewRouter(deps Deps, log zerolog.Logger) http.Handler {
	cardsHandler := handlers.NewCardsHandler(deps.Ledger)
	statementsHandler := handlers.NewStatementsHandler(deps.Ingestor, deps.Publisher)
	jobsHandler := handlers.NewJobsHandler(deps.Jobs)
	chatHandler := handlers.NewChatHandler(deps.Advisor)

	apiMux := http.NewServeMux()

	// Dashboard endpoints
	apiMux.HandleFunc("/api/summary", method(http.MethodGet, cardsHandler.Summary))
	apiMux.HandleFunc("/api/cards", method(http.MethodGet, cardsHandler.ListCards))
	apiMux.HandleFunc("/api/cards/", method(http.MethodGet, withID("/api/cards/", "Card ID", cardsHandler.GetCard)))

	// Statement endpoints
	apiMux.HandleFunc("/api/statements", method(http.MethodPost, statementsHandler.Upload))
	apiMux.HandleFunc("/api/statements/async", method(http.MethodPost, statementsHandler.UploadAsync))

	// Jobs endpoints
	apiMux.HandleFunc("/api/jobs", method(http.MethodGet, jobsHandler.ListJobs))
	apiMux.HandleFunc("/api/jobs/", method(http.MethodGet, withID("/api/jobs/", "Job ID", jobsHandler.GetJob)))

	// Chat endpoints
	apiMux.HandleFunc("/api/chat/ask", method(http.MethodPost, chatHandler.Ask))
	apiMux.HandleFunc("/api/chat/stream", method(http.MethodPost, chatHandler.Stream))

	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.Auth(hydrate(deps.Hydrator, apiMux)))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.RequestID(
		middleware.Logger(log)(
			middleware.Recovery(log)(
				middleware.CORS(mux),
			),
		),
	)
}

func method(allowed string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != allowed {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

func withID(prefix, name string, h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusBadRequest, name+" is required")
			return
		}
		h(w, r, id)
	}
}

func hydrate(h Hydrator, next http.Handler) http.Handler {
	if h == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := h.Ensure(ctx, middleware.UserIDFromContext(ctx)); err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Msg("Failed to load ledger")
			middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to load ledger")
			return
		}
		next.ServeHTTP(w, r)
	})
}
