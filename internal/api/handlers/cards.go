package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/card-ledger/internal/api/middleware"
	"github.com/dvloznov/card-ledger/internal/ledger"
	"github.com/dvloznov/card-ledger/internal/logger"
)

// CardsHandler serves the dashboard and card endpoints.
type CardsHandler struct {
	ledger LedgerReader
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(ledger LedgerReader) *CardsHandler {
	return &CardsHandler{ledger: ledger}
}

// Summary handles GET /api/summary
func (h *CardsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, h.ledger.Summary(userID))
}

// ListCards handles GET /api/cards
func (h *CardsHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	cards := h.ledger.Cards(userID)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"cards": cards,
		"count": len(cards),
	})
}

// GetCard handles GET /api/cards/{id}
func (h *CardsHandler) GetCard(w http.ResponseWriter, r *http.Request, cardID string) {
	userID := middleware.UserIDFromContext(r.Context())

	detail, err := h.ledger.CardDetail(userID, cardID)
	if errors.Is(err, ledger.ErrCardNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Card not found")
		return
	}
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("card_id", cardID).Msg("Failed to load card")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load card")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, detail)
}
