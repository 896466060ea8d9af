package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dvloznov/card-ledger/internal/advisor"
	"github.com/dvloznov/card-ledger/internal/api/middleware"
	"github.com/dvloznov/card-ledger/internal/logger"
)

// ChatHandler answers finance questions about the user's cards.
type ChatHandler struct {
	advisor Advisor
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(advisor Advisor) *ChatHandler {
	return &ChatHandler{advisor: advisor}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Ask handles POST /api/chat/ask
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	question, ok := readQuestion(w, r)
	if !ok {
		return
	}

	answer, err := h.advisor.Ask(ctx, middleware.UserIDFromContext(ctx), question)
	if err != nil {
		writeAdvisorError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, answer)
}

// Stream handles POST /api/chat/stream
// The answer is written as plain text, flushed chunk by chunk.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	question, ok := readQuestion(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	started := false
	emit := func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	}

	err := h.advisor.Stream(ctx, middleware.UserIDFromContext(ctx), question, emit)
	if err == nil {
		return
	}
	if !started {
		writeAdvisorError(w, r, err)
		return
	}

	log := logger.FromContext(ctx)
	log.Warn().Err(err).Msg("Chat stream interrupted")
	io.WriteString(w, "\n\nError: no pude completar la respuesta.")
}

func readQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message is required")
		return "", false
	}
	return question, true
}

func writeAdvisorError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, advisor.ErrAdvisorDisabled) {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Chat is not configured")
		return
	}
	log := logger.FromContext(r.Context())
	log.Error().Err(err).Msg("Failed to answer chat question")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to answer question")
}
