// Package advisor answers questions about a user's cards with a Gemini
// model, grounding every answer in the user's ledger.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/logger"
	"google.golang.org/genai"
)

// NoCardsReply is returned instead of asking the model when the user has
// no cards yet.
const NoCardsReply = "No tienes tarjetas registradas. Por favor, carga un estado de cuenta primero."

// emptyReply stands in for a model answer without text.
const emptyReply = "No pude procesar tu pregunta. Por favor intenta de nuevo."

// ErrAdvisorDisabled is returned when no model credentials are configured.
var ErrAdvisorDisabled = errors.New("finance advisor disabled")

// Answer is the advisor's reply to one question.
type Answer struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	ContextCards int    `json:"context_cards"`
}

// LedgerReader is the read side of the ledger the advisor consults.
type LedgerReader interface {
	Summary(userID string) domain.GeneralSummary
	CardDetail(userID, cardID string) (domain.CardDetail, error)
}

// chatModel is the slice of the genai models service the advisor uses.
type chatModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiAdvisor answers finance questions with a Gemini model.
type GeminiAdvisor struct {
	models chatModel
	model  string
	ledger LedgerReader
}

// NewGeminiAdvisor creates a GeminiAdvisor backed by the Gemini API.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string, ledger LedgerReader) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiAdvisor: create genai client: %w", err)
	}
	return newGeminiAdvisor(client.Models, model, ledger), nil
}

func newGeminiAdvisor(models chatModel, model string, ledger LedgerReader) *GeminiAdvisor {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiAdvisor{models: models, model: model, ledger: ledger}
}

// Ask answers question for userID in one response.
func (a *GeminiAdvisor) Ask(ctx context.Context, userID, question string) (Answer, error) {
	prompt, cards, err := a.prompt(userID, question)
	if err != nil {
		return Answer{}, err
	}
	if cards == 0 {
		return Answer{Role: "assistant", Content: NoCardsReply}, nil
	}

	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(prompt), nil)
	if err != nil {
		return Answer{}, fmt.Errorf("Ask: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		text = emptyReply
	}
	return Answer{Role: "assistant", Content: text, ContextCards: cards}, nil
}

// Stream answers question for userID, passing each chunk of the answer to
// emit as it arrives. A failing emit stops the stream.
func (a *GeminiAdvisor) Stream(ctx context.Context, userID, question string, emit func(chunk string) error) error {
	prompt, cards, err := a.prompt(userID, question)
	if err != nil {
		return err
	}
	if cards == 0 {
		return emit(NoCardsReply)
	}

	log := logger.FromContext(ctx)
	chunks := 0
	for resp, err := range a.models.GenerateContentStream(ctx, a.model, genai.Text(prompt), nil) {
		if err != nil {
			return fmt.Errorf("Stream: generate content: %w", err)
		}
		if resp == nil {
			continue
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if err := emit(text); err != nil {
			return fmt.Errorf("Stream: emit: %w", err)
		}
		chunks++
	}
	log.Debug().Str("user_id", userID).Int("chunks", chunks).Msg("Chat stream finished")
	return nil
}

// prompt builds the chat prompt and reports how many cards it covers.
func (a *GeminiAdvisor) prompt(userID, question string) (string, int, error) {
	summary := a.ledger.Summary(userID)
	if len(summary.Cards) == 0 {
		return "", 0, nil
	}

	txs := make(map[string][]domain.Transaction, len(summary.Cards))
	for _, card := range summary.Cards {
		detail, err := a.ledger.CardDetail(userID, card.ID)
		if err != nil {
			return "", 0, fmt.Errorf("prompt: card %s: %w", card.ID, err)
		}
		txs[card.ID] = detail.Transactions
	}
	return chatPrompt(BuildContext(summary, txs), question), len(summary.Cards), nil
}

// DisabledAdvisor stands in for GeminiAdvisor when no API key is set.
type DisabledAdvisor struct{}

// Ask always fails with ErrAdvisorDisabled.
func (DisabledAdvisor) Ask(context.Context, string, string) (Answer, error) {
	return Answer{}, ErrAdvisorDisabled
}

// Stream always fails with ErrAdvisorDisabled.
func (DisabledAdvisor) Stream(context.Context, string, string, func(string) error) error {
	return ErrAdvisorDisabled
}
