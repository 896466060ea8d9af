package pipeline

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrExtractorDisabled is returned by the extractor used when no model
// credentials are configured.
var ErrExtractorDisabled = errors.New("statement extractor disabled")

// generator is the slice of the genai models service the extractor uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor reads statements with a Gemini model.
type GeminiExtractor struct {
	models generator
	model  string
	sem    chan struct{} // limits concurrent model calls
}

// NewGeminiExtractor creates a GeminiExtractor backed by the Gemini API.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, concurrency int) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return newGeminiExtractor(client.Models, model, concurrency), nil
}

func newGeminiExtractor(models generator, model string, concurrency int) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &GeminiExtractor{
		models: models,
		model:  model,
		sem:    make(chan struct{}, concurrency),
	}
}

// Extract sends the document to the model and decodes its JSON answer. A
// response without a JSON object is retried once with a JSON-only prompt.
func (e *GeminiExtractor) Extract(ctx context.Context, data []byte, mimeType string) (map[string]any, error) {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("Extract: waiting for model slot: %w", ctx.Err())
	}
	defer func() { <-e.sem }()

	text, err := e.generate(ctx, extractionPrompt, data, mimeType)
	if err != nil {
		return nil, err
	}
	payload, err := DecodePayload(text)
	if err == nil {
		return payload, nil
	}
	if !errors.Is(err, ErrMalformedEnvelope) {
		return nil, fmt.Errorf("Extract: %w", err)
	}

	text, err = e.generate(ctx, retryPrompt, data, mimeType)
	if err != nil {
		return nil, err
	}
	payload, err = DecodePayload(text)
	if err != nil {
		return nil, fmt.Errorf("Extract: after retry: %w", err)
	}
	return payload, nil
}

func (e *GeminiExtractor) generate(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("Extract: generate content: %w", err)
	}
	return resp.Text(), nil
}

// DisabledExtractor stands in for GeminiExtractor when no API key is set.
// Every upload then receives the fallback notice.
type DisabledExtractor struct{}

// Extract always fails with ErrExtractorDisabled.
func (DisabledExtractor) Extract(context.Context, []byte, string) (map[string]any, error) {
	return nil, ErrExtractorDisabled
}

var (
	_ Extractor = (*GeminiExtractor)(nil)
	_ Extractor = DisabledExtractor{}
)
