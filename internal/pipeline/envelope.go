package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEnvelope is returned when the model response does not contain
// a JSON object.
var ErrMalformedEnvelope = errors.New("malformed model response")

// DecodePayload extracts the JSON object from a raw model response.
func DecodePayload(text string) (map[string]any, error) {
	clean := cleanModelJSON(text)
	if clean == "" {
		return nil, fmt.Errorf("DecodePayload: empty response: %w", ErrMalformedEnvelope)
	}
	if strings.HasPrefix(clean, "[") {
		return nil, fmt.Errorf("DecodePayload: top-level array: %w", ErrMalformedEnvelope)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("DecodePayload: unmarshal JSON: %v: %w", err, ErrMalformedEnvelope)
	}
	if payload == nil {
		return nil, fmt.Errorf("DecodePayload: not an object: %w", ErrMalformedEnvelope)
	}
	return payload, nil
}

// cleanModelJSON removes Markdown code fences and any prose around the
// outermost JSON object. A response that starts with an array is returned
// unsliced.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		return s
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		s = s[start : end+1]
	}
	return s
}
