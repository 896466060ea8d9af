package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Accessors for the loosely typed model payload. Every read of the decoded
// JSON goes through these so type ambiguity never leaks past the coercer.

// stringField returns m[key] as a string. Non-string scalars are rendered
// with fmt; nil and missing keys report false.
func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprint(s), true
	}
}

// nonEmptyString is stringField that also treats "" as absent.
func nonEmptyString(m map[string]any, key string) (string, bool) {
	s, ok := stringField(m, key)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// stringPtr returns a pointer to m[key] when it is present and non-empty.
func stringPtr(m map[string]any, key string) *string {
	s, ok := nonEmptyString(m, key)
	if !ok {
		return nil
	}
	return &s
}

// intField returns m[key] as an int. Numbers are truncated, numeric strings
// are parsed. Booleans, empty strings and anything else report false.
func intField(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case float32:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// objectField returns m[key] when it is a JSON object.
func objectField(m map[string]any, key string) (map[string]any, bool) {
	obj, ok := m[key].(map[string]any)
	return obj, ok
}

// sliceField returns m[key] when it is a JSON array.
func sliceField(m map[string]any, key string) ([]any, bool) {
	s, ok := m[key].([]any)
	return s, ok
}
