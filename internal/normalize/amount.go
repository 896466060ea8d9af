// Package normalize turns locale-ambiguous statement values into canonical
// amounts and ISO dates. Nothing in here returns an error: values that cannot
// be understood degrade to a zero value the caller can default.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount converts a raw extracted amount into a float64.
//
// nil yields 0. Numbers pass through unchanged. Strings are stripped of
// everything except digits, ',', '.' and '-'; when both separators appear the
// one occurring later is the decimal point ("1.234,56" and "1,234.56" are both
// 1234.56), and a lone comma is a decimal point. Anything unparseable is 0.
func Amount(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return parseAmountString(v)
	default:
		return parseAmountString(fmt.Sprint(v))
	}
}

// OptionalAmount is Amount for fields where absence must stay distinguishable
// from zero.
func OptionalAmount(raw any) *float64 {
	if raw == nil {
		return nil
	}
	v := Amount(raw)
	return &v
}

func parseAmountString(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}
