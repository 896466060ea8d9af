package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical date layout used throughout the ledger.
const ISODate = "2006-01-02"

// isoLenient accepts ISO dates with or without zero padding.
const isoLenient = "2006-1-2"

// localeLayouts are tried in order after ISO. Day-first wins over
// month-first for ambiguous inputs such as 01/02/2025.
var localeLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"1/2/2006",
	"1-2-2006",
}

var spanishMonths = map[string]time.Month{
	"ENE": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"ABR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AGO": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DIC": time.December,
}

var dayMonthPattern = regexp.MustCompile(`^(\d{1,2})\s+([A-ZÁÉÍÓÚÑ]+)$`)

// yearHintKeys lists the summary fields consulted for a year, by priority.
var yearHintKeys = []string{"cutoff_date", "period_end", "due_date", "period_start"}

// Date converts a raw statement date into ISO form. It understands ISO
// dates, day/month/year and month/day/year with '/', '-' or '.', and
// "12 OCT" style dates with a Spanish month abbreviation when cutoffYear is
// positive. The second return value is false when nothing matched.
func Date(raw string, cutoffYear int) (string, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return "", false
	}

	if t, err := time.Parse(isoLenient, v); err == nil {
		return t.Format(ISODate), true
	}

	for _, layout := range localeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(ISODate), true
		}
	}

	if cutoffYear <= 0 {
		return "", false
	}
	m := dayMonthPattern.FindStringSubmatch(v)
	if m == nil {
		return "", false
	}
	month, ok := spanishMonths[m[2]]
	if !ok {
		return "", false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	t := time.Date(cutoffYear, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return "", false
	}
	return t.Format(ISODate), true
}

// DateOr is Date with a fallback for unrecognised input.
func DateOr(raw string, cutoffYear int, fallback string) string {
	if d, ok := Date(raw, cutoffYear); ok {
		return d
	}
	return fallback
}

// ParseISO parses an ISO date, tolerating missing zero padding.
func ParseISO(s string) (time.Time, bool) {
	t, err := time.Parse(isoLenient, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// YearHint returns the year of the first of cutoff_date, period_end,
// due_date and period_start that parses as an ISO date, or 0.
func YearHint(summary map[string]any) int {
	for _, key := range yearHintKeys {
		s, ok := summary[key].(string)
		if !ok || s == "" {
			continue
		}
		if t, ok := ParseISO(s); ok {
			return t.Year()
		}
	}
	return 0
}

// DayOfMonth returns the integer after the last '-' of an ISO-like date.
func DayOfMonth(date string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(date), "-")
	day, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, false
	}
	return day, true
}

// Today returns now's calendar date in UTC as an ISO string.
func Today(now time.Time) string {
	return now.UTC().Format(ISODate)
}
