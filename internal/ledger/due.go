package ledger

import (
	"time"

	"github.com/dvloznov/card-ledger/internal/normalize"
)

// NextDueDate returns the soonest upcoming occurrence of dueDay as an ISO
// date. When today is already on or past dueDay the date rolls into next
// month, and a dueDay beyond the end of that month lands on its last day.
func NextDueDate(today time.Time, dueDay int) string {
	today = today.UTC()
	year, month := today.Year(), today.Month()
	if today.Day() >= dueDay {
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}

	day := dueDay
	if last := daysIn(year, month); day < 1 || day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(normalize.ISODate)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
