// Package period derives reporting windows from the current date.
package period

import (
	"time"

	"cloudalloc/internal/errors"
)

// DataLatencyDays is how long usage can take to fully appear upstream.
// Partial-month windows end this many days before today.
const DataLatencyDays = 2

// Period is one reporting window
type Period struct {
	// Start is the first day of the window
	Start time.Time `json:"start"`

	// End is the last day of the window, inclusive
	End time.Time `json:"end"`

	// FullMonth is true when the window covers a complete calendar month
	FullMonth bool `json:"full_month"`

	// DaysInMonth is the day count of the window's calendar month
	DaysInMonth int `json:"days_in_month"`

	// DaysObserved is the number of days the window actually covers
	DaysObserved int `json:"days_observed"`
}

// PreviousMonth returns the full calendar month before now
func PreviousMonth(now time.Time) Period {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastOfPrev := firstOfMonth.AddDate(0, 0, -1)
	start := time.Date(lastOfPrev.Year(), lastOfPrev.Month(), 1, 0, 0, 0, 0, now.Location())

	return Period{
		Start:        start,
		End:          lastOfPrev,
		FullMonth:    true,
		DaysInMonth:  lastOfPrev.Day(),
		DaysObserved: lastOfPrev.Day(),
	}
}

// CurrentMonthToDate returns the in-progress month up to the latest day with
// reliable data. Accrual normalization needs at least two observed days, so
// very early in the month no partial window exists yet.
func CurrentMonthToDate(now time.Time) (Period, error) {
	limit := now.Day() - DataLatencyDays
	if limit < 2 {
		return Period{}, errors.Input("not enough observed days yet for a current-month window")
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	return Period{
		Start:        start,
		End:          start.AddDate(0, 0, limit-1),
		FullMonth:    false,
		DaysInMonth:  daysInMonth(now),
		DaysObserved: limit,
	}, nil
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}
