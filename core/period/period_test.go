package period

import (
	"testing"
	"time"

	"cloudalloc/internal/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantDays  int
	}{
		{date(2024, time.March, 15), date(2024, time.February, 1), date(2024, time.February, 29), 29},
		{date(2024, time.January, 2), date(2023, time.December, 1), date(2023, time.December, 31), 31},
		{date(2023, time.March, 1), date(2023, time.February, 1), date(2023, time.February, 28), 28},
	}

	for _, tt := range tests {
		p := PreviousMonth(tt.now)
		if !p.Start.Equal(tt.wantStart) || !p.End.Equal(tt.wantEnd) {
			t.Errorf("PreviousMonth(%v) = %v..%v, want %v..%v", tt.now, p.Start, p.End, tt.wantStart, tt.wantEnd)
		}
		if !p.FullMonth {
			t.Errorf("PreviousMonth(%v) not marked full month", tt.now)
		}
		if p.DaysInMonth != tt.wantDays || p.DaysObserved != tt.wantDays {
			t.Errorf("PreviousMonth(%v) days = %d/%d, want %d", tt.now, p.DaysObserved, p.DaysInMonth, tt.wantDays)
		}
	}
}

func TestCurrentMonthToDate(t *testing.T) {
	// On the 23rd the window ends on the 21st: the last two days of data
	// are still incomplete upstream.
	p, err := CurrentMonthToDate(date(2024, time.April, 23))
	if err != nil {
		t.Fatalf("CurrentMonthToDate: %v", err)
	}

	if !p.Start.Equal(date(2024, time.April, 1)) {
		t.Errorf("start = %v, want April 1", p.Start)
	}
	if !p.End.Equal(date(2024, time.April, 21)) {
		t.Errorf("end = %v, want April 21", p.End)
	}
	if p.FullMonth {
		t.Error("current month window marked full month")
	}
	if p.DaysObserved != 21 {
		t.Errorf("days observed = %d, want 21", p.DaysObserved)
	}
	if p.DaysInMonth != 30 {
		t.Errorf("days in month = %d, want 30", p.DaysInMonth)
	}
}

// TestCurrentMonthTooEarly checks the window is refused before two reliable
// days of data exist.
func TestCurrentMonthTooEarly(t *testing.T) {
	for day := 1; day <= 3; day++ {
		_, err := CurrentMonthToDate(date(2024, time.April, day))
		if err == nil {
			t.Errorf("day %d: expected input error", day)
			continue
		}
		if !errors.IsType(err, errors.TypeInput) {
			t.Errorf("day %d: error type = %v, want input error", day, err)
		}
	}

	if _, err := CurrentMonthToDate(date(2024, time.April, 4)); err != nil {
		t.Errorf("day 4: unexpected error %v", err)
	}
}
