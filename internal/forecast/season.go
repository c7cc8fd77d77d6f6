package forecast

import (
	"fmt"
	"time"
)

// MonthDay is a calendar date without a year, e.g. "10-15".
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses an "MM-DD" string.
func ParseMonthDay(value string) (MonthDay, error) {
	t, err := time.Parse("01-02", value)
	if err != nil {
		return MonthDay{}, fmt.Errorf("parse month-day %q: %w", value, err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

func (m MonthDay) ordinal() int {
	return int(m.Month)*100 + m.Day
}

// SeasonWindow bounds the part of the year during which cold protection is active.
// A window whose start is after its end wraps the year boundary (e.g. 10-15..05-15).
type SeasonWindow struct {
	Start MonthDay
	End   MonthDay
	// Location is the timezone in which the month-day comparison happens.
	Location *time.Location
}

// ParseSeasonWindow builds a window from "MM-DD" bounds.
func ParseSeasonWindow(start, end string, loc *time.Location) (SeasonWindow, error) {
	s, err := ParseMonthDay(start)
	if err != nil {
		return SeasonWindow{}, err
	}
	e, err := ParseMonthDay(end)
	if err != nil {
		return SeasonWindow{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return SeasonWindow{Start: s, End: e, Location: loc}, nil
}

// Contains reports whether t falls inside the season, bounds inclusive. A window
// without a location compares in UTC.
func (w SeasonWindow) Contains(t time.Time) bool {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := MonthDay{Month: local.Month(), Day: local.Day()}.ordinal()
	start, end := w.Start.ordinal(), w.End.ordinal()

	if start <= end {
		return day >= start && day <= end
	}
	// wraps the new year
	return day >= start || day <= end
}
