package contracts

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the partner date format (YYYYMMDD)
	DateLayout = "20060102"
	// StampLayout is the run timestamp format used for staging indate (YYYYMMDDHHMMSS)
	StampLayout = "20060102150405"
)

// ParseDate parses YYYYMMDD into a UTC midnight date
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYYMMDD): %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date as YYYYMMDD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOnly truncates t to a UTC midnight date keeping its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped shifts t by n months, clamping the day to the target month's
// last day (Mar 31 - 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
