package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
)

// Calendar answers trading-day questions over a loaded range of holiday entries.
// It holds no mutable state after construction.
// ⭐ SSOT: 영업일 계산은 여기서만
type Calendar struct {
	holidays map[string]bool
	first    time.Time
	last     time.Time
}

// New builds a calendar from entries; coverage is [min date, max date]
func New(entries []contracts.CalendarEntry) *Calendar {
	c := &Calendar{holidays: make(map[string]bool, len(entries))}
	for i, e := range entries {
		d := contracts.DateOnly(e.Date)
		c.holidays[contracts.FormatDate(d)] = e.IsHoliday
		if i == 0 || d.Before(c.first) {
			c.first = d
		}
		if i == 0 || d.After(c.last) {
			c.last = d
		}
	}
	return c
}

// Range returns the first and last covered dates
func (c *Calendar) Range() (time.Time, time.Time) {
	return c.first, c.last
}

// Covers reports whether d lies inside the loaded range
func (c *Calendar) Covers(d time.Time) bool {
	if len(c.holidays) == 0 {
		return false
	}
	d = contracts.DateOnly(d)
	return !d.Before(c.first) && !d.After(c.last)
}

// IsTradingDay is true iff d is Mon-Fri and not a listed holiday
func (c *Calendar) IsTradingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.holidays[contracts.FormatDate(d)]
}

// MostRecentTradingDayBefore resolves the fund base date for d.
//
// On a trading day it returns the first trading day strictly before d.
// On a weekend or holiday it skips one trading day and returns the second
// one found walking back (기준가 반영 지연).
func (c *Calendar) MostRecentTradingDayBefore(d time.Time) (time.Time, error) {
	d = contracts.DateOnly(d)
	if !c.Covers(d) {
		return time.Time{}, c.unavailable(d)
	}

	want := 1
	if !c.IsTradingDay(d) {
		want = 2
	}

	found := 0
	for day := d.AddDate(0, 0, -1); ; day = day.AddDate(0, 0, -1) {
		if !c.Covers(day) {
			return time.Time{}, c.unavailable(day)
		}
		if !c.IsTradingDay(day) {
			continue
		}
		found++
		if found == want {
			return day, nil
		}
	}
}

// NthTradingDayOfQuarterMonthOnOrAfter returns the earliest date >= d that is the
// n-th trading day of January, April, July or October. Ordinals count from the
// first of each month. ok is false when no such date exists in the loaded range.
func (c *Calendar) NthTradingDayOfQuarterMonthOnOrAfter(d time.Time, n int) (time.Time, bool, error) {
	if n < 1 {
		return time.Time{}, false, fmt.Errorf("ordinal must be positive, got %d", n)
	}

	d = contracts.DateOnly(d)
	monthStart := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	if !c.Covers(d) || monthStart.Before(c.first) {
		return time.Time{}, false, c.unavailable(d)
	}

	for month := monthStart; !month.After(c.last); month = month.AddDate(0, 1, 0) {
		if !isQuarterStart(month.Month()) {
			continue
		}

		ordinal := 0
		for day := month; day.Month() == month.Month() && !day.After(c.last); day = day.AddDate(0, 0, 1) {
			if !c.IsTradingDay(day) {
				continue
			}
			ordinal++
			if ordinal == n {
				if !day.Before(d) {
					return day, true, nil
				}
				break
			}
		}
	}

	return time.Time{}, false, nil
}

// TradingDaysBetween lists trading days in [from, to] within coverage
func (c *Calendar) TradingDaysBetween(from, to time.Time) []time.Time {
	var days []time.Time
	for day := contracts.DateOnly(from); !day.After(to); day = day.AddDate(0, 0, 1) {
		if c.Covers(day) && c.IsTradingDay(day) {
			days = append(days, day)
		}
	}
	return days
}

// Holidays returns the listed non-weekend holidays in ascending order
func (c *Calendar) Holidays() []time.Time {
	var out []time.Time
	for key, isHoliday := range c.holidays {
		if !isHoliday {
			continue
		}
		d, err := contracts.ParseDate(key)
		if err != nil {
			continue
		}
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (c *Calendar) unavailable(d time.Time) error {
	if len(c.holidays) == 0 {
		return fmt.Errorf("holiday calendar is empty: %w", contracts.ErrDataUnavailable)
	}
	return fmt.Errorf("holiday calendar covers %s..%s, not %s: %w",
		contracts.FormatDate(c.first), contracts.FormatDate(c.last), contracts.FormatDate(d),
		contracts.ErrDataUnavailable)
}

func isQuarterStart(m time.Month) bool {
	return m == time.January || m == time.April || m == time.July || m == time.October
}

// BuildYear expands a holiday list into one entry per date of the year.
// Weekends and listed holidays are marked as holidays.
func BuildYear(year int, listed map[string]string) []contracts.CalendarEntry {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]contracts.CalendarEntry, 0, 366)
	for day := start; day.Year() == year; day = day.AddDate(0, 0, 1) {
		key := contracts.FormatDate(day)
		name, isListed := listed[key]
		weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
		entries = append(entries, contracts.CalendarEntry{
			Date:      day,
			IsHoliday: isListed || weekend,
			Name:      name,
		})
	}
	return entries
}
