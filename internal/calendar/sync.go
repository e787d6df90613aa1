package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/external/holiday"
	"github.com/wonny/fossbatch/pkg/logger"
)

// HolidayFeed fetches public holidays for a year
type HolidayFeed interface {
	FetchYear(ctx context.Context, year int) ([]holiday.Holiday, error)
}

// EntryStore reads and persists calendar entries
type EntryStore interface {
	Load(ctx context.Context, from, to time.Time) ([]contracts.CalendarEntry, error)
	Upsert(ctx context.Context, entries []contracts.CalendarEntry) (int, error)
}

// Syncer refreshes the holiday table from the public holiday feed
type Syncer struct {
	feed   HolidayFeed
	repo   EntryStore
	logger *logger.Logger
}

// NewSyncer creates a new Syncer
func NewSyncer(feed HolidayFeed, repo EntryStore, log *logger.Logger) *Syncer {
	return &Syncer{feed: feed, repo: repo, logger: log}
}

// SyncYear writes one entry per date of year and returns the number of rows written.
// Closures already stored (12/31, 5/1 and other non public holidays) stay closed.
func (s *Syncer) SyncYear(ctx context.Context, year int) (int, error) {
	holidays, err := s.feed.FetchYear(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("fetch holidays %d: %w", year, err)
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	existing, err := s.repo.Load(ctx, from, from.AddDate(1, 0, -1))
	if err != nil {
		return 0, fmt.Errorf("load calendar %d: %w", year, err)
	}

	listed := ListedHolidays(holidays)
	entries := BuildYear(year, listed)
	kept := KeepClosures(entries, existing)

	n, err := s.repo.Upsert(ctx, entries)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(map[string]interface{}{
		"year":     year,
		"holidays": len(listed),
		"kept":     kept,
		"rows":     n,
	}).Info("Holiday calendar synced")

	return n, nil
}

// ListedHolidays keeps the feed items flagged as days off, keyed by YYYYMMDD
func ListedHolidays(items []holiday.Holiday) map[string]string {
	listed := make(map[string]string, len(items))
	for _, h := range items {
		if !h.IsHoliday {
			continue
		}
		if name, dup := listed[h.Date]; dup && name != "" {
			// 같은 날짜 중복 항목은 첫 이름 유지
			continue
		}
		listed[h.Date] = h.Name
	}
	return listed
}

// KeepClosures marks entries closed where stored already says closed, keeping
// the stored name when the feed has none. Returns how many entries changed.
func KeepClosures(entries, stored []contracts.CalendarEntry) int {
	closed := make(map[string]string)
	for _, e := range stored {
		if e.IsHoliday {
			closed[contracts.FormatDate(e.Date)] = e.Name
		}
	}

	kept := 0
	for i := range entries {
		name, ok := closed[contracts.FormatDate(entries[i].Date)]
		if !ok {
			continue
		}
		if !entries[i].IsHoliday {
			entries[i].IsHoliday = true
			kept++
		}
		if entries[i].Name == "" {
			entries[i].Name = name
		}
	}
	return kept
}
