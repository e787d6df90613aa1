package calendar

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wonny/fossbatch/internal/contracts"
)

// Provider loads calendars from the holiday table and keeps them in memory
type Provider struct {
	repo  contracts.CalendarRepository
	cache *gocache.Cache
}

// NewProvider creates a provider over repo
func NewProvider(repo contracts.CalendarRepository) *Provider {
	return &Provider{
		repo:  repo,
		cache: gocache.New(30*time.Minute, time.Hour),
	}
}

// ForDate returns a calendar spanning the year before d through the year after it
func (p *Provider) ForDate(ctx context.Context, d time.Time) (*Calendar, error) {
	key := strconv.Itoa(d.Year())
	if cached, ok := p.cache.Get(key); ok {
		return cached.(*Calendar), nil
	}

	from := time.Date(d.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(d.Year()+1, time.December, 31, 0, 0, 0, 0, time.UTC)

	entries, err := p.repo.Load(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load holiday calendar: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no holiday rows between %s and %s: %w",
			contracts.FormatDate(from), contracts.FormatDate(to), contracts.ErrDataUnavailable)
	}

	cal := New(entries)
	p.cache.Set(key, cal, gocache.DefaultExpiration)
	return cal, nil
}

// Invalidate drops cached calendars (after a sync)
func (p *Provider) Invalidate() {
	p.cache.Flush()
}
