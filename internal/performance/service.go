package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/logger"
)

// Result is the computed mp_info content
type Result struct {
	BaseDate time.Time
	Rows     []Row
}

// Aggregator computes model portfolio performance for a target date
// ⭐ SSOT: 수익률 집계는 여기서만
type Aggregator struct {
	portfolios contracts.ModelPortfolioRepository
	returns    contracts.ReturnRepository
	logger     *logger.Logger
}

// NewAggregator creates a new Aggregator
func NewAggregator(portfolios contracts.ModelPortfolioRepository, returns contracts.ReturnRepository, log *logger.Logger) *Aggregator {
	return &Aggregator{portfolios: portfolios, returns: returns, logger: log}
}

// Build resolves the base date, checks upstream completeness and aggregates.
// An incomplete return set yields ErrDataNotReady.
func (a *Aggregator) Build(ctx context.Context, authID string, targetDate time.Time, cal *calendar.Calendar) (*Result, error) {
	baseDate, err := cal.MostRecentTradingDayBefore(targetDate)
	if err != nil {
		return nil, fmt.Errorf("resolve fund base date: %w", err)
	}

	observed, err := a.returns.CountObservedPortfolios(ctx, authID, baseDate)
	if err != nil {
		return nil, err
	}
	expected, err := a.portfolios.CountLatestRebalancePortfolios(ctx, authID)
	if err != nil {
		return nil, err
	}
	if observed != expected {
		return nil, fmt.Errorf("returns for %s cover %d of %d portfolios: %w",
			contracts.FormatDate(baseDate), observed, expected, contracts.ErrDataNotReady)
	}

	defs, err := a.portfolios.ListPortfolios(ctx, authID)
	if err != nil {
		return nil, err
	}

	// "all" starts at inception, so one read covers every window
	observations, err := a.returns.ListReturns(ctx, authID, InceptionDate, baseDate)
	if err != nil {
		return nil, err
	}

	rows := Aggregate(defs, observations, BuildWindows(baseDate))

	a.logger.WithFields(map[string]interface{}{
		"base_date":    contracts.FormatDate(baseDate),
		"portfolios":   len(defs),
		"observations": len(observations),
		"rows":         len(rows),
	}).Info("Performance aggregated")

	return &Result{BaseDate: baseDate, Rows: rows}, nil
}
