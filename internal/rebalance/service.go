package rebalance

import (
	"context"
	"time"

	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/logger"
)

// Service builds the ap_reval_yn signals for a target date
type Service struct {
	portfolios contracts.ModelPortfolioRepository
	customers  contracts.CustomerRepository
	logger     *logger.Logger
}

// NewService creates a new Service
func NewService(portfolios contracts.ModelPortfolioRepository, customers contracts.CustomerRepository, log *logger.Logger) *Service {
	return &Service{portfolios: portfolios, customers: customers, logger: log}
}

// IsRebalanceToday reports whether any portfolio of group was rebalanced on date
func (s *Service) IsRebalanceToday(ctx context.Context, authID string, date time.Time, group contracts.ProductGroup) (bool, error) {
	n, err := s.portfolios.CountRebalanceEvents(ctx, authID, date, group)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Build returns pension signals followed by general signals. When ov is set,
// listed customers are overridden and the override is recorded.
func (s *Service) Build(ctx context.Context, authID string, targetDate time.Time, cal *calendar.Calendar, ov *Override) ([]contracts.RebalancingSignal, error) {
	next, err := NewDecider(cal).NextRebalanceDate(targetDate)
	if err != nil {
		return nil, err
	}

	var signals []contracts.RebalancingSignal
	for _, group := range contracts.ProductGroups() {
		today, err := s.IsRebalanceToday(ctx, authID, targetDate, group)
		if err != nil {
			return nil, err
		}

		accounts, err := s.customers.ListAccounts(ctx, targetDate, group)
		if err != nil {
			return nil, err
		}

		built := BuildSignals(group, today, next, accounts)
		signals = append(signals, built...)

		s.logger.WithFields(map[string]interface{}{
			"product_group":   string(group),
			"rebalance_today": today,
			"customers":       len(built),
		}).Info("Rebalancing signals built")
	}

	if ov == nil {
		return signals, nil
	}

	signals, audits := ApplyManualOverride(signals, *ov, contracts.FormatDate(targetDate))
	if err := s.customers.SaveManualOverrides(ctx, audits); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"customers": ov.CustomerIDs,
		"flag":      ov.Flag,
		"date":      ov.Date,
	}).Info("Manual rebalancing applied")

	return signals, nil
}
