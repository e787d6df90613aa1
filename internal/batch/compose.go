package batch

import (
	"context"
	"fmt"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/outbound"
	"github.com/wonny/fossbatch/internal/performance"
	"github.com/wonny/fossbatch/internal/rebalance"
	"github.com/wonny/fossbatch/pkg/logger"
)

// compose renders the line texts of an outbound file
func (r *Runner) compose(ctx context.Context, log *logger.Logger, s *Stores, req Request) ([]string, error) {
	authID := r.cfg.AuthID

	switch req.Process {
	case contracts.ProcessSendMPRate:
		cal, err := r.calendars.ForDate(ctx, req.TargetDate)
		if err != nil {
			return nil, err
		}
		result, err := performance.NewAggregator(s.Portfolios, s.Returns, log).Build(ctx, authID, req.TargetDate, cal)
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(result.Rows))
		for i, row := range result.Rows {
			texts[i] = outbound.MPInfoLine(result.BaseDate, row)
		}
		return texts, nil

	case contracts.ProcessSendMPList:
		holdings, err := s.Portfolios.ListLatestHoldings(ctx, authID, req.TargetDate)
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(holdings))
		for i, h := range holdings {
			texts[i] = outbound.MPFundInfoLine(h)
		}
		return texts, nil

	case contracts.ProcessSendRebalCus:
		cal, err := r.calendars.ForDate(ctx, req.TargetDate)
		if err != nil {
			return nil, err
		}
		signals, err := rebalance.NewService(s.Portfolios, s.Customers, log).Build(ctx, authID, req.TargetDate, cal, req.Override)
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(signals))
		for i, sig := range signals {
			texts[i] = outbound.RebalLine(sig)
		}
		return texts, nil

	case contracts.ProcessSendReport:
		entries, ok, err := s.Reports.LatestOnOrBefore(ctx, req.TargetDate)
		if err != nil {
			return nil, err
		}
		if !ok {
			// 당일 리포트 없음: 빈 파일 송신
			log.Info("No report for target date, sending empty file")
			return nil, nil
		}
		texts := make([]string, len(entries))
		for i, e := range entries {
			texts[i] = outbound.ReportLine(e)
		}
		return texts, nil

	case contracts.ProcessSendMPInfoEOF:
		return nil, nil
	}

	return nil, fmt.Errorf("%s: %w", req.Process, contracts.ErrInvalidProcessType)
}
