package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/logger"
)

// Result summarises one ingested file
type Result struct {
	Inserted   int64
	Dropped    int
	Duplicates int
}

// Loader ingests partner files into the inbound tables
// ⭐ SSOT: 수신 파일 적재는 여기서만
type Loader struct {
	repo   contracts.InboundRepository
	logger *logger.Logger
}

// NewLoader creates a new Loader
func NewLoader(repo contracts.InboundRepository, log *logger.Logger) *Loader {
	return &Loader{repo: repo, logger: log}
}

// Load parses content for an inbound operation and bulk-inserts it.
// A date that already has rows yields ErrDuplicateData and inserts nothing.
func (l *Loader) Load(ctx context.Context, p contracts.ProcessType, content string, tradeDate, now time.Time) (*Result, error) {
	var (
		result *Result
		err    error
	)

	switch p {
	case contracts.ProcessReceiveUniverse:
		result, err = l.loadUniverse(ctx, content, tradeDate, now)
	case contracts.ProcessReceiveAccount:
		result, err = l.loadAccounts(ctx, content, tradeDate, now)
	case contracts.ProcessReceiveCustomerFund:
		result, err = l.loadCustomerFunds(ctx, content, tradeDate, now)
	default:
		return nil, fmt.Errorf("%s is not an inbound operation: %w", p, contracts.ErrInvalidProcessType)
	}
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(map[string]interface{}{
		"file":       p.FileName(contracts.FormatDate(tradeDate)),
		"inserted":   result.Inserted,
		"dropped":    result.Dropped,
		"duplicates": result.Duplicates,
	}).Info("Partner file loaded")

	return result, nil
}

func (l *Loader) checkNotLoaded(ctx context.Context, count func(context.Context, time.Time) (int, error), p contracts.ProcessType, tradeDate time.Time) error {
	n, err := count(ctx, tradeDate)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%s already has %d rows: %w",
			p.FileName(contracts.FormatDate(tradeDate)), n, contracts.ErrDuplicateData)
	}
	return nil
}

func (l *Loader) loadUniverse(ctx context.Context, content string, tradeDate, now time.Time) (*Result, error) {
	if err := l.checkNotLoaded(ctx, l.repo.CountUniverse, contracts.ProcessReceiveUniverse, tradeDate); err != nil {
		return nil, err
	}

	parsed, err := ParseUniverse(content, tradeDate, now)
	if err != nil {
		return nil, err
	}

	n, err := l.repo.InsertUniverse(ctx, parsed.Rows)
	if err != nil {
		return nil, err
	}
	return &Result{Inserted: n, Dropped: parsed.Dropped, Duplicates: parsed.Duplicates}, nil
}

func (l *Loader) loadAccounts(ctx context.Context, content string, tradeDate, now time.Time) (*Result, error) {
	if err := l.checkNotLoaded(ctx, l.repo.CountAccounts, contracts.ProcessReceiveAccount, tradeDate); err != nil {
		return nil, err
	}

	parsed, err := ParseAccounts(content, tradeDate, now)
	if err != nil {
		return nil, err
	}

	n, err := l.repo.InsertAccounts(ctx, parsed.Rows)
	if err != nil {
		return nil, err
	}
	return &Result{Inserted: n, Dropped: parsed.Dropped, Duplicates: parsed.Duplicates}, nil
}

func (l *Loader) loadCustomerFunds(ctx context.Context, content string, tradeDate, now time.Time) (*Result, error) {
	if err := l.checkNotLoaded(ctx, l.repo.CountCustomerFunds, contracts.ProcessReceiveCustomerFund, tradeDate); err != nil {
		return nil, err
	}

	parsed, err := ParseCustomerFunds(content, tradeDate, now)
	if err != nil {
		return nil, err
	}

	n, err := l.repo.InsertCustomerFunds(ctx, parsed.Rows)
	if err != nil {
		return nil, err
	}
	return &Result{Inserted: n, Dropped: parsed.Dropped, Duplicates: parsed.Duplicates}, nil
}
