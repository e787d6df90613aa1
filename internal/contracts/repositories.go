package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// CalendarRepository reads the trading calendar
type CalendarRepository interface {
	Load(ctx context.Context, from, to time.Time) ([]CalendarEntry, error)
}

// ModelPortfolioRepository reads model portfolio compositions and rebalance history
type ModelPortfolioRepository interface {
	ListPortfolios(ctx context.Context, authID string) ([]PortfolioDefinition, error)
	CountLatestRebalancePortfolios(ctx context.Context, authID string) (int, error)
	CountRebalanceEvents(ctx context.Context, authID string, date time.Time, group ProductGroup) (int, error)
	ListLatestHoldings(ctx context.Context, authID string, asOf time.Time) ([]ModelPortfolioHolding, error)
}

// ReturnRepository reads daily portfolio returns
type ReturnRepository interface {
	CountObservedPortfolios(ctx context.Context, authID string, date time.Time) (int, error)
	ListReturns(ctx context.Context, authID string, from, to time.Time) ([]ReturnObservation, error)
}

// CustomerRepository reads partner customer accounts and records manual overrides
type CustomerRepository interface {
	ListAccounts(ctx context.Context, tradeDate time.Time, group ProductGroup) ([]CustomerAccount, error)
	SaveManualOverrides(ctx context.Context, overrides []ManualRebalanceOverride) error
}

// ReportRepository reads market report text
type ReportRepository interface {
	// LatestOnOrBefore returns the newest report rows at or before date; ok is false
	// when no report exists for date itself
	LatestOnOrBefore(ctx context.Context, date time.Time) (entries []ReportEntry, ok bool, err error)
}

// StagingRepository holds outbound lines awaiting transmission
type StagingRepository interface {
	Replace(ctx context.Context, sendFilename string, lines []OutboundLine) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// InboundRepository stores ingested partner files
type InboundRepository interface {
	CountUniverse(ctx context.Context, tradeDate time.Time) (int, error)
	CountAccounts(ctx context.Context, tradeDate time.Time) (int, error)
	CountCustomerFunds(ctx context.Context, tradeDate time.Time) (int, error)
	InsertUniverse(ctx context.Context, rows []UniverseRow) (int64, error)
	InsertAccounts(ctx context.Context, rows []AccountRow) (int64, error)
	InsertCustomerFunds(ctx context.Context, rows []CustomerFundRow) (int64, error)
	ListUniverse(ctx context.Context, tradeDate time.Time) ([]UniverseRow, error)
}

// UniverseMirror copies the day's universe into the qbt_api database
type UniverseMirror interface {
	Mirror(ctx context.Context, authID string, tradeDate time.Time, rows []UniverseRow) error
}

// AuditRepository writes the event log and batch processing log
type AuditRepository interface {
	LogEvent(ctx context.Context, event EventLog) error
	LogBatch(ctx context.Context, entry BatchLog) error
}
