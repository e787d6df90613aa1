package batch

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fossbatch/internal/audit"
	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/ingest"
	"github.com/wonny/fossbatch/internal/outbound"
	"github.com/wonny/fossbatch/internal/performance"
	"github.com/wonny/fossbatch/internal/rebalance"
	"github.com/wonny/fossbatch/internal/staging"
	"github.com/wonny/fossbatch/pkg/database"
)

// Stores groups the repositories one operation works with
type Stores struct {
	Calendar   contracts.CalendarRepository
	Portfolios contracts.ModelPortfolioRepository
	Returns    contracts.ReturnRepository
	Customers  contracts.CustomerRepository
	Reports    contracts.ReportRepository
	Staging    contracts.StagingRepository
	Inbound    contracts.InboundRepository
	Audit      contracts.AuditRepository
}

// Database hands out stores, either bound to one transaction or to the pool
type Database interface {
	// WithTx runs fn with stores bound to a single transaction
	WithTx(ctx context.Context, fn func(ctx context.Context, s *Stores) error) error

	// Stores returns stores outside any transaction
	Stores() *Stores
}

// Postgres is the Database backed by the foss schema
type Postgres struct {
	db *database.DB
}

// NewPostgres wraps db
func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{db: db}
}

// WithTx implements Database
func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, s *Stores) error) error {
	return p.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, storesOn(tx))
	})
}

// Stores implements Database
func (p *Postgres) Stores() *Stores {
	return storesOn(p.db.Pool)
}

func storesOn(q database.Querier) *Stores {
	perf := performance.NewRepository(q)
	return &Stores{
		Calendar:   calendar.NewRepository(q),
		Portfolios: perf,
		Returns:    perf,
		Customers:  rebalance.NewRepository(q),
		Reports:    outbound.NewReportRepository(q),
		Staging:    staging.NewRepository(q),
		Inbound:    ingest.NewRepository(q),
		Audit:      audit.NewRepository(q),
	}
}
