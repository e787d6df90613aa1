package rebalance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
)

// Repository reads customer accounts and records manual rebalancing
type Repository struct {
	db database.Querier
}

// NewRepository creates a new Repository instance
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// ListAccounts returns the accounts of one product group ingested for tradeDate
func (r *Repository) ListAccounts(ctx context.Context, tradeDate time.Time, group contracts.ProductGroup) ([]contracts.CustomerAccount, error) {
	query := `
		SELECT customer_id, investgb, COALESCE(order_status, '')
		FROM foss.customer_account
		WHERE trddate = $1 AND investgb = $2
		ORDER BY customer_id ASC
	`

	rows, err := r.db.Query(ctx, query, tradeDate, group.PartnerCode())
	if err != nil {
		return nil, fmt.Errorf("query customer accounts: %w", err)
	}
	defer rows.Close()

	var accounts []contracts.CustomerAccount
	for rows.Next() {
		var a contracts.CustomerAccount
		if err := rows.Scan(&a.CustomerID, &a.InvestGB, &a.OrderStatus); err != nil {
			return nil, fmt.Errorf("scan customer account: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// SaveManualOverrides appends audit rows for forced signals
func (r *Repository) SaveManualOverrides(ctx context.Context, overrides []contracts.ManualRebalanceOverride) error {
	if len(overrides) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(overrides))
	for _, o := range overrides {
		rebalDate, err := contracts.ParseDate(o.RebalDate)
		if err != nil {
			return err
		}
		regDate, err := contracts.ParseDate(o.RegDate)
		if err != nil {
			return err
		}
		rows = append(rows, []any{rebalDate, o.CustomerID, regDate, o.RebalYN})
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"foss", "rebal_customer"},
		[]string{"rebaldate", "customer_id", "regdate", "rebal_yn"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert manual rebalancing: %w", err)
	}
	return nil
}
