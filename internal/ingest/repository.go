package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
)

var (
	universeColumns = []string{
		"fund_cd", "foss_fund_cd", "fund_nm", "fund_cd_s", "tradeyn", "class_gb",
		"risk_grade", "investgb", "co_cd", "co_nm", "total_cnt", "trddate", "regdate",
	}
	accountColumns = []string{
		"customer_id", "investgb", "risk_grade", "invest_principal", "totalappraisal_price",
		"revenue_price", "order_status", "deposit_price", "trddate", "regdate",
	}
	customerFundColumns = []string{
		"customer_id", "fund_cd", "invest_principal", "appraisal_price", "revenue_price",
		"trddate", "regdate",
	}
)

// Repository writes the inbound partner tables
type Repository struct {
	db database.Querier
}

// NewRepository creates a new Repository instance
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) count(ctx context.Context, table string, tradeDate time.Time) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM foss.%s WHERE trddate = $1`, table)
	if err := r.db.QueryRow(ctx, query, tradeDate).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// CountUniverse counts universe rows for tradeDate
func (r *Repository) CountUniverse(ctx context.Context, tradeDate time.Time) (int, error) {
	return r.count(ctx, "universe", tradeDate)
}

// CountAccounts counts customer account rows for tradeDate
func (r *Repository) CountAccounts(ctx context.Context, tradeDate time.Time) (int, error) {
	return r.count(ctx, "customer_account", tradeDate)
}

// CountCustomerFunds counts customer fund rows for tradeDate
func (r *Repository) CountCustomerFunds(ctx context.Context, tradeDate time.Time) (int, error) {
	return r.count(ctx, "customer_fund", tradeDate)
}

// InsertUniverse bulk-inserts universe rows
func (r *Repository) InsertUniverse(ctx context.Context, rows []contracts.UniverseRow) (int64, error) {
	return r.copy(ctx, "universe", universeColumns, len(rows), func(i int) []any {
		u := rows[i]
		return []any{
			u.FundCode, u.FossFundCode, u.FundName, u.FundCodeS, u.TradeYN, u.ClassGB,
			u.RiskGrade, u.InvestGB, u.CompanyCode, u.CompanyName, u.TotalCount, u.TradeDate, u.RegDate,
		}
	})
}

// InsertAccounts bulk-inserts customer account rows
func (r *Repository) InsertAccounts(ctx context.Context, rows []contracts.AccountRow) (int64, error) {
	return r.copy(ctx, "customer_account", accountColumns, len(rows), func(i int) []any {
		a := rows[i]
		return []any{
			a.CustomerID, a.InvestGB, a.RiskGrade, a.InvestPrincipal, a.TotalAppraisalPrice,
			a.RevenuePrice, a.OrderStatus, a.DepositPrice, a.TradeDate, a.RegDate,
		}
	})
}

// InsertCustomerFunds bulk-inserts customer fund rows
func (r *Repository) InsertCustomerFunds(ctx context.Context, rows []contracts.CustomerFundRow) (int64, error) {
	return r.copy(ctx, "customer_fund", customerFundColumns, len(rows), func(i int) []any {
		f := rows[i]
		return []any{
			f.CustomerID, f.FundCode, f.InvestPrincipal, f.AppraisalPrice, f.RevenuePrice, f.TradeDate, f.RegDate,
		}
	})
}

func (r *Repository) copy(ctx context.Context, table string, columns []string, n int, row func(int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}

	inserted, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"foss", table},
		columns,
		pgx.CopyFromSlice(n, func(i int) ([]any, error) { return row(i), nil }),
	)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return inserted, nil
}

// ListUniverse returns the universe rows of tradeDate
func (r *Repository) ListUniverse(ctx context.Context, tradeDate time.Time) ([]contracts.UniverseRow, error) {
	query := `
		SELECT fund_cd, foss_fund_cd, fund_nm, fund_cd_s, tradeyn, class_gb,
		       risk_grade, investgb, co_cd, co_nm, total_cnt, trddate, regdate
		FROM foss.universe
		WHERE trddate = $1
		ORDER BY fund_cd
	`

	rows, err := r.db.Query(ctx, query, tradeDate)
	if err != nil {
		return nil, fmt.Errorf("query universe: %w", err)
	}
	defer rows.Close()

	var out []contracts.UniverseRow
	for rows.Next() {
		var u contracts.UniverseRow
		if err := rows.Scan(
			&u.FundCode, &u.FossFundCode, &u.FundName, &u.FundCodeS, &u.TradeYN, &u.ClassGB,
			&u.RiskGrade, &u.InvestGB, &u.CompanyCode, &u.CompanyName, &u.TotalCount, &u.TradeDate, &u.RegDate,
		); err != nil {
			return nil, fmt.Errorf("scan universe: %w", err)
		}
		out = append(out, u)
	}

	return out, rows.Err()
}
