package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
)

// Repository reads model portfolio compositions and daily returns
type Repository struct {
	db database.Querier
}

// NewRepository creates a new Repository instance
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// ListPortfolios returns every portfolio code with its product group
func (r *Repository) ListPortfolios(ctx context.Context, authID string) ([]contracts.PortfolioDefinition, error) {
	query := `
		SELECT auth_id, port_cd, prd_gb
		FROM foss.result_mplist
		WHERE auth_id = $1
		GROUP BY auth_id, port_cd, prd_gb
		ORDER BY port_cd
	`

	rows, err := r.db.Query(ctx, query, authID)
	if err != nil {
		return nil, fmt.Errorf("query portfolios: %w", err)
	}
	defer rows.Close()

	var defs []contracts.PortfolioDefinition
	for rows.Next() {
		var d contracts.PortfolioDefinition
		var group string
		if err := rows.Scan(&d.AuthID, &d.PortfolioCode, &group); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		d.ProductGroup = contracts.ProductGroup(group)
		defs = append(defs, d)
	}

	return defs, rows.Err()
}

// CountLatestRebalancePortfolios counts portfolios in the newest rebalance batch
func (r *Repository) CountLatestRebalancePortfolios(ctx context.Context, authID string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT port_cd)
		FROM foss.result_mplist
		WHERE auth_id = $1
		  AND rebal_date = (SELECT MAX(rebal_date) FROM foss.result_mplist WHERE auth_id = $1)
	`

	var n int
	if err := r.db.QueryRow(ctx, query, authID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count latest rebalance portfolios: %w", err)
	}
	return n, nil
}

// CountRebalanceEvents counts composition rows rebalanced exactly on date
func (r *Repository) CountRebalanceEvents(ctx context.Context, authID string, date time.Time, group contracts.ProductGroup) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM foss.result_mplist
		WHERE auth_id = $1 AND rebal_date = $2 AND prd_gb = $3
	`

	var n int
	if err := r.db.QueryRow(ctx, query, authID, date, string(group)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rebalance events: %w", err)
	}
	return n, nil
}

// ListLatestHoldings returns each portfolio's newest composition on or before asOf,
// joined to fund names from the latest universe file, ordered by portfolio code
func (r *Repository) ListLatestHoldings(ctx context.Context, authID string, asOf time.Time) ([]contracts.ModelPortfolioHolding, error) {
	query := `
		SELECT s1.port_cd, s1.prd_gb, s1.prd_cd, s1.prd_weight::text, COALESCE(s2.fund_nm, '')
		FROM foss.result_mplist s1
		LEFT JOIN foss.universe s2
			ON s2.fund_cd = s1.prd_cd
			AND s2.trddate = (SELECT MAX(trddate) FROM foss.universe)
		INNER JOIN (
			SELECT port_cd, MAX(rebal_date) AS rebal_date
			FROM foss.result_mplist
			WHERE auth_id = $1 AND rebal_date <= $2
			GROUP BY port_cd
		) s3 ON s3.port_cd = s1.port_cd AND s3.rebal_date = s1.rebal_date
		WHERE s1.auth_id = $1
		ORDER BY s1.port_cd ASC, s1.prd_cd ASC
	`

	rows, err := r.db.Query(ctx, query, authID, asOf)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []contracts.ModelPortfolioHolding
	for rows.Next() {
		var h contracts.ModelPortfolioHolding
		var group, weight string
		if err := rows.Scan(&h.PortfolioCode, &group, &h.ProductCode, &weight, &h.FundName); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.ProductGroup = contracts.ProductGroup(group)
		h.Weight, err = decimal.NewFromString(weight)
		if err != nil {
			return nil, fmt.Errorf("parse weight %q for %s: %w", weight, h.PortfolioCode, err)
		}
		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

// CountObservedPortfolios counts portfolios with a return on date
func (r *Repository) CountObservedPortfolios(ctx context.Context, authID string, date time.Time) (int, error) {
	query := `
		SELECT COUNT(DISTINCT port_cd)
		FROM foss.result_return
		WHERE auth_id = $1 AND trddate = $2
	`

	var n int
	if err := r.db.QueryRow(ctx, query, authID, date).Scan(&n); err != nil {
		return 0, fmt.Errorf("count observed portfolios: %w", err)
	}
	return n, nil
}

// ListReturns returns daily returns with from <= trddate <= to
func (r *Repository) ListReturns(ctx context.Context, authID string, from, to time.Time) ([]contracts.ReturnObservation, error) {
	query := `
		SELECT auth_id, port_cd, trddate, rtn_1d::text
		FROM foss.result_return
		WHERE auth_id = $1 AND trddate BETWEEN $2 AND $3
		ORDER BY port_cd, trddate
	`

	rows, err := r.db.Query(ctx, query, authID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query returns: %w", err)
	}
	defer rows.Close()

	var out []contracts.ReturnObservation
	for rows.Next() {
		var o contracts.ReturnObservation
		var rtn string
		if err := rows.Scan(&o.AuthID, &o.PortfolioCode, &o.TradeDate, &rtn); err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		o.DailyReturn, err = decimal.NewFromString(rtn)
		if err != nil {
			return nil, fmt.Errorf("parse return %q for %s: %w", rtn, o.PortfolioCode, err)
		}
		out = append(out, o)
	}

	return out, rows.Err()
}
