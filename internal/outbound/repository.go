package outbound

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
)

// ReportRepository reads the market report table
type ReportRepository struct {
	db database.Querier
}

// NewReportRepository creates a new ReportRepository instance
func NewReportRepository(db database.Querier) *ReportRepository {
	return &ReportRepository{db: db}
}

// LatestOnOrBefore returns the rows of the newest report at or before date.
// ok is false when no report was written for date itself.
func (r *ReportRepository) LatestOnOrBefore(ctx context.Context, date time.Time) ([]contracts.ReportEntry, bool, error) {
	var todays int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM foss.report WHERE trddate = $1`, date).Scan(&todays); err != nil {
		return nil, false, fmt.Errorf("count reports: %w", err)
	}
	if todays == 0 {
		return nil, false, nil
	}

	query := `
		SELECT trddate, COALESCE(performance_t, ''), COALESCE(performance_c, '')
		FROM foss.report
		WHERE trddate = (SELECT MAX(trddate) FROM foss.report WHERE trddate <= $1)
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, false, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var entries []contracts.ReportEntry
	for rows.Next() {
		var tradeDate time.Time
		var e contracts.ReportEntry
		if err := rows.Scan(&tradeDate, &e.Text, &e.Comment); err != nil {
			return nil, false, fmt.Errorf("scan report: %w", err)
		}
		e.TradeDate = contracts.FormatDate(tradeDate)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return entries, true, nil
}
