package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
)

// RetentionMonths is how long staged lines are kept
const RetentionMonths = 1

// Repository manages the outbound staging table (bcp_data)
// ⭐ SSOT: 송신 스테이징 테이블 접근은 여기서만
type Repository struct {
	db database.Querier
}

// NewRepository creates a new Repository instance
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// Replace stages lines for sendFilename, dropping rows staged earlier under the
// same name so a rerun of the same file and date leaves one copy.
func (r *Repository) Replace(ctx context.Context, sendFilename string, lines []contracts.OutboundLine) (int64, error) {
	if _, err := r.db.Exec(ctx, `DELETE FROM foss.bcp_data WHERE send_filename = $1`, sendFilename); err != nil {
		return 0, fmt.Errorf("clear staged %s: %w", sendFilename, err)
	}

	if len(lines) == 0 {
		return 0, nil
	}

	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"foss", "bcp_data"},
		[]string{"indate", "send_filename", "idx", "lst"},
		pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
			l := lines[i]
			return []any{l.InDate, l.SendFilename, l.Idx, l.Text}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("stage %s: %w", sendFilename, err)
	}
	return n, nil
}

// DeleteOlderThan removes lines staged before cutoff's date
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM foss.bcp_data WHERE LEFT(indate, 8) < $1`,
		contracts.FormatDate(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("purge staging: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Cutoff returns the retention boundary for a sweep running at now
func Cutoff(now time.Time) time.Time {
	return contracts.AddMonthsClamped(contracts.DateOnly(now), -RetentionMonths)
}
