package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
)

// Repository reads and writes the holiday table
type Repository struct {
	db database.Querier
}

// NewRepository creates a new Repository instance
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// Load returns entries with from <= date <= to in ascending order
func (r *Repository) Load(ctx context.Context, from, to time.Time) ([]contracts.CalendarEntry, error) {
	query := `
		SELECT trddate, holiday_yn = 'Y', COALESCE(holiday_nm, '')
		FROM foss.holiday
		WHERE trddate BETWEEN $1 AND $2
		ORDER BY trddate ASC
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var entries []contracts.CalendarEntry
	for rows.Next() {
		var e contracts.CalendarEntry
		if err := rows.Scan(&e.Date, &e.IsHoliday, &e.Name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		e.Date = contracts.DateOnly(e.Date)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Upsert writes entries, replacing existing rows for the same dates
func (r *Repository) Upsert(ctx context.Context, entries []contracts.CalendarEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO foss.holiday (trddate, holiday_yn, holiday_nm, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
		ON CONFLICT (trddate) DO UPDATE SET
			holiday_yn = EXCLUDED.holiday_yn,
			holiday_nm = EXCLUDED.holiday_nm,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		yn := "N"
		if e.IsHoliday {
			yn = "Y"
		}
		batch.Queue(query, contracts.DateOnly(e.Date), yn, e.Name)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, e := range entries {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("upsert holiday %s: %w", contracts.FormatDate(e.Date), err)
		}
	}
	return len(entries), nil
}
