package audit

import (
	"context"
	"fmt"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
)

// Repository handles audit log persistence
// ⭐ SSOT: Audit 로그 저장은 여기서만
type Repository struct {
	db database.Querier
}

// NewRepository creates a new audit repository
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// LogEvent appends one event log row
func (r *Repository) LogEvent(ctx context.Context, e contracts.EventLog) error {
	query := `
		INSERT INTO foss.event_log (eventdate, eventtype, call_pgm_name, message, result)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query, e.EventDate, e.EventType, e.CallPgmName, e.Message, resultText(e.Result))
	if err != nil {
		return fmt.Errorf("failed to save event log: %w", err)
	}

	return nil
}

// LogBatch appends one batch processing log row
func (r *Repository) LogBatch(ctx context.Context, b contracts.BatchLog) error {
	query := `
		INSERT INTO foss.batch_processing_log (
			run_id, batchspid, runningkey, starttime, endtime, paramvalues, returnmsg, returnresult
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	result := "failed"
	if b.Success {
		result = "success"
	}

	_, err := r.db.Exec(ctx, query,
		b.RunID, b.BatchSpid, b.RunningKey, b.StartTime, b.EndTime, b.ParamValues, b.Message, result,
	)
	if err != nil {
		return fmt.Errorf("failed to save batch processing log: %w", err)
	}

	return nil
}

func resultText(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}
