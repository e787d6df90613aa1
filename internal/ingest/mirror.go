package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/database"
	"github.com/wonny/fossbatch/pkg/logger"
)

// Mirror copies the day's universe into the qbt_api database
type Mirror struct {
	db     *database.DB
	logger *logger.Logger
	now    func() time.Time
}

// NewMirror creates a new Mirror over the qbt_api database
func NewMirror(db *database.DB, log *logger.Logger) *Mirror {
	return &Mirror{db: db, logger: log, now: time.Now}
}

// ReceiveRow is one rest_universe_receive row
type ReceiveRow struct {
	AuthID      string
	TradeDate   time.Time
	ReceiveTime time.Time
	ProductCode string
	ProductGB   contracts.ProductGroup
	RiskGrade   string
	TradeYN     string
}

// ReceiveRows keeps pension and general funds and maps investgb to product groups
func ReceiveRows(authID string, receivedAt time.Time, rows []contracts.UniverseRow) []ReceiveRow {
	out := make([]ReceiveRow, 0, len(rows))
	for _, u := range rows {
		group, err := contracts.ProductGroupFromPartnerCode(u.InvestGB)
		if err != nil {
			continue
		}
		out = append(out, ReceiveRow{
			AuthID:      authID,
			TradeDate:   u.TradeDate,
			ReceiveTime: receivedAt,
			ProductCode: u.FundCode,
			ProductGB:   group,
			RiskGrade:   strings.TrimSpace(u.RiskGrade),
			TradeYN:     u.TradeYN,
		})
	}
	return out
}

// Mirror writes both mirror tables in one transaction; each is skipped when it
// already holds the date
func (m *Mirror) Mirror(ctx context.Context, authID string, tradeDate time.Time, rows []contracts.UniverseRow) error {
	return m.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := m.mirrorReceive(ctx, tx, authID, tradeDate, rows); err != nil {
			return err
		}
		return m.mirrorFull(ctx, tx, tradeDate, rows)
	})
}

func (m *Mirror) mirrorReceive(ctx context.Context, tx pgx.Tx, authID string, tradeDate time.Time, rows []contracts.UniverseRow) error {
	var n int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM qbt.rest_universe_receive WHERE auth_id = $1 AND trddate = $2`,
		authID, tradeDate,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("count rest_universe_receive: %w", err)
	}
	if n > 0 {
		m.logger.Info("rest_universe_receive already mirrored")
		return nil
	}

	receive := ReceiveRows(authID, m.now(), rows)
	inserted, err := tx.CopyFrom(ctx,
		pgx.Identifier{"qbt", "rest_universe_receive"},
		[]string{"auth_id", "trddate", "receive_time", "prd_cd", "prd_gb", "risk_grade", "tradeyn"},
		pgx.CopyFromSlice(len(receive), func(i int) ([]any, error) {
			r := receive[i]
			return []any{r.AuthID, r.TradeDate, r.ReceiveTime, r.ProductCode, string(r.ProductGB), r.RiskGrade, r.TradeYN}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("mirror rest_universe_receive: %w", err)
	}

	m.logger.WithField("rows", inserted).Info("rest_universe_receive mirrored")
	return nil
}

func (m *Mirror) mirrorFull(ctx context.Context, tx pgx.Tx, tradeDate time.Time, rows []contracts.UniverseRow) error {
	var n int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM qbt.rest_universe_foss WHERE trddate = $1`, tradeDate).Scan(&n)
	if err != nil {
		return fmt.Errorf("count rest_universe_foss: %w", err)
	}
	if n > 0 {
		m.logger.Info("rest_universe_foss already mirrored")
		return nil
	}

	inserted, err := tx.CopyFrom(ctx,
		pgx.Identifier{"qbt", "rest_universe_foss"},
		universeColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			u := rows[i]
			return []any{
				u.FundCode, u.FossFundCode, u.FundName, u.FundCodeS, u.TradeYN, u.ClassGB,
				u.RiskGrade, u.InvestGB, u.CompanyCode, u.CompanyName, u.TotalCount, u.TradeDate, u.RegDate,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("mirror rest_universe_foss: %w", err)
	}

	m.logger.WithField("rows", inserted).Info("rest_universe_foss mirrored")
	return nil
}
