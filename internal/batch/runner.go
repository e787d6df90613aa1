package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fossbatch/internal/audit"
	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/ingest"
	"github.com/wonny/fossbatch/internal/outbound"
	"github.com/wonny/fossbatch/internal/rebalance"
	"github.com/wonny/fossbatch/internal/staging"
	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/logger"
	"github.com/wonny/fossbatch/pkg/sftp"
)

// errNoInboundFile means the partner has not uploaded the file yet
var errNoInboundFile = errors.New("no inbound file")

// Request is one invocation
type Request struct {
	TargetDate time.Time
	Process    contracts.ProcessType

	// Override force-assigns rebalancing flags (SEND_REBALCUS only)
	Override *rebalance.Override
}

// ParamValues renders the request for the batch processing log
func (r Request) ParamValues() string {
	params := fmt.Sprintf("target_date=%s process_type=%s", contracts.FormatDate(r.TargetDate), r.Process)
	if r.Override != nil {
		params += fmt.Sprintf(" manual_customer_ids=%s manual_rebal_yn=%s forced_rebal_date=%s",
			strings.Join(r.Override.CustomerIDs, ","), r.Override.Flag, r.Override.Date)
	}
	return params
}

// Runner performs exactly one operation per Run
// ⭐ SSOT: 배치 작업 실행 흐름은 여기서만
type Runner struct {
	cfg       *config.Config
	db        Database
	dial      Dialer
	locks     RunLocker
	mirror    contracts.UniverseMirror
	calendars *calendar.Provider
	logger    *logger.Logger
	now       func() time.Time
}

// Option configures optional Runner collaborators
type Option func(*Runner)

// WithLocker guards runs with a lock per operation and date
func WithLocker(l RunLocker) Option {
	return func(r *Runner) { r.locks = l }
}

// WithMirror copies each received universe into the qbt_api database
func WithMirror(m contracts.UniverseMirror) Option {
	return func(r *Runner) { r.mirror = m }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, db Database, dial Dialer, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		db:        db,
		dial:      dial,
		calendars: calendar.NewProvider(db.Stores().Calendar),
		logger:    log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes req. Skips (data not ready, already loaded, no inbound file)
// return nil; every other failure is audited and returned.
func (r *Runner) Run(ctx context.Context, req Request) error {
	runID := uuid.NewString()
	log := r.logger.WithRun(runID, string(req.Process), contracts.FormatDate(req.TargetDate))

	if r.locks != nil {
		release, err := r.locks.Acquire(ctx, string(req.Process)+":"+contracts.FormatDate(req.TargetDate))
		if err != nil {
			return err
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to release run lock")
			}
		}()
	}

	if req.Override != nil && req.Process != contracts.ProcessSendRebalCus {
		log.Warn("Manual rebalancing arguments ignored for this process type")
		req.Override = nil
	}

	start := r.now()
	filename := req.Process.FileName(contracts.FormatDate(req.TargetDate))
	log.WithField("file", filename).Info("Batch started")

	err := r.dispatch(ctx, log, req, filename)

	switch {
	case errors.Is(err, errNoInboundFile):
		log.Infof("No data %s found for %s.", req.Process.FileStem(), contracts.FormatDate(req.TargetDate))
		return nil
	case contracts.IsSkip(err):
		log.WithField("reason", err.Error()).Info("Batch skipped")
		return nil
	}

	outcome := audit.Outcome{
		RunID:       runID,
		Process:     req.Process,
		TargetDate:  req.TargetDate,
		Filename:    filename,
		ParamValues: req.ParamValues(),
		StartTime:   start,
		Err:         err,
	}
	if auditErr := audit.NewRecorder(r.db.Stores().Audit, log).Record(ctx, outcome); auditErr != nil {
		log.WithError(auditErr).Error("Failed to record audit log")
	}

	if err != nil {
		log.WithError(err).Error("Batch failed")
		return err
	}

	log.WithField("elapsed", r.now().Sub(start).String()).Info("Batch completed")
	return nil
}

func (r *Runner) dispatch(ctx context.Context, log *logger.Logger, req Request, filename string) error {
	switch {
	case req.Process == contracts.ProcessDeleteOldData:
		return r.purgeStaging(ctx, log)
	case req.Process.IsInbound():
		return r.receive(ctx, log, req)
	case req.Process.IsOutbound():
		return r.send(ctx, log, req, filename)
	}
	return fmt.Errorf("%s: %w", req.Process, contracts.ErrInvalidProcessType)
}

// purgeStaging drops staged lines past retention
func (r *Runner) purgeStaging(ctx context.Context, log *logger.Logger) error {
	cutoff := staging.Cutoff(r.now())

	var removed int64
	err := r.db.WithTx(ctx, func(ctx context.Context, s *Stores) error {
		var err error
		removed, err = s.Staging.DeleteOlderThan(ctx, cutoff)
		return err
	})
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"cutoff":  contracts.FormatDate(cutoff),
		"removed": removed,
	}).Info("Staging purged")
	return nil
}

// receive reads the partner file and loads it in one transaction
func (r *Runner) receive(ctx context.Context, log *logger.Logger, req Request) error {
	content, err := r.fetchInbound(req)
	if err != nil {
		return err
	}

	loadErr := r.db.WithTx(ctx, func(ctx context.Context, s *Stores) error {
		_, err := ingest.NewLoader(s.Inbound, log).Load(ctx, req.Process, content, req.TargetDate, r.now())
		return err
	})
	if loadErr != nil && !errors.Is(loadErr, contracts.ErrDuplicateData) {
		return loadErr
	}

	// 미러는 중복 스킵 여부와 무관하게 자체 존재 체크로 진행
	if req.Process == contracts.ProcessReceiveUniverse && r.mirror != nil {
		rows, err := r.db.Stores().Inbound.ListUniverse(ctx, req.TargetDate)
		if err != nil {
			return err
		}
		if err := r.mirror.Mirror(ctx, r.cfg.AuthID, req.TargetDate, rows); err != nil {
			return err
		}
	}

	return loadErr
}

func (r *Runner) fetchInbound(req Request) (string, error) {
	conn, err := r.dial(sftp.ReceiveAccount)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	files, err := conn.ReadMatching(r.cfg.SFTP.InboundDir, contracts.FormatDate(req.TargetDate))
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, contracts.ErrTransport)
	}

	content := files[req.Process.FileStem()]
	if strings.TrimSpace(content) == "" {
		return "", errNoInboundFile
	}
	return content, nil
}

// send computes, stages and writes the file in one transaction, then uploads
// it after commit. The local file is removed whatever the outcome.
func (r *Runner) send(ctx context.Context, log *logger.Logger, req Request, filename string) error {
	var localPath string
	defer func() {
		if localPath == "" {
			return
		}
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("Failed to remove local file")
		}
	}()

	err := r.db.WithTx(ctx, func(ctx context.Context, s *Stores) error {
		texts, err := r.compose(ctx, log, s, req)
		if err != nil {
			return err
		}

		batch := outbound.NewBatch(filename, r.now(), texts)
		staged, err := s.Staging.Replace(ctx, filename, batch.Lines)
		if err != nil {
			return err
		}

		localPath, err = outbound.WriteFile(r.cfg.StagingDir, filename, batch.Texts(), outbound.EncodingFor(req.Process))
		if err != nil {
			return err
		}

		log.WithFields(map[string]interface{}{
			"lines":  batch.Len(),
			"staged": staged,
			"path":   localPath,
		}).Info("Outbound file written")
		return nil
	})
	if err != nil {
		return err
	}

	return r.upload(log, localPath, filename)
}

func (r *Runner) upload(log *logger.Logger, localPath, filename string) error {
	conn, err := r.dial(sftp.SendAccount)
	if err != nil {
		return err
	}
	defer conn.Close()

	remotePath := path.Join(r.cfg.SFTP.OutboundDir, filename)
	if err := conn.Put(localPath, remotePath); err != nil {
		return fmt.Errorf("%v: %w", err, contracts.ErrTransport)
	}

	log.WithField("remote", remotePath).Info("Outbound file uploaded")
	return nil
}
