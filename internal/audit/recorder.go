package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/logger"
)

// CallProgram is the caller name stamped on every event row
const CallProgram = "MS-SQL SP : SP_BATCH_FEED_FOSSEXCEPTION"

const (
	MessageSuccess = "데이터 처리 성공"
	MessageFailure = "데이터 처리 실패"
)

// Running-key time slots
const (
	inboundSlot  = "073000"
	outboundSlot = "081000"
)

type processInfo struct {
	eventType string
	spid      int
}

var processes = map[contracts.ProcessType]processInfo{
	contracts.ProcessReceiveUniverse:     {"BATCH_FOSS_01", 2},
	contracts.ProcessReceiveAccount:      {"BATCH_FOSS_02", 3},
	contracts.ProcessReceiveCustomerFund: {"BATCH_FOSS_03", 4},
	contracts.ProcessSendMPRate:          {"BATCH_FOSS_04", 21},
	contracts.ProcessSendMPList:          {"BATCH_FOSS_05", 19},
	contracts.ProcessSendRebalCus:        {"BATCH_FOSS_06", 22},
	contracts.ProcessSendReport:          {"BATCH_FOSS_07", 20},
	contracts.ProcessSendMPInfoEOF:       {"BATCH_FOSS_08", 23},
}

// Audited reports whether p writes audit rows (the retention sweep does not)
func Audited(p contracts.ProcessType) bool {
	_, ok := processes[p]
	return ok
}

// EventType returns BATCH_FOSS_0x for p
func EventType(p contracts.ProcessType) string {
	return processes[p].eventType
}

// BatchSpid returns the batch processing id of p
func BatchSpid(p contracts.ProcessType) int {
	return processes[p].spid
}

// RunningKey is the target date followed by the trigger slot of p
func RunningKey(p contracts.ProcessType, targetDate time.Time) string {
	slot := outboundSlot
	if p.IsInbound() {
		slot = inboundSlot
	}
	return contracts.FormatDate(targetDate) + slot
}

// EventDate formats t as YYYYMMDDHHMMSSmmm followed by a three digit sequence
func EventDate(t time.Time, seq int) string {
	return t.Format("20060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond)) +
		fmt.Sprintf("%03d", seq%1000)
}

// EventMessage renders the event log message for p and its file
func EventMessage(p contracts.ProcessType, filename string, ok bool) string {
	switch {
	case p.IsInbound() && ok:
		return "openrowset insert success      " + filename
	case p.IsInbound():
		return "openrowset error      " + filename
	case ok:
		return "bcp create success      " + filename
	default:
		return "bcp create failed      " + filename
	}
}

// Outcome describes one finished operation
type Outcome struct {
	RunID       string
	Process     contracts.ProcessType
	TargetDate  time.Time
	Filename    string
	ParamValues string
	StartTime   time.Time
	Err         error
}

// Recorder writes the event and batch rows of an operation
type Recorder struct {
	repo   contracts.AuditRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewRecorder creates a new Recorder
func NewRecorder(repo contracts.AuditRepository, log *logger.Logger) *Recorder {
	return &Recorder{repo: repo, logger: log, now: time.Now}
}

// Record writes both audit rows. Operations without an audit trail are ignored.
func (r *Recorder) Record(ctx context.Context, o Outcome) error {
	if !Audited(o.Process) {
		return nil
	}

	end := r.now()
	ok := o.Err == nil

	event := contracts.EventLog{
		EventDate:   EventDate(end, 1),
		EventType:   EventType(o.Process),
		CallPgmName: CallProgram,
		Message:     EventMessage(o.Process, o.Filename, ok),
		Result:      ok,
	}
	if err := r.repo.LogEvent(ctx, event); err != nil {
		return err
	}

	msg := MessageSuccess
	if !ok {
		msg = MessageFailure
	}

	batch := contracts.BatchLog{
		RunID:       o.RunID,
		BatchSpid:   BatchSpid(o.Process),
		RunningKey:  RunningKey(o.Process, o.TargetDate),
		StartTime:   o.StartTime,
		EndTime:     end,
		ParamValues: o.ParamValues,
		Message:     msg,
		Success:     ok,
	}
	if err := r.repo.LogBatch(ctx, batch); err != nil {
		return err
	}

	r.logger.WithFields(map[string]interface{}{
		"event_type": event.EventType,
		"spid":       batch.BatchSpid,
		"success":    ok,
	}).Debug("Audit recorded")

	return nil
}
