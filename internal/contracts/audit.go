package contracts

import "time"

// EventLog is one row of the operation event log
type EventLog struct {
	EventDate   string // YYYYMMDDHHMMSSmmm + sequence
	EventType   string // BATCH_FOSS_0x
	CallPgmName string
	Message     string
	Result      bool
}

// BatchLog is one row of the batch processing log
type BatchLog struct {
	RunID       string
	BatchSpid   int
	RunningKey  string // YYYYMMDD + HHMMSS slot
	StartTime   time.Time
	EndTime     time.Time
	ParamValues string
	Message     string
	Success     bool
}
