package contracts

import "errors"

// ⭐ SSOT: 배치 에러 분류는 여기서만
var (
	// ErrDataNotReady means upstream data is incomplete; the run is skipped, not failed
	ErrDataNotReady = errors.New("data not ready")

	// ErrDataUnavailable means a required calendar or base-date lookup found nothing
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrDuplicateData means the target date was already ingested; the run is skipped
	ErrDuplicateData = errors.New("data already loaded")

	// ErrTransport wraps SFTP and database connection failures
	ErrTransport = errors.New("transport failure")

	// ErrInvalidProcessType is returned for an unknown --process_type
	ErrInvalidProcessType = errors.New("invalid process type")

	// ErrRunInProgress means another invocation holds the run lock
	ErrRunInProgress = errors.New("run already in progress")
)

// IsSkip reports whether err is a benign skip (not ready / already loaded)
func IsSkip(err error) bool {
	return errors.Is(err, ErrDataNotReady) || errors.Is(err, ErrDuplicateData)
}
