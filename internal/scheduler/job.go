package scheduler

import (
	"github.com/wonny/fossbatch/internal/contracts"
)

// Job is one externally triggered operation
// ⭐ SSOT: 작업별 실행 시각은 여기서만 정의
type Job struct {
	Process contracts.ProcessType

	// Schedule is a standard 5-field cron expression
	// Examples: "30 7 * * 1-5" (weekdays at 07:30)
	Schedule string
}

// DefaultJobs returns the weekday trigger plan. Inbound files arrive by 07:30;
// outbound files follow at 08:10 and the end-of-file marker goes last.
func DefaultJobs() []Job {
	return []Job{
		{Process: contracts.ProcessDeleteOldData, Schedule: "0 7 * * 1-5"},
		{Process: contracts.ProcessReceiveUniverse, Schedule: "30 7 * * 1-5"},
		{Process: contracts.ProcessReceiveAccount, Schedule: "30 7 * * 1-5"},
		{Process: contracts.ProcessReceiveCustomerFund, Schedule: "30 7 * * 1-5"},
		{Process: contracts.ProcessSendMPRate, Schedule: "10 8 * * 1-5"},
		{Process: contracts.ProcessSendMPList, Schedule: "11 8 * * 1-5"},
		{Process: contracts.ProcessSendRebalCus, Schedule: "12 8 * * 1-5"},
		{Process: contracts.ProcessSendReport, Schedule: "13 8 * * 1-5"},
		{Process: contracts.ProcessSendMPInfoEOF, Schedule: "20 8 * * 1-5"},
	}
}
