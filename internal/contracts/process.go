package contracts

import (
	"fmt"
	"strings"
)

// ProcessType names the single operation one invocation performs
// ⭐ SSOT: 배치 작업 종류는 여기서만 정의
type ProcessType string

const (
	ProcessDeleteOldData       ProcessType = "DELETE_OLDDATA"
	ProcessReceiveUniverse     ProcessType = "RECEIVE_UNIVERSE"
	ProcessReceiveAccount      ProcessType = "RECEIVE_ACCOUNT"
	ProcessReceiveCustomerFund ProcessType = "RECEIVE_CUSTMERFND"
	ProcessSendMPRate          ProcessType = "SEND_MPRATE"
	ProcessSendMPList          ProcessType = "SEND_MPLIST"
	ProcessSendRebalCus        ProcessType = "SEND_REBALCUS"
	ProcessSendReport          ProcessType = "SEND_REPORT"
	ProcessSendMPInfoEOF       ProcessType = "SEND_MP_INFO_EOF"
)

// AllProcessTypes returns every operation in trigger order
func AllProcessTypes() []ProcessType {
	return []ProcessType{
		ProcessDeleteOldData,
		ProcessReceiveUniverse,
		ProcessReceiveAccount,
		ProcessReceiveCustomerFund,
		ProcessSendMPRate,
		ProcessSendMPList,
		ProcessSendRebalCus,
		ProcessSendReport,
		ProcessSendMPInfoEOF,
	}
}

// ParseProcessType validates a CLI value
func ParseProcessType(s string) (ProcessType, error) {
	p := ProcessType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllProcessTypes() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidProcessType)
}

// IsInbound reports whether the operation ingests a partner file
func (p ProcessType) IsInbound() bool {
	switch p {
	case ProcessReceiveUniverse, ProcessReceiveAccount, ProcessReceiveCustomerFund:
		return true
	}
	return false
}

// IsOutbound reports whether the operation uploads a file to the partner
func (p ProcessType) IsOutbound() bool {
	switch p {
	case ProcessSendMPRate, ProcessSendMPList, ProcessSendRebalCus, ProcessSendReport, ProcessSendMPInfoEOF:
		return true
	}
	return false
}

// FileStem is the partner file name without the date suffix
func (p ProcessType) FileStem() string {
	switch p {
	case ProcessReceiveUniverse:
		return "fnd_list"
	case ProcessReceiveAccount:
		return "ap_acc_info"
	case ProcessReceiveCustomerFund:
		return "ap_fnd_info"
	case ProcessSendMPRate:
		return "mp_info"
	case ProcessSendMPList:
		return "mp_fnd_info"
	case ProcessSendRebalCus:
		return "ap_reval_yn"
	case ProcessSendReport:
		return "report"
	case ProcessSendMPInfoEOF:
		return "mp_info_eof"
	}
	return ""
}

// FileName returns "<stem>.<YYYYMMDD>"
func (p ProcessType) FileName(date string) string {
	return p.FileStem() + "." + date
}

// String implements fmt.Stringer
func (p ProcessType) String() string {
	return string(p)
}
