package rebalance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
)

// RebalanceOrdinal is the trading-day ordinal of a quarter-start month on which rebalancing runs
const RebalanceOrdinal = 3

// Flags
const (
	FlagYes = "Y"
	FlagNo  = "N"
)

// executedStatuses are order statuses eligible for a rebalance signal
var executedStatuses = map[string]bool{"Y": true, "Y1": true, "Y3": true}

// Decider computes rebalancing dates over a trading calendar
// ⭐ SSOT: 리밸런싱 판단은 여기서만
type Decider struct {
	cal *calendar.Calendar
}

// NewDecider creates a decider over cal
func NewDecider(cal *calendar.Calendar) *Decider {
	return &Decider{cal: cal}
}

// NextRebalanceDate is the 3rd trading day of the next quarter-start month on or after date
func (d *Decider) NextRebalanceDate(date time.Time) (time.Time, error) {
	next, ok, err := d.cal.NthTradingDayOfQuarterMonthOnOrAfter(date, RebalanceOrdinal)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, fmt.Errorf("no rebalance date on or after %s in holiday calendar: %w",
			contracts.FormatDate(date), contracts.ErrDataUnavailable)
	}
	return next, nil
}

// Flag returns Y only on a rebalance day for an executed order status
func Flag(rebalanceToday bool, orderStatus string) string {
	if !rebalanceToday {
		return FlagNo
	}
	if executedStatuses[strings.TrimSpace(orderStatus)] {
		return FlagYes
	}
	return FlagNo
}

// BuildSignals turns one product group's accounts into signals ordered by customer id
func BuildSignals(group contracts.ProductGroup, rebalanceToday bool, next time.Time, accounts []contracts.CustomerAccount) []contracts.RebalancingSignal {
	sorted := make([]contracts.CustomerAccount, len(accounts))
	copy(sorted, accounts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CustomerID < sorted[j].CustomerID })

	nextDate := contracts.FormatDate(next)
	signals := make([]contracts.RebalancingSignal, 0, len(sorted))
	for _, a := range sorted {
		signals = append(signals, contracts.RebalancingSignal{
			CustomerID:        a.CustomerID,
			ProductGroup:      group,
			Flag:              Flag(rebalanceToday, a.OrderStatus),
			NextRebalanceDate: nextDate,
		})
	}
	return signals
}

// Override forces a flag and date for specific customers
type Override struct {
	CustomerIDs []string
	Flag        string
	Date        string // YYYYMMDD
}

// ParseOverride validates the manual override arguments. The override applies
// only when all three are set; otherwise it returns nil and the run goes on
// with the computed signals (see PartialOverride).
func ParseOverride(customerIDs, flag, date string) (*Override, error) {
	customerIDs, flag, date = strings.TrimSpace(customerIDs), strings.TrimSpace(flag), strings.TrimSpace(date)
	if customerIDs == "" || flag == "" || date == "" {
		return nil, nil
	}

	flag = strings.ToUpper(flag)
	if flag != FlagYes && flag != FlagNo {
		return nil, fmt.Errorf("manual_rebal_yn must be Y or N, got %q", flag)
	}
	if _, err := contracts.ParseDate(date); err != nil {
		return nil, fmt.Errorf("forced_rebal_date: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, id := range strings.Split(customerIDs, ",") {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("manual_customer_ids has no customer id")
	}

	return &Override{CustomerIDs: ids, Flag: flag, Date: date}, nil
}

// PartialOverride reports that some but not all override arguments were given
func PartialOverride(customerIDs, flag, date string) bool {
	n := 0
	for _, v := range []string{customerIDs, flag, date} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n > 0 && n < 3
}

// ApplyManualOverride replaces the signal of every listed customer, matching the
// whole customer id, and returns the audit rows to record. Listed customers
// without a signal still get an audit row.
func ApplyManualOverride(signals []contracts.RebalancingSignal, ov Override, effectiveDate string) ([]contracts.RebalancingSignal, []contracts.ManualRebalanceOverride) {
	listed := make(map[string]bool, len(ov.CustomerIDs))
	for _, id := range ov.CustomerIDs {
		listed[id] = true
	}

	out := make([]contracts.RebalancingSignal, len(signals))
	for i, s := range signals {
		if listed[s.CustomerID] {
			s.Flag = ov.Flag
			s.NextRebalanceDate = ov.Date
		}
		out[i] = s
	}

	audits := make([]contracts.ManualRebalanceOverride, 0, len(ov.CustomerIDs))
	for _, id := range ov.CustomerIDs {
		audits = append(audits, contracts.ManualRebalanceOverride{
			RebalDate:  ov.Date,
			CustomerID: id,
			RegDate:    effectiveDate,
			RebalYN:    ov.Flag,
		})
	}
	return out, audits
}
