package performance

import (
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
)

// Window labels
const (
	Window1D  = "1d"
	Window1M  = "1m"
	Window3M  = "3m"
	Window6M  = "6m"
	Window1Y  = "1y"
	WindowAll = "all"
)

var (
	// InceptionDate is the first day of the return series
	InceptionDate = time.Date(2018, time.December, 3, 0, 0, 0, 0, time.UTC)
	// DataFloor is the earliest start a rolling window may have
	DataFloor = InceptionDate.AddDate(0, 0, 1)
)

// Window is an inclusive date range of daily returns
type Window struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls in [Start, End]
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// BuildWindows returns the return windows ending at base date f.
// Rolling windows starting before DataFloor are dropped; "all" always stays.
func BuildWindows(f time.Time) []Window {
	f = contracts.DateOnly(f)

	rolling := []struct {
		label  string
		months int
	}{
		{Window1M, 1},
		{Window3M, 3},
		{Window6M, 6},
		{Window1Y, 12},
	}

	windows := make([]Window, 0, 6)
	if !f.Before(DataFloor) {
		windows = append(windows, Window{Label: Window1D, Start: f, End: f})
	}
	for _, r := range rolling {
		start := contracts.AddMonthsClamped(f, -r.months).AddDate(0, 0, 1)
		if start.Before(DataFloor) {
			continue
		}
		windows = append(windows, Window{Label: r.label, Start: start, End: f})
	}
	windows = append(windows, Window{Label: WindowAll, Start: InceptionDate, End: f})

	return windows
}
