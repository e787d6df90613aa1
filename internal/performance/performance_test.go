package performance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/logger"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := contracts.ParseDate(s)
	require.NoError(t, err)
	return d
}

func decimals(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, decimal.RequireFromString(v))
	}
	return out
}

func TestCompound(t *testing.T) {
	tests := []struct {
		name    string
		returns []decimal.Decimal
		want    string
	}{
		// 1.01 * 0.98 * 1.03 = 1.019494 -> 1.9494%
		{"three days", decimals("0.01", "-0.02", "0.03"), "1.95"},
		{"half to even rounds down", decimals("0.01005"), "1"},
		{"half to even rounds up", decimals("0.01015"), "1.02"},
		{"flat", decimals("0", "0"), "0"},
		{"loss", decimals("-0.015", "-0.005"), "-1.99"},
		{"empty window", nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compound(tt.returns)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCompoundSigned(t *testing.T) {
	// -0.0000004 daily -> -0.00004% rounds to zero from below
	v, negative := CompoundSigned(decimals("-0.0000004"))
	assert.True(t, v.IsZero())
	assert.True(t, negative)

	v, negative = CompoundSigned(decimals("0.0000004"))
	assert.True(t, v.IsZero())
	assert.False(t, negative)

	row := Row{
		Returns:  map[string]decimal.Decimal{Window1D: v, Window1M: decimal.Zero},
		Negative: map[string]bool{Window1M: true},
	}
	assert.False(t, row.NegativeZero(Window1D))
	assert.True(t, row.NegativeZero(Window1M))
	assert.False(t, row.NegativeZero(Window3M))
}

func TestBuildWindows(t *testing.T) {
	windows := BuildWindows(day(t, "20241209"))
	require.Len(t, windows, 6)

	want := map[string]string{
		Window1D:  "20241209",
		Window1M:  "20241110",
		Window3M:  "20240910",
		Window6M:  "20240610",
		Window1Y:  "20231210",
		WindowAll: "20181203",
	}
	for _, w := range windows {
		assert.Equal(t, want[w.Label], contracts.FormatDate(w.Start), w.Label)
		assert.Equal(t, "20241209", contracts.FormatDate(w.End), w.Label)
	}
}

func TestBuildWindows_MonthEnd(t *testing.T) {
	windows := BuildWindows(day(t, "20240329"))
	for _, w := range windows {
		if w.Label == Window1M {
			// 2024-02-29 + 1 day
			assert.Equal(t, "20240301", contracts.FormatDate(w.Start))
		}
	}
}

func TestBuildWindows_DataFloor(t *testing.T) {
	labels := func(ws []Window) []string {
		var out []string
		for _, w := range ws {
			out = append(out, w.Label)
		}
		return out
	}

	assert.Equal(t, []string{Window1D, Window1M, WindowAll}, labels(BuildWindows(day(t, "20190115"))))

	// 3m starts exactly on the floor and is kept
	assert.Equal(t, []string{Window1D, Window1M, Window3M, WindowAll}, labels(BuildWindows(day(t, "20190303"))))
}

func obs(code, date, rtn string) contracts.ReturnObservation {
	d, _ := contracts.ParseDate(date)
	return contracts.ReturnObservation{
		AuthID:        "foss",
		PortfolioCode: code,
		TradeDate:     d,
		DailyReturn:   decimal.RequireFromString(rtn),
	}
}

func sampleDefs() []contracts.PortfolioDefinition {
	return []contracts.PortfolioDefinition{
		{AuthID: "foss", PortfolioCode: "FP1", ProductGroup: contracts.ProductPension},
		{AuthID: "foss", PortfolioCode: "FG2", ProductGroup: contracts.ProductGeneral},
		{AuthID: "foss", PortfolioCode: "FG1", ProductGroup: contracts.ProductGeneral},
		{AuthID: "foss", PortfolioCode: "FP1", ProductGroup: contracts.ProductPension}, // duplicate mplist rows
		{AuthID: "foss", PortfolioCode: "FP3", ProductGroup: contracts.ProductPension}, // no return on base date
	}
}

func sampleObservations() []contracts.ReturnObservation {
	return []contracts.ReturnObservation{
		obs("FP1", "20241205", "0.01"),
		obs("FP1", "20241206", "-0.02"),
		obs("FP1", "20241209", "0.03"),
		obs("FG1", "20241209", "0.005"),
		obs("FG1", "20240102", "0.10"),
		obs("FG2", "20241209", "-0.001"),
		obs("FP3", "20241206", "0.02"),
	}
}

func TestAggregate(t *testing.T) {
	base := day(t, "20241209")
	rows := Aggregate(sampleDefs(), sampleObservations(), BuildWindows(base))
	require.Len(t, rows, 3, "FP3 has no 1d row and the FP1 duplicate collapses")

	// general (f11) sorts before pension (f12), then by risk grade
	assert.Equal(t, "FG1", rows[0].PortfolioCode)
	assert.Equal(t, "FG2", rows[1].PortfolioCode)
	assert.Equal(t, "FP1", rows[2].PortfolioCode)

	fp1 := rows[2]
	assertReturn(t, fp1, Window1D, "3")
	assertReturn(t, fp1, Window1M, "1.95")
	assertReturn(t, fp1, WindowAll, "1.95")
	assert.Equal(t, "9.10", fp1.ExpectedReturn)
	assert.Equal(t, "3.20", fp1.Volatility)

	fg1 := rows[0]
	assertReturn(t, fg1, Window1D, "0.5")
	assertReturn(t, fg1, Window6M, "0.5")
	// (1.10 * 1.005 - 1) * 100 = 10.55
	assertReturn(t, fg1, Window1Y, "10.55")

	assertReturn(t, rows[1], Window1D, "-0.1")
}

func assertReturn(t *testing.T, row Row, label, want string) {
	t.Helper()
	got, ok := row.Return(label)
	require.True(t, ok, "%s has no %s value", row.PortfolioCode, label)
	assert.Equal(t, want, got.String(), "%s %s", row.PortfolioCode, label)
}

func TestAggregate_MissingWindow(t *testing.T) {
	base := day(t, "20241209")
	rows := Aggregate(
		[]contracts.PortfolioDefinition{{AuthID: "foss", PortfolioCode: "FP5", ProductGroup: contracts.ProductPension}},
		[]contracts.ReturnObservation{obs("FP5", "20241209", "0.01")},
		BuildWindows(base),
	)
	require.Len(t, rows, 1)

	assertReturn(t, rows[0], Window1D, "1")
	assertReturn(t, rows[0], WindowAll, "1")
	assertReturn(t, rows[0], Window1M, "1")

	rows = Aggregate(
		[]contracts.PortfolioDefinition{{AuthID: "foss", PortfolioCode: "FP5", ProductGroup: contracts.ProductPension}},
		[]contracts.ReturnObservation{obs("FP5", "20241209", "0.01")},
		[]Window{{Label: Window1D, Start: base, End: base}, {Label: Window3M, Start: base.AddDate(0, -3, 1), End: base.AddDate(0, 0, -1)}},
	)
	require.Len(t, rows, 1)
	_, ok := rows[0].Return(Window3M)
	assert.False(t, ok)
	assert.Equal(t, "21.15", rows[0].ExpectedReturn)
	assert.Equal(t, "10.90", rows[0].Volatility)
}

func TestAssumption_Unknown(t *testing.T) {
	exp, vol := Assumption("9", contracts.ProductPension)
	assert.Empty(t, exp)
	assert.Empty(t, vol)

	exp, vol = Assumption("5", contracts.ProductGeneral)
	assert.Equal(t, "22.99", exp)
	assert.Equal(t, "11.51", vol)
}

type fakePortfolios struct {
	defs        []contracts.PortfolioDefinition
	latestCount int
}

func (f *fakePortfolios) ListPortfolios(context.Context, string) ([]contracts.PortfolioDefinition, error) {
	return f.defs, nil
}

func (f *fakePortfolios) CountLatestRebalancePortfolios(context.Context, string) (int, error) {
	return f.latestCount, nil
}

func (f *fakePortfolios) CountRebalanceEvents(context.Context, string, time.Time, contracts.ProductGroup) (int, error) {
	return 0, nil
}

func (f *fakePortfolios) ListLatestHoldings(context.Context, string, time.Time) ([]contracts.ModelPortfolioHolding, error) {
	return nil, nil
}

type fakeReturns struct {
	observations []contracts.ReturnObservation
}

func (f *fakeReturns) CountObservedPortfolios(_ context.Context, _ string, date time.Time) (int, error) {
	seen := map[string]bool{}
	for _, o := range f.observations {
		if o.TradeDate.Equal(date) {
			seen[o.PortfolioCode] = true
		}
	}
	return len(seen), nil
}

func (f *fakeReturns) ListReturns(_ context.Context, _ string, from, to time.Time) ([]contracts.ReturnObservation, error) {
	var out []contracts.ReturnObservation
	for _, o := range f.observations {
		if !o.TradeDate.Before(from) && !o.TradeDate.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func TestAggregator_Build(t *testing.T) {
	cal := calendar.New(calendar.BuildYear(2024, nil))
	returns := &fakeReturns{observations: sampleObservations()}

	agg := NewAggregator(&fakePortfolios{defs: sampleDefs(), latestCount: 3}, returns, logger.Nop())

	// 2024-12-10 is a Tuesday, so the fund base date is Monday 2024-12-09
	result, err := agg.Build(context.Background(), "foss", day(t, "20241210"), cal)
	require.NoError(t, err)
	assert.Equal(t, "20241209", contracts.FormatDate(result.BaseDate))

	require.Len(t, result.Rows, 3)
	assert.Equal(t, "FP1", result.Rows[2].PortfolioCode)
	assertReturn(t, result.Rows[2], Window1D, "3")
}

func TestAggregator_Build_NotReady(t *testing.T) {
	cal := calendar.New(calendar.BuildYear(2024, nil))
	returns := &fakeReturns{observations: sampleObservations()}

	agg := NewAggregator(&fakePortfolios{defs: sampleDefs(), latestCount: 4}, returns, logger.Nop())

	_, err := agg.Build(context.Background(), "foss", day(t, "20241210"), cal)
	assert.True(t, errors.Is(err, contracts.ErrDataNotReady))
}

func TestAggregator_Build_NoCalendar(t *testing.T) {
	agg := NewAggregator(&fakePortfolios{}, &fakeReturns{}, logger.Nop())

	_, err := agg.Build(context.Background(), "foss", day(t, "20241210"), calendar.New(nil))
	assert.True(t, errors.Is(err, contracts.ErrDataUnavailable))
}
