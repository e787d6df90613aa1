package performance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/fossbatch/internal/contracts"
)

// Row is one portfolio's performance across all windows
type Row struct {
	PortfolioCode  string
	RiskGrade      string
	ProductGroup   contracts.ProductGroup
	Returns        map[string]decimal.Decimal // window label -> compounded pct
	Negative       map[string]bool            // window label -> unrounded pct below zero
	ExpectedReturn string
	Volatility     string
}

// Return returns the compounded pct for a window; ok is false when the window had no data
func (r Row) Return(label string) (decimal.Decimal, bool) {
	v, ok := r.Returns[label]
	return v, ok
}

// NegativeZero reports a window whose pct rounded to zero from below
func (r Row) NegativeZero(label string) bool {
	v, ok := r.Returns[label]
	return ok && v.IsZero() && r.Negative[label]
}

type assumption struct {
	expected   string
	volatility string
}

// assumptions holds expected return / volatility per risk grade and product group
var assumptions = map[string]map[contracts.ProductGroup]assumption{
	"1": {contracts.ProductPension: {"9.10", "3.20"}, contracts.ProductGeneral: {"9.04", "3.10"}},
	"2": {contracts.ProductPension: {"12.40", "4.46"}, contracts.ProductGeneral: {"12.53", "4.57"}},
	"3": {contracts.ProductPension: {"16.02", "6.68"}, contracts.ProductGeneral: {"16.64", "6.87"}},
	"4": {contracts.ProductPension: {"19.14", "8.60"}, contracts.ProductGeneral: {"19.80", "9.21"}},
	"5": {contracts.ProductPension: {"21.15", "10.90"}, contracts.ProductGeneral: {"22.99", "11.51"}},
}

// Assumption returns expected return and volatility, or empty strings when unknown
func Assumption(riskGrade string, group contracts.ProductGroup) (string, string) {
	a := assumptions[riskGrade][group]
	return a.expected, a.volatility
}

// Aggregate compounds each portfolio's daily returns over every window.
//
// Only portfolios with a 1d value produce a row; other windows without
// observations are left out of Returns. Rows are sorted by (product group, risk grade).
func Aggregate(defs []contracts.PortfolioDefinition, observations []contracts.ReturnObservation, windows []Window) []Row {
	byPortfolio := make(map[string][]contracts.ReturnObservation)
	for _, o := range observations {
		byPortfolio[o.PortfolioCode] = append(byPortfolio[o.PortfolioCode], o)
	}

	seen := make(map[string]bool, len(defs))
	rows := make([]Row, 0, len(defs))

	for _, def := range defs {
		key := def.PortfolioCode + "|" + string(def.ProductGroup)
		if seen[key] {
			continue
		}
		seen[key] = true

		obs := byPortfolio[def.PortfolioCode]
		returns := make(map[string]decimal.Decimal, len(windows))
		negative := make(map[string]bool)
		for _, w := range windows {
			var daily []decimal.Decimal
			for _, o := range obs {
				if w.Contains(contracts.DateOnly(o.TradeDate)) {
					daily = append(daily, o.DailyReturn)
				}
			}
			if len(daily) == 0 {
				continue
			}
			v, neg := CompoundSigned(daily)
			returns[w.Label] = v
			if neg {
				negative[w.Label] = true
			}
		}

		if _, anchored := returns[Window1D]; !anchored {
			continue
		}

		grade := def.RiskGrade()
		expected, vol := Assumption(grade, def.ProductGroup)
		rows = append(rows, Row{
			PortfolioCode:  def.PortfolioCode,
			RiskGrade:      grade,
			ProductGroup:   def.ProductGroup,
			Returns:        returns,
			Negative:       negative,
			ExpectedReturn: expected,
			Volatility:     vol,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ProductGroup != rows[j].ProductGroup {
			return rows[i].ProductGroup < rows[j].ProductGroup
		}
		if rows[i].RiskGrade != rows[j].RiskGrade {
			return rows[i].RiskGrade < rows[j].RiskGrade
		}
		return rows[i].PortfolioCode < rows[j].PortfolioCode
	})

	return rows
}
