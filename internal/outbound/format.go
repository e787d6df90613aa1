package outbound

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/performance"
)

// Delimiter separates fields; every line also ends with it
const Delimiter = ";"

// maxFundNameLen is the partner limit on fund names (characters)
const maxFundNameLen = 100

var hundred = decimal.NewFromInt(100)

// Line joins fields and appends the trailing delimiter
func Line(fields ...string) string {
	return strings.Join(fields, Delimiter) + Delimiter
}

// FormatNumber renders a value the way the partner files expect: shortest
// decimal form, with integers carrying a trailing ".0" (12 -> "12.0", 1.50 -> "1.5").
func FormatNumber(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		return s + ".0"
	}
	return s
}

// MPInfoLine renders one mp_info row:
// baseDate;grade;77|61;1d;3m;6m;1y;all;expected;volatility;1m;
func MPInfoLine(baseDate time.Time, row performance.Row) string {
	value := func(label string) string {
		v, ok := row.Return(label)
		if !ok {
			return ""
		}
		if row.NegativeZero(label) {
			return "-0.0"
		}
		return FormatNumber(v)
	}

	return Line(
		contracts.FormatDate(baseDate),
		row.RiskGrade,
		row.ProductGroup.PartnerCode(),
		value(performance.Window1D),
		value(performance.Window3M),
		value(performance.Window6M),
		value(performance.Window1Y),
		value(performance.WindowAll),
		row.ExpectedReturn,
		row.Volatility,
		value(performance.Window1M),
	)
}

// MPFundInfoLine renders one mp_fnd_info row:
// gradeChar;77|61;productCode;fundName;weight/100;
func MPFundInfoLine(h contracts.ModelPortfolioHolding) string {
	name := []rune(h.FundName)
	if len(name) > maxFundNameLen {
		name = name[:maxFundNameLen]
	}

	return Line(
		contracts.RiskGradeOf(h.PortfolioCode),
		h.ProductGroup.PartnerCode(),
		h.ProductCode,
		string(name),
		FormatNumber(h.Weight.Div(hundred).RoundBank(2)),
	)
}

// RebalLine renders one ap_reval_yn row: customerId;flag;nextRebalDate;
func RebalLine(s contracts.RebalancingSignal) string {
	return Line(s.CustomerID, s.Flag, s.NextRebalanceDate)
}

// ReportLine renders one report row: tradeDate;text;comment;
func ReportLine(r contracts.ReportEntry) string {
	return Line(r.TradeDate, CleanText(r.Text), CleanText(r.Comment))
}

// CleanText escapes quotes and strips line breaks and delimiters from free text.
// The delimiter pass also eats the entity's ";", so quotes come out as &quot.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.ReplaceAll(s, Delimiter, "")
}
