package performance

import "github.com/shopspring/decimal"

// intermediatePrecision bounds the running product before the final rounding
const intermediatePrecision = 18

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Compound returns ((Π(1 + r)) - 1) * 100 rounded half-to-even to 2 places
func Compound(dailyReturns []decimal.Decimal) decimal.Decimal {
	v, _ := CompoundSigned(dailyReturns)
	return v
}

// CompoundSigned is Compound plus whether the unrounded pct was below zero.
// decimal has no negative zero, so callers need the flag to render -0.0.
func CompoundSigned(dailyReturns []decimal.Decimal) (decimal.Decimal, bool) {
	product := one
	for _, r := range dailyReturns {
		product = product.Mul(one.Add(r)).Round(intermediatePrecision)
	}
	pct := product.Sub(one).Mul(hundred)
	return pct.RoundBank(2), pct.IsNegative()
}
