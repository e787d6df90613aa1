package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalendarEntry is one calendar date and whether markets are closed
type CalendarEntry struct {
	Date      time.Time
	IsHoliday bool
	Name      string // 휴일명 (optional)
}

// ReturnObservation is one portfolio's daily return on a trade date
type ReturnObservation struct {
	AuthID        string
	PortfolioCode string
	TradeDate     time.Time
	DailyReturn   decimal.Decimal
}

// PortfolioDefinition is a model portfolio and its derived classification
type PortfolioDefinition struct {
	AuthID        string
	PortfolioCode string
	ProductGroup  ProductGroup
}

// RiskGrade is derived from the last character of the portfolio code
func (p PortfolioDefinition) RiskGrade() string {
	return RiskGradeOf(p.PortfolioCode)
}

// CustomerAccount is the slice of a partner account row the decider needs
type CustomerAccount struct {
	CustomerID  string
	InvestGB    string // 77 / 61
	OrderStatus string
}

// RebalancingSignal is one customer's rebalancing instruction
type RebalancingSignal struct {
	CustomerID        string
	ProductGroup      ProductGroup
	Flag              string // Y / N
	NextRebalanceDate string // YYYYMMDD
}

// ManualRebalanceOverride is the audit row written for a forced signal
type ManualRebalanceOverride struct {
	RebalDate  string // forced date
	CustomerID string
	RegDate    string // effective (target) date
	RebalYN    string
}

// ModelPortfolioHolding is one fund weight in the latest portfolio composition
type ModelPortfolioHolding struct {
	PortfolioCode string
	ProductGroup  ProductGroup
	ProductCode   string
	FundName      string
	Weight        decimal.Decimal // percent points (e.g. 25.00)
}

// ReportEntry is one market report row
type ReportEntry struct {
	TradeDate string
	Text      string
	Comment   string
}

// OutboundLine is one staged line of an outbound file
type OutboundLine struct {
	InDate       string // run timestamp YYYYMMDDHHMMSS
	SendFilename string
	Idx          int // dense, 1-based
	Text         string
}
