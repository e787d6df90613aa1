package contracts

import "time"

// UniverseRow is one fund of the partner universe file (fnd_list)
type UniverseRow struct {
	FundCode     string
	FossFundCode string
	FundName     string
	FundCodeS    string
	TradeYN      string
	ClassGB      string
	RiskGrade    string
	InvestGB     string
	CompanyCode  string
	CompanyName  string
	TotalCount   int64
	TradeDate    time.Time
	RegDate      time.Time
}

// AccountRow is one customer account of the partner account file (ap_acc_info)
type AccountRow struct {
	CustomerID          string
	InvestGB            string
	RiskGrade           string
	InvestPrincipal     int64
	TotalAppraisalPrice int64
	RevenuePrice        int64
	OrderStatus         string
	DepositPrice        int64
	TradeDate           time.Time
	RegDate             time.Time
}

// CustomerFundRow is one customer holding of the partner fund file (ap_fnd_info)
type CustomerFundRow struct {
	CustomerID      string
	FundCode        string
	InvestPrincipal int64
	AppraisalPrice  int64
	RevenuePrice    int64
	TradeDate       time.Time
	RegDate         time.Time
}
