package dto

// CreateInvestmentRequest is the payload for opening a new investment.
// Durations are Go duration strings ("72h", "30m").
type CreateInvestmentRequest struct {
	Amount        uint64 `json:"amount" binding:"required"`
	EquityPercent uint8  `json:"equity_percent" binding:"required"`
	Valuation     uint64 `json:"valuation"`
	Title         string `json:"title"`
	Detail        string `json:"detail"`
	FundingPeriod string `json:"funding_period" binding:"required"`
	// AttachedValue is the value committed with the call: amount plus fee
	AttachedValue uint64 `json:"attached_value" binding:"required"`
}

// FundInvestmentRequest is the payload for funding an open investment
type FundInvestmentRequest struct {
	AttachedValue uint64 `json:"attached_value" binding:"required"`
}

// RepayInvestmentRequest is the payload for repaying a funded investment
type RepayInvestmentRequest struct {
	AttachedValue uint64 `json:"attached_value" binding:"required"`
}

// ExtendDeadlineRequest is the payload for pushing the deadline out
type ExtendDeadlineRequest struct {
	Extension string `json:"extension" binding:"required"`
}

// RaiseDisputeRequest is the payload for attaching a dispute
type RaiseDisputeRequest struct {
	InvestmentID uint64 `json:"investment_id" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest is the payload for the admin resolution path
type ResolveDisputeRequest struct {
	InvestmentID uint64 `json:"investment_id" binding:"required"`
	Resolution   string `json:"resolution" binding:"required"`
}
