package dto

import (
	"time"

	"github.com/fundlock/escrow-ledger/internal/domain"
)

// InvestmentResponse is the API view of an investment record
type InvestmentResponse struct {
	ID            uint64    `json:"id"`
	Funder        string    `json:"funder"`
	Recipient     *string   `json:"recipient,omitempty"`
	Amount        uint64    `json:"amount"`
	EquityPercent uint8     `json:"equity_percent"`
	Valuation     uint64    `json:"valuation"`
	Title         string    `json:"title,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	Deadline      time.Time `json:"deadline"`
	Status        string    `json:"status"`
	DisputeStatus string    `json:"dispute_status"`
	Active        bool      `json:"active"`
	Custodied     uint64    `json:"custodied"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewInvestmentResponse maps a domain investment to its API view
func NewInvestmentResponse(inv *domain.Investment) InvestmentResponse {
	var recipient *string
	if inv.Recipient != nil {
		r := string(*inv.Recipient)
		recipient = &r
	}

	return InvestmentResponse{
		ID:            inv.ID,
		Funder:        string(inv.Funder),
		Recipient:     recipient,
		Amount:        inv.Amount,
		EquityPercent: inv.EquityPercent,
		Valuation:     inv.Valuation,
		Title:         inv.Title,
		Detail:        inv.Detail,
		Deadline:      inv.Deadline,
		Status:        string(inv.Status),
		DisputeStatus: string(inv.DisputeStatus),
		Active:        inv.Active,
		Custodied:     inv.Custodied,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// InvestmentListResponse wraps a list of investments
type InvestmentListResponse struct {
	Investments []InvestmentResponse `json:"investments"`
}

// DisputeResponse is the API view of a dispute record
type DisputeResponse struct {
	ID           uint64     `json:"id"`
	InvestmentID uint64     `json:"investment_id"`
	Initiator    string     `json:"initiator"`
	Reason       string     `json:"reason"`
	Resolution   *string    `json:"resolution,omitempty"`
	RaisedAt     time.Time  `json:"raised_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// NewDisputeResponse maps a domain dispute to its API view
func NewDisputeResponse(d *domain.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:           d.ID,
		InvestmentID: d.InvestmentID,
		Initiator:    string(d.Initiator),
		Reason:       d.Reason,
		Resolution:   d.Resolution,
		RaisedAt:     d.RaisedAt,
		ResolvedAt:   d.ResolvedAt,
	}
}

// BalanceResponse reports an account's ledger balance
type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// StatusResponse is the generic acknowledgement for state-changing calls
type StatusResponse struct {
	Status string `json:"status"`
}

// AnnounceRecoveryResponse reports when emergency execution becomes possible
type AnnounceRecoveryResponse struct {
	ExecuteAfter time.Time `json:"execute_after"`
}

// ExecuteRecoveryResponse reports the drained custody amount
type ExecuteRecoveryResponse struct {
	Drained uint64 `json:"drained"`
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status string `json:"status"`
}
