package domain

import "time"

// AuditEventType identifies the operation an audit event records
type AuditEventType string

const (
	AuditInvestmentCreated   AuditEventType = "investment_created"
	AuditInvestmentFunded    AuditEventType = "investment_funded"
	AuditInvestmentRepaid    AuditEventType = "investment_repaid"
	AuditInvestmentCancelled AuditEventType = "investment_cancelled"
	AuditInvestmentPaused    AuditEventType = "investment_paused"
	AuditInvestmentResumed   AuditEventType = "investment_resumed"
	AuditDeadlineExtended    AuditEventType = "deadline_extended"
	AuditWithdrawal          AuditEventType = "investment_withdrawn"
	AuditDisputeRaised       AuditEventType = "dispute_raised"
	AuditDisputeResolved     AuditEventType = "dispute_resolved"
	AuditFeeCollected        AuditEventType = "fee_collected"
	AuditRateLimitExceeded   AuditEventType = "rate_limit_exceeded"
	AuditLedgerSuspended     AuditEventType = "ledger_suspended"
	AuditLedgerResumed       AuditEventType = "ledger_resumed"
	AuditEmergencyAnnounced  AuditEventType = "emergency_announced"
	AuditEmergencyExecuted   AuditEventType = "emergency_executed"
)

// AuditEvent is the append-only notification emitted by every state-changing
// operation. It is persisted in the same transaction as the mutation it
// describes and then published to the message broker.
type AuditEvent struct {
	Type          AuditEventType `json:"type"`
	InvestmentID  *uint64        `json:"investment_id,omitempty"`
	Actor         AccountID      `json:"actor"`
	Amount        *uint64        `json:"amount,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	Detail        string         `json:"detail,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}
