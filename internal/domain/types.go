package domain

import "time"

// AccountID is the opaque, stable account identifier supplied by the
// authentication layer. The ledger never interprets its contents.
type AccountID string

const (
	// CustodyAccount holds all value escrowed by the ledger. It is an
	// internal account: no caller can authenticate as it.
	CustodyAccount AccountID = "ledger:custody"
)

// Valid reports whether the account is a usable caller identity.
// The empty string and the custody account are not valid callers.
func (a AccountID) Valid() bool {
	return a != "" && a != CustodyAccount
}

// InvestmentStatus represents the lifecycle state of an investment
type InvestmentStatus string

const (
	// StatusActive means the investment is created and awaiting funding
	StatusActive InvestmentStatus = "active"
	// StatusFunded means a recipient has attached matching value
	StatusFunded InvestmentStatus = "funded"
	// StatusRepaid means the funder returned the committed value; terminal
	StatusRepaid InvestmentStatus = "repaid"
	// StatusCancelled means the funder withdrew the commitment pre-funding; terminal
	StatusCancelled InvestmentStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s InvestmentStatus) Terminal() bool {
	return s == StatusRepaid || s == StatusCancelled
}

// DisputeStatus represents the dispute state attached to an investment
type DisputeStatus string

const (
	DisputeNone     DisputeStatus = "none"
	DisputeRaised   DisputeStatus = "raised"
	DisputeResolved DisputeStatus = "resolved"
)

// Investment is the domain view of a ledger record, decoupled from storage.
type Investment struct {
	ID            uint64
	Funder        AccountID
	Recipient     *AccountID
	Amount        uint64
	EquityPercent uint8
	Valuation     uint64
	Title         string
	Detail        string
	Deadline      time.Time
	Status        InvestmentStatus
	DisputeStatus DisputeStatus
	Active        bool
	Custodied     uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Dispute is the domain view of a dispute record.
type Dispute struct {
	ID           uint64
	InvestmentID uint64
	Initiator    AccountID
	Reason       string
	Resolution   *string
	RaisedAt     time.Time
	ResolvedAt   *time.Time
}
