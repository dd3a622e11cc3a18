package domain

import "errors"

// Every rejection below leaves ledger state unchanged; operations either
// commit fully or surface one of these synchronously.
var (
	// ErrInvalidAmount is returned when an amount is outside the configured bounds
	ErrInvalidAmount = errors.New("amount outside configured bounds")

	// ErrInvalidEquityPercentage is returned when the equity percentage is outside [1,100]
	ErrInvalidEquityPercentage = errors.New("equity percentage outside [1,100]")

	// ErrInvalidFundingPeriod is returned when the funding period is outside the configured range
	ErrInvalidFundingPeriod = errors.New("funding period outside configured range")

	// ErrUnauthorizedAccess is returned when the caller lacks the required role or relationship
	ErrUnauthorizedAccess = errors.New("caller lacks required role")

	// ErrRateLimitReached is returned when the caller exhausted its window quota
	ErrRateLimitReached = errors.New("rate limit reached")

	// ErrCoolingPeriodActive is returned when a gated action is attempted before the barrier elapses
	ErrCoolingPeriodActive = errors.New("cooling period still active")

	// ErrMaxInvestmentsReached is returned when the caller is at the per-account cap
	ErrMaxInvestmentsReached = errors.New("maximum outstanding investments reached")

	// ErrEmergencyWithdrawalNotReady is returned when execute is called before
	// announce or before the timelock delay elapses
	ErrEmergencyWithdrawalNotReady = errors.New("emergency withdrawal not ready")

	// ErrInvalidAddress is returned when a null or reserved account is supplied
	ErrInvalidAddress = errors.New("invalid account address")

	// ErrLedgerPaused is returned when a state-changing operation is attempted while suspended
	ErrLedgerPaused = errors.New("ledger is paused")

	// ErrLedgerNotPaused is returned when an operation requires global suspension
	ErrLedgerNotPaused = errors.New("ledger is not paused")

	// ErrInvestmentNotFound is returned when the referenced investment id does not exist
	ErrInvestmentNotFound = errors.New("investment not found")

	// ErrInvestmentClosed is returned when the investment reached a terminal
	// state (cancelled) that admits no further mutation
	ErrInvestmentClosed = errors.New("investment is closed")

	// ErrAlreadyFunded is returned on a second funding attempt
	ErrAlreadyFunded = errors.New("investment already funded")

	// ErrNotFunded is returned when repayment or extension requires a funded investment
	ErrNotFunded = errors.New("investment not funded")

	// ErrAlreadyRepaid is returned when mutating a repaid investment
	ErrAlreadyRepaid = errors.New("investment already repaid")

	// ErrValueMismatch is returned when the attached value does not match the committed amount
	ErrValueMismatch = errors.New("attached value does not match required amount")

	// ErrDeadlinePassed is returned when funding is attempted after the deadline
	ErrDeadlinePassed = errors.New("funding deadline passed")

	// ErrAlreadyInState is returned when a toggle would not change state
	ErrAlreadyInState = errors.New("investment already in requested state")

	// ErrInvestmentActive is returned when withdrawal requires an inactive investment
	ErrInvestmentActive = errors.New("investment still active")

	// ErrInvestmentInactive is returned when the operation requires an active investment
	ErrInvestmentInactive = errors.New("investment is inactive")

	// ErrDisputeActive is returned when an unresolved dispute already exists
	ErrDisputeActive = errors.New("unresolved dispute already exists")

	// ErrNoActiveDispute is returned when resolution targets a non-disputed investment
	ErrNoActiveDispute = errors.New("no unresolved dispute")

	// ErrInsufficientFunds is returned when the attached value exceeds the caller's balance
	ErrInsufficientFunds = errors.New("insufficient funds")
)
