package store

import (
	"context"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

// Keys of the global scalars kept in the key-value store.
const (
	// KeyLedgerPaused is set to "true" while the ledger is globally suspended
	KeyLedgerPaused = "ledger:paused"
	// KeyRecoveryAnnounced is set to "true" once an emergency withdrawal is announced
	KeyRecoveryAnnounced = "recovery:announced"
	// KeyRecoveryExecuteAfter holds the RFC3339 instant the timelock expires
	KeyRecoveryExecuteAfter = "recovery:execute_after"
)

// Store defines the interface for ledger persistence. Lookups return nil
// (not an error) when the record does not exist.
//
// Every state-changing ledger operation runs inside a single Tx call; the
// ForUpdate variants take row locks so concurrent operations on the same
// record serialize.
type Store interface {
	// Tx runs fn against a transactional view of the store. If fn returns an
	// error the transaction rolls back and no mutation is observable.
	Tx(ctx context.Context, fn func(tx Store) error) error

	// CreateInvestment inserts a new investment and assigns its id
	CreateInvestment(ctx context.Context, inv *schema.Investment) error
	// GetInvestment retrieves an investment by id
	GetInvestment(ctx context.Context, id uint64) (*schema.Investment, error)
	// GetInvestmentForUpdate retrieves an investment by id, locking the row
	GetInvestmentForUpdate(ctx context.Context, id uint64) (*schema.Investment, error)
	// SaveInvestment persists changes to an existing investment
	SaveInvestment(ctx context.Context, inv *schema.Investment) error
	// ListInvestmentsByFunder retrieves all investments created by an account
	ListInvestmentsByFunder(ctx context.Context, funder domain.AccountID) ([]*schema.Investment, error)
	// CountOutstandingInvestments counts an account's non-terminal investments
	CountOutstandingInvestments(ctx context.Context, funder domain.AccountID) (int64, error)

	// CreateDispute inserts a new dispute record
	CreateDispute(ctx context.Context, d *schema.Dispute) error
	// GetOpenDispute retrieves the unresolved dispute for an investment, if any
	GetOpenDispute(ctx context.Context, investmentID uint64) (*schema.Dispute, error)
	// SaveDispute persists changes to an existing dispute
	SaveDispute(ctx context.Context, d *schema.Dispute) error

	// GetRateStateForUpdate retrieves an account's rate state, locking the row
	GetRateStateForUpdate(ctx context.Context, account domain.AccountID) (*schema.RateState, error)
	// SaveRateState upserts an account's rate state
	SaveRateState(ctx context.Context, rs *schema.RateState) error

	// CreateCoolingBarrier inserts the cooling-off barrier for an investment
	CreateCoolingBarrier(ctx context.Context, cb *schema.CoolingBarrier) error
	// GetCoolingBarrier retrieves the cooling-off barrier for an investment
	GetCoolingBarrier(ctx context.Context, investmentID uint64) (*schema.CoolingBarrier, error)

	// GetBalance retrieves an account's balance (0 when no row exists)
	GetBalance(ctx context.Context, account domain.AccountID) (uint64, error)
	// GetBalanceForUpdate retrieves an account's balance row, locking it
	GetBalanceForUpdate(ctx context.Context, account domain.AccountID) (*schema.AccountBalance, error)
	// SaveBalance upserts an account's balance row
	SaveBalance(ctx context.Context, b *schema.AccountBalance) error

	// AppendAuditEvent inserts an audit event row
	AppendAuditEvent(ctx context.Context, ev *schema.AuditEvent) error

	// GetValue retrieves a global scalar ("" when absent)
	GetValue(ctx context.Context, key string) (string, error)
	// SetValue upserts a global scalar
	SetValue(ctx context.Context, key string, value string) error
	// DeleteValue removes a global scalar
	DeleteValue(ctx context.Context, key string) error
}
