package transfer

import (
	"context"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

// Mover is the value-transfer primitive: an atomic, all-or-nothing move of
// value between accounts. The ledger never observes a partial transfer.
//
//go:generate mockgen -source=transfer.go -destination=../mocks/mover.go -package=mocks -mock_names=Mover=MockMover
type Mover interface {
	// Move debits from and credits to. Fails with ErrInsufficientFunds if
	// from does not hold amount; on failure neither balance changes.
	Move(ctx context.Context, from, to domain.AccountID, amount uint64) error
}

// Factory builds a Mover bound to a store view. Operations pass their
// transaction-scoped store so a transfer commits or rolls back with the
// mutation it accompanies.
type Factory func(s store.Store) Mover

// LedgerFactory returns a Factory producing balance-table movers
func LedgerFactory() Factory {
	return func(s store.Store) Mover {
		return &balanceMover{s: s}
	}
}

// balanceMover implements Mover over the account_balances table
type balanceMover struct {
	s store.Store
}

func (m *balanceMover) Move(ctx context.Context, from, to domain.AccountID, amount uint64) error {
	if amount == 0 {
		return nil
	}

	// Lock rows in lexicographic account order to avoid deadlocks between
	// concurrent transfers touching the same pair.
	first, second := from, to
	if second < first {
		first, second = second, first
	}

	locked := make(map[domain.AccountID]*schema.AccountBalance, 2)
	for _, account := range []domain.AccountID{first, second} {
		row, err := m.s.GetBalanceForUpdate(ctx, account)
		if err != nil {
			return err
		}
		if row == nil {
			row = &schema.AccountBalance{Account: string(account)}
		}
		locked[account] = row
	}

	src, dst := locked[from], locked[to]
	if src.Balance < amount {
		return domain.ErrInsufficientFunds
	}

	src.Balance -= amount
	dst.Balance += amount

	if err := m.s.SaveBalance(ctx, src); err != nil {
		return err
	}
	return m.s.SaveBalance(ctx, dst)
}
