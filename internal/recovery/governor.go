package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/fundlock/escrow-ledger/internal/adapter"
	"github.com/fundlock/escrow-ledger/internal/audit"
	"github.com/fundlock/escrow-ledger/internal/config"
	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/ledger"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/transfer"
)

// Governor implements the two-phase emergency withdrawal. Both phases are
// admin-only and only available while the ledger is globally suspended. The
// announce phase starts a fixed public notice period; execute drains the
// entire custody balance to the administrator once the period elapses.
//
// This is the safety valve for catastrophic bugs, not a routine operation:
// the notice period exists so external observers can react before custody is
// seized.
type Governor struct {
	store    store.Store
	clock    adapter.Clock
	recorder *audit.Recorder
	movers   transfer.Factory
	policy   config.PolicyConfig
}

// NewGovernor creates the emergency recovery governor
func NewGovernor(
	s store.Store,
	clock adapter.Clock,
	recorder *audit.Recorder,
	movers transfer.Factory,
	policy config.PolicyConfig,
) *Governor {
	return &Governor{
		store:    s,
		clock:    clock,
		recorder: recorder,
		movers:   movers,
		policy:   policy,
	}
}

// Announce opens the notice period and returns the instant execution becomes
// possible. Re-announcing resets the timer.
func (g *Governor) Announce(ctx context.Context, caller domain.AccountID) (time.Time, error) {
	if caller != g.policy.AdminAccount {
		return time.Time{}, domain.ErrUnauthorizedAccess
	}

	var (
		executeAfter time.Time
		events       []domain.AuditEvent
	)
	err := g.store.Tx(ctx, func(tx store.Store) error {
		paused, err := ledger.IsPaused(ctx, tx)
		if err != nil {
			return err
		}
		if !paused {
			return domain.ErrLedgerNotPaused
		}

		executeAfter = g.clock.Now().Add(g.policy.EmergencyDelay)
		if err := tx.SetValue(ctx, store.KeyRecoveryAnnounced, "true"); err != nil {
			return err
		}
		if err := tx.SetValue(ctx, store.KeyRecoveryExecuteAfter, executeAfter.Format(time.RFC3339Nano)); err != nil {
			return err
		}

		ev := domain.AuditEvent{
			Type:      domain.AuditEmergencyAnnounced,
			Actor:     caller,
			Detail:    executeAfter.Format(time.RFC3339Nano),
			Timestamp: g.clock.Now(),
		}
		if err := g.recorder.Append(ctx, tx, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	for i := range events {
		g.recorder.Dispatch(&events[i])
	}
	return executeAfter, nil
}

// Execute drains the custody balance to the administrator and clears the
// announcement. Requires a prior Announce whose notice period has fully
// elapsed; the expiry instant itself is allowed.
func (g *Governor) Execute(ctx context.Context, caller domain.AccountID) (uint64, error) {
	if caller != g.policy.AdminAccount {
		return 0, domain.ErrUnauthorizedAccess
	}

	var (
		drained uint64
		events  []domain.AuditEvent
	)
	err := g.store.Tx(ctx, func(tx store.Store) error {
		paused, err := ledger.IsPaused(ctx, tx)
		if err != nil {
			return err
		}
		if !paused {
			return domain.ErrLedgerNotPaused
		}

		announced, err := tx.GetValue(ctx, store.KeyRecoveryAnnounced)
		if err != nil {
			return err
		}
		if announced != "true" {
			return domain.ErrEmergencyWithdrawalNotReady
		}

		raw, err := tx.GetValue(ctx, store.KeyRecoveryExecuteAfter)
		if err != nil {
			return err
		}
		executeAfter, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("corrupt recovery timestamp %q: %w", raw, err)
		}
		if g.clock.Now().Before(executeAfter) {
			return domain.ErrEmergencyWithdrawalNotReady
		}

		drained, err = tx.GetBalance(ctx, domain.CustodyAccount)
		if err != nil {
			return err
		}
		if err := g.movers(tx).Move(ctx, domain.CustodyAccount, caller, drained); err != nil {
			return err
		}

		if err := tx.DeleteValue(ctx, store.KeyRecoveryAnnounced); err != nil {
			return err
		}
		if err := tx.DeleteValue(ctx, store.KeyRecoveryExecuteAfter); err != nil {
			return err
		}

		ev := domain.AuditEvent{
			Type:      domain.AuditEmergencyExecuted,
			Actor:     caller,
			Amount:    &drained,
			Timestamp: g.clock.Now(),
		}
		if err := g.recorder.Append(ctx, tx, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := range events {
		g.recorder.Dispatch(&events[i])
	}
	return drained, nil
}
