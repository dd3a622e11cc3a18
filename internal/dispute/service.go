package dispute

import (
	"context"

	"github.com/fundlock/escrow-ledger/internal/adapter"
	"github.com/fundlock/escrow-ledger/internal/audit"
	"github.com/fundlock/escrow-ledger/internal/config"
	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/ledger"
	"github.com/fundlock/escrow-ledger/internal/ratelimit"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

// Service implements the dispute side-channel. Disputes attach to an
// investment and mark it, nothing more: resolution is advisory and moves no
// value. At most one unresolved dispute exists per investment.
type Service struct {
	store    store.Store
	clock    adapter.Clock
	limiter  *ratelimit.Limiter
	recorder *audit.Recorder
	policy   config.PolicyConfig
}

// NewService creates the dispute service
func NewService(
	s store.Store,
	clock adapter.Clock,
	recorder *audit.Recorder,
	policy config.PolicyConfig,
) *Service {
	return &Service{
		store:    s,
		clock:    clock,
		limiter:  ratelimit.NewLimiter(policy.RateLimitWindow, policy.RateLimitMaxOps),
		recorder: recorder,
		policy:   policy,
	}
}

// Raise attaches a dispute to an investment. Any account may raise one; a
// second unresolved dispute on the same investment is rejected.
func (s *Service) Raise(ctx context.Context, caller domain.AccountID, investmentID uint64, reason string) (*domain.Dispute, error) {
	if !caller.Valid() {
		return nil, domain.ErrInvalidAddress
	}

	var (
		raised *domain.Dispute
		events []domain.AuditEvent
	)
	err := s.store.Tx(ctx, func(tx store.Store) error {
		paused, err := ledger.IsPaused(ctx, tx)
		if err != nil {
			return err
		}
		if paused {
			return domain.ErrLedgerPaused
		}

		now := s.clock.Now()
		if err := s.limiter.CheckAndRecord(ctx, tx, caller, now); err != nil {
			return err
		}

		inv, err := tx.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrInvestmentNotFound
		}

		open, err := tx.GetOpenDispute(ctx, investmentID)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrDisputeActive
		}

		d := &schema.Dispute{
			InvestmentID: investmentID,
			Initiator:    string(caller),
			Reason:       reason,
			RaisedAt:     now,
		}
		if err := tx.CreateDispute(ctx, d); err != nil {
			return err
		}

		inv.DisputeStatus = domain.DisputeRaised
		inv.UpdatedAt = now
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		ev := domain.AuditEvent{
			Type:         domain.AuditDisputeRaised,
			InvestmentID: &investmentID,
			Actor:        caller,
			Detail:       reason,
			Timestamp:    now,
		}
		if err := s.recorder.Append(ctx, tx, &ev); err != nil {
			return err
		}
		events = append(events, ev)

		raised = d.Domain()
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range events {
		s.recorder.Dispatch(&events[i])
	}
	return raised, nil
}

// Resolve closes the unresolved dispute on an investment and records the
// resolution text. Admin only. Resolution has no effect on investment status
// or custody.
func (s *Service) Resolve(ctx context.Context, caller domain.AccountID, investmentID uint64, resolution string) error {
	if caller != s.policy.AdminAccount {
		return domain.ErrUnauthorizedAccess
	}

	var events []domain.AuditEvent
	err := s.store.Tx(ctx, func(tx store.Store) error {
		paused, err := ledger.IsPaused(ctx, tx)
		if err != nil {
			return err
		}
		if paused {
			return domain.ErrLedgerPaused
		}

		inv, err := tx.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrInvestmentNotFound
		}

		open, err := tx.GetOpenDispute(ctx, investmentID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.ErrNoActiveDispute
		}

		now := s.clock.Now()
		open.Resolution = &resolution
		open.ResolvedAt = &now
		if err := tx.SaveDispute(ctx, open); err != nil {
			return err
		}

		inv.DisputeStatus = domain.DisputeResolved
		inv.UpdatedAt = now
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		ev := domain.AuditEvent{
			Type:         domain.AuditDisputeResolved,
			InvestmentID: &investmentID,
			Actor:        caller,
			Detail:       resolution,
			Timestamp:    now,
		}
		if err := s.recorder.Append(ctx, tx, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return err
	}

	for i := range events {
		s.recorder.Dispatch(&events[i])
	}
	return nil
}
