package ledger

import (
	"context"
	"errors"

	"github.com/fundlock/escrow-ledger/internal/adapter"
	"github.com/fundlock/escrow-ledger/internal/audit"
	"github.com/fundlock/escrow-ledger/internal/config"
	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/ratelimit"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/transfer"
)

// Service implements the investment lifecycle over the custody ledger. Every
// state-changing operation runs in a single store transaction: guards fire
// first, value moves next, the record mutation and its audit event commit
// together or not at all.
type Service struct {
	store    store.Store
	clock    adapter.Clock
	limiter  *ratelimit.Limiter
	recorder *audit.Recorder
	movers   transfer.Factory
	policy   config.PolicyConfig
}

// NewService creates the ledger service
func NewService(
	s store.Store,
	clock adapter.Clock,
	recorder *audit.Recorder,
	movers transfer.Factory,
	policy config.PolicyConfig,
) *Service {
	return &Service{
		store:    s,
		clock:    clock,
		limiter:  ratelimit.NewLimiter(policy.RateLimitWindow, policy.RateLimitMaxOps),
		recorder: recorder,
		movers:   movers,
		policy:   policy,
	}
}

// IsPaused reports whether the ledger is globally suspended
func IsPaused(ctx context.Context, s store.Store) (bool, error) {
	v, err := s.GetValue(ctx, store.KeyLedgerPaused)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// guarded runs fn inside a transaction after the global pause check and the
// caller's rate-limit charge. Audit events appended through record are
// dispatched to the broker only after the transaction commits.
//
// A rate-limit rejection rolls the operation back but is itself audited, in
// its own transaction, so the trail shows the refused attempt.
func (s *Service) guarded(ctx context.Context, caller domain.AccountID, fn func(tx store.Store, events *[]domain.AuditEvent) error) error {
	if !caller.Valid() {
		return domain.ErrInvalidAddress
	}

	var events []domain.AuditEvent
	err := s.store.Tx(ctx, func(tx store.Store) error {
		paused, err := IsPaused(ctx, tx)
		if err != nil {
			return err
		}
		if paused {
			return domain.ErrLedgerPaused
		}

		if err := s.limiter.CheckAndRecord(ctx, tx, caller, s.clock.Now()); err != nil {
			return err
		}

		return fn(tx, &events)
	})
	if errors.Is(err, domain.ErrRateLimitReached) {
		s.auditRateLimit(ctx, caller)
	}
	if err != nil {
		return err
	}

	s.dispatch(events)
	return nil
}

// record appends the event inside the transaction and queues it for
// post-commit dispatch
func (s *Service) record(ctx context.Context, tx store.Store, events *[]domain.AuditEvent, ev domain.AuditEvent) error {
	ev.Timestamp = s.clock.Now()
	if err := s.recorder.Append(ctx, tx, &ev); err != nil {
		return err
	}
	*events = append(*events, ev)
	return nil
}

func (s *Service) dispatch(events []domain.AuditEvent) {
	for i := range events {
		s.recorder.Dispatch(&events[i])
	}
}

// auditRateLimit records a refused attempt outside the rolled-back
// transaction. Best-effort: the caller already has its rejection.
func (s *Service) auditRateLimit(ctx context.Context, caller domain.AccountID) {
	var events []domain.AuditEvent
	err := s.store.Tx(ctx, func(tx store.Store) error {
		return s.record(ctx, tx, &events, domain.AuditEvent{
			Type:  domain.AuditRateLimitExceeded,
			Actor: caller,
		})
	})
	if err == nil {
		s.dispatch(events)
	}
}

// SetLedgerPaused suspends or resumes all state-changing operations. Admin
// only; exempt from the rate limit so the operator can always act.
func (s *Service) SetLedgerPaused(ctx context.Context, caller domain.AccountID, paused bool) error {
	if caller != s.policy.AdminAccount {
		return domain.ErrUnauthorizedAccess
	}

	var events []domain.AuditEvent
	err := s.store.Tx(ctx, func(tx store.Store) error {
		current, err := IsPaused(ctx, tx)
		if err != nil {
			return err
		}
		if current == paused {
			return domain.ErrAlreadyInState
		}

		eventType := domain.AuditLedgerSuspended
		if paused {
			if err := tx.SetValue(ctx, store.KeyLedgerPaused, "true"); err != nil {
				return err
			}
		} else {
			eventType = domain.AuditLedgerResumed
			if err := tx.DeleteValue(ctx, store.KeyLedgerPaused); err != nil {
				return err
			}
		}

		return s.record(ctx, tx, &events, domain.AuditEvent{
			Type:  eventType,
			Actor: caller,
		})
	})
	if err != nil {
		return err
	}

	s.dispatch(events)
	return nil
}

// GetInvestment retrieves a single investment
func (s *Service) GetInvestment(ctx context.Context, id uint64) (*domain.Investment, error) {
	inv, err := s.store.GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInvestmentNotFound
	}
	return inv.Domain(), nil
}

// ListInvestments retrieves all investments created by an account
func (s *Service) ListInvestments(ctx context.Context, funder domain.AccountID) ([]*domain.Investment, error) {
	rows, err := s.store.ListInvestmentsByFunder(ctx, funder)
	if err != nil {
		return nil, err
	}

	investments := make([]*domain.Investment, 0, len(rows))
	for _, row := range rows {
		investments = append(investments, row.Domain())
	}
	return investments, nil
}

// Balance retrieves an account's ledger balance
func (s *Service) Balance(ctx context.Context, account domain.AccountID) (uint64, error) {
	return s.store.GetBalance(ctx, account)
}

// CustodyBalance retrieves the total value currently held in custody
func (s *Service) CustodyBalance(ctx context.Context) (uint64, error) {
	return s.store.GetBalance(ctx, domain.CustodyAccount)
}

func u64ptr(v uint64) *uint64 { return &v }
