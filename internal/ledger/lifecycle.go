package ledger

import (
	"context"
	"time"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

// CreateParams carries the funder-supplied terms of a new investment
type CreateParams struct {
	Amount        uint64
	EquityPercent uint8
	Valuation     uint64
	Title         string
	Detail        string
	FundingPeriod time.Duration
	// Attached is the value the caller committed with the call. It must cover
	// the amount plus the creation fee exactly.
	Attached uint64
}

// Create opens a new investment. The committed amount moves into custody as
// collateral and the creation fee goes to the fee collector, both atomically
// with the insert. The cooling-off barrier starts now.
func (s *Service) Create(ctx context.Context, caller domain.AccountID, p CreateParams) (*domain.Investment, error) {
	var created *domain.Investment

	err := s.guarded(ctx, caller, func(tx store.Store, events *[]domain.AuditEvent) error {
		if p.Amount < s.policy.MinAmount || p.Amount > s.policy.MaxAmount {
			return domain.ErrInvalidAmount
		}
		if p.EquityPercent < 1 || p.EquityPercent > 100 {
			return domain.ErrInvalidEquityPercentage
		}
		if p.FundingPeriod < s.policy.MinFundingPeriod || p.FundingPeriod > s.policy.MaxFundingPeriod {
			return domain.ErrInvalidFundingPeriod
		}

		outstanding, err := tx.CountOutstandingInvestments(ctx, caller)
		if err != nil {
			return err
		}
		if outstanding >= int64(s.policy.MaxInvestments) {
			return domain.ErrMaxInvestmentsReached
		}

		fee := s.policy.Fee(p.Amount)
		if p.Attached != p.Amount+fee {
			return domain.ErrValueMismatch
		}

		mover := s.movers(tx)
		if err := mover.Move(ctx, caller, domain.CustodyAccount, p.Amount); err != nil {
			return err
		}
		if err := mover.Move(ctx, caller, s.policy.FeeCollector, fee); err != nil {
			return err
		}

		now := s.clock.Now()
		inv := &schema.Investment{
			Funder:        string(caller),
			Amount:        p.Amount,
			EquityPercent: p.EquityPercent,
			Valuation:     p.Valuation,
			Title:         p.Title,
			Detail:        p.Detail,
			Deadline:      now.Add(p.FundingPeriod),
			Status:        domain.StatusActive,
			DisputeStatus: domain.DisputeNone,
			Active:        true,
			Custodied:     p.Amount,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.CreateInvestment(ctx, inv); err != nil {
			return err
		}

		barrier := &schema.CoolingBarrier{
			InvestmentID: inv.ID,
			NotBefore:    now.Add(s.policy.CoolingPeriod),
		}
		if err := tx.CreateCoolingBarrier(ctx, barrier); err != nil {
			return err
		}

		if err := s.record(ctx, tx, events, domain.AuditEvent{
			Type:         domain.AuditInvestmentCreated,
			InvestmentID: &inv.ID,
			Actor:        caller,
			Amount:       u64ptr(p.Amount),
		}); err != nil {
			return err
		}
		if fee > 0 {
			if err := s.record(ctx, tx, events, domain.AuditEvent{
				Type:         domain.AuditFeeCollected,
				InvestmentID: &inv.ID,
				Actor:        caller,
				Amount:       u64ptr(fee),
			}); err != nil {
				return err
			}
		}

		created = inv.Domain()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Fund attaches the matching value to an open investment. The attached value
// goes straight to the funder; the collateral stays in custody until
// repayment.
func (s *Service) Fund(ctx context.Context, caller domain.AccountID, id uint64, attached uint64) error {
	return s.guarded(ctx, caller, func(tx store.Store, events *[]domain.AuditEvent) error {
		inv, err := s.lockInvestment(ctx, tx, id)
		if err != nil {
			return err
		}

		switch inv.Status {
		case domain.StatusFunded:
			return domain.ErrAlreadyFunded
		case domain.StatusRepaid:
			return domain.ErrAlreadyRepaid
		case domain.StatusCancelled:
			return domain.ErrInvestmentClosed
		}
		if !inv.Active {
			return domain.ErrInvestmentInactive
		}
		if string(caller) == inv.Funder {
			return domain.ErrUnauthorizedAccess
		}
		if attached != inv.Amount {
			return domain.ErrValueMismatch
		}

		now := s.clock.Now()
		if now.After(inv.Deadline) {
			return domain.ErrDeadlinePassed
		}

		mover := s.movers(tx)
		if err := mover.Move(ctx, caller, domain.AccountID(inv.Funder), attached); err != nil {
			return err
		}

		recipient := string(caller)
		inv.Recipient = &recipient
		inv.Status = domain.StatusFunded
		inv.UpdatedAt = now
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		return s.record(ctx, tx, events, domain.AuditEvent{
			Type:         domain.AuditInvestmentFunded,
			InvestmentID: &inv.ID,
			Actor:        caller,
			Amount:       u64ptr(attached),
		})
	})
}

// Repay settles a funded investment: the funder returns exactly the committed
// amount to the recipient, and the collateral leaves custody back to the
// funder. Both transfers and the state change are one atomic step; a repaid
// investment holds nothing in custody.
func (s *Service) Repay(ctx context.Context, caller domain.AccountID, id uint64, attached uint64) error {
	return s.guarded(ctx, caller, func(tx store.Store, events *[]domain.AuditEvent) error {
		inv, err := s.lockInvestment(ctx, tx, id)
		if err != nil {
			return err
		}

		switch inv.Status {
		case domain.StatusActive:
			return domain.ErrNotFunded
		case domain.StatusRepaid:
			return domain.ErrAlreadyRepaid
		case domain.StatusCancelled:
			return domain.ErrInvestmentClosed
		}
		if !inv.Active {
			return domain.ErrInvestmentInactive
		}
		if string(caller) != inv.Funder {
			return domain.ErrUnauthorizedAccess
		}
		if attached != inv.Amount {
			return domain.ErrValueMismatch
		}

		mover := s.movers(tx)
		if err := mover.Move(ctx, caller, domain.AccountID(*inv.Recipient), attached); err != nil {
			return err
		}
		if err := mover.Move(ctx, domain.CustodyAccount, caller, inv.Custodied); err != nil {
			return err
		}

		inv.Custodied = 0
		inv.Status = domain.StatusRepaid
		inv.Active = false
		inv.UpdatedAt = s.clock.Now()
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		return s.record(ctx, tx, events, domain.AuditEvent{
			Type:         domain.AuditInvestmentRepaid,
			InvestmentID: &inv.ID,
			Actor:        caller,
			Amount:       u64ptr(attached),
		})
	})
}

// SetActive pauses (active=false) or resumes (active=true) an investment.
// Either party may toggle it; setting the current state again is rejected.
func (s *Service) SetActive(ctx context.Context, caller domain.AccountID, id uint64, active bool) error {
	return s.guarded(ctx, caller, func(tx store.Store, events *[]domain.AuditEvent) error {
		inv, err := s.lockInvestment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := terminalError(inv); err != nil {
			return err
		}
		if !isParty(inv, caller) {
			return domain.ErrUnauthorizedAccess
		}
		if inv.Active == active {
			return domain.ErrAlreadyInState
		}

		inv.Active = active
		inv.UpdatedAt = s.clock.Now()
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		eventType := domain.AuditInvestmentPaused
		if active {
			eventType = domain.AuditInvestmentResumed
		}
		return s.record(ctx, tx, events, domain.AuditEvent{
			Type:         eventType,
			InvestmentID: &inv.ID,
			Actor:        caller,
		})
	})
}

// ExtendDeadline pushes the repayment deadline of a funded investment out by
// extension. Recipient only; the deadline can never end up more than the
// maximum funding period past creation.
func (s *Service) ExtendDeadline(ctx context.Context, caller domain.AccountID, id uint64, extension time.Duration) error {
	return s.guarded(ctx, caller, func(tx store.Store, events *[]domain.AuditEvent) error {
		inv, err := s.lockInvestment(ctx, tx, id)
		if err != nil {
			return err
		}

		switch inv.Status {
		case domain.StatusActive:
			return domain.ErrNotFunded
		case domain.StatusRepaid:
			return domain.ErrAlreadyRepaid
		case domain.StatusCancelled:
			return domain.ErrInvestmentClosed
		}
		if !inv.Active {
			return domain.ErrInvestmentInactive
		}
		if inv.Recipient == nil || string(caller) != *inv.Recipient {
			return domain.ErrUnauthorizedAccess
		}
		if extension <= 0 {
			return domain.ErrInvalidFundingPeriod
		}

		deadline := inv.Deadline.Add(extension)
		if deadline.Sub(inv.CreatedAt) > s.policy.MaxFundingPeriod {
			return domain.ErrInvalidFundingPeriod
		}

		inv.Deadline = deadline
		inv.UpdatedAt = s.clock.Now()
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		return s.record(ctx, tx, events, domain.AuditEvent{
			Type:         domain.AuditDeadlineExtended,
			InvestmentID: &inv.ID,
			Actor:        caller,
			Detail:       deadline.Format(time.RFC3339),
		})
	})
}

// Cancel closes an unfunded investment and returns its collateral to the
// funder. Gated by the cooling-off barrier.
func (s *Service) Cancel(ctx context.Context, caller domain.AccountID, id uint64) error {
	return s.guarded(ctx, caller, func(tx store.Store, events *[]domain.AuditEvent) error {
		inv, err := s.lockInvestment(ctx, tx, id)
		if err != nil {
			return err
		}

		switch inv.Status {
		case domain.StatusFunded:
			return domain.ErrAlreadyFunded
		case domain.StatusRepaid:
			return domain.ErrAlreadyRepaid
		case domain.StatusCancelled:
			return domain.ErrInvestmentClosed
		}
		if string(caller) != inv.Funder {
			return domain.ErrUnauthorizedAccess
		}
		if err := s.checkCoolingBarrier(ctx, tx, inv.ID); err != nil {
			return err
		}

		refund := inv.Custodied
		mover := s.movers(tx)
		if err := mover.Move(ctx, domain.CustodyAccount, caller, refund); err != nil {
			return err
		}

		inv.Custodied = 0
		inv.Status = domain.StatusCancelled
		inv.Active = false
		inv.UpdatedAt = s.clock.Now()
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		return s.record(ctx, tx, events, domain.AuditEvent{
			Type:         domain.AuditInvestmentCancelled,
			InvestmentID: &inv.ID,
			Actor:        caller,
			Amount:       u64ptr(refund),
		})
	})
}

// Withdraw lets the funder pull the collateral out of a paused investment and
// close it. The investment must be inactive, past its cooling-off barrier,
// and still holding custody.
func (s *Service) Withdraw(ctx context.Context, caller domain.AccountID, id uint64) error {
	return s.guarded(ctx, caller, func(tx store.Store, events *[]domain.AuditEvent) error {
		inv, err := s.lockInvestment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := terminalError(inv); err != nil {
			return err
		}
		if string(caller) != inv.Funder {
			return domain.ErrUnauthorizedAccess
		}
		if inv.Active {
			return domain.ErrInvestmentActive
		}
		if err := s.checkCoolingBarrier(ctx, tx, inv.ID); err != nil {
			return err
		}
		if inv.Custodied == 0 {
			return domain.ErrInsufficientFunds
		}

		withdrawn := inv.Custodied
		mover := s.movers(tx)
		if err := mover.Move(ctx, domain.CustodyAccount, caller, withdrawn); err != nil {
			return err
		}

		inv.Custodied = 0
		inv.Status = domain.StatusCancelled
		inv.UpdatedAt = s.clock.Now()
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		return s.record(ctx, tx, events, domain.AuditEvent{
			Type:         domain.AuditWithdrawal,
			InvestmentID: &inv.ID,
			Actor:        caller,
			Amount:       u64ptr(withdrawn),
		})
	})
}

// lockInvestment loads the investment row under a row lock
func (s *Service) lockInvestment(ctx context.Context, tx store.Store, id uint64) (*schema.Investment, error) {
	inv, err := tx.GetInvestmentForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInvestmentNotFound
	}
	return inv, nil
}

// checkCoolingBarrier rejects gated transitions before the per-investment
// barrier elapses. The barrier instant itself is allowed.
func (s *Service) checkCoolingBarrier(ctx context.Context, tx store.Store, id uint64) error {
	barrier, err := tx.GetCoolingBarrier(ctx, id)
	if err != nil {
		return err
	}
	if barrier != nil && s.clock.Now().Before(barrier.NotBefore) {
		return domain.ErrCoolingPeriodActive
	}
	return nil
}

func terminalError(inv *schema.Investment) error {
	switch inv.Status {
	case domain.StatusRepaid:
		return domain.ErrAlreadyRepaid
	case domain.StatusCancelled:
		return domain.ErrInvestmentClosed
	}
	return nil
}

func isParty(inv *schema.Investment, caller domain.AccountID) bool {
	if string(caller) == inv.Funder {
		return true
	}
	return inv.Recipient != nil && string(caller) == *inv.Recipient
}
