package ratelimit

import (
	"context"
	"time"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

// Limiter is a fixed-window per-account operation counter. A burst can occur
// at window boundaries; that is the accepted tradeoff for O(1) persisted
// state per account instead of a timestamp log.
//
// The limiter is the sole writer of rate_states. Callers pass their
// transaction-scoped store so a rejected operation rolls the counter back
// along with everything else.
type Limiter struct {
	window time.Duration
	maxOps int
}

// NewLimiter creates a limiter allowing maxOps operations per window
func NewLimiter(window time.Duration, maxOps int) *Limiter {
	return &Limiter{window: window, maxOps: maxOps}
}

// CheckAndRecord counts one operation for the account. If a full window has
// elapsed since the last counted operation, the counter resets before
// evaluation. Returns
// ErrRateLimitReached without consuming quota when the account is over its
// limit.
func (l *Limiter) CheckAndRecord(ctx context.Context, s store.Store, account domain.AccountID, now time.Time) error {
	rs, err := s.GetRateStateForUpdate(ctx, account)
	if err != nil {
		return err
	}
	if rs == nil {
		rs = &schema.RateState{Account: string(account)}
	} else if now.Sub(rs.LastOp) >= l.window {
		rs.Count = 0
	}

	if rs.Count >= l.maxOps {
		return domain.ErrRateLimitReached
	}

	rs.Count++
	rs.LastOp = now
	return s.SaveRateState(ctx, rs)
}
