package ledger_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundlock/escrow-ledger/internal/audit"
	"github.com/fundlock/escrow-ledger/internal/config"
	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/ledger"
	"github.com/fundlock/escrow-ledger/internal/logger"
	"github.com/fundlock/escrow-ledger/internal/mocks"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/transfer"
)

const (
	funder    = domain.AccountID("acct:funder")
	recipient = domain.AccountID("acct:recipient")
	stranger  = domain.AccountID("acct:stranger")
	admin     = domain.AccountID("acct:admin")
	collector = domain.AccountID("acct:fees")
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func testPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		MinAmount:        10,
		MaxAmount:        1_000_000,
		MinFundingPeriod: time.Hour,
		MaxFundingPeriod: 30 * 24 * time.Hour,
		CoolingPeriod:    24 * time.Hour,
		RateLimitWindow:  time.Hour,
		RateLimitMaxOps:  5,
		MaxInvestments:   3,
		EmergencyDelay:   48 * time.Hour,
		FeePercent:       1,
		AdminAccount:     admin,
		FeeCollector:     collector,
	}
}

// testEnv wires the service over the in-memory store with a controllable clock
type testEnv struct {
	ctrl  *gomock.Controller
	store *store.MemoryStore
	clock *mocks.MockClock
	now   time.Time
	svc   *ledger.Service
}

func setupTest(t *testing.T) *testEnv {
	ctrl := gomock.NewController(t)

	env := &testEnv{
		ctrl:  ctrl,
		store: store.NewMemoryStore(),
		clock: mocks.NewMockClock(ctrl),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.clock.EXPECT().Now().DoAndReturn(func() time.Time { return env.now }).AnyTimes()

	env.svc = ledger.NewService(env.store, env.clock, audit.NewRecorder(nil), transfer.LedgerFactory(), testPolicy())
	return env
}

func (env *testEnv) tearDown() {
	env.ctrl.Finish()
}

// advance moves the test clock forward
func (env *testEnv) advance(d time.Duration) {
	env.now = env.now.Add(d)
}

// balance reads an account balance directly from the store
func (env *testEnv) balance(t *testing.T, account domain.AccountID) uint64 {
	b, err := env.store.GetBalance(context.Background(), account)
	require.NoError(t, err)
	return b
}

// auditTypes lists the recorded audit event types in order
func (env *testEnv) auditTypes() []string {
	events := env.store.AuditEvents()
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

// create opens a standard 1000-unit investment (fee 10) for funder
func (env *testEnv) create(t *testing.T) *domain.Investment {
	inv, err := env.svc.Create(context.Background(), funder, ledger.CreateParams{
		Amount:        1000,
		EquityPercent: 20,
		Valuation:     5000,
		Title:         "seed round",
		FundingPeriod: 72 * time.Hour,
		Attached:      1010,
	})
	require.NoError(t, err)
	return inv
}

func TestCreate_Success(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)

	inv := env.create(t)

	assert.Equal(t, uint64(1), inv.ID)
	assert.Equal(t, funder, inv.Funder)
	assert.Nil(t, inv.Recipient)
	assert.Equal(t, domain.StatusActive, inv.Status)
	assert.True(t, inv.Active)
	assert.Equal(t, uint64(1000), inv.Custodied)
	assert.Equal(t, env.now.Add(72*time.Hour), inv.Deadline)

	// Collateral in custody, fee collected, remainder with the funder
	assert.Equal(t, uint64(990), env.balance(t, funder))
	assert.Equal(t, uint64(1000), env.balance(t, domain.CustodyAccount))
	assert.Equal(t, uint64(10), env.balance(t, collector))

	assert.Equal(t, []string{"investment_created", "fee_collected"}, env.auditTypes())
}

func TestCreate_AssignsMonotonicIDs(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 5000)

	first := env.create(t)
	second := env.create(t)

	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, uint64(2), second.ID)
}

func TestCreate_Validation(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 5000)

	tests := []struct {
		name    string
		params  ledger.CreateParams
		wantErr error
	}{
		{
			name:    "amount below minimum",
			params:  ledger.CreateParams{Amount: 5, EquityPercent: 20, FundingPeriod: 72 * time.Hour, Attached: 5},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "amount above maximum",
			params:  ledger.CreateParams{Amount: 2_000_000, EquityPercent: 20, FundingPeriod: 72 * time.Hour, Attached: 2_020_000},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "equity percentage zero",
			params:  ledger.CreateParams{Amount: 1000, EquityPercent: 0, FundingPeriod: 72 * time.Hour, Attached: 1010},
			wantErr: domain.ErrInvalidEquityPercentage,
		},
		{
			name:    "funding period too short",
			params:  ledger.CreateParams{Amount: 1000, EquityPercent: 20, FundingPeriod: time.Minute, Attached: 1010},
			wantErr: domain.ErrInvalidFundingPeriod,
		},
		{
			name:    "funding period too long",
			params:  ledger.CreateParams{Amount: 1000, EquityPercent: 20, FundingPeriod: 365 * 24 * time.Hour, Attached: 1010},
			wantErr: domain.ErrInvalidFundingPeriod,
		},
		{
			name:    "attached value does not cover fee",
			params:  ledger.CreateParams{Amount: 1000, EquityPercent: 20, FundingPeriod: 72 * time.Hour, Attached: 1000},
			wantErr: domain.ErrValueMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(context.Background(), funder, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No rejected create moved any value
	assert.Equal(t, uint64(5000), env.balance(t, funder))
	assert.Equal(t, uint64(0), env.balance(t, domain.CustodyAccount))
}

func TestCreate_InvalidCaller(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	for _, caller := range []domain.AccountID{"", domain.CustodyAccount} {
		_, err := env.svc.Create(context.Background(), caller, ledger.CreateParams{
			Amount: 1000, EquityPercent: 20, FundingPeriod: 72 * time.Hour, Attached: 1010,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	}
}

func TestCreate_InsufficientFunds(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 500)

	_, err := env.svc.Create(context.Background(), funder, ledger.CreateParams{
		Amount: 1000, EquityPercent: 20, FundingPeriod: 72 * time.Hour, Attached: 1010,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, uint64(500), env.balance(t, funder))
}

func TestCreate_MaxOutstandingInvestments(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 10_000)

	for i := 0; i < 3; i++ {
		env.create(t)
	}

	_, err := env.svc.Create(context.Background(), funder, ledger.CreateParams{
		Amount: 1000, EquityPercent: 20, FundingPeriod: 72 * time.Hour, Attached: 1010,
	})
	assert.ErrorIs(t, err, domain.ErrMaxInvestmentsReached)
}

func TestFund_Success(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 1500)
	inv := env.create(t)

	err := env.svc.Fund(context.Background(), recipient, inv.ID, 1000)
	require.NoError(t, err)

	got, err := env.svc.GetInvestment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFunded, got.Status)
	require.NotNil(t, got.Recipient)
	assert.Equal(t, recipient, *got.Recipient)

	// Attached value goes straight to the funder; collateral stays custodied
	assert.Equal(t, uint64(500), env.balance(t, recipient))
	assert.Equal(t, uint64(1990), env.balance(t, funder))
	assert.Equal(t, uint64(1000), env.balance(t, domain.CustodyAccount))
	assert.Equal(t, uint64(1000), got.Custodied)
}

func TestFund_Rejections(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 2000)
	env.store.SeedBalance(stranger, 2000)
	inv := env.create(t)

	t.Run("self funding", func(t *testing.T) {
		err := env.svc.Fund(context.Background(), funder, inv.ID, 1000)
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	t.Run("value mismatch", func(t *testing.T) {
		err := env.svc.Fund(context.Background(), recipient, inv.ID, 999)
		assert.ErrorIs(t, err, domain.ErrValueMismatch)
	})

	t.Run("unknown investment", func(t *testing.T) {
		err := env.svc.Fund(context.Background(), recipient, 404, 1000)
		assert.ErrorIs(t, err, domain.ErrInvestmentNotFound)
	})

	t.Run("double funding", func(t *testing.T) {
		require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))
		err := env.svc.Fund(context.Background(), stranger, inv.ID, 1000)
		assert.ErrorIs(t, err, domain.ErrAlreadyFunded)
	})
}

func TestFund_DeadlinePassed(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 2000)
	inv := env.create(t)

	env.advance(72*time.Hour + time.Second)

	err := env.svc.Fund(context.Background(), recipient, inv.ID, 1000)
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)
}

func TestRepay_Success(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 1000)
	inv := env.create(t)
	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))

	err := env.svc.Repay(context.Background(), funder, inv.ID, 1000)
	require.NoError(t, err)

	got, err := env.svc.GetInvestment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRepaid, got.Status)
	assert.False(t, got.Active)
	assert.Equal(t, uint64(0), got.Custodied)

	// Recipient got the amount back, funder recovered the collateral,
	// custody holds nothing for a repaid investment
	assert.Equal(t, uint64(1000), env.balance(t, recipient))
	assert.Equal(t, uint64(1990), env.balance(t, funder))
	assert.Equal(t, uint64(0), env.balance(t, domain.CustodyAccount))
}

func TestRepay_Rejections(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 1000)
	inv := env.create(t)

	t.Run("not funded", func(t *testing.T) {
		err := env.svc.Repay(context.Background(), funder, inv.ID, 1000)
		assert.ErrorIs(t, err, domain.ErrNotFunded)
	})

	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))

	t.Run("wrong caller", func(t *testing.T) {
		err := env.svc.Repay(context.Background(), recipient, inv.ID, 1000)
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	t.Run("value mismatch", func(t *testing.T) {
		err := env.svc.Repay(context.Background(), funder, inv.ID, 500)
		assert.ErrorIs(t, err, domain.ErrValueMismatch)
	})

	t.Run("already repaid", func(t *testing.T) {
		require.NoError(t, env.svc.Repay(context.Background(), funder, inv.ID, 1000))
		err := env.svc.Repay(context.Background(), funder, inv.ID, 1000)
		assert.ErrorIs(t, err, domain.ErrAlreadyRepaid)
	})
}

func TestRepay_FailedTransferRollsBack(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 1000)
	inv := env.create(t)
	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))

	// Drain the funder so the repayment transfer must fail
	env.store.SeedBalance(funder, 0)

	err := env.svc.Repay(context.Background(), funder, inv.ID, 1000)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// No partial repayment state: status, custody, and balances untouched
	got, err := env.svc.GetInvestment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFunded, got.Status)
	assert.Equal(t, uint64(1000), got.Custodied)
	assert.Equal(t, uint64(1000), env.balance(t, domain.CustodyAccount))
	assert.Equal(t, uint64(0), env.balance(t, recipient))
}

func TestPauseResume(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 1000)
	inv := env.create(t)
	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))

	t.Run("stranger cannot toggle", func(t *testing.T) {
		err := env.svc.SetActive(context.Background(), stranger, inv.ID, false)
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	t.Run("resume while active", func(t *testing.T) {
		err := env.svc.SetActive(context.Background(), funder, inv.ID, true)
		assert.ErrorIs(t, err, domain.ErrAlreadyInState)
	})

	t.Run("funder pauses", func(t *testing.T) {
		require.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, false))
		got, err := env.svc.GetInvestment(context.Background(), inv.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("pause while paused", func(t *testing.T) {
		err := env.svc.SetActive(context.Background(), funder, inv.ID, false)
		assert.ErrorIs(t, err, domain.ErrAlreadyInState)
	})

	t.Run("recipient resumes", func(t *testing.T) {
		require.NoError(t, env.svc.SetActive(context.Background(), recipient, inv.ID, true))
		got, err := env.svc.GetInvestment(context.Background(), inv.ID)
		require.NoError(t, err)
		assert.True(t, got.Active)
	})
}

func TestExtendDeadline(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 1000)
	inv := env.create(t)

	t.Run("requires funded investment", func(t *testing.T) {
		err := env.svc.ExtendDeadline(context.Background(), recipient, inv.ID, 24*time.Hour)
		assert.ErrorIs(t, err, domain.ErrNotFunded)
	})

	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))

	t.Run("funder cannot extend", func(t *testing.T) {
		err := env.svc.ExtendDeadline(context.Background(), funder, inv.ID, 24*time.Hour)
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	t.Run("recipient extends", func(t *testing.T) {
		require.NoError(t, env.svc.ExtendDeadline(context.Background(), recipient, inv.ID, 24*time.Hour))
		got, err := env.svc.GetInvestment(context.Background(), inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv.Deadline.Add(24*time.Hour), got.Deadline)
	})

	t.Run("rejected beyond maximum funding period", func(t *testing.T) {
		err := env.svc.ExtendDeadline(context.Background(), recipient, inv.ID, 60*24*time.Hour)
		assert.ErrorIs(t, err, domain.ErrInvalidFundingPeriod)
	})
}

func TestCustodyBalance(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	total, err := env.svc.CustodyBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), total)

	env.store.SeedBalance(funder, 4000)
	env.store.SeedBalance(recipient, 1000)
	inv := env.create(t)
	env.create(t)

	// Both collaterals are in custody; fees are not
	total, err = env.svc.CustodyBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), total)
	assert.Equal(t, total, env.balance(t, domain.CustodyAccount))

	// Repayment releases the first collateral
	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))
	require.NoError(t, env.svc.Repay(context.Background(), funder, inv.ID, 1000))

	total, err = env.svc.CustodyBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), total)
}

func TestCancel_CoolingBarrier(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	inv := env.create(t)

	// Inside the cooling window, even one second before the boundary
	err := env.svc.Cancel(context.Background(), funder, inv.ID)
	assert.ErrorIs(t, err, domain.ErrCoolingPeriodActive)

	env.advance(24*time.Hour - time.Second)
	err = env.svc.Cancel(context.Background(), funder, inv.ID)
	assert.ErrorIs(t, err, domain.ErrCoolingPeriodActive)

	// The barrier instant itself is allowed
	env.advance(time.Second)
	require.NoError(t, env.svc.Cancel(context.Background(), funder, inv.ID))

	got, err := env.svc.GetInvestment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, uint64(0), got.Custodied)
	assert.Equal(t, uint64(1990), env.balance(t, funder))
	assert.Equal(t, uint64(0), env.balance(t, domain.CustodyAccount))

	// Terminal: nothing further applies
	err = env.svc.Fund(context.Background(), recipient, inv.ID, 1000)
	assert.ErrorIs(t, err, domain.ErrInvestmentClosed)
}

func TestCancel_FundedRejected(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	env.store.SeedBalance(recipient, 1000)
	inv := env.create(t)
	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))

	env.advance(25 * time.Hour)
	err := env.svc.Cancel(context.Background(), funder, inv.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFunded)
}

func TestWithdraw(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	inv := env.create(t)

	t.Run("active investment", func(t *testing.T) {
		err := env.svc.Withdraw(context.Background(), funder, inv.ID)
		assert.ErrorIs(t, err, domain.ErrInvestmentActive)
	})

	require.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, false))

	t.Run("cooling period", func(t *testing.T) {
		err := env.svc.Withdraw(context.Background(), funder, inv.ID)
		assert.ErrorIs(t, err, domain.ErrCoolingPeriodActive)
	})

	env.advance(24 * time.Hour)

	t.Run("wrong caller", func(t *testing.T) {
		err := env.svc.Withdraw(context.Background(), stranger, inv.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	t.Run("releases custody", func(t *testing.T) {
		require.NoError(t, env.svc.Withdraw(context.Background(), funder, inv.ID))
		assert.Equal(t, uint64(1990), env.balance(t, funder))
		assert.Equal(t, uint64(0), env.balance(t, domain.CustodyAccount))

		got, err := env.svc.GetInvestment(context.Background(), inv.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)
	})

	t.Run("closed afterwards", func(t *testing.T) {
		err := env.svc.Withdraw(context.Background(), funder, inv.ID)
		assert.ErrorIs(t, err, domain.ErrInvestmentClosed)
	})
}

func TestRateLimit(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	inv := env.create(t)

	// Ops 2..5 within the window
	for i := 0; i < 2; i++ {
		require.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, false))
		require.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, true))
	}

	// Sixth operation in the window is rejected and nothing changes
	err := env.svc.SetActive(context.Background(), funder, inv.ID, false)
	assert.ErrorIs(t, err, domain.ErrRateLimitReached)

	got, getErr := env.svc.GetInvestment(context.Background(), inv.ID)
	require.NoError(t, getErr)
	assert.True(t, got.Active)

	// The refused attempt is the one guard failure that still gets audited
	types := env.auditTypes()
	assert.Equal(t, "rate_limit_exceeded", types[len(types)-1])

	// A full window after the last counted operation the quota resets
	env.advance(time.Hour)
	assert.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, false))
}

func TestRateLimit_RejectionDoesNotConsumeQuota(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)
	inv := env.create(t)

	for i := 0; i < 2; i++ {
		require.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, false))
		require.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, true))
	}

	for i := 0; i < 3; i++ {
		err := env.svc.SetActive(context.Background(), funder, inv.ID, false)
		assert.ErrorIs(t, err, domain.ErrRateLimitReached)
	}

	// Rejections did not push the reset point forward: the window still
	// expires one full period after the last counted operation
	env.advance(time.Hour)
	assert.NoError(t, env.svc.SetActive(context.Background(), funder, inv.ID, false))
}

func TestGlobalSuspension(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 2000)

	t.Run("non-admin cannot suspend", func(t *testing.T) {
		err := env.svc.SetLedgerPaused(context.Background(), funder, true)
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	require.NoError(t, env.svc.SetLedgerPaused(context.Background(), admin, true))

	t.Run("suspend twice", func(t *testing.T) {
		err := env.svc.SetLedgerPaused(context.Background(), admin, true)
		assert.ErrorIs(t, err, domain.ErrAlreadyInState)
	})

	t.Run("operations rejected while suspended", func(t *testing.T) {
		_, err := env.svc.Create(context.Background(), funder, ledger.CreateParams{
			Amount: 1000, EquityPercent: 20, FundingPeriod: 72 * time.Hour, Attached: 1010,
		})
		assert.ErrorIs(t, err, domain.ErrLedgerPaused)
	})

	require.NoError(t, env.svc.SetLedgerPaused(context.Background(), admin, false))

	t.Run("operations resume", func(t *testing.T) {
		inv := env.create(t)
		assert.Equal(t, uint64(1), inv.ID)
	})
}

func TestListInvestments(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 5000)
	first := env.create(t)
	second := env.create(t)

	investments, err := env.svc.ListInvestments(context.Background(), funder)
	require.NoError(t, err)
	require.Len(t, investments, 2)
	assert.Equal(t, first.ID, investments[0].ID)
	assert.Equal(t, second.ID, investments[1].ID)

	investments, err = env.svc.ListInvestments(context.Background(), stranger)
	require.NoError(t, err)
	assert.Empty(t, investments)
}

// TestFullLifecycle walks the happy path end to end and checks the custody
// conservation property at each step.
func TestFullLifecycle(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(funder, 1010)
	env.store.SeedBalance(recipient, 1000)

	inv := env.create(t)
	assert.Equal(t, uint64(1000), env.balance(t, domain.CustodyAccount))

	require.NoError(t, env.svc.Fund(context.Background(), recipient, inv.ID, 1000))
	assert.Equal(t, uint64(1000), env.balance(t, domain.CustodyAccount))

	require.NoError(t, env.svc.Repay(context.Background(), funder, inv.ID, 1000))
	assert.Equal(t, uint64(0), env.balance(t, domain.CustodyAccount))

	// Every account ends where the terms dictate: the recipient swapped its
	// 1000 for the equity stake, the funder paid only the fee
	assert.Equal(t, uint64(1000), env.balance(t, funder))
	assert.Equal(t, uint64(1000), env.balance(t, recipient))
	assert.Equal(t, uint64(10), env.balance(t, collector))

	assert.Equal(t, []string{
		"investment_created",
		"fee_collected",
		"investment_funded",
		"investment_repaid",
	}, env.auditTypes())
}
