package recovery_test

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
	"github.com/fundlock/escrow-ledger/internal/logger"
	"github.com/fundlock/escrow-ledger/internal/mocks"
	"github.com/fundlock/escrow-ledger/internal/recovery"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/transfer"
)

const admin = domain.AccountID("acct:admin")

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

type testEnv struct {
	ctrl     *gomock.Controller
	store    *store.MemoryStore
	now      time.Time
	governor *recovery.Governor
}

func setupTest(t *testing.T) *testEnv {
	ctrl := gomock.NewController(t)

	env := &testEnv{
		ctrl:  ctrl,
		store: store.NewMemoryStore(),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return env.now }).AnyTimes()

	policy := config.PolicyConfig{
		EmergencyDelay: 48 * time.Hour,
		AdminAccount:   admin,
	}
	env.governor = recovery.NewGovernor(env.store, clock, audit.NewRecorder(nil), transfer.LedgerFactory(), policy)
	return env
}

func (env *testEnv) tearDown() {
	env.ctrl.Finish()
}

func (env *testEnv) suspendLedger(t *testing.T) {
	require.NoError(t, env.store.SetValue(context.Background(), store.KeyLedgerPaused, "true"))
}

func TestAnnounce(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	t.Run("admin only", func(t *testing.T) {
		_, err := env.governor.Announce(context.Background(), "acct:intruder")
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	t.Run("requires global suspension", func(t *testing.T) {
		_, err := env.governor.Announce(context.Background(), admin)
		assert.ErrorIs(t, err, domain.ErrLedgerNotPaused)
	})

	env.suspendLedger(t)

	t.Run("starts the notice period", func(t *testing.T) {
		executeAfter, err := env.governor.Announce(context.Background(), admin)
		require.NoError(t, err)
		assert.Equal(t, env.now.Add(48*time.Hour), executeAfter)
	})

	t.Run("re-announcing resets the timer", func(t *testing.T) {
		env.now = env.now.Add(24 * time.Hour)
		executeAfter, err := env.governor.Announce(context.Background(), admin)
		require.NoError(t, err)
		assert.Equal(t, env.now.Add(48*time.Hour), executeAfter)
	})
}

func TestExecute(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(domain.CustodyAccount, 5000)
	env.suspendLedger(t)

	t.Run("requires announcement", func(t *testing.T) {
		_, err := env.governor.Execute(context.Background(), admin)
		assert.ErrorIs(t, err, domain.ErrEmergencyWithdrawalNotReady)
	})

	executeAfter, err := env.governor.Announce(context.Background(), admin)
	require.NoError(t, err)

	t.Run("requires the delay to elapse", func(t *testing.T) {
		env.now = executeAfter.Add(-time.Second)
		_, err := env.governor.Execute(context.Background(), admin)
		assert.ErrorIs(t, err, domain.ErrEmergencyWithdrawalNotReady)
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := env.governor.Execute(context.Background(), "acct:intruder")
		assert.ErrorIs(t, err, domain.ErrUnauthorizedAccess)
	})

	t.Run("drains custody at the expiry instant", func(t *testing.T) {
		env.now = executeAfter
		drained, err := env.governor.Execute(context.Background(), admin)
		require.NoError(t, err)
		assert.Equal(t, uint64(5000), drained)

		custody, err := env.store.GetBalance(context.Background(), domain.CustodyAccount)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), custody)

		adminBalance, err := env.store.GetBalance(context.Background(), admin)
		require.NoError(t, err)
		assert.Equal(t, uint64(5000), adminBalance)
	})

	t.Run("announcement cleared after execution", func(t *testing.T) {
		_, err := env.governor.Execute(context.Background(), admin)
		assert.ErrorIs(t, err, domain.ErrEmergencyWithdrawalNotReady)
	})
}

func TestExecute_AuditTrail(t *testing.T) {
	env := setupTest(t)
	defer env.tearDown()

	env.store.SeedBalance(domain.CustodyAccount, 100)
	env.suspendLedger(t)

	executeAfter, err := env.governor.Announce(context.Background(), admin)
	require.NoError(t, err)
	env.now = executeAfter

	_, err = env.governor.Execute(context.Background(), admin)
	require.NoError(t, err)

	events := env.store.AuditEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "emergency_announced", events[0].Type)
	assert.Equal(t, "emergency_executed", events[1].Type)
	require.NotNil(t, events[1].Amount)
	assert.Equal(t, uint64(100), *events[1].Amount)
}
