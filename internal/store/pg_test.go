package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Initialize the database schema
	if err := Migrate(testDB); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// cleanupTables truncates all tables between tests
func cleanupTables(t *testing.T) {
	tables := []string{
		"investments",
		"disputes",
		"rate_states",
		"cooling_barriers",
		"account_balances",
		"audit_events",
		"key_value_store",
	}
	for _, table := range tables {
		require.NoError(t, testDB.Exec("TRUNCATE TABLE "+table).Error)
	}
}

func newTestInvestment(funder string) *schema.Investment {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &schema.Investment{
		Funder:        funder,
		Amount:        1000,
		EquityPercent: 20,
		Valuation:     5000,
		Title:         "seed round",
		Deadline:      now.Add(72 * time.Hour),
		Status:        domain.StatusActive,
		DisputeStatus: domain.DisputeNone,
		Active:        true,
		Custodied:     1000,
	}
}

func TestInvestmentRoundTrip(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	inv := newTestInvestment("acct:funder")
	require.NoError(t, s.CreateInvestment(ctx, inv))
	assert.NotZero(t, inv.ID)

	got, err := s.GetInvestment(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acct:funder", got.Funder)
	assert.Equal(t, uint64(1000), got.Amount)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.True(t, got.Active)

	recipient := "acct:recipient"
	got.Recipient = &recipient
	got.Status = domain.StatusFunded
	require.NoError(t, s.SaveInvestment(ctx, got))

	got, err = s.GetInvestmentForUpdate(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusFunded, got.Status)
	require.NotNil(t, got.Recipient)
	assert.Equal(t, recipient, *got.Recipient)
}

func TestGetInvestment_Missing(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)

	got, err := s.GetInvestment(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAndCountInvestments(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateInvestment(ctx, newTestInvestment("acct:funder")))
	}
	repaid := newTestInvestment("acct:funder")
	repaid.Status = domain.StatusRepaid
	repaid.Active = false
	require.NoError(t, s.CreateInvestment(ctx, repaid))
	require.NoError(t, s.CreateInvestment(ctx, newTestInvestment("acct:other")))

	list, err := s.ListInvestmentsByFunder(ctx, "acct:funder")
	require.NoError(t, err)
	assert.Len(t, list, 4)

	// Terminal statuses do not count as outstanding
	count, err := s.CountOutstandingInvestments(ctx, "acct:funder")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestDisputeRoundTrip(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	inv := newTestInvestment("acct:funder")
	require.NoError(t, s.CreateInvestment(ctx, inv))

	d := &schema.Dispute{
		InvestmentID: inv.ID,
		Initiator:    "acct:initiator",
		Reason:       "terms not honored",
		RaisedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.CreateDispute(ctx, d))
	assert.NotZero(t, d.ID)

	open, err := s.GetOpenDispute(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "terms not honored", open.Reason)

	resolution := "in favor of funder"
	resolvedAt := time.Now().UTC()
	open.Resolution = &resolution
	open.ResolvedAt = &resolvedAt
	require.NoError(t, s.SaveDispute(ctx, open))

	// A resolved dispute is no longer open
	open, err = s.GetOpenDispute(ctx, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestRateStateUpsert(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	rs, err := s.GetRateStateForUpdate(ctx, "acct:alice")
	require.NoError(t, err)
	assert.Nil(t, rs)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.SaveRateState(ctx, &schema.RateState{
		Account: "acct:alice",
		Count:   1,
		LastOp:  now,
	}))
	require.NoError(t, s.SaveRateState(ctx, &schema.RateState{
		Account: "acct:alice",
		Count:   2,
		LastOp:  now.Add(time.Minute),
	}))

	rs, err = s.GetRateStateForUpdate(ctx, "acct:alice")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, 2, rs.Count)
	assert.Equal(t, now.Add(time.Minute), rs.LastOp.UTC())
}

func TestCoolingBarrier(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	notBefore := time.Now().UTC().Truncate(time.Microsecond).Add(24 * time.Hour)
	require.NoError(t, s.CreateCoolingBarrier(ctx, &schema.CoolingBarrier{
		InvestmentID: 1,
		NotBefore:    notBefore,
	}))

	cb, err := s.GetCoolingBarrier(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, cb)
	assert.Equal(t, notBefore, cb.NotBefore.UTC())

	cb, err = s.GetCoolingBarrier(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, cb)
}

func TestBalances(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	// Missing row reads as zero
	balance, err := s.GetBalance(ctx, "acct:alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	require.NoError(t, s.SaveBalance(ctx, &schema.AccountBalance{
		Account: "acct:alice",
		Balance: 1000,
	}))
	require.NoError(t, s.SaveBalance(ctx, &schema.AccountBalance{
		Account: "acct:alice",
		Balance: 700,
	}))

	balance, err = s.GetBalance(ctx, "acct:alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(700), balance)

	row, err := s.GetBalanceForUpdate(ctx, "acct:alice")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, uint64(700), row.Balance)
}

func TestKeyValue(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	v, err := s.GetValue(ctx, KeyLedgerPaused)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetValue(ctx, KeyLedgerPaused, "true"))
	v, err = s.GetValue(ctx, KeyLedgerPaused)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	// Upsert overwrites
	require.NoError(t, s.SetValue(ctx, KeyLedgerPaused, "false"))
	v, err = s.GetValue(ctx, KeyLedgerPaused)
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	require.NoError(t, s.DeleteValue(ctx, KeyLedgerPaused))
	v, err = s.GetValue(ctx, KeyLedgerPaused)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestTxRollback(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx Store) error {
		if err := tx.SaveBalance(ctx, &schema.AccountBalance{Account: "acct:alice", Balance: 100}); err != nil {
			return err
		}
		if err := tx.CreateInvestment(ctx, newTestInvestment("acct:funder")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Nothing from the failed transaction is visible
	balance, err := s.GetBalance(ctx, "acct:alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	list, err := s.ListInvestmentsByFunder(ctx, "acct:funder")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTxCommit(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Store) error {
		return tx.SaveBalance(ctx, &schema.AccountBalance{Account: "acct:alice", Balance: 100})
	})
	require.NoError(t, err)

	balance, err := s.GetBalance(ctx, "acct:alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}

func TestAppendAuditEvent(t *testing.T) {
	cleanupTables(t)
	s := NewPGStore(testDB)
	ctx := context.Background()

	id := uint64(1)
	amount := uint64(1000)
	require.NoError(t, s.AppendAuditEvent(ctx, &schema.AuditEvent{
		Type:          string(domain.AuditInvestmentCreated),
		InvestmentID:  &id,
		Actor:         "acct:funder",
		Amount:        &amount,
		CorrelationID: "corr-1",
	}))

	var count int64
	require.NoError(t, testDB.Model(&schema.AuditEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
