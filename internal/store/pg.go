package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Investment{},
		&schema.Dispute{},
		&schema.RateState{},
		&schema.CoolingBarrier{},
		&schema.AccountBalance{},
		&schema.AuditEvent{},
		&schema.KeyValueStore{},
	)
}

// Tx runs fn inside a database transaction
func (s *pgStore) Tx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// CreateInvestment inserts a new investment and assigns its id
func (s *pgStore) CreateInvestment(ctx context.Context, inv *schema.Investment) error {
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// GetInvestment retrieves an investment by id
func (s *pgStore) GetInvestment(ctx context.Context, id uint64) (*schema.Investment, error) {
	var inv schema.Investment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return &inv, nil
}

// GetInvestmentForUpdate retrieves an investment by id, locking the row so
// concurrent operations on the same investment serialize
func (s *pgStore) GetInvestmentForUpdate(ctx context.Context, id uint64) (*schema.Investment, error) {
	var inv schema.Investment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get investment for update: %w", err)
	}
	return &inv, nil
}

// SaveInvestment persists changes to an existing investment
func (s *pgStore) SaveInvestment(ctx context.Context, inv *schema.Investment) error {
	if err := s.db.WithContext(ctx).Save(inv).Error; err != nil {
		return fmt.Errorf("failed to save investment: %w", err)
	}
	return nil
}

// ListInvestmentsByFunder retrieves all investments created by an account
func (s *pgStore) ListInvestmentsByFunder(ctx context.Context, funder domain.AccountID) ([]*schema.Investment, error) {
	var invs []*schema.Investment
	err := s.db.WithContext(ctx).
		Where("funder = ?", string(funder)).
		Order("id ASC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return invs, nil
}

// CountOutstandingInvestments counts an account's non-terminal investments
func (s *pgStore) CountOutstandingInvestments(ctx context.Context, funder domain.AccountID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.Investment{}).
		Where("funder = ? AND status IN ?", string(funder),
			[]string{string(domain.StatusActive), string(domain.StatusFunded)}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count investments: %w", err)
	}
	return count, nil
}

// CreateDispute inserts a new dispute record
func (s *pgStore) CreateDispute(ctx context.Context, d *schema.Dispute) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

// GetOpenDispute retrieves the unresolved dispute for an investment, if any
func (s *pgStore) GetOpenDispute(ctx context.Context, investmentID uint64) (*schema.Dispute, error) {
	var d schema.Dispute
	err := s.db.WithContext(ctx).
		Where("investment_id = ? AND resolved_at IS NULL", investmentID).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open dispute: %w", err)
	}
	return &d, nil
}

// SaveDispute persists changes to an existing dispute
func (s *pgStore) SaveDispute(ctx context.Context, d *schema.Dispute) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("failed to save dispute: %w", err)
	}
	return nil
}

// GetRateStateForUpdate retrieves an account's rate state, locking the row
func (s *pgStore) GetRateStateForUpdate(ctx context.Context, account domain.AccountID) (*schema.RateState, error) {
	var rs schema.RateState
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account = ?", string(account)).
		First(&rs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rate state: %w", err)
	}
	return &rs, nil
}

// SaveRateState upserts an account's rate state. The primary key is the
// account string, so a plain Save would update zero rows for a new account;
// an ON CONFLICT upsert covers both cases.
func (s *pgStore) SaveRateState(ctx context.Context, rs *schema.RateState) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rs).Error; err != nil {
		return fmt.Errorf("failed to save rate state: %w", err)
	}
	return nil
}

// CreateCoolingBarrier inserts the cooling-off barrier for an investment
func (s *pgStore) CreateCoolingBarrier(ctx context.Context, cb *schema.CoolingBarrier) error {
	if err := s.db.WithContext(ctx).Create(cb).Error; err != nil {
		return fmt.Errorf("failed to create cooling barrier: %w", err)
	}
	return nil
}

// GetCoolingBarrier retrieves the cooling-off barrier for an investment
func (s *pgStore) GetCoolingBarrier(ctx context.Context, investmentID uint64) (*schema.CoolingBarrier, error) {
	var cb schema.CoolingBarrier
	err := s.db.WithContext(ctx).Where("investment_id = ?", investmentID).First(&cb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cooling barrier: %w", err)
	}
	return &cb, nil
}

// GetBalance retrieves an account's balance (0 when no row exists)
func (s *pgStore) GetBalance(ctx context.Context, account domain.AccountID) (uint64, error) {
	var b schema.AccountBalance
	err := s.db.WithContext(ctx).Where("account = ?", string(account)).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return b.Balance, nil
}

// GetBalanceForUpdate retrieves an account's balance row, locking it
func (s *pgStore) GetBalanceForUpdate(ctx context.Context, account domain.AccountID) (*schema.AccountBalance, error) {
	var b schema.AccountBalance
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account = ?", string(account)).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get balance for update: %w", err)
	}
	return &b, nil
}

// SaveBalance upserts an account's balance row
func (s *pgStore) SaveBalance(ctx context.Context, b *schema.AccountBalance) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(b).Error; err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

// AppendAuditEvent inserts an audit event row
func (s *pgStore) AppendAuditEvent(ctx context.Context, ev *schema.AuditEvent) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// GetValue retrieves a global scalar ("" when absent)
func (s *pgStore) GetValue(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get value: %w", err)
	}
	return kv.Value, nil
}

// SetValue upserts a global scalar
func (s *pgStore) SetValue(ctx context.Context, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&kv).Error; err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	return nil
}

// DeleteValue removes a global scalar
func (s *pgStore) DeleteValue(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&schema.KeyValueStore{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}
