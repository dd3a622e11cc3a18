package schema

import (
	"time"

	"github.com/fundlock/escrow-ledger/internal/domain"
)

// Investment represents the investments table - the primary entity of the
// custody ledger. Records are never deleted; terminal statuses are the only
// form of removal so the table doubles as an audit trail.
type Investment struct {
	// ID is assigned by the database sequence: monotonically increasing and
	// never reused, even when the surrounding transaction rolls back.
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Funder is the account that created the investment and committed value
	Funder string `gorm:"column:funder;not null;type:text;index"`
	// Recipient is the account that funded the investment (nil until funded)
	Recipient *string `gorm:"column:recipient;type:text"`
	// Amount is the committed amount in base units
	Amount uint64 `gorm:"column:amount;not null"`
	// EquityPercent is the ownership percentage, 1..100
	EquityPercent uint8 `gorm:"column:equity_percent;not null"`
	// Valuation is the funder-declared valuation in base units
	Valuation uint64 `gorm:"column:valuation;not null"`
	// Title and Detail are opaque descriptive fields
	Title  string `gorm:"column:title;type:text"`
	Detail string `gorm:"column:detail;type:text"`
	// Deadline is the absolute funding deadline
	Deadline time.Time `gorm:"column:deadline;not null"`
	// Status is the lifecycle state (active, funded, repaid, cancelled)
	Status domain.InvestmentStatus `gorm:"column:status;not null;type:text;index"`
	// DisputeStatus tracks the attached dispute (none, raised, resolved)
	DisputeStatus domain.DisputeStatus `gorm:"column:dispute_status;not null;type:text;default:'none'"`
	// Active is the pause/resume flag toggled by either party
	Active bool `gorm:"column:active;not null;default:true"`
	// Custodied is the collateral currently held for this investment
	Custodied uint64 `gorm:"column:custodied;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName specifies the table name for the Investment model
func (Investment) TableName() string {
	return "investments"
}

// Domain converts the storage record to the domain view
func (i *Investment) Domain() *domain.Investment {
	var recipient *domain.AccountID
	if i.Recipient != nil {
		r := domain.AccountID(*i.Recipient)
		recipient = &r
	}

	return &domain.Investment{
		ID:            i.ID,
		Funder:        domain.AccountID(i.Funder),
		Recipient:     recipient,
		Amount:        i.Amount,
		EquityPercent: i.EquityPercent,
		Valuation:     i.Valuation,
		Title:         i.Title,
		Detail:        i.Detail,
		Deadline:      i.Deadline,
		Status:        i.Status,
		DisputeStatus: i.DisputeStatus,
		Active:        i.Active,
		Custodied:     i.Custodied,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
