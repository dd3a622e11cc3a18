package schema

import (
	"time"

	"github.com/fundlock/escrow-ledger/internal/domain"
)

// Dispute represents the disputes table. At most one unresolved dispute may
// exist per investment; resolution is advisory and never moves funds.
type Dispute struct {
	ID           uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	InvestmentID uint64  `gorm:"column:investment_id;not null;index"`
	Initiator    string  `gorm:"column:initiator;not null;type:text"`
	Reason       string  `gorm:"column:reason;not null;type:text"`
	Resolution   *string `gorm:"column:resolution;type:text"`

	RaisedAt   time.Time  `gorm:"column:raised_at;not null"`
	ResolvedAt *time.Time `gorm:"column:resolved_at"`
}

// TableName specifies the table name for the Dispute model
func (Dispute) TableName() string {
	return "disputes"
}

// Domain converts the storage record to the domain view
func (d *Dispute) Domain() *domain.Dispute {
	return &domain.Dispute{
		ID:           d.ID,
		InvestmentID: d.InvestmentID,
		Initiator:    domain.AccountID(d.Initiator),
		Reason:       d.Reason,
		Resolution:   d.Resolution,
		RaisedAt:     d.RaisedAt,
		ResolvedAt:   d.ResolvedAt,
	}
}
