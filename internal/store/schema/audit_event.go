package schema

import "time"

// AuditEvent is the append-only audit log. Rows are written in the same
// transaction as the operation they describe and never updated or deleted.
type AuditEvent struct {
	ID            uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	Type          string  `gorm:"column:type;not null;type:text;index"`
	InvestmentID  *uint64 `gorm:"column:investment_id;index"`
	Actor         string  `gorm:"column:actor;not null;type:text;index"`
	Amount        *uint64 `gorm:"column:amount"`
	CorrelationID string  `gorm:"column:correlation_id;not null;type:text"`
	Detail        string  `gorm:"column:detail;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for the AuditEvent model
func (AuditEvent) TableName() string {
	return "audit_events"
}
