package schema

import "time"

// CoolingBarrier stores the per-investment timestamp before which gated
// transitions are rejected. Set once at creation, never extended or reset.
type CoolingBarrier struct {
	InvestmentID uint64    `gorm:"column:investment_id;primaryKey"`
	NotBefore    time.Time `gorm:"column:not_before;not null"`
}

// TableName specifies the table name for the CoolingBarrier model
func (CoolingBarrier) TableName() string {
	return "cooling_barriers"
}
