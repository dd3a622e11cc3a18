package schema

import "time"

// RateState stores the fixed-window operation counter for one account.
// Owned exclusively by the rate limiter; one row per account, O(1) state.
type RateState struct {
	Account string `gorm:"column:account;primaryKey;type:text"`
	Count   int    `gorm:"column:count;not null;default:0"`
	// LastOp is the timestamp of the last counted operation; the window is
	// measured from here and the counter resets once it has fully elapsed.
	LastOp time.Time `gorm:"column:last_op;not null"`
}

// TableName specifies the table name for the RateState model
func (RateState) TableName() string {
	return "rate_states"
}
