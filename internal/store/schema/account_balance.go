package schema

import "time"

// AccountBalance stores the custodied balance ledgered per account, including
// the internal custody account that holds all escrowed collateral.
type AccountBalance struct {
	Account   string    `gorm:"column:account;primaryKey;type:text"`
	Balance   uint64    `gorm:"column:balance;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the AccountBalance model
func (AccountBalance) TableName() string {
	return "account_balances"
}
