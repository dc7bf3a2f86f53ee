package models

import (
	"gorm.io/gorm"
)

// User holds the account identity and the virtual cash balance.
// CashCents is only ever mutated by the ledger through the store's
// ApplyOrder; Version is the optimistic-lock counter guarding it.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	CashCents    int64  `gorm:"not null;default:1000000" json:"cash_cents"`
	Version      int64  `gorm:"not null;default:0" json:"-"`
}
