package models

import (
	"gorm.io/gorm"
)

const (
	TxPurchase = "Purchase"
	TxSale     = "Sale"
)

// Transaction is one append-only history row. Shares is signed:
// positive for a purchase, negative for a sale, so summing the column
// per user and symbol reconstructs the net position. PriceCents is the
// per-share execution price in minor units.
type Transaction struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null" json:"user_id"`
	Type       string `gorm:"not null" json:"type"`
	Symbol     string `gorm:"index;not null" json:"symbol"`
	Shares     int64  `gorm:"not null" json:"shares"`
	PriceCents int64  `gorm:"not null" json:"price_cents"`
}
