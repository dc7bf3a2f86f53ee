package models

import (
	"gorm.io/gorm"
)

// Holding is a user's aggregate position in one instrument. A row
// exists only while Shares > 0; selling a position down to zero
// deletes the row instead of keeping it around.
type Holding struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_user_symbol;not null" json:"user_id"`
	Symbol string `gorm:"uniqueIndex:idx_user_symbol;not null" json:"symbol"`
	Name   string `json:"name"`
	Shares int64  `gorm:"not null" json:"shares"`
}
