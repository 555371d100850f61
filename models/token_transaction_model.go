package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TokenTypeEarned  = "earned"
	TokenTypeSpent   = "spent"
	TokenTypeBonus   = "bonus"
	TokenTypePenalty = "penalty"
)

// TokenTransaction is one append-only entry in a user's token ledger.
// Spent entries carry a negative amount.
type TokenTransaction struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount     int        `gorm:"not null" json:"amount"`
	Type       string     `gorm:"size:10;not null" json:"type"`
	Reason     string     `gorm:"size:255;not null" json:"reason"`
	ExchangeID *uuid.UUID `gorm:"type:uuid;index" json:"exchange_id,omitempty"`
	CreatedAt  time.Time  `json:"date"`
}

func (t *TokenTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
