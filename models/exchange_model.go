package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Exchange status values. pending → active → completed; a completed
// exchange reverts to active when a participant un-completes a module.
const (
	ExchangeStatusPending   = "pending"
	ExchangeStatusActive    = "active"
	ExchangeStatusCompleted = "completed"
)

type Exchange struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index" json:"requester_id"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`

	// Free-text skill names as typed by the requester, kept for display.
	RequestedSkill string `gorm:"size:100;not null" json:"requested_skill"`
	OfferedSkill   string `gorm:"size:100;not null" json:"offered_skill"`

	// Catalog references resolved once at creation time via the fuzzy
	// lookup; nil when no catalog entry matched.
	RequestedSkillID *uuid.UUID `gorm:"type:uuid" json:"requested_skill_id,omitempty"`
	OfferedSkillID   *uuid.UUID `gorm:"type:uuid" json:"offered_skill_id,omitempty"`

	Status string `gorm:"size:20;not null;default:'pending';index" json:"status"`

	RequesterLearningPathID *uuid.UUID `gorm:"type:uuid" json:"requester_learning_path_id,omitempty"`
	ProviderLearningPathID  *uuid.UUID `gorm:"type:uuid" json:"provider_learning_path_id,omitempty"`

	RequesterRating *int    `json:"requester_rating,omitempty"`
	RequesterReview *string `gorm:"size:1000" json:"requester_review,omitempty"`
	ProviderRating  *int    `json:"provider_rating,omitempty"`
	ProviderReview  *string `gorm:"size:1000" json:"provider_review,omitempty"`

	// Set exactly once, inside the completion transaction. Guards the
	// token/badge reward sequence against re-entry.
	RewardedAt    *time.Time `json:"rewarded_at,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	Requester User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Provider  User `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Exchange) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsParticipant reports whether userID is the requester or provider.
func (e *Exchange) IsParticipant(userID uuid.UUID) bool {
	return e.RequesterID == userID || e.ProviderID == userID
}
