package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is the message thread between the two participants of an
// exchange. One exists per exchange, created alongside it.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ExchangeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"exchange_id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index" json:"requester_id"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"provider_id"`

	LastMessageText     *string    `gorm:"size:255" json:"last_message_text,omitempty"`
	LastMessageSenderID *uuid.UUID `gorm:"type:uuid" json:"last_message_sender_id,omitempty"`
	LastMessageAt       *time.Time `json:"last_message_at,omitempty"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasParticipant reports whether userID belongs to this conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.RequesterID == userID || c.ProviderID == userID
}
