package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Skill is a catalog entry. Names are unique case-insensitively; the
// uniqueness check happens in the handler since collations vary.
type Skill struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name"`
	Category    string    `gorm:"size:100;not null" json:"category"`
	Subcategory *string   `gorm:"size:100" json:"subcategory,omitempty"`
	Description string    `gorm:"size:1000;not null" json:"description"`
	Tags        []string  `gorm:"serializer:json" json:"tags"`

	Videos []SkillVideo `gorm:"foreignKey:SkillID" json:"videos,omitempty"`

	UsageCount int        `gorm:"default:0" json:"usage_count"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Skill) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SkillVideo is one instructional video in a skill's ordered catalog.
type SkillVideo struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SkillID  uuid.UUID `gorm:"type:uuid;not null;index" json:"skill_id"`
	Title    string    `gorm:"size:255;not null" json:"title"`
	URL      string    `gorm:"size:500;not null" json:"url"`
	Duration int       `json:"duration"` // minutes
	Position int       `gorm:"not null" json:"order"`
}

func (v *SkillVideo) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
