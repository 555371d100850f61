package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PathStatusNotStarted = "not-started"
	PathStatusInProgress = "in-progress"
	PathStatusCompleted  = "completed"
	PathStatusCancelled  = "cancelled"
)

// LearningPath is the ordered module sequence one learner works through for
// one exchange. Exactly one exists per (exchange, learner).
type LearningPath struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ExchangeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_exchange_learner" json:"exchange_id"`

	SkillID   *uuid.UUID `gorm:"type:uuid;index" json:"skill_id,omitempty"`
	SkillName string     `gorm:"size:100;not null" json:"skill_name"`

	LearnerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_exchange_learner;index" json:"learner_id"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`

	Modules []Module `gorm:"foreignKey:LearningPathID" json:"modules,omitempty"`

	// Derived counters, recomputed on every module mutation.
	TotalModules       int `gorm:"default:0" json:"total_modules"`
	CompletedModules   int `gorm:"default:0" json:"completed_modules"`
	ProgressPercentage int `gorm:"default:0" json:"progress_percentage"`
	AverageScore       *int `json:"average_score,omitempty"`

	Status string `gorm:"size:20;not null;default:'not-started';index" json:"status"`

	EstimatedDuration int  `gorm:"default:0" json:"estimated_duration"` // minutes
	ActualDuration    *int `json:"actual_duration,omitempty"`          // minutes

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CertificateURL *string `gorm:"size:500" json:"certificate_url,omitempty"`

	Learner    User `gorm:"foreignKey:LearnerID" json:"learner,omitempty"`
	Instructor User `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *LearningPath) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Module is one step of a learning path; the video fields are a denormalized
// copy taken from the skill catalog at derivation time.
type Module struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"module_id"`
	LearningPathID uuid.UUID `gorm:"type:uuid;not null;index" json:"learning_path_id"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"size:500" json:"description"`

	VideoTitle string `gorm:"size:255" json:"video_title"`
	VideoURL   string `gorm:"size:500" json:"video_url"`
	Duration   int    `json:"duration"` // minutes

	Position int `gorm:"not null" json:"order"`

	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Notes       *string    `gorm:"size:1000" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
