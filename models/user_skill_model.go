package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SkillKindOffered = "offered"
	SkillKindWanted  = "wanted"
)

// Experience levels, ordered weakest to strongest.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelExpert       = "Expert"
)

// UserSkill is one entry in a user's offered or wanted skill list. The name
// is free text typed by the user, not a foreign key into the Skill catalog.
type UserSkill struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind   string    `gorm:"size:10;not null;index" json:"kind"`

	Name            string  `gorm:"size:100;not null" json:"name"`
	Category        string  `gorm:"size:100;not null" json:"category"`
	ExperienceLevel string  `gorm:"size:20;not null" json:"experience_level"`
	Description     string  `gorm:"size:500;not null" json:"description"`
	YearsExperience int     `gorm:"default:0" json:"years_of_experience"`
	Thumbnail       *string `gorm:"size:500" json:"thumbnail,omitempty"`

	Verified   bool       `gorm:"default:false" json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`

	Endorsements []Endorsement `gorm:"foreignKey:UserSkillID" json:"endorsements,omitempty"`

	CreatedAt time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *UserSkill) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Endorsement struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserSkillID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_skill_id"`
	EndorserID  uuid.UUID `gorm:"type:uuid;not null" json:"endorser_id"`
	EndorserName string   `gorm:"size:100" json:"endorser_name"`
	Comment     string    `gorm:"size:500" json:"comment"`
	CreatedAt   time.Time `json:"date"`
}

func (e *Endorsement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// LevelRank maps an experience level onto an ordinal scale for matching,
// ignoring case. Unknown levels rank as Intermediate.
func LevelRank(level string) int {
	switch strings.ToLower(level) {
	case "beginner":
		return 1
	case "intermediate":
		return 2
	case "advanced":
		return 3
	case "expert":
		return 4
	default:
		return 2
	}
}
