package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Milestone badges awarded on completed-exchange counts.
const (
	BadgeFirstExchange  = "First Exchange"
	BadgeFiveExchanges  = "5 Exchanges"
	BadgeExchangeMaster = "Exchange Master"
)

type EmailPreferences struct {
	ExchangeRequests  bool `gorm:"default:true" json:"exchange_requests"`
	ExchangeAccepted  bool `gorm:"default:true" json:"exchange_accepted"`
	ExchangeCompleted bool `gorm:"default:true" json:"exchange_completed"`
	NewRatings        bool `gorm:"default:true" json:"new_ratings"`
	NewMessages       bool `gorm:"default:true" json:"new_messages"`
	MarketingEmails   bool `gorm:"default:false" json:"marketing_emails"`
}

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"size:100;not null" json:"name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Username *string   `gorm:"size:30;unique" json:"username,omitempty"`
	Phone    *string   `gorm:"size:30;unique" json:"phone,omitempty"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'member'" json:"role"`

	Bio      string  `gorm:"size:500;default:'New SkillSwap member'" json:"bio"`
	Location *string `gorm:"size:100" json:"location,omitempty"`
	Avatar   *string `gorm:"size:500" json:"avatar,omitempty"`

	Rating         float64 `gorm:"default:0" json:"rating"`
	TotalExchanges int     `gorm:"default:0" json:"total_exchanges"`

	TokensEarned int                `gorm:"default:50" json:"tokens_earned"`
	TokensSpent  int                `gorm:"default:0" json:"tokens_spent"`
	TokenHistory []TokenTransaction `gorm:"foreignKey:UserID" json:"token_history,omitempty"`

	Badges []string `gorm:"serializer:json" json:"badges"`

	Skills []UserSkill `gorm:"foreignKey:UserID" json:"skills,omitempty"`

	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`

	ResetPasswordToken     *string    `gorm:"size:64" json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`
	ResetOTP               *string    `gorm:"size:6" json:"-"`
	ResetOTPExpiresAt      *time.Time `json:"-"`
	ResetOTPAttempts       int        `gorm:"default:0" json:"-"`

	EmailVerificationToken     *string    `gorm:"size:64" json:"-"`
	EmailVerificationExpiresAt *time.Time `json:"-"`
	EmailVerified              bool       `gorm:"default:false" json:"email_verified"`

	EmailNotifications EmailPreferences `gorm:"embedded;embeddedPrefix:notify_" json:"email_notifications"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SkillsOffered returns the loaded skills the user teaches.
func (u *User) SkillsOffered() []UserSkill {
	return filterSkills(u.Skills, SkillKindOffered)
}

// SkillsWanted returns the loaded skills the user wants to learn.
func (u *User) SkillsWanted() []UserSkill {
	return filterSkills(u.Skills, SkillKindWanted)
}

func filterSkills(skills []UserSkill, kind string) []UserSkill {
	out := make([]UserSkill, 0, len(skills))
	for _, s := range skills {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// HasBadge reports whether the user already carries the named badge.
func (u *User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// TokenBalance is the spendable balance; it must equal the sum of the
// user's token_transactions amounts.
func (u *User) TokenBalance() int {
	return u.TokensEarned - u.TokensSpent
}
