package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Token rewards per experience tier of the learned skill.
const (
	rewardBeginner     = 5
	rewardIntermediate = 10
	rewardAdvanced     = 15
	rewardExpert       = 20
	rewardDefault      = 10
)

// RewardForLevel sizes a completion reward by the learned skill's tier.
func RewardForLevel(level string) int {
	switch level {
	case models.LevelBeginner:
		return rewardBeginner
	case models.LevelIntermediate:
		return rewardIntermediate
	case models.LevelAdvanced:
		return rewardAdvanced
	case models.LevelExpert:
		return rewardExpert
	default:
		return rewardDefault
	}
}

// CompletionResult reports what CompleteExchange did, so callers know
// whether to send completion emails.
type CompletionResult struct {
	Exchange       models.Exchange
	RewardsApplied bool
	RequesterAward int
	ProviderAward  int
	NewBadges      map[uuid.UUID][]string
}

// CompleteExchange flips an exchange to completed and applies the reward
// sequence exactly once. Everything runs in one transaction behind a row
// lock on the exchange, and rewarded_at guards re-entry: a second call for
// the same exchange only restates the completed status.
func CompleteExchange(exchangeID uuid.UUID) (*CompletionResult, error) {
	result := &CompletionResult{NewBadges: map[uuid.UUID][]string{}}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var exchange models.Exchange
		if err := lockForUpdate(tx).First(&exchange, "id = ?", exchangeID).Error; err != nil {
			return err
		}

		now := time.Now()
		exchange.Status = models.ExchangeStatusCompleted
		if exchange.CompletedDate == nil {
			exchange.CompletedDate = &now
		}

		if exchange.RewardedAt == nil {
			requesterAward, err := rewardParticipant(tx, exchange, exchange.RequesterID, exchange.ProviderID, exchange.RequestedSkill, result)
			if err != nil {
				return err
			}
			providerAward, err := rewardParticipant(tx, exchange, exchange.ProviderID, exchange.RequesterID, exchange.OfferedSkill, result)
			if err != nil {
				return err
			}
			exchange.RewardedAt = &now
			result.RewardsApplied = true
			result.RequesterAward = requesterAward
			result.ProviderAward = providerAward
		}

		if err := tx.Save(&exchange).Error; err != nil {
			return err
		}
		result.Exchange = exchange
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.RewardsApplied {
		log.Printf("✅ Exchange %s completed: requester +%d, provider +%d tokens.",
			exchangeID, result.RequesterAward, result.ProviderAward)
	}
	return result, nil
}

// rewardParticipant credits one learner: a ledger entry sized by the tier
// their partner teaches the skill at, a total_exchanges bump, and any
// milestone badge the new count unlocks.
func rewardParticipant(tx *gorm.DB, exchange models.Exchange, learnerID, teacherID uuid.UUID, skillName string, result *CompletionResult) (int, error) {
	var learner models.User
	if err := lockForUpdate(tx).First(&learner, "id = ?", learnerID).Error; err != nil {
		return 0, err
	}

	amount := RewardForLevel(learnedSkillLevel(tx, teacherID, skillName))

	entry := models.TokenTransaction{
		UserID:     learnerID,
		Amount:     amount,
		Type:       models.TokenTypeEarned,
		Reason:     "Completed exchange: learned " + skillName,
		ExchangeID: &exchange.ID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}

	learner.TokensEarned += amount
	learner.TotalExchanges++

	if badge := milestoneBadge(learner.TotalExchanges); badge != "" && !learner.HasBadge(badge) {
		learner.Badges = append(learner.Badges, badge)
		result.NewBadges[learnerID] = append(result.NewBadges[learnerID], badge)
	}

	if err := tx.Save(&learner).Error; err != nil {
		return 0, err
	}
	return amount, nil
}

// lockForUpdate takes a row lock where the dialect supports one. The
// in-memory test database serializes writes on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func milestoneBadge(totalExchanges int) string {
	switch totalExchanges {
	case 1:
		return models.BadgeFirstExchange
	case 5:
		return models.BadgeFiveExchanges
	case 10:
		return models.BadgeExchangeMaster
	default:
		return ""
	}
}

// learnedSkillLevel finds the tier the teaching side lists for the skill
// they are passing on. Empty when they never listed it.
func learnedSkillLevel(tx *gorm.DB, teacherID uuid.UUID, skillName string) string {
	var skill models.UserSkill
	err := tx.Where("user_id = ? AND kind = ? AND LOWER(name) = LOWER(?)",
		teacherID, models.SkillKindOffered, skillName).First(&skill).Error
	if err != nil {
		return ""
	}
	return skill.ExperienceLevel
}
