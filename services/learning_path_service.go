package services

import (
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
	"gorm.io/gorm"
)

// EnsureLearningPaths creates the two learning paths for an exchange when
// they do not exist yet and links their IDs back onto the exchange row.
// The requester learns the requested skill from the provider; the provider
// learns the offered skill from the requester.
func EnsureLearningPaths(db *gorm.DB, exchange *models.Exchange) error {
	if exchange.RequesterLearningPathID != nil && exchange.ProviderLearningPathID != nil {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if exchange.RequesterLearningPathID == nil {
			path, err := buildPath(tx, exchange, exchange.RequesterID, exchange.ProviderID,
				exchange.RequestedSkill, exchange.RequestedSkillID)
			if err != nil {
				return err
			}
			exchange.RequesterLearningPathID = &path.ID
		}
		if exchange.ProviderLearningPathID == nil {
			path, err := buildPath(tx, exchange, exchange.ProviderID, exchange.RequesterID,
				exchange.OfferedSkill, exchange.OfferedSkillID)
			if err != nil {
				return err
			}
			exchange.ProviderLearningPathID = &path.ID
		}
		return tx.Model(exchange).Updates(map[string]interface{}{
			"requester_learning_path_id": exchange.RequesterLearningPathID,
			"provider_learning_path_id":  exchange.ProviderLearningPathID,
		}).Error
	})
}

func buildPath(tx *gorm.DB, exchange *models.Exchange, learnerID, instructorID uuid.UUID, skillName string, skillID *uuid.UUID) (*models.LearningPath, error) {
	// A path may already exist from an earlier activation that failed
	// before the exchange row was updated.
	var existing models.LearningPath
	err := tx.Where("exchange_id = ? AND learner_id = ?", exchange.ID, learnerID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var skill *models.Skill
	if skillID != nil {
		var s models.Skill
		if err := tx.Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).First(&s, "id = ?", *skillID).Error; err == nil {
			skill = &s
		}
	}

	modules := DeriveModules(skill, skillName)
	path := models.LearningPath{
		ExchangeID:        exchange.ID,
		SkillID:           skillID,
		SkillName:         skillName,
		LearnerID:         learnerID,
		InstructorID:      instructorID,
		Modules:           modules,
		TotalModules:      len(modules),
		EstimatedDuration: EstimatedDuration(modules),
		Status:            models.PathStatusNotStarted,
	}
	if err := tx.Create(&path).Error; err != nil {
		return nil, err
	}

	if skillID != nil {
		tx.Model(&models.Skill{}).Where("id = ?", *skillID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	}
	return &path, nil
}

// RecomputeProgress rederives every counter on a path from its loaded
// modules and applies the status transitions the new counters imply. The
// derived fields are never trusted; this runs after every module mutation.
func RecomputeProgress(path *models.LearningPath) {
	completed := 0
	scoreSum, scoreCount := 0, 0
	for _, m := range path.Modules {
		if m.IsCompleted {
			completed++
		}
		if m.Score != nil {
			scoreSum += *m.Score
			scoreCount++
		}
	}

	path.TotalModules = len(path.Modules)
	path.CompletedModules = completed
	if path.TotalModules > 0 {
		pct := int(math.Round(float64(completed) / float64(path.TotalModules) * 100))
		path.ProgressPercentage = pct
	} else {
		path.ProgressPercentage = 0
	}
	if scoreCount > 0 {
		avg := int(math.Round(float64(scoreSum) / float64(scoreCount)))
		path.AverageScore = &avg
	} else {
		path.AverageScore = nil
	}

	now := time.Now()
	switch {
	case completed == 0:
		if path.Status == models.PathStatusInProgress {
			path.Status = models.PathStatusNotStarted
			path.StartedAt = nil
		}
	case completed < path.TotalModules:
		if path.Status == models.PathStatusNotStarted {
			path.Status = models.PathStatusInProgress
			path.StartedAt = &now
		}
		if path.Status == models.PathStatusCompleted {
			path.Status = models.PathStatusInProgress
			path.CompletedAt = nil
			path.ActualDuration = nil
		}
	default:
		if path.Status != models.PathStatusCompleted {
			path.Status = models.PathStatusCompleted
			path.CompletedAt = &now
			if path.StartedAt != nil {
				minutes := int(now.Sub(*path.StartedAt).Minutes())
				path.ActualDuration = &minutes
			}
		}
	}
}

// SyncExchangeCompletion re-reads both sibling paths fresh and reconciles
// the exchange with them: completed only when both paths are completed,
// forced back to active otherwise. Each learner's final module completion
// runs this independently; the re-read makes the double evaluation benign
// and CompleteExchange keeps the reward side idempotent.
func SyncExchangeCompletion(exchangeID uuid.UUID) (*CompletionResult, error) {
	var paths []models.LearningPath
	if err := database.DB.Where("exchange_id = ?", exchangeID).Find(&paths).Error; err != nil {
		return nil, err
	}

	bothDone := len(paths) == 2 &&
		paths[0].Status == models.PathStatusCompleted &&
		paths[1].Status == models.PathStatusCompleted

	if bothDone {
		return CompleteExchange(exchangeID)
	}

	var exchange models.Exchange
	if err := database.DB.First(&exchange, "id = ?", exchangeID).Error; err != nil {
		return nil, err
	}
	if exchange.Status == models.ExchangeStatusCompleted {
		log.Printf("⚠️ Exchange %s reverted to active: a learning path is no longer complete.", exchangeID)
		if err := database.DB.Model(&exchange).Update("status", models.ExchangeStatusActive).Error; err != nil {
			return nil, err
		}
		exchange.Status = models.ExchangeStatusActive
	}
	return &CompletionResult{Exchange: exchange}, nil
}
