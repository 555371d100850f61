package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
	"github.com/skillswap/skill_exchange/notifications"
)

const stalePathAge = 7 * 24 * time.Hour

// NudgeStaleLearningPaths emails learners whose in-progress path has seen
// no module completion for a week.
func NudgeStaleLearningPaths(mailer *notifications.EmailService) {
	log.Println("Running job: NudgeStaleLearningPaths...")

	cutoff := time.Now().Add(-stalePathAge)

	var stalePaths []models.LearningPath
	err := database.DB.
		Preload("Learner").
		Where("status = ? AND updated_at < ?", models.PathStatusInProgress, cutoff).
		Find(&stalePaths).Error
	if err != nil {
		log.Printf("Error checking for stale learning paths: %v", err)
		return
	}

	if len(stalePaths) == 0 {
		log.Println("No stale learning paths found.")
		return
	}

	for _, path := range stalePaths {
		if !path.Learner.EmailNotifications.ExchangeAccepted {
			continue
		}
		log.Printf("Sending stale-path nudge for path ID: %s", path.ID)

		remaining := path.TotalModules - path.CompletedModules
		emailSubject := "Keep Going: Your Learning Path Misses You"
		emailBody := fmt.Sprintf(
			"<h1>Back to %s?</h1><p>Hi %s,</p><p>You are %d%% of the way through your <strong>%s</strong> learning path. Only %d module(s) left, and your exchange partner is counting on you to finish.</p>",
			path.SkillName,
			path.Learner.Name,
			path.ProgressPercentage,
			path.SkillName,
			remaining,
		)

		go mailer.Send(path.Learner.Name, path.Learner.Email, emailSubject, emailBody)
	}
}
