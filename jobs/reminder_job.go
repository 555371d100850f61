package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
	"github.com/skillswap/skill_exchange/notifications"
)

const pendingReminderAge = 3 * 24 * time.Hour

// SendPendingExchangeReminders nudges providers who have been sitting on an
// exchange request for more than three days.
func SendPendingExchangeReminders(mailer *notifications.EmailService) {
	log.Println("Running job: SendPendingExchangeReminders...")

	cutoff := time.Now().Add(-pendingReminderAge)

	var staleExchanges []models.Exchange
	err := database.DB.
		Preload("Requester").
		Preload("Provider").
		Where("status = ? AND created_at < ?", models.ExchangeStatusPending, cutoff).
		Find(&staleExchanges).Error
	if err != nil {
		log.Printf("Error checking for stale pending exchanges: %v", err)
		return
	}

	if len(staleExchanges) == 0 {
		return
	}

	for _, exchange := range staleExchanges {
		if !exchange.Provider.EmailNotifications.ExchangeRequests {
			continue
		}
		log.Printf("Sending pending-exchange reminder for exchange ID: %s", exchange.ID)

		emailSubject := "Reminder: An Exchange Request Is Waiting"
		emailBody := fmt.Sprintf(
			"<h1>Exchange Request Reminder</h1><p>Hi %s,</p><p><strong>%s</strong> asked to learn <strong>%s</strong> from you a few days ago and is still waiting for an answer. Accept the request to get both learning paths started.</p>",
			exchange.Provider.Name,
			exchange.Requester.Name,
			exchange.RequestedSkill,
		)

		go mailer.Send(exchange.Provider.Name, exchange.Provider.Email, emailSubject, emailBody)
	}
}
