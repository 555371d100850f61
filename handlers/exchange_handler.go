package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/middleware"
	"github.com/skillswap/skill_exchange/models"
	"github.com/skillswap/skill_exchange/notifications"
	"github.com/skillswap/skill_exchange/services"
	"gorm.io/gorm"
)

type ExchangeHandler struct {
	Mailer *notifications.EmailService
	Cache  *cache.ResponseCache
}

func NewExchangeHandler(mailer *notifications.EmailService, cache *cache.ResponseCache) *ExchangeHandler {
	return &ExchangeHandler{Mailer: mailer, Cache: cache}
}

type CreateExchangeRequest struct {
	ProviderID     string `json:"provider_id" validate:"required,uuid"`
	RequestedSkill string `json:"requested_skill" validate:"required,min=2,max=100"`
	OfferedSkill   string `json:"offered_skill" validate:"required,min=2,max=100"`
}

func (h *ExchangeHandler) CreateExchange(c *fiber.Ctx) error {
	requesterID := middleware.UserID(c)

	var req CreateExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	providerID, _ := uuid.Parse(req.ProviderID)
	if providerID == requesterID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "You cannot open an exchange with yourself"})
	}

	var provider models.User
	if err := database.DB.First(&provider, "id = ? AND is_active = ?", providerID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Provider not found"})
	}

	var requester models.User
	if err := database.DB.First(&requester, "id = ?", requesterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	// Both skill names go through the catalog lookup once, here. The
	// learning paths later reuse the persisted IDs instead of re-matching.
	requestedSkill, err := services.ResolveSkill(database.DB, req.RequestedSkill)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}
	offeredSkill, err := services.ResolveSkill(database.DB, req.OfferedSkill)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	exchange := models.Exchange{
		RequesterID:    requesterID,
		ProviderID:     providerID,
		RequestedSkill: strings.TrimSpace(req.RequestedSkill),
		OfferedSkill:   strings.TrimSpace(req.OfferedSkill),
		Status:         models.ExchangeStatusPending,
	}
	if requestedSkill != nil {
		exchange.RequestedSkillID = &requestedSkill.ID
	}
	if offeredSkill != nil {
		exchange.OfferedSkillID = &offeredSkill.ID
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&exchange).Error; err != nil {
			return err
		}
		conversation := models.Conversation{
			ExchangeID:  exchange.ID,
			RequesterID: requesterID,
			ProviderID:  providerID,
		}
		return tx.Create(&conversation).Error
	})
	if err != nil {
		log.Printf("🔥 Failed to create exchange: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create exchange"})
	}

	if provider.EmailNotifications.ExchangeRequests {
		go h.Mailer.Send(provider.Name, provider.Email, "New Exchange Request",
			fmt.Sprintf("<h1>New Exchange Request</h1><p>%s wants to learn <strong>%s</strong> from you and offers <strong>%s</strong> in return.</p>",
				requester.Name, exchange.RequestedSkill, exchange.OfferedSkill))
	}

	h.Cache.Invalidate("/api/exchanges")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "exchange": exchange})
}

func (h *ExchangeHandler) GetExchanges(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	query := database.DB.Preload("Requester").Preload("Provider").
		Where("requester_id = ? OR provider_id = ?", userID, userID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var exchanges []models.Exchange
	if err := query.Order("created_at DESC").Find(&exchanges).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}
	return c.JSON(fiber.Map{"success": true, "exchanges": exchanges})
}

func (h *ExchangeHandler) GetExchange(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var exchange models.Exchange
	if err := database.DB.Preload("Requester").Preload("Provider").
		First(&exchange, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Exchange not found"})
	}
	if !exchange.IsParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to view this exchange"})
	}
	return c.JSON(fiber.Map{"success": true, "exchange": exchange})
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed"`
}

func (h *ExchangeHandler) UpdateStatus(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var exchange models.Exchange
	if err := database.DB.Preload("Requester").Preload("Provider").
		First(&exchange, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Exchange not found"})
	}
	if !exchange.IsParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to update this exchange"})
	}

	switch req.Status {
	case models.ExchangeStatusActive:
		if exchange.Status == models.ExchangeStatusCompleted {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Exchange is already completed"})
		}
		if err := services.EnsureLearningPaths(database.DB, &exchange); err != nil {
			log.Printf("🔥 Failed to create learning paths for exchange %s: %v", exchange.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create learning paths"})
		}
		if err := database.DB.Model(&exchange).Update("status", models.ExchangeStatusActive).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update exchange"})
		}
		exchange.Status = models.ExchangeStatusActive

		if exchange.Requester.EmailNotifications.ExchangeAccepted {
			go h.Mailer.Send(exchange.Requester.Name, exchange.Requester.Email, "Exchange Accepted!",
				fmt.Sprintf("<h1>Exchange Accepted</h1><p>%s accepted your request to learn <strong>%s</strong>. Your learning path is ready.</p>",
					exchange.Provider.Name, exchange.RequestedSkill))
		}

	case models.ExchangeStatusCompleted:
		result, err := services.CompleteExchange(exchange.ID)
		if err != nil {
			log.Printf("🔥 Failed to complete exchange %s: %v", exchange.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to complete exchange"})
		}
		exchange = result.Exchange
		exchange.Requester = mustLoadUser(exchange.RequesterID)
		exchange.Provider = mustLoadUser(exchange.ProviderID)
		sendCompletionEmails(h.Mailer, exchange, result)
	}

	h.Cache.Invalidate("/api/exchanges")
	h.Cache.Invalidate("/api/learning-paths")
	return c.JSON(fiber.Map{"success": true, "exchange": exchange})
}

func mustLoadUser(id uuid.UUID) models.User {
	var user models.User
	database.DB.First(&user, "id = ?", id)
	return user
}

func sendCompletionEmails(mailer *notifications.EmailService, exchange models.Exchange, result *services.CompletionResult) {
	if !result.RewardsApplied {
		return
	}
	send := func(user models.User, award int, learned string) {
		if !user.EmailNotifications.ExchangeCompleted {
			return
		}
		body := fmt.Sprintf("<h1>Exchange Completed!</h1><p>Congratulations on finishing <strong>%s</strong>. You earned <strong>%d tokens</strong>.</p>", learned, award)
		if badges := result.NewBadges[user.ID]; len(badges) > 0 {
			body += fmt.Sprintf("<p>New badge unlocked: <strong>%s</strong> 🎉</p>", strings.Join(badges, ", "))
		}
		go mailer.Send(user.Name, user.Email, "Exchange Completed!", body)
	}
	send(exchange.Requester, result.RequesterAward, exchange.RequestedSkill)
	send(exchange.Provider, result.ProviderAward, exchange.OfferedSkill)
}

func (h *ExchangeHandler) DeleteExchange(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var exchange models.Exchange
	if err := database.DB.First(&exchange, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Exchange not found"})
	}
	if exchange.RequesterID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Only the requester may delete an exchange"})
	}
	if exchange.Status != models.ExchangeStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Only pending exchanges can be deleted"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exchange_id = ?", exchange.ID).Delete(&models.Conversation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&exchange).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to delete exchange"})
	}

	h.Cache.Invalidate("/api/exchanges")
	return c.JSON(fiber.Map{"success": true, "message": "Exchange deleted"})
}

type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"omitempty,max=1000"`
}

// SubmitReview records one side's rating and recomputes the other party's
// mean rating over their whole exchange history.
func (h *ExchangeHandler) SubmitReview(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var exchange models.Exchange
	if err := database.DB.First(&exchange, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Exchange not found"})
	}
	if !exchange.IsParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to review this exchange"})
	}
	if exchange.Status != models.ExchangeStatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Only completed exchanges can be reviewed"})
	}

	var ratedUserID uuid.UUID
	if userID == exchange.RequesterID {
		if exchange.RequesterRating != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "You have already reviewed this exchange"})
		}
		exchange.RequesterRating = &req.Rating
		if req.Review != "" {
			exchange.RequesterReview = &req.Review
		}
		ratedUserID = exchange.ProviderID
	} else {
		if exchange.ProviderRating != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "You have already reviewed this exchange"})
		}
		exchange.ProviderRating = &req.Rating
		if req.Review != "" {
			exchange.ProviderReview = &req.Review
		}
		ratedUserID = exchange.RequesterID
	}

	if err := database.DB.Save(&exchange).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to save review"})
	}

	if err := recomputeUserRating(ratedUserID); err != nil {
		log.Printf("🔥 Failed to recompute rating for user %s: %v", ratedUserID, err)
	}

	var ratedUser models.User
	if err := database.DB.First(&ratedUser, "id = ?", ratedUserID).Error; err == nil &&
		ratedUser.EmailNotifications.NewRatings {
		go h.Mailer.Send(ratedUser.Name, ratedUser.Email, "You Received a New Rating",
			fmt.Sprintf("<h1>New Rating</h1><p>Your exchange partner rated you <strong>%d/5</strong>. Your overall rating is now %.1f.</p>", req.Rating, ratedUser.Rating))
	}

	h.Cache.Invalidate("/api/exchanges")
	h.Cache.Invalidate("/api/users")
	return c.JSON(fiber.Map{"success": true, "exchange": exchange})
}

// recomputeUserRating takes the mean over every rating the user ever
// received, as requester or provider. A full scan, not an incremental
// average, so a review edit or deletion can never drift it.
func recomputeUserRating(userID uuid.UUID) error {
	var exchanges []models.Exchange
	if err := database.DB.
		Where("(provider_id = ? AND requester_rating IS NOT NULL) OR (requester_id = ? AND provider_rating IS NOT NULL)", userID, userID).
		Find(&exchanges).Error; err != nil {
		return err
	}

	sum, count := 0, 0
	for _, e := range exchanges {
		if e.ProviderID == userID && e.RequesterRating != nil {
			sum += *e.RequesterRating
			count++
		}
		if e.RequesterID == userID && e.ProviderRating != nil {
			sum += *e.ProviderRating
			count++
		}
	}

	rating := 0.0
	if count > 0 {
		rating = float64(sum) / float64(count)
	}
	return database.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("rating", rating).Error
}

// GetLearnedSkills lists what the caller learned through completed
// exchanges.
func (h *ExchangeHandler) GetLearnedSkills(c *fiber.Ctx) error {
	return h.skillHistory(c, true)
}

// GetTaughtSkills lists what the caller taught through completed exchanges.
func (h *ExchangeHandler) GetTaughtSkills(c *fiber.Ctx) error {
	return h.skillHistory(c, false)
}

func (h *ExchangeHandler) skillHistory(c *fiber.Ctx, learned bool) error {
	userID := middleware.UserID(c)

	var exchanges []models.Exchange
	if err := database.DB.Preload("Requester").Preload("Provider").
		Where("(requester_id = ? OR provider_id = ?) AND status = ?", userID, userID, models.ExchangeStatusCompleted).
		Order("completed_date DESC").Find(&exchanges).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	type entry struct {
		ExchangeID  uuid.UUID   `json:"exchange_id"`
		Skill       string      `json:"skill"`
		Partner     models.User `json:"partner"`
		CompletedAt *time.Time  `json:"completed_at"`
	}

	entries := make([]entry, 0, len(exchanges))
	for _, e := range exchanges {
		isRequester := e.RequesterID == userID
		item := entry{ExchangeID: e.ID, CompletedAt: e.CompletedDate}
		if isRequester {
			item.Partner = e.Provider
			if learned {
				item.Skill = e.RequestedSkill
			} else {
				item.Skill = e.OfferedSkill
			}
		} else {
			item.Partner = e.Requester
			if learned {
				item.Skill = e.OfferedSkill
			} else {
				item.Skill = e.RequestedSkill
			}
		}
		entries = append(entries, item)
	}

	key := "taught"
	if learned {
		key = "learned"
	}
	return c.JSON(fiber.Map{"success": true, key: entries})
}

// GetCompletionStatus reports both learners' progress for an exchange.
func (h *ExchangeHandler) GetCompletionStatus(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var exchange models.Exchange
	if err := database.DB.First(&exchange, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Exchange not found"})
	}
	if !exchange.IsParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to view this exchange"})
	}

	var paths []models.LearningPath
	if err := database.DB.Where("exchange_id = ?", exchange.ID).Find(&paths).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	type progress struct {
		LearningPathID     uuid.UUID `json:"learning_path_id"`
		LearnerID          uuid.UUID `json:"learner_id"`
		SkillName          string    `json:"skill_name"`
		Status             string    `json:"status"`
		ProgressPercentage int       `json:"progress_percentage"`
	}
	out := make([]progress, 0, len(paths))
	for _, p := range paths {
		out = append(out, progress{
			LearningPathID:     p.ID,
			LearnerID:          p.LearnerID,
			SkillName:          p.SkillName,
			Status:             p.Status,
			ProgressPercentage: p.ProgressPercentage,
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"exchange_status": exchange.Status,
		"paths":           out,
	})
}
