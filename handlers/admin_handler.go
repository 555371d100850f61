package handlers

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
)

type AdminHandler struct {
	Cache *cache.ResponseCache
}

func NewAdminHandler(cache *cache.ResponseCache) *AdminHandler {
	return &AdminHandler{Cache: cache}
}

// GetStats is the dashboard rollup.
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	var (
		totalUsers         int64
		activeUsers        int64
		totalSkills        int64
		totalExchanges     int64
		pendingExchanges   int64
		activeExchanges    int64
		completedExchanges int64
		totalPaths         int64
		completedPaths     int64
		totalMessages      int64
		tokensAwarded      int64
	)

	database.DB.Model(&models.User{}).Count(&totalUsers)
	database.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&activeUsers)
	database.DB.Model(&models.Skill{}).Where("is_active = ?", true).Count(&totalSkills)
	database.DB.Model(&models.Exchange{}).Count(&totalExchanges)
	database.DB.Model(&models.Exchange{}).Where("status = ?", models.ExchangeStatusPending).Count(&pendingExchanges)
	database.DB.Model(&models.Exchange{}).Where("status = ?", models.ExchangeStatusActive).Count(&activeExchanges)
	database.DB.Model(&models.Exchange{}).Where("status = ?", models.ExchangeStatusCompleted).Count(&completedExchanges)
	database.DB.Model(&models.LearningPath{}).Count(&totalPaths)
	database.DB.Model(&models.LearningPath{}).Where("status = ?", models.PathStatusCompleted).Count(&completedPaths)
	database.DB.Model(&models.Message{}).Count(&totalMessages)
	database.DB.Model(&models.TokenTransaction{}).Where("amount > 0").
		Select("COALESCE(SUM(amount), 0)").Scan(&tokensAwarded)

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"total_users":         totalUsers,
			"active_users":        activeUsers,
			"total_skills":        totalSkills,
			"total_exchanges":     totalExchanges,
			"pending_exchanges":   pendingExchanges,
			"active_exchanges":    activeExchanges,
			"completed_exchanges": completedExchanges,
			"total_paths":         totalPaths,
			"completed_paths":     completedPaths,
			"total_messages":      totalMessages,
			"tokens_awarded":      tokensAwarded,
		},
	})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var total int64
	database.DB.Model(&models.User{}).Count(&total)

	var users []models.User
	if err := database.DB.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"users":       users,
		"page":        page,
		"total":       total,
		"total_pages": int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

// SetUserActive toggles the soft-deactivation flag.
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	type Request struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	if err := database.DB.Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update user"})
	}

	h.Cache.Invalidate("/api/users")
	return c.JSON(fiber.Map{"success": true, "user": user})
}
