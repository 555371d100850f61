package handlers

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/middleware"
	"github.com/skillswap/skill_exchange/models"
	"github.com/skillswap/skill_exchange/services"
)

type UserHandler struct {
	Cache *cache.ResponseCache
}

func NewUserHandler(cache *cache.ResponseCache) *UserHandler {
	return &UserHandler{Cache: cache}
}

// GetUsers is the discovery endpoint: filter by free-text search, skill
// category and experience level, page through results ordered by
// reputation.
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := database.DB.Model(&models.User{}).Where("is_active = ?", true)

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"LOWER(name) LIKE LOWER(?) OR id IN (?)", like,
			database.DB.Model(&models.UserSkill{}).Select("user_id").Where("LOWER(name) LIKE LOWER(?)", like),
		)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("id IN (?)",
			database.DB.Model(&models.UserSkill{}).Select("user_id").
				Where("kind = ? AND LOWER(category) = LOWER(?)", models.SkillKindOffered, category))
	}
	if level := c.Query("level"); level != "" {
		query = query.Where("id IN (?)",
			database.DB.Model(&models.UserSkill{}).Select("user_id").
				Where("kind = ? AND LOWER(experience_level) = LOWER(?)", models.SkillKindOffered, level))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	var users []models.User
	if err := query.Preload("Skills.Endorsements").
		Order("rating DESC, total_exchanges DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&users).Error; err != nil {
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

func (h *UserHandler) GetCategories(c *fiber.Ctx) error {
	var categories []string
	if err := database.DB.Model(&models.UserSkill{}).
		Distinct("category").Order("category ASC").Pluck("category", &categories).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}
	return c.JSON(fiber.Map{"success": true, "categories": categories})
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	var user models.User
	if err := database.DB.Preload("Skills.Endorsements").First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	Location *string `json:"location" validate:"omitempty,max=100"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = req.Location
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}

	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update profile"})
	}

	h.Cache.Invalidate("/api/users")
	return c.JSON(fiber.Map{"success": true, "user": user})
}

type SkillRequest struct {
	Kind            string  `json:"kind" validate:"required,oneof=offered wanted"`
	Name            string  `json:"name" validate:"required,min=2,max=100"`
	Category        string  `json:"category" validate:"required,min=2,max=100"`
	ExperienceLevel string  `json:"experience_level" validate:"required,oneof=Beginner Intermediate Advanced Expert"`
	Description     string  `json:"description" validate:"required,max=500"`
	YearsExperience int     `json:"years_of_experience" validate:"omitempty,min=0,max=80"`
	Thumbnail       *string `json:"thumbnail" validate:"omitempty,url"`
}

func (h *UserHandler) AddSkill(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req SkillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	skill := models.UserSkill{
		UserID:          userID,
		Kind:            req.Kind,
		Name:            req.Name,
		Category:        req.Category,
		ExperienceLevel: req.ExperienceLevel,
		Description:     req.Description,
		YearsExperience: req.YearsExperience,
		Thumbnail:       req.Thumbnail,
	}
	if err := database.DB.Create(&skill).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to add skill"})
	}

	h.Cache.Invalidate("/api/users")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "skill": skill})
}

func (h *UserHandler) UpdateSkill(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var skill models.UserSkill
	if err := database.DB.First(&skill, "id = ?", c.Params("skillId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Skill not found"})
	}
	if skill.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to modify this skill"})
	}

	var req SkillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	skill.Kind = req.Kind
	skill.Name = req.Name
	skill.Category = req.Category
	skill.ExperienceLevel = req.ExperienceLevel
	skill.Description = req.Description
	skill.YearsExperience = req.YearsExperience
	skill.Thumbnail = req.Thumbnail

	if err := database.DB.Save(&skill).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update skill"})
	}

	h.Cache.Invalidate("/api/users")
	return c.JSON(fiber.Map{"success": true, "skill": skill})
}

func (h *UserHandler) DeleteSkill(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var skill models.UserSkill
	if err := database.DB.First(&skill, "id = ?", c.Params("skillId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Skill not found"})
	}
	if skill.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to modify this skill"})
	}

	if err := database.DB.Delete(&skill).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to delete skill"})
	}

	h.Cache.Invalidate("/api/users")
	return c.JSON(fiber.Map{"success": true, "message": "Skill removed"})
}

func (h *UserHandler) EndorseSkill(c *fiber.Ctx) error {
	endorserID := middleware.UserID(c)

	type Request struct {
		Comment string `json:"comment" validate:"omitempty,max=500"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}

	var skill models.UserSkill
	if err := database.DB.First(&skill, "id = ?", c.Params("skillId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Skill not found"})
	}
	if skill.UserID == endorserID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "You cannot endorse your own skill"})
	}

	var existing int64
	database.DB.Model(&models.Endorsement{}).
		Where("user_skill_id = ? AND endorser_id = ?", skill.ID, endorserID).Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "You have already endorsed this skill"})
	}

	var endorser models.User
	if err := database.DB.First(&endorser, "id = ?", endorserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	endorsement := models.Endorsement{
		UserSkillID:  skill.ID,
		EndorserID:   endorserID,
		EndorserName: endorser.Name,
		Comment:      req.Comment,
	}
	if err := database.DB.Create(&endorsement).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to endorse skill"})
	}

	h.Cache.Invalidate("/api/users")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "endorsement": endorsement})
}

// VerifySkill is the admin stamp on an offered skill.
func (h *UserHandler) VerifySkill(c *fiber.Ctx) error {
	var skill models.UserSkill
	if err := database.DB.First(&skill, "id = ?", c.Params("skillId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Skill not found"})
	}

	now := time.Now()
	skill.Verified = true
	skill.VerifiedAt = &now
	if err := database.DB.Save(&skill).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to verify skill"})
	}

	h.Cache.Invalidate("/api/users")
	return c.JSON(fiber.Map{"success": true, "skill": skill})
}

func (h *UserHandler) GetTokenHistory(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	var history []models.TokenTransaction
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&history).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"balance":       user.TokenBalance(),
		"tokens_earned": user.TokensEarned,
		"tokens_spent":  user.TokensSpent,
		"history":       history,
	})
}

func (h *UserHandler) UpdateEmailPreferences(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var prefs models.EmailPreferences
	if err := c.BodyParser(&prefs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"notify_exchange_requests":  prefs.ExchangeRequests,
			"notify_exchange_accepted":  prefs.ExchangeAccepted,
			"notify_exchange_completed": prefs.ExchangeCompleted,
			"notify_new_ratings":        prefs.NewRatings,
			"notify_new_messages":       prefs.NewMessages,
			"notify_marketing_emails":   prefs.MarketingEmails,
		}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update preferences"})
	}

	return c.JSON(fiber.Map{"success": true, "email_notifications": prefs})
}

// GetMatches ranks other members as exchange candidates for the caller.
func (h *UserHandler) GetMatches(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var me models.User
	if err := database.DB.Preload("Skills").First(&me, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	matches, err := services.FindMatches(database.DB, &me)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to compute matches"})
	}
	return c.JSON(fiber.Map{"success": true, "matches": matches})
}
