package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/middleware"
	"github.com/skillswap/skill_exchange/models"
	"gorm.io/gorm"
)

type SkillHandler struct {
	Cache *cache.ResponseCache
}

func NewSkillHandler(cache *cache.ResponseCache) *SkillHandler {
	return &SkillHandler{Cache: cache}
}

func (h *SkillHandler) GetSkills(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Skill{}).Where("is_active = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}

	var skills []models.Skill
	if err := query.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("usage_count DESC, name ASC").Find(&skills).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}

	return c.JSON(fiber.Map{"success": true, "skills": skills})
}

func (h *SkillHandler) GetSkill(c *fiber.Ctx) error {
	var skill models.Skill
	if err := database.DB.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&skill, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Skill not found"})
	}
	return c.JSON(fiber.Map{"success": true, "skill": skill})
}

type SkillVideoRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	URL      string `json:"url" validate:"required,url"`
	Duration int    `json:"duration" validate:"omitempty,min=1,max=600"`
}

type CatalogSkillRequest struct {
	Name        string              `json:"name" validate:"required,min=2,max=100"`
	Category    string              `json:"category" validate:"required,min=2,max=100"`
	Subcategory *string             `json:"subcategory" validate:"omitempty,max=100"`
	Description string              `json:"description" validate:"required,max=1000"`
	Tags        []string            `json:"tags" validate:"omitempty,dive,max=50"`
	Videos      []SkillVideoRequest `json:"videos" validate:"omitempty,dive"`
}

func (h *SkillHandler) CreateSkill(c *fiber.Ctx) error {
	var req CatalogSkillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var clash int64
	database.DB.Model(&models.Skill{}).Where("LOWER(name) = LOWER(?)", req.Name).Count(&clash)
	if clash > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "A skill with that name already exists"})
	}

	adminID := middleware.UserID(c)
	skill := models.Skill{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: req.Description,
		Tags:        req.Tags,
		IsActive:    true,
		CreatedBy:   &adminID,
	}
	for i, v := range req.Videos {
		duration := v.Duration
		if duration <= 0 {
			duration = 45
		}
		skill.Videos = append(skill.Videos, models.SkillVideo{
			Title:    v.Title,
			URL:      v.URL,
			Duration: duration,
			Position: i + 1,
		})
	}

	if err := database.DB.Create(&skill).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create skill"})
	}

	h.Cache.Invalidate("/api/skills")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "skill": skill})
}

func (h *SkillHandler) UpdateSkill(c *fiber.Ctx) error {
	var skill models.Skill
	if err := database.DB.First(&skill, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Skill not found"})
	}

	var req CatalogSkillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		skill.Name = req.Name
		skill.Category = req.Category
		skill.Subcategory = req.Subcategory
		skill.Description = req.Description
		skill.Tags = req.Tags
		if err := tx.Save(&skill).Error; err != nil {
			return err
		}

		if req.Videos == nil {
			return nil
		}

		// The video list is replaced wholesale; catalog order follows the
		// request order.
		if err := tx.Where("skill_id = ?", skill.ID).Delete(&models.SkillVideo{}).Error; err != nil {
			return err
		}
		for i, v := range req.Videos {
			duration := v.Duration
			if duration <= 0 {
				duration = 45
			}
			video := models.SkillVideo{
				SkillID:  skill.ID,
				Title:    v.Title,
				URL:      v.URL,
				Duration: duration,
				Position: i + 1,
			}
			if err := tx.Create(&video).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update skill"})
	}

	h.Cache.Invalidate("/api/skills")
	return c.JSON(fiber.Map{"success": true, "skill": skill})
}

// DeleteSkill soft-deactivates; exchanges keep their resolved skill IDs.
func (h *SkillHandler) DeleteSkill(c *fiber.Ctx) error {
	var skill models.Skill
	if err := database.DB.First(&skill, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Skill not found"})
	}

	if err := database.DB.Model(&skill).Update("is_active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to delete skill"})
	}

	h.Cache.Invalidate("/api/skills")
	return c.JSON(fiber.Map{"success": true, "message": "Skill removed from the catalog"})
}
