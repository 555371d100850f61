package handlers

import (
	"log"
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

type LearningPathHandler struct {
	Mailer *notifications.EmailService
	Cache  *cache.ResponseCache
}

func NewLearningPathHandler(mailer *notifications.EmailService, cache *cache.ResponseCache) *LearningPathHandler {
	return &LearningPathHandler{Mailer: mailer, Cache: cache}
}

// GetByExchange returns the caller's learning path for an exchange,
// creating both paths lazily when an active exchange has none yet.
func (h *LearningPathHandler) GetByExchange(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var exchange models.Exchange
	if err := database.DB.First(&exchange, "id = ?", c.Params("exchangeId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Exchange not found"})
	}
	if !exchange.IsParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to view this exchange"})
	}

	var path models.LearningPath
	err := database.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("exchange_id = ? AND learner_id = ?", exchange.ID, userID).First(&path).Error

	if err == gorm.ErrRecordNotFound && exchange.Status != models.ExchangeStatusPending {
		if err := services.EnsureLearningPaths(database.DB, &exchange); err != nil {
			log.Printf("🔥 Failed to create learning paths for exchange %s: %v", exchange.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create learning paths"})
		}
		err = database.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).Where("exchange_id = ? AND learner_id = ?", exchange.ID, userID).First(&path).Error
	}
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Learning path not found"})
	}

	return c.JSON(fiber.Map{"success": true, "learning_path": path})
}

func (h *LearningPathHandler) GetPath(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var path models.LearningPath
	if err := database.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&path, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Learning path not found"})
	}
	if path.LearnerID != userID && path.InstructorID != userID && !middleware.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Not authorized to view this learning path"})
	}
	return c.JSON(fiber.Map{"success": true, "learning_path": path})
}

type CompleteModuleRequest struct {
	Score *int    `json:"score" validate:"omitempty"`
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

func (h *LearningPathHandler) CompleteModule(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req CompleteModuleRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}

	path, module, errResp := h.loadPathModule(c, userID)
	if errResp != nil {
		return errResp(c)
	}

	now := time.Now()
	module.IsCompleted = true
	module.CompletedAt = &now
	if req.Score != nil {
		score := clampScore(*req.Score)
		module.Score = &score
	}
	if req.Notes != nil {
		module.Notes = req.Notes
	}
	if err := database.DB.Save(module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update module"})
	}

	return h.recomputeAndSync(c, path)
}

func (h *LearningPathHandler) IncompleteModule(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	path, module, errResp := h.loadPathModule(c, userID)
	if errResp != nil {
		return errResp(c)
	}

	module.IsCompleted = false
	module.CompletedAt = nil
	module.Score = nil
	if err := database.DB.Save(module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update module"})
	}

	return h.recomputeAndSync(c, path)
}

// CompletePath closes out a path whose modules are all done; the module
// handlers normally get there first, this is the explicit variant.
func (h *LearningPathHandler) CompletePath(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var path models.LearningPath
	if err := database.DB.Preload("Modules").First(&path, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Learning path not found"})
	}
	if path.LearnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Only the learner may update this path"})
	}

	for _, m := range path.Modules {
		if !m.IsCompleted {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "All modules must be completed first"})
		}
	}

	return h.recomputeAndSync(c, &path)
}

// recomputeAndSync rederives the path counters, persists them, and runs the
// two-path rendezvous against the sibling. Certificate generation fires
// when this call is the one that completed the path.
func (h *LearningPathHandler) recomputeAndSync(c *fiber.Ctx, path *models.LearningPath) error {
	wasCompleted := path.Status == models.PathStatusCompleted

	services.RecomputeProgress(path)
	if err := database.DB.Omit("Modules").Save(path).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update learning path"})
	}

	if !wasCompleted && path.Status == models.PathStatusCompleted {
		go services.GenerateCertificate(path.ID)
	}

	result, err := services.SyncExchangeCompletion(path.ExchangeID)
	if err != nil {
		log.Printf("🔥 Failed to sync exchange %s after path update: %v", path.ExchangeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to sync exchange status"})
	}
	if result.RewardsApplied {
		exchange := result.Exchange
		exchange.Requester = mustLoadUser(exchange.RequesterID)
		exchange.Provider = mustLoadUser(exchange.ProviderID)
		sendCompletionEmails(h.Mailer, exchange, result)
	}

	h.Cache.Invalidate("/api/learning-paths")
	h.Cache.Invalidate("/api/exchanges")
	return c.JSON(fiber.Map{
		"success":         true,
		"learning_path":   path,
		"exchange_status": result.Exchange.Status,
	})
}

func (h *LearningPathHandler) loadPathModule(c *fiber.Ctx, userID uuid.UUID) (*models.LearningPath, *models.Module, func(*fiber.Ctx) error) {
	var path models.LearningPath
	if err := database.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&path, "id = ?", c.Params("id")).Error; err != nil {
		return nil, nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Learning path not found"})
		}
	}
	if path.LearnerID != userID {
		return nil, nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Only the learner may update this path"})
		}
	}

	moduleID := c.Params("moduleId")
	for i := range path.Modules {
		if path.Modules[i].ID.String() == moduleID {
			return &path, &path.Modules[i], nil
		}
	}
	return nil, nil, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Module not found"})
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// --- admin module management ---

func (h *LearningPathHandler) ListPaths(c *fiber.Ctx) error {
	var paths []models.LearningPath
	if err := database.DB.Preload("Learner").Preload("Instructor").
		Order("created_at DESC").Find(&paths).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Database error"})
	}
	return c.JSON(fiber.Map{"success": true, "learning_paths": paths})
}

type ModuleRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=500"`
	VideoTitle  string `json:"video_title" validate:"omitempty,max=255"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	Duration    int    `json:"duration" validate:"omitempty,min=1,max=600"`
}

func (h *LearningPathHandler) AddModule(c *fiber.Ctx) error {
	var req ModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var path models.LearningPath
	if err := database.DB.Preload("Modules").First(&path, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Learning path not found"})
	}

	duration := req.Duration
	if duration <= 0 {
		duration = 45
	}
	module := models.Module{
		LearningPathID: path.ID,
		Title:          req.Title,
		Description:    req.Description,
		VideoTitle:     req.VideoTitle,
		VideoURL:       req.VideoURL,
		Duration:       duration,
		Position:       len(path.Modules) + 1,
	}
	if err := database.DB.Create(&module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to add module"})
	}

	path.Modules = append(path.Modules, module)
	services.RecomputeProgress(&path)
	path.EstimatedDuration = services.EstimatedDuration(path.Modules)
	if err := database.DB.Omit("Modules").Save(&path).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update learning path"})
	}

	h.Cache.Invalidate("/api/learning-paths")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "module": module})
}

func (h *LearningPathHandler) UpdateModule(c *fiber.Ctx) error {
	var req ModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var module models.Module
	if err := database.DB.First(&module, "id = ? AND learning_path_id = ?",
		c.Params("moduleId"), c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Module not found"})
	}

	module.Title = req.Title
	module.Description = req.Description
	module.VideoTitle = req.VideoTitle
	module.VideoURL = req.VideoURL
	if req.Duration > 0 {
		module.Duration = req.Duration
	}
	if err := database.DB.Save(&module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to update module"})
	}

	h.Cache.Invalidate("/api/learning-paths")
	return c.JSON(fiber.Map{"success": true, "module": module})
}

func (h *LearningPathHandler) DeleteModule(c *fiber.Ctx) error {
	var path models.LearningPath
	if err := database.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&path, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Learning path not found"})
	}

	moduleID := c.Params("moduleId")
	idx := -1
	for i := range path.Modules {
		if path.Modules[i].ID.String() == moduleID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Module not found"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&path.Modules[idx]).Error; err != nil {
			return err
		}
		path.Modules = append(path.Modules[:idx], path.Modules[idx+1:]...)
		for i := range path.Modules {
			path.Modules[i].Position = i + 1
			if err := tx.Model(&path.Modules[i]).Update("position", i+1).Error; err != nil {
				return err
			}
		}
		services.RecomputeProgress(&path)
		path.EstimatedDuration = services.EstimatedDuration(path.Modules)
		return tx.Omit("Modules").Save(&path).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to delete module"})
	}

	h.Cache.Invalidate("/api/learning-paths")
	return c.JSON(fiber.Map{"success": true, "learning_path": path})
}

func (h *LearningPathHandler) GetModule(c *fiber.Ctx) error {
	var module models.Module
	if err := database.DB.First(&module, "id = ? AND learning_path_id = ?",
		c.Params("moduleId"), c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Module not found"})
	}
	return c.JSON(fiber.Map{"success": true, "module": module})
}
