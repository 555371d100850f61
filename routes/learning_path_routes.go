package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func LearningPathRoutes(app *fiber.App, h *handlers.LearningPathHandler) {
	paths := app.Group("/api/learning-paths", middleware.Protected())

	paths.Get("/exchange/:exchangeId", h.GetByExchange)
	paths.Get("/:id", h.GetPath)
	paths.Put("/:id/complete", h.CompletePath)
	paths.Put("/:id/modules/:moduleId/complete", h.CompleteModule)
	paths.Put("/:id/modules/:moduleId/incomplete", h.IncompleteModule)

	admin := paths.Group("", middleware.AdminRequired())
	admin.Get("", h.ListPaths)
	admin.Get("/:id/modules/:moduleId", h.GetModule)
	admin.Post("/:id/modules", h.AddModule)
	admin.Put("/:id/modules/:moduleId", h.UpdateModule)
	admin.Delete("/:id/modules/:moduleId", h.DeleteModule)
}
