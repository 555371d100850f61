package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func AdminRoutes(app *fiber.App, h *handlers.AdminHandler, rc *cache.ResponseCache) {
	admin := app.Group("/api/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/stats", cache.Middleware(rc, cache.TTLStats), h.GetStats)
	admin.Get("/users", h.ListUsers)
	admin.Put("/users/:id/active", h.SetUserActive)
}
