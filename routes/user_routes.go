package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func UserRoutes(app *fiber.App, h *handlers.UserHandler, rc *cache.ResponseCache) {
	users := app.Group("/api/users", middleware.Protected())

	users.Get("", cache.Middleware(rc, cache.TTLUsers), h.GetUsers)
	users.Get("/categories", cache.Middleware(rc, cache.TTLUsers), h.GetCategories)
	users.Get("/matches/recommendations", h.GetMatches)
	users.Get("/tokens/history", h.GetTokenHistory)
	users.Put("/profile", h.UpdateProfile)
	users.Put("/email-preferences", h.UpdateEmailPreferences)

	users.Post("/skills", h.AddSkill)
	users.Put("/skills/:skillId", h.UpdateSkill)
	users.Delete("/skills/:skillId", h.DeleteSkill)
	users.Post("/skills/:skillId/endorse", h.EndorseSkill)
	users.Put("/skills/:skillId/verify", middleware.AdminRequired(), h.VerifySkill)

	users.Get("/:id", cache.Middleware(rc, cache.TTLUsers), h.GetUser)
}
