package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func ExchangeRoutes(app *fiber.App, h *handlers.ExchangeHandler, m *handlers.MessagingHandler, rc *cache.ResponseCache) {
	exchanges := app.Group("/api/exchanges", middleware.Protected())

	exchanges.Post("", h.CreateExchange)
	exchanges.Get("", cache.Middleware(rc, cache.TTLExchanges), h.GetExchanges)
	exchanges.Get("/learned", h.GetLearnedSkills)
	exchanges.Get("/taught", h.GetTaughtSkills)
	exchanges.Get("/:id", h.GetExchange)
	exchanges.Get("/:id/completion-status", h.GetCompletionStatus)
	exchanges.Put("/:id/status", h.UpdateStatus)
	exchanges.Post("/:id/review", h.SubmitReview)
	exchanges.Post("/:id/messages", m.SendExchangeMessage)
	exchanges.Delete("/:id", h.DeleteExchange)
}
