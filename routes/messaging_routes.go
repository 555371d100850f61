package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func MessagingRoutes(app *fiber.App, h *handlers.MessagingHandler, rc *cache.ResponseCache) {
	conversations := app.Group("/api/conversations", middleware.Protected())
	conversations.Get("", cache.Middleware(rc, cache.TTLConversations), h.GetConversations)
	conversations.Get("/:conversationId/messages", h.GetConversationMessages)
	conversations.Put("/:conversationId/read", h.MarkConversationRead)

	app.Use("/api/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/api/ws", websocket.New(handlers.ServeWs))
}
