package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func UploadRoutes(app *fiber.App) {
	uploads := app.Group("/api/uploads", middleware.Protected())
	uploads.Get("/signature", handlers.GenerateUploadSignature)
}
