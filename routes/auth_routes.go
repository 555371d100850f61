package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func AuthRoutes(app *fiber.App, h *handlers.AuthHandler) {
	auth := app.Group("/api/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/me", middleware.Protected(), h.Me)

	auth.Post("/forgot-password", h.ForgotPassword)
	auth.Get("/verify-email/:token", h.VerifyEmail)
	auth.Post("/verify-otp", h.VerifyOTP)
	auth.Post("/reset-password/:token", h.ResetPassword)
}
