package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/skillswap/skill_exchange/cache"
	config "github.com/skillswap/skill_exchange/configs"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/jobs"
	"github.com/skillswap/skill_exchange/middleware"
	"github.com/skillswap/skill_exchange/notifications"
	"github.com/skillswap/skill_exchange/routes"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	database.SeedSkills()

	mailer := notifications.NewEmailService(
		config.Config("BREVO_API_KEY"),
		config.Config("EMAIL_SENDER"),
		config.ConfigDefault("EMAIL_SENDER_NAME", "SkillSwap"),
	)

	responseCache := cache.New(512)

	c := cron.New()
	c.AddFunc("0 */6 * * *", func() { jobs.SendPendingExchangeReminders(mailer) })
	c.AddFunc("0 9 * * *", func() { jobs.NudgeStaleLearningPaths(mailer) })
	c.AddFunc("*/30 * * * *", func() { responseCache.Prune() })
	go c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "SkillSwap",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization, X-Cache, X-Cache-Age",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	if config.IsProduction() {
		app.Use(middleware.RateLimit())
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to the SkillSwap API",
		})
	})

	authHandler := handlers.NewAuthHandler(mailer)
	userHandler := handlers.NewUserHandler(responseCache)
	skillHandler := handlers.NewSkillHandler(responseCache)
	exchangeHandler := handlers.NewExchangeHandler(mailer, responseCache)
	pathHandler := handlers.NewLearningPathHandler(mailer, responseCache)
	messagingHandler := handlers.NewMessagingHandler(mailer, responseCache)
	adminHandler := handlers.NewAdminHandler(responseCache)

	routes.AuthRoutes(app, authHandler)
	routes.UserRoutes(app, userHandler, responseCache)
	routes.SkillRoutes(app, skillHandler, responseCache)
	routes.ExchangeRoutes(app, exchangeHandler, messagingHandler, responseCache)
	routes.LearningPathRoutes(app, pathHandler)
	routes.MessagingRoutes(app, messagingHandler, responseCache)
	routes.AdminRoutes(app, adminHandler, responseCache)
	routes.UploadRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigDefault("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
