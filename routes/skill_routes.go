package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/middleware"
)

func SkillRoutes(app *fiber.App, h *handlers.SkillHandler, rc *cache.ResponseCache) {
	skills := app.Group("/api/skills")

	skills.Get("", cache.Middleware(rc, cache.TTLSkills), h.GetSkills)
	skills.Get("/:id", cache.Middleware(rc, cache.TTLSkills), h.GetSkill)

	admin := skills.Group("", middleware.Protected(), middleware.AdminRequired())
	admin.Post("", h.CreateSkill)
	admin.Put("/:id", h.UpdateSkill)
	admin.Delete("/:id", h.DeleteSkill)
}
