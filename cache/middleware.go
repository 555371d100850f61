package cache

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Per-route TTLs.
const (
	TTLSkills        = 5 * time.Minute
	TTLLearningPaths = 5 * time.Minute
	TTLUsers         = 10 * time.Minute
	TTLExchanges     = 3 * time.Minute
	TTLConversations = 2 * time.Minute
	TTLStats         = 10 * time.Minute
)

// Middleware caches successful GET responses for ttl, serving hits with an
// X-Cache header. Anything other than GET or 200 passes straight through.
// Keys are scoped to the authenticated user so responses that depend on the
// caller never bleed between accounts.
func Middleware(c *ResponseCache, ttl time.Duration) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Method() != fiber.MethodGet {
			return ctx.Next()
		}

		key := ctx.OriginalURL()
		if token, ok := ctx.Locals("user").(*jwt.Token); ok {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if id, _ := claims["user_id"].(string); id != "" {
					key = id + ":" + key
				}
			}
		}
		if entry, age, ok := c.Get(key); ok {
			ctx.Set("X-Cache", "HIT")
			ctx.Set("X-Cache-Age", strconv.Itoa(int(age.Seconds())))
			ctx.Set(fiber.HeaderContentType, entry.ContentType)
			return ctx.Status(entry.Status).Send(entry.Body)
		}

		if err := ctx.Next(); err != nil {
			return err
		}

		if ctx.Response().StatusCode() == fiber.StatusOK {
			body := make([]byte, len(ctx.Response().Body()))
			copy(body, ctx.Response().Body())
			c.Set(key, Entry{
				Body:        body,
				Status:      fiber.StatusOK,
				ContentType: string(ctx.Response().Header.ContentType()),
			}, ttl)
			ctx.Set("X-Cache", "MISS")
		}
		return nil
	}
}
