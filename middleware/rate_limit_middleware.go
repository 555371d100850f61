package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter tracks request rates per client IP with expiration of idle
// entries.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

func newIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) *ipRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if ok {
		v.lastSeen = now
	} else {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
		l.visitors[key] = v
	}
	for k, vv := range l.visitors {
		if now.Sub(vv.lastSeen) > l.ttl {
			delete(l.visitors, k)
		}
	}
	l.mu.Unlock()

	return v.limiter.Allow()
}

// RateLimit returns a per-IP limiter middleware: 100 requests per 15
// minutes with a small burst, matching production API policy.
func RateLimit() fiber.Handler {
	limiter := newIPRateLimiter(100, 15*time.Minute, 10, 30*time.Minute)
	return func(c *fiber.Ctx) error {
		if !limiter.allow(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many requests, please try again later",
			})
		}
		return c.Next()
	}
}
