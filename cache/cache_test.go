package cache

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestGetSetAndTTLExpiry(t *testing.T) {
	c := New(8)
	clock := time.Now()
	c.WithNowFunc(func() time.Time { return clock })

	c.Set("/api/skills", Entry{Body: []byte("skills"), Status: 200}, 5*time.Minute)

	entry, age, ok := c.Get("/api/skills")
	if !ok {
		t.Fatal("expected a hit right after Set")
	}
	if string(entry.Body) != "skills" {
		t.Fatalf("body = %q", entry.Body)
	}
	if age != 0 {
		t.Fatalf("age = %v, want 0", age)
	}

	clock = clock.Add(3 * time.Minute)
	if _, age, ok := c.Get("/api/skills"); !ok || age != 3*time.Minute {
		t.Fatalf("after 3m: ok=%v age=%v", ok, age)
	}

	clock = clock.Add(3 * time.Minute)
	if _, _, ok := c.Get("/api/skills"); ok {
		t.Fatal("entry should expire after its TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not removed, len = %d", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(3)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("/k%d", i), Entry{Status: 200}, time.Minute)
	}

	// Touch /k0 so /k1 becomes the eviction candidate.
	if _, _, ok := c.Get("/k0"); !ok {
		t.Fatal("/k0 missing before eviction")
	}

	c.Set("/k3", Entry{Status: 200}, time.Minute)
	if c.Len() != 3 {
		t.Fatalf("len = %d, want capacity 3", c.Len())
	}
	if _, _, ok := c.Get("/k1"); ok {
		t.Fatal("/k1 should have been evicted as least recently used")
	}
	if _, _, ok := c.Get("/k0"); !ok {
		t.Fatal("/k0 was touched and should survive")
	}
	if _, _, ok := c.Get("/k3"); !ok {
		t.Fatal("/k3 was just added and should be present")
	}
}

func TestInvalidatePattern(t *testing.T) {
	c := New(8)
	c.Set("u1:/api/exchanges", Entry{Status: 200}, time.Minute)
	c.Set("u2:/api/exchanges?status=pending", Entry{Status: 200}, time.Minute)
	c.Set("u1:/api/skills", Entry{Status: 200}, time.Minute)

	c.Invalidate("/api/exchanges")

	if c.Len() != 1 {
		t.Fatalf("len = %d after invalidate, want 1", c.Len())
	}
	if _, _, ok := c.Get("u1:/api/skills"); !ok {
		t.Fatal("unrelated key dropped by Invalidate")
	}
}

func TestPrune(t *testing.T) {
	c := New(8)
	clock := time.Now()
	c.WithNowFunc(func() time.Time { return clock })

	c.Set("/short", Entry{Status: 200}, time.Minute)
	c.Set("/long", Entry{Status: 200}, time.Hour)

	clock = clock.Add(2 * time.Minute)
	if removed := c.Prune(); removed != 1 {
		t.Fatalf("Prune removed %d, want 1", removed)
	}
	if _, _, ok := c.Get("/long"); !ok {
		t.Fatal("unexpired entry pruned")
	}
}

func TestClear(t *testing.T) {
	c := New(8)
	c.Set("/a", Entry{Status: 200}, time.Minute)
	c.Set("/b", Entry{Status: 200}, time.Minute)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("len = %d after Clear", c.Len())
	}
}

func TestMiddlewareHitAndMiss(t *testing.T) {
	c := New(8)
	calls := 0

	app := fiber.New()
	app.Get("/api/skills", Middleware(c, time.Minute), func(ctx *fiber.Ctx) error {
		calls++
		return ctx.JSON(fiber.Map{"success": true, "calls": calls})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/skills", nil))
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Fatalf("X-Cache = %q on first request, want MISS", got)
	}
	first, _ := io.ReadAll(resp.Body)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/skills", nil))
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	if got := resp.Header.Get("X-Cache"); got != "HIT" {
		t.Fatalf("X-Cache = %q on second request, want HIT", got)
	}
	second, _ := io.ReadAll(resp.Body)

	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if string(first) != string(second) {
		t.Fatalf("cached body differs: %q vs %q", first, second)
	}
}

func TestMiddlewareSkipsNonGET(t *testing.T) {
	c := New(8)
	app := fiber.New()
	app.Post("/api/skills", Middleware(c, time.Minute), func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"success": true})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/skills", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get("X-Cache") != "" {
		t.Fatal("POST responses must not be cached")
	}
	if c.Len() != 0 {
		t.Fatalf("cache holds %d entries after POST", c.Len())
	}
}

func TestMiddlewareSkipsErrors(t *testing.T) {
	c := New(8)
	app := fiber.New()
	app.Get("/api/missing", Middleware(c, time.Minute), func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false})
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/api/missing", nil)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("cache holds %d entries after a 404", c.Len())
	}
}
