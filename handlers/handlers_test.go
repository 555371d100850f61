package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skillswap/skill_exchange/cache"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/handlers"
	"github.com/skillswap/skill_exchange/models"
	"github.com/skillswap/skill_exchange/notifications"
	"github.com/skillswap/skill_exchange/routes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestApp wires the full route table against an in-memory database,
// the way cmd/api/main.go does against Postgres. The mailer is
// unconfigured so every Send is a no-op.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "handlers-test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.MigrateWith(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	mailer := notifications.NewEmailService("", "", "")
	rc := cache.New(64)

	app := fiber.New()
	messagingHandler := handlers.NewMessagingHandler(mailer, rc)
	routes.AuthRoutes(app, handlers.NewAuthHandler(mailer))
	routes.UserRoutes(app, handlers.NewUserHandler(rc), rc)
	routes.SkillRoutes(app, handlers.NewSkillHandler(rc), rc)
	routes.ExchangeRoutes(app, handlers.NewExchangeHandler(mailer, rc), messagingHandler, rc)
	routes.LearningPathRoutes(app, handlers.NewLearningPathHandler(mailer, rc))
	routes.MessagingRoutes(app, messagingHandler, rc)
	routes.AdminRoutes(app, handlers.NewAdminHandler(rc), rc)
	return app, db
}

// api issues one request and decodes the JSON body into a map.
func api(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s %s returned non-JSON body %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, decoded
}

// registerUser signs up a fresh account through the API and returns its
// token and id.
func registerUser(t *testing.T, app *fiber.App, name string) (token string, id uuid.UUID) {
	t.Helper()

	email := fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8])
	status, body := api(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s returned %d: %v", name, status, body)
	}

	token, _ = body["token"].(string)
	if token == "" {
		t.Fatalf("register %s returned no token", name)
	}
	user, _ := body["user"].(map[string]interface{})
	id, err := uuid.Parse(user["id"].(string))
	if err != nil {
		t.Fatalf("register %s returned bad user id: %v", name, err)
	}
	return token, id
}

// seedCatalogSkill inserts a catalog skill with enough videos to back a
// learning path.
func seedCatalogSkill(t *testing.T, db *gorm.DB, name, category string, videoCount int) *models.Skill {
	t.Helper()

	skill := models.Skill{
		Name:        name,
		Category:    category,
		Description: name + " from the catalog",
		IsActive:    true,
	}
	for i := 1; i <= videoCount; i++ {
		skill.Videos = append(skill.Videos, models.SkillVideo{
			Title:    fmt.Sprintf("%s Lesson %d", name, i),
			URL:      fmt.Sprintf("https://videos.example.com/%s/%d", name, i),
			Duration: 30,
			Position: i,
		})
	}
	if err := db.Create(&skill).Error; err != nil {
		t.Fatalf("failed to seed catalog skill %s: %v", name, err)
	}
	return &skill
}

// addUserSkill lists a skill on the authenticated user's profile through
// the API.
func addUserSkill(t *testing.T, app *fiber.App, token, kind, name, category, level string) {
	t.Helper()

	status, body := api(t, app, http.MethodPost, "/api/users/skills", token, fiber.Map{
		"kind":             kind,
		"name":             name,
		"category":         category,
		"experience_level": level,
		"description":      "test listing for " + name,
	})
	if status != http.StatusCreated {
		t.Fatalf("add skill %s returned %d: %v", name, status, body)
	}
}
