package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/skillswap/skill_exchange/models"
)

func TestUpdateProfile(t *testing.T) {
	app, db := setupTestApp(t)
	token, id := registerUser(t, app, "alice")

	status, body := api(t, app, http.MethodPut, "/api/users/profile", token, fiber.Map{
		"bio":      "Guitarist looking to pick up Spanish",
		"location": "Nairobi",
	})
	if status != http.StatusOK {
		t.Fatalf("update profile returned %d: %v", status, body)
	}

	var user models.User
	db.First(&user, "id = ?", id)
	if user.Bio != "Guitarist looking to pick up Spanish" {
		t.Fatalf("bio not updated: %q", user.Bio)
	}
	if user.Location == nil || *user.Location != "Nairobi" {
		t.Fatalf("location not updated: %v", user.Location)
	}
	// Name untouched when omitted.
	if user.Name != "alice" {
		t.Fatalf("name changed to %q on partial update", user.Name)
	}
}

func TestUserSkillCRUD(t *testing.T) {
	app, _ := setupTestApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")

	status, body := api(t, app, http.MethodPost, "/api/users/skills", aliceToken, fiber.Map{
		"kind":             "offered",
		"name":             "Guitar",
		"category":         "Music",
		"experience_level": "Advanced",
		"description":      "Ten years of fingerstyle",
	})
	if status != http.StatusCreated {
		t.Fatalf("add skill returned %d: %v", status, body)
	}
	skill, _ := body["skill"].(map[string]interface{})
	skillID, _ := skill["id"].(string)

	// Unknown experience level fails validation.
	if status, _ := api(t, app, http.MethodPost, "/api/users/skills", aliceToken, fiber.Map{
		"kind":             "offered",
		"name":             "Piano",
		"category":         "Music",
		"experience_level": "Grandmaster",
		"description":      "nope",
	}); status != http.StatusBadRequest {
		t.Fatalf("bad level returned %d, want 400", status)
	}

	// Only the owner can modify a listing.
	if status, _ := api(t, app, http.MethodPut, "/api/users/skills/"+skillID, bobToken, fiber.Map{
		"kind":             "offered",
		"name":             "Guitar",
		"category":         "Music",
		"experience_level": "Beginner",
		"description":      "hijacked",
	}); status != http.StatusForbidden {
		t.Fatalf("foreign update returned %d, want 403", status)
	}

	status, body = api(t, app, http.MethodPut, "/api/users/skills/"+skillID, aliceToken, fiber.Map{
		"kind":             "offered",
		"name":             "Guitar",
		"category":         "Music",
		"experience_level": "Expert",
		"description":      "Ten years of fingerstyle",
	})
	if status != http.StatusOK {
		t.Fatalf("update skill returned %d: %v", status, body)
	}
	updated, _ := body["skill"].(map[string]interface{})
	if updated["experience_level"] != "Expert" {
		t.Fatalf("experience_level = %v after update", updated["experience_level"])
	}

	if status, _ := api(t, app, http.MethodDelete, "/api/users/skills/"+skillID, bobToken, nil); status != http.StatusForbidden {
		t.Fatalf("foreign delete returned %d, want 403", status)
	}
	if status, _ := api(t, app, http.MethodDelete, "/api/users/skills/"+skillID, aliceToken, nil); status != http.StatusOK {
		t.Fatalf("owner delete returned %d, want 200", status)
	}
	if status, _ := api(t, app, http.MethodDelete, "/api/users/skills/"+skillID, aliceToken, nil); status != http.StatusNotFound {
		t.Fatalf("delete of removed skill returned %d, want 404", status)
	}
}

func TestEndorseSkill(t *testing.T) {
	app, _ := setupTestApp(t)
	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")

	addUserSkill(t, app, aliceToken, "offered", "Photography", "Creative", "Advanced")

	status, body := api(t, app, http.MethodGet, "/api/auth/me", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("me returned %d", status)
	}
	me, _ := body["user"].(map[string]interface{})
	skills, _ := me["skills"].([]interface{})
	if len(skills) != 1 {
		t.Fatalf("alice has %d skills, want 1", len(skills))
	}
	skillID, _ := skills[0].(map[string]interface{})["id"].(string)

	// No self-endorsement.
	if status, _ := api(t, app, http.MethodPost, "/api/users/skills/"+skillID+"/endorse", aliceToken, fiber.Map{
		"comment": "I am great",
	}); status != http.StatusBadRequest {
		t.Fatalf("self-endorse returned %d, want 400", status)
	}

	status, body = api(t, app, http.MethodPost, "/api/users/skills/"+skillID+"/endorse", bobToken, fiber.Map{
		"comment": "Shot my wedding, fantastic work",
	})
	if status != http.StatusCreated {
		t.Fatalf("endorse returned %d: %v", status, body)
	}
	endorsement, _ := body["endorsement"].(map[string]interface{})
	if endorsement["endorser_name"] != "bob" {
		t.Fatalf("endorser_name = %v, want bob", endorsement["endorser_name"])
	}

	// Once per endorser.
	if status, _ := api(t, app, http.MethodPost, "/api/users/skills/"+skillID+"/endorse", bobToken, fiber.Map{
		"comment": "again",
	}); status != http.StatusConflict {
		t.Fatalf("repeat endorse returned %d, want 409", status)
	}
}

func TestGetUsersFiltering(t *testing.T) {
	app, _ := setupTestApp(t)

	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, bobID := registerUser(t, app, "bob")
	addUserSkill(t, app, aliceToken, "offered", "Guitar", "Music", "Advanced")
	addUserSkill(t, app, bobToken, "offered", "Spanish", "Languages", "Expert")

	status, body := api(t, app, http.MethodGet, "/api/users?category=Languages", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list users returned %d: %v", status, body)
	}
	users, _ := body["users"].([]interface{})
	if len(users) != 1 {
		t.Fatalf("category filter returned %d users, want 1", len(users))
	}
	if users[0].(map[string]interface{})["id"] != bobID.String() {
		t.Fatal("category filter returned the wrong user")
	}

	status, body = api(t, app, http.MethodGet, "/api/users?search=guit", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("search returned %d", status)
	}
	users, _ = body["users"].([]interface{})
	if len(users) != 1 {
		t.Fatalf("skill search returned %d users, want 1", len(users))
	}

	status, body = api(t, app, http.MethodGet, "/api/users/categories", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("categories returned %d", status)
	}
	categories, _ := body["categories"].([]interface{})
	if len(categories) != 2 {
		t.Fatalf("found %d categories, want 2", len(categories))
	}
}

func TestGetMatchesEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, bobID := registerUser(t, app, "bob")
	loner, _ := registerUser(t, app, "carl")

	addUserSkill(t, app, aliceToken, "wanted", "Spanish", "Languages", "Beginner")
	addUserSkill(t, app, aliceToken, "offered", "Guitar", "Music", "Advanced")
	addUserSkill(t, app, bobToken, "offered", "Spanish", "Languages", "Expert")
	addUserSkill(t, app, bobToken, "wanted", "Guitar", "Music", "Beginner")

	status, body := api(t, app, http.MethodGet, "/api/users/matches/recommendations", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("matches returned %d: %v", status, body)
	}
	matches, _ := body["matches"].([]interface{})
	if len(matches) != 1 {
		t.Fatalf("found %d matches, want 1", len(matches))
	}
	top, _ := matches[0].(map[string]interface{})
	if user, _ := top["user"].(map[string]interface{}); user["id"] != bobID.String() {
		t.Fatal("top match should be the mutual partner")
	}
	if top["compatibility"] != "high" {
		t.Fatalf("compatibility = %v, want high for a mutual match", top["compatibility"])
	}

	// A user with no skill overlap sees nothing.
	status, body = api(t, app, http.MethodGet, "/api/users/matches/recommendations", loner, nil)
	if status != http.StatusOK {
		t.Fatalf("matches for loner returned %d", status)
	}
	if matches, _ := body["matches"].([]interface{}); len(matches) != 0 {
		t.Fatalf("loner got %d matches, want 0", len(matches))
	}
}

func TestTokenHistoryEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)
	token, _ := registerUser(t, app, "alice")

	status, body := api(t, app, http.MethodGet, "/api/users/tokens/history", token, nil)
	if status != http.StatusOK {
		t.Fatalf("token history returned %d: %v", status, body)
	}
	if body["balance"].(float64) != 50 {
		t.Fatalf("balance = %v, want the 50-token welcome grant", body["balance"])
	}
	history, _ := body["history"].([]interface{})
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	if history[0].(map[string]interface{})["reason"] != "Welcome bonus" {
		t.Fatal("welcome grant missing from the ledger")
	}
}

func TestUpdateEmailPreferences(t *testing.T) {
	app, db := setupTestApp(t)
	token, id := registerUser(t, app, "alice")

	status, body := api(t, app, http.MethodPut, "/api/users/email-preferences", token, fiber.Map{
		"exchange_requests":  false,
		"exchange_accepted":  true,
		"exchange_completed": true,
		"new_ratings":        false,
		"new_messages":       true,
		"marketing_emails":   false,
	})
	if status != http.StatusOK {
		t.Fatalf("update preferences returned %d: %v", status, body)
	}

	var user models.User
	db.First(&user, "id = ?", id)
	if user.EmailNotifications.ExchangeRequests {
		t.Fatal("exchange_requests still enabled")
	}
	if !user.EmailNotifications.NewMessages {
		t.Fatal("new_messages should stay enabled")
	}
}

func TestMatchScoreExposedInResponse(t *testing.T) {
	app, _ := setupTestApp(t)

	aliceToken, _ := registerUser(t, app, "alice")
	bobToken, _ := registerUser(t, app, "bob")

	addUserSkill(t, app, aliceToken, "wanted", "Spanish", "Languages", "Beginner")
	addUserSkill(t, app, bobToken, "offered", "Spanish", "Languages", "Expert")

	status, body := api(t, app, http.MethodGet, "/api/users/matches/recommendations", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("matches returned %d", status)
	}
	matches, _ := body["matches"].([]interface{})
	if len(matches) != 1 {
		t.Fatalf("found %d matches, want 1", len(matches))
	}
	top, _ := matches[0].(map[string]interface{})
	// Direct match 50, same category 20, offered level above wanted 15.
	if top["score"].(float64) != 85 {
		t.Fatalf("score = %v, want 85", top["score"])
	}
}
