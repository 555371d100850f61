package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, skills ...models.UserSkill) *models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]),
		Password:     "hashed",
		TokensEarned: 0,
		Skills:       skills,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return &user
}

func createCatalogSkill(t *testing.T, db *gorm.DB, name, category string, videoCount int) *models.Skill {
	t.Helper()

	skill := models.Skill{
		Name:        name,
		Category:    category,
		Description: "test skill",
		IsActive:    true,
	}
	for i := 0; i < videoCount; i++ {
		skill.Videos = append(skill.Videos, models.SkillVideo{
			Title:    fmt.Sprintf("%s Lesson %d", name, i+1),
			URL:      fmt.Sprintf("https://example.com/%s/%d", name, i+1),
			Duration: 30,
			Position: i + 1,
		})
	}
	if err := db.Create(&skill).Error; err != nil {
		t.Fatalf("failed to create skill %s: %v", name, err)
	}
	return &skill
}

func offered(name, category, level string) models.UserSkill {
	return models.UserSkill{
		Kind:            models.SkillKindOffered,
		Name:            name,
		Category:        category,
		ExperienceLevel: level,
		Description:     "test",
	}
}

func wanted(name, category, level string) models.UserSkill {
	return models.UserSkill{
		Kind:            models.SkillKindWanted,
		Name:            name,
		Category:        category,
		ExperienceLevel: level,
		Description:     "test",
	}
}

func createTestExchange(t *testing.T, db *gorm.DB, requester, provider *models.User, requestedSkill, offeredSkill string) *models.Exchange {
	t.Helper()

	exchange := models.Exchange{
		RequesterID:    requester.ID,
		ProviderID:     provider.ID,
		RequestedSkill: requestedSkill,
		OfferedSkill:   offeredSkill,
		Status:         models.ExchangeStatusPending,
	}

	if skill, err := ResolveSkill(db, requestedSkill); err == nil && skill != nil {
		exchange.RequestedSkillID = &skill.ID
	}
	if skill, err := ResolveSkill(db, offeredSkill); err == nil && skill != nil {
		exchange.OfferedSkillID = &skill.ID
	}

	if err := db.Create(&exchange).Error; err != nil {
		t.Fatalf("failed to create exchange: %v", err)
	}
	return &exchange
}
