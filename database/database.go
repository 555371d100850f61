package database

import (
	"fmt"
	"log"

	config "github.com/skillswap/skill_exchange/configs"
	"github.com/skillswap/skill_exchange/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	if err := MigrateWith(DB); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// MigrateWith runs AutoMigrate against the given handle; tests use it with
// an in-memory database.
func MigrateWith(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSkill{},
		&models.Endorsement{},
		&models.TokenTransaction{},
		&models.Skill{},
		&models.SkillVideo{},
		&models.Exchange{},
		&models.LearningPath{},
		&models.Module{},
		&models.Conversation{},
		&models.Message{},
	)
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("Admin credentials not configured, skipping admin seed.")
		return
	}

	var count int64
	if err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
	}
	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
	}

	adminUser := models.User{
		Name:     config.ConfigDefault("ADMIN_NAME", "SkillSwap Admin"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedSkills loads a starter catalog so learning-path derivation has videos
// to draw from on a fresh install. Existing catalogs are left alone.
func SeedSkills() {
	var count int64
	if err := DB.Model(&models.Skill{}).Count(&count).Error; err != nil {
		log.Printf("🔥 Failed to check skill catalog: %v", err)
		return
	}
	if count > 0 {
		return
	}

	for _, seed := range starterCatalog() {
		if err := DB.Create(&seed).Error; err != nil {
			log.Printf("🔥 Failed to seed skill %q: %v", seed.Name, err)
		}
	}
	log.Println("✅ Skill catalog seeded")
}

func starterCatalog() []models.Skill {
	mk := func(name, category, description string, tags []string, videos ...string) models.Skill {
		skill := models.Skill{
			Name:        name,
			Category:    category,
			Description: description,
			Tags:        tags,
			IsActive:    true,
		}
		for i, title := range videos {
			skill.Videos = append(skill.Videos, models.SkillVideo{
				Title:    title,
				URL:      fmt.Sprintf("https://www.youtube.com/embed/%s-%d", slug(name), i+1),
				Duration: 45,
				Position: i + 1,
			})
		}
		return skill
	}

	return []models.Skill{
		mk("React", "Programming", "Build interactive UIs with components and hooks.",
			[]string{"javascript", "frontend", "web"},
			"React Fundamentals", "Components and Props", "State and Hooks", "Routing and Data Fetching", "Building a Complete App"),
		mk("Python", "Programming", "General-purpose programming from scripts to services.",
			[]string{"backend", "scripting", "data"},
			"Python Basics", "Data Structures", "Functions and Modules", "Working with Files and APIs", "A First Project"),
		mk("Guitar", "Music", "Acoustic and electric guitar from first chords to songs.",
			[]string{"music", "instrument"},
			"Holding the Guitar and First Chords", "Strumming Patterns", "Chord Transitions", "Reading Tabs", "Your First Song"),
		mk("Spanish", "Languages", "Conversational Spanish for everyday situations.",
			[]string{"language", "conversation"},
			"Greetings and Introductions", "Essential Vocabulary", "Present Tense Verbs", "Ordering and Shopping", "Holding a Conversation"),
		mk("Photography", "Creative", "Composition, light and editing for better photos.",
			[]string{"camera", "creative"},
			"Camera Basics", "Composition Rules", "Working with Light", "Portraits and Landscapes", "Editing Your Shots"),
		mk("Cooking", "Lifestyle", "Technique-first home cooking.",
			[]string{"food", "kitchen"},
			"Knife Skills", "Pantry Staples", "Sauces and Seasoning", "Weeknight Dinners", "Cooking for Guests"),
	}
}

func slug(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		}
	}
	return string(out)
}
