package services

import (
	"strings"
	"testing"

	"github.com/skillswap/skill_exchange/models"
)

func TestResolveSkillCascade(t *testing.T) {
	db := setupTestDB(t)

	createCatalogSkill(t, db, "React", "Programming", 5)
	createCatalogSkill(t, db, "Photography", "Creative", 6)
	createCatalogSkill(t, db, "Guitar", "Music", 3) // too thin to back a path

	tests := []struct {
		name  string
		query string
		want  string // "" means no match
	}{
		{"exact match", "React", "React"},
		{"case insensitive", "react", "React"},
		{"suffix strip", "REACT JS", "React"},
		{"suffix strip programming", "react programming", "React"},
		{"word substring", "advanced Photography techniques", "Photography"},
		{"short words ignored", "a of it", ""},
		{"no match at all", "Underwater Basket Weaving", ""},
		{"too few videos", "Guitar", ""},
		{"empty name", "  ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			skill, err := ResolveSkill(db, tc.query)
			if err != nil {
				t.Fatalf("ResolveSkill(%q) returned error: %v", tc.query, err)
			}
			if tc.want == "" {
				if skill != nil {
					t.Fatalf("ResolveSkill(%q) = %q, want no match", tc.query, skill.Name)
				}
				return
			}
			if skill == nil {
				t.Fatalf("ResolveSkill(%q) found nothing, want %q", tc.query, tc.want)
			}
			if skill.Name != tc.want {
				t.Fatalf("ResolveSkill(%q) = %q, want %q", tc.query, skill.Name, tc.want)
			}
			if len(skill.Videos) < MinCatalogVideos {
				t.Fatalf("resolved skill came back with %d videos, want at least %d", len(skill.Videos), MinCatalogVideos)
			}
		})
	}
}

func TestDeriveModulesFromCatalog(t *testing.T) {
	db := setupTestDB(t)

	skill := createCatalogSkill(t, db, "Spanish", "Languages", 7)
	var loaded models.Skill
	if err := db.Preload("Videos").First(&loaded, "id = ?", skill.ID).Error; err != nil {
		t.Fatalf("failed to reload skill: %v", err)
	}

	modules := DeriveModules(&loaded, "Spanish")
	if len(modules) != ModuleCount {
		t.Fatalf("got %d modules, want %d", len(modules), ModuleCount)
	}
	for i, m := range modules {
		if m.Position != i+1 {
			t.Errorf("module %d has position %d", i, m.Position)
		}
		if m.VideoURL == "" {
			t.Errorf("module %d has no video URL", i)
		}
		if m.Duration != 30 {
			t.Errorf("module %d duration = %d, want 30", i, m.Duration)
		}
	}
	if modules[0].Title != "Spanish Lesson 1" {
		t.Errorf("first module title = %q, want the first catalog video", modules[0].Title)
	}
}

func TestDeriveModulesDefaultDuration(t *testing.T) {
	skill := &models.Skill{Name: "Chess"}
	for i := 0; i < 5; i++ {
		skill.Videos = append(skill.Videos, models.SkillVideo{
			Title:    "Opening Theory",
			URL:      "https://example.com/chess",
			Duration: 0,
			Position: i + 1,
		})
	}

	modules := DeriveModules(skill, "Chess")
	for i, m := range modules {
		if m.Duration != 45 {
			t.Errorf("module %d duration = %d, want the 45 minute default", i, m.Duration)
		}
	}
}

func TestDeriveModulesPlaceholders(t *testing.T) {
	modules := DeriveModules(nil, "Juggling")
	if len(modules) != ModuleCount {
		t.Fatalf("got %d modules, want %d", len(modules), ModuleCount)
	}
	for i, m := range modules {
		if m.VideoURL != "" {
			t.Errorf("placeholder module %d has a video URL", i)
		}
		if !strings.HasPrefix(m.Title, "Juggling") {
			t.Errorf("placeholder module %d title = %q, want it named after the skill", i, m.Title)
		}
		if m.Duration != 45 {
			t.Errorf("placeholder module %d duration = %d, want 45", i, m.Duration)
		}
		if m.Position != i+1 {
			t.Errorf("placeholder module %d position = %d", i, m.Position)
		}
	}
}

func TestEstimatedDuration(t *testing.T) {
	modules := []models.Module{{Duration: 45}, {Duration: 30}, {Duration: 25}}
	if got := EstimatedDuration(modules); got != 100 {
		t.Fatalf("EstimatedDuration = %d, want 100", got)
	}
	if got := EstimatedDuration(nil); got != 0 {
		t.Fatalf("EstimatedDuration(nil) = %d, want 0", got)
	}
}
