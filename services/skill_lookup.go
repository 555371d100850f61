package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/skillswap/skill_exchange/models"
	"gorm.io/gorm"
)

// A catalog skill needs this many videos before it can back a real
// learning path; thinner skills get placeholder modules instead.
const MinCatalogVideos = 5

const ModuleCount = 5

const defaultModuleDuration = 45 // minutes

var languageSuffix = regexp.MustCompile(`(?i)\s+(JS|JAVA|CPP|PY|PROGRAMMING)$`)

// ResolveSkill maps a free-text skill name typed by a user onto a catalog
// Skill. The cascade tries, in order: exact match, case-insensitive match,
// case-insensitive match after stripping a trailing language token
// ("React JS" -> "React"), then a substring match on each word longer than
// three characters. The first candidate carrying at least MinCatalogVideos
// videos wins; nil means no usable catalog entry exists.
func ResolveSkill(db *gorm.DB, name string) (*models.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	if skill, err := lookupOne(db, "name = ?", name); err != nil || skill != nil {
		return skill, err
	}

	if skill, err := lookupOne(db, "LOWER(name) = LOWER(?)", name); err != nil || skill != nil {
		return skill, err
	}

	if stripped := languageSuffix.ReplaceAllString(name, ""); stripped != name {
		if skill, err := lookupOne(db, "LOWER(name) = LOWER(?)", stripped); err != nil || skill != nil {
			return skill, err
		}
	}

	for _, word := range strings.Fields(name) {
		if len(word) <= 3 {
			continue
		}
		skill, err := lookupOne(db, "LOWER(name) LIKE ?", "%"+strings.ToLower(word)+"%")
		if err != nil {
			return nil, err
		}
		if skill != nil {
			return skill, nil
		}
	}

	return nil, nil
}

func lookupOne(db *gorm.DB, query string, arg string) (*models.Skill, error) {
	var skills []models.Skill
	err := db.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where(query, arg).Where("is_active = ?", true).Find(&skills).Error
	if err != nil {
		return nil, err
	}
	for i := range skills {
		if len(skills[i].Videos) >= MinCatalogVideos {
			return &skills[i], nil
		}
	}
	return nil, nil
}

// DeriveModules builds the fixed five-module sequence for a learning path.
// With a resolved skill the first five catalog videos become the modules;
// without one the learner gets five self-study placeholders named after
// whatever they typed.
func DeriveModules(skill *models.Skill, fallbackName string) []models.Module {
	modules := make([]models.Module, 0, ModuleCount)

	if skill != nil && len(skill.Videos) >= MinCatalogVideos {
		videos := make([]models.SkillVideo, len(skill.Videos))
		copy(videos, skill.Videos)
		sort.Slice(videos, func(i, j int) bool { return videos[i].Position < videos[j].Position })

		for i := 0; i < ModuleCount; i++ {
			v := videos[i]
			duration := v.Duration
			if duration <= 0 {
				duration = defaultModuleDuration
			}
			modules = append(modules, models.Module{
				Title:       v.Title,
				Description: "Watch the lesson and practice what it covers.",
				VideoTitle:  v.Title,
				VideoURL:    v.URL,
				Duration:    duration,
				Position:    i + 1,
			})
		}
		return modules
	}

	name := strings.TrimSpace(fallbackName)
	if name == "" {
		name = "Your skill"
	}
	for i := 0; i < ModuleCount; i++ {
		modules = append(modules, models.Module{
			Title:       fmt.Sprintf("%s - Module %d", name, i+1),
			Description: "Work through this stage of " + name + " with your exchange partner.",
			Duration:    defaultModuleDuration,
			Position:    i + 1,
		})
	}
	return modules
}

// EstimatedDuration sums module durations in minutes.
func EstimatedDuration(modules []models.Module) int {
	total := 0
	for _, m := range modules {
		total += m.Duration
	}
	return total
}
