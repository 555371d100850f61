package services

import (
	"sort"
	"strings"

	"github.com/skillswap/skill_exchange/models"
	"gorm.io/gorm"
)

const (
	matchLimit = 10

	scoreOfferMatch       = 50
	scoreCategoryMatch    = 20
	scoreLevelMeets       = 15
	scoreLevelBelow       = 5
	scoreBidirectional    = 100
	scoreTeachable        = 30
	penaltyLowReputation  = 50
	reputationRatingFloor = 2.0
	reputationMinHistory  = 5
)

// Match is one ranked exchange candidate.
type Match struct {
	User          models.User `json:"user"`
	Score         int         `json:"score"`
	Compatibility string      `json:"compatibility"`
	TheyOffer     []string    `json:"they_offer"`
	TheyWant      []string    `json:"they_want"`
}

// ScoreMatch is the pure scoring function: how good a candidate is for me,
// given both users' loaded skill lists. Directional terms are computed from
// my perspective; the bidirectional bonus fires independently for each
// direction of a mutual pair.
func ScoreMatch(me, candidate *models.User) int {
	score := 0

	for _, want := range me.SkillsWanted() {
		for _, offer := range candidate.SkillsOffered() {
			if !sameSkillName(want.Name, offer.Name) {
				continue
			}
			score += scoreOfferMatch
			if strings.EqualFold(want.Category, offer.Category) {
				score += scoreCategoryMatch
			}
			if models.LevelRank(offer.ExperienceLevel) >= models.LevelRank(want.ExperienceLevel) {
				score += scoreLevelMeets
			} else {
				score += scoreLevelBelow
			}
		}
	}

	for _, theirWant := range candidate.SkillsWanted() {
		for _, myOffer := range me.SkillsOffered() {
			if !sameSkillName(theirWant.Name, myOffer.Name) {
				continue
			}
			score += scoreBidirectional
			if models.LevelRank(myOffer.ExperienceLevel) >= models.LevelRank(theirWant.ExperienceLevel) {
				score += scoreTeachable
			}
		}
	}

	score += int(candidate.Rating * 5)
	score += candidate.TotalExchanges * 2

	if candidate.Rating < reputationRatingFloor && candidate.TotalExchanges > reputationMinHistory {
		score -= penaltyLowReputation
	}

	return score
}

func sameSkillName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FindMatches fetches candidates whose skill lists overlap mine by name,
// scores each, drops non-positive scores, and returns the top ten.
func FindMatches(db *gorm.DB, me *models.User) ([]Match, error) {
	names := make([]string, 0, len(me.Skills))
	for _, s := range me.Skills {
		names = append(names, strings.ToLower(strings.TrimSpace(s.Name)))
	}
	if len(names) == 0 {
		return []Match{}, nil
	}

	var candidateIDs []string
	if err := db.Model(&models.UserSkill{}).
		Where("LOWER(name) IN ? AND user_id <> ?", names, me.ID).
		Distinct("user_id").Pluck("user_id", &candidateIDs).Error; err != nil {
		return nil, err
	}
	if len(candidateIDs) == 0 {
		return []Match{}, nil
	}

	var candidates []models.User
	if err := db.Preload("Skills").
		Where("id IN ? AND is_active = ?", candidateIDs, true).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		score := ScoreMatch(me, &candidates[i])
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{
			User:          candidates[i],
			Score:         score,
			Compatibility: compatibilityLabel(score),
			TheyOffer:     skillNames(candidates[i].SkillsOffered()),
			TheyWant:      skillNames(candidates[i].SkillsWanted()),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > matchLimit {
		matches = matches[:matchLimit]
	}
	return matches, nil
}

func compatibilityLabel(score int) string {
	switch {
	case score > 150:
		return "high"
	case score > 100:
		return "medium"
	default:
		return "low"
	}
}

func skillNames(skills []models.UserSkill) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, s.Name)
	}
	return out
}
