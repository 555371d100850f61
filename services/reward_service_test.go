package services

import (
	"testing"

	"github.com/skillswap/skill_exchange/models"
	"gorm.io/gorm"
)

func TestRewardForLevel(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{models.LevelBeginner, 5},
		{models.LevelIntermediate, 10},
		{models.LevelAdvanced, 15},
		{models.LevelExpert, 20},
		{"", 10},
		{"Grandmaster", 10},
	}
	for _, tc := range tests {
		if got := RewardForLevel(tc.level); got != tc.want {
			t.Errorf("RewardForLevel(%q) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestCompleteExchangeRewardsAndBadges(t *testing.T) {
	db := setupTestDB(t)

	requester := createTestUser(t, db, "alice",
		offered("Guitar", "Music", models.LevelBeginner),
		wanted("Spanish", "Languages", models.LevelBeginner),
	)
	provider := createTestUser(t, db, "bob",
		offered("Spanish", "Languages", models.LevelExpert),
		wanted("Guitar", "Music", models.LevelBeginner),
	)
	exchange := createTestExchange(t, db, requester, provider, "Spanish", "Guitar")

	result, err := CompleteExchange(exchange.ID)
	if err != nil {
		t.Fatalf("CompleteExchange failed: %v", err)
	}
	if !result.RewardsApplied {
		t.Fatal("expected rewards to be applied on first completion")
	}
	// Requester learned Spanish taught at Expert tier, provider learned
	// Guitar taught at Beginner tier.
	if result.RequesterAward != 20 {
		t.Errorf("requester award = %d, want 20", result.RequesterAward)
	}
	if result.ProviderAward != 5 {
		t.Errorf("provider award = %d, want 5", result.ProviderAward)
	}
	if result.Exchange.Status != models.ExchangeStatusCompleted {
		t.Errorf("exchange status = %q, want completed", result.Exchange.Status)
	}
	if result.Exchange.CompletedDate == nil {
		t.Error("completed_date not stamped")
	}
	if result.Exchange.RewardedAt == nil {
		t.Error("rewarded_at not stamped")
	}

	assertUserState(t, db, requester.ID, 20, 1, models.BadgeFirstExchange)
	assertUserState(t, db, provider.ID, 5, 1, models.BadgeFirstExchange)
	assertLedgerInvariant(t, db, requester.ID)
	assertLedgerInvariant(t, db, provider.ID)
}

func TestCompleteExchangeIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	requester := createTestUser(t, db, "alice", wanted("Spanish", "Languages", models.LevelBeginner))
	provider := createTestUser(t, db, "bob", offered("Spanish", "Languages", models.LevelIntermediate))
	exchange := createTestExchange(t, db, requester, provider, "Spanish", "Guitar")

	if _, err := CompleteExchange(exchange.ID); err != nil {
		t.Fatalf("first CompleteExchange failed: %v", err)
	}
	second, err := CompleteExchange(exchange.ID)
	if err != nil {
		t.Fatalf("second CompleteExchange failed: %v", err)
	}
	if second.RewardsApplied {
		t.Fatal("second completion applied rewards again")
	}

	assertUserState(t, db, requester.ID, 10, 1, models.BadgeFirstExchange)

	var entries int64
	db.Model(&models.TokenTransaction{}).Where("user_id = ?", requester.ID).Count(&entries)
	if entries != 1 {
		t.Fatalf("requester has %d ledger entries, want exactly 1", entries)
	}

	var reloaded models.User
	if err := db.First(&reloaded, "id = ?", requester.ID).Error; err != nil {
		t.Fatalf("failed to reload requester: %v", err)
	}
	badgeCount := 0
	for _, b := range reloaded.Badges {
		if b == models.BadgeFirstExchange {
			badgeCount++
		}
	}
	if badgeCount != 1 {
		t.Fatalf("badge %q appears %d times, want once", models.BadgeFirstExchange, badgeCount)
	}
}

func TestMilestoneBadgeAtFiveExchanges(t *testing.T) {
	db := setupTestDB(t)

	requester := createTestUser(t, db, "alice")
	provider := createTestUser(t, db, "bob")

	// Four completed exchanges already behind them.
	if err := db.Model(&models.User{}).Where("id IN ?", []string{requester.ID.String(), provider.ID.String()}).
		Update("total_exchanges", 4).Error; err != nil {
		t.Fatalf("failed to backfill exchange counts: %v", err)
	}

	exchange := createTestExchange(t, db, requester, provider, "Spanish", "Guitar")
	if _, err := CompleteExchange(exchange.ID); err != nil {
		t.Fatalf("CompleteExchange failed: %v", err)
	}

	var user models.User
	if err := db.First(&user, "id = ?", requester.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if user.TotalExchanges != 5 {
		t.Fatalf("total_exchanges = %d, want 5", user.TotalExchanges)
	}
	if !user.HasBadge(models.BadgeFiveExchanges) {
		t.Fatalf("user missing %q badge, has %v", models.BadgeFiveExchanges, user.Badges)
	}
	if user.HasBadge(models.BadgeFirstExchange) {
		t.Errorf("milestone 1 badge awarded retroactively; badges = %v", user.Badges)
	}
}

func assertUserState(t *testing.T, db *gorm.DB, userID interface{}, tokensEarned, totalExchanges int, badge string) {
	t.Helper()

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.TokensEarned != tokensEarned {
		t.Errorf("tokens_earned = %d, want %d", user.TokensEarned, tokensEarned)
	}
	if user.TotalExchanges != totalExchanges {
		t.Errorf("total_exchanges = %d, want %d", user.TotalExchanges, totalExchanges)
	}
	if badge != "" && !user.HasBadge(badge) {
		t.Errorf("user missing badge %q, has %v", badge, user.Badges)
	}
}

func assertLedgerInvariant(t *testing.T, db *gorm.DB, userID interface{}) {
	t.Helper()

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}

	var sum int64
	db.Model(&models.TokenTransaction{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum)

	if int(sum) != user.TokenBalance() {
		t.Errorf("ledger sum %d != balance %d", sum, user.TokenBalance())
	}
}
