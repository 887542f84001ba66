package ledger

import "banana-bot/internal/model"

// Achievement is a one-time unlock with an optional banana reward.
type Achievement struct {
	ID      string
	Name    string
	Reward  int64
	Message string
}

// Tier is an achievement granted once a counter reaches Min.
type Tier struct {
	Min int64
	Achievement
}

// Special is an achievement granted when Eligible holds for the record.
type Special struct {
	Achievement
	Eligible func(u *model.UserRecord) bool
}

// StreakTiers are checked against the current win streak, ascending.
var StreakTiers = []Tier{
	{5, Achievement{"streak_5", "🍌 Minion Rookie", 1, "Ba-na-na! 5 wins in a row! +1 banana for the basket!"}},
	{10, Achievement{"streak_10", "🔥 Fiery Banana", 2, "Hooray! 10 wins in a row! +2 bananas!"}},
	{25, Achievement{"streak_25", "🦍 Gorilla Champion", 5, "BOOM! 25 wins in a row! A whole 5 bananas!"}},
	{50, Achievement{"streak_50", "🏆 King of the Jungle", 10, "BANANA-POW! 50 WINS! 10 BANANAS ARE YOURS!"}},
	{100, Achievement{"streak_100", "👑 Minion God", 20, "BA-BA-BOOM! 100 WINS! YOU ARE A LEGEND! TAKE 20 BANANAS!"}},
}

// CollectionTiers are checked against lifetime earnings, ascending.
var CollectionTiers = []Tier{
	{100, Achievement{"collect_100", "🏦 Banana Depositor", 5, "Saved up 100 bananas! +5!"}},
	{500, Achievement{"collect_500", "💰 Banana Oligarch", 10, "500 bananas! You're rich! +10!"}},
}

// Specials are checked last by EvaluateAll.
var Specials = []Special{
	{
		Achievement: Achievement{"diamond", "💎 Diamond Collector", 20, "Found a diamond banana! +20!"},
		Eligible:    func(u *model.UserRecord) bool { return u.DiamondBananas > 0 },
	},
	{
		Achievement: Achievement{"event_winner", "🏆 Event Winner", 15, "Won a chat event! +15!"},
		Eligible:    func(u *model.UserRecord) bool { return u.EventWins > 0 },
	},
}

// ShopAchievements are bought rather than earned, keyed by catalog item ID.
var ShopAchievements = map[string]Achievement{
	"1": {"shop_1", "🍌 Banana Newbie", 0, "First step into the world of banana achievements!"},
	"2": {"shop_2", "🍌 Seasoned Bananologist", 0, "Now you know your bananas!"},
	"3": {"shop_3", "🍌 Lord of Bunches", 0, "Whole bunches of bananas are yours!"},
	"4": {"shop_4", "🍌 Banana Tycoon", 0, "The peak of a banana career!"},
}

// AllAchievementNames lists every earnable achievement in display order.
func AllAchievementNames() []string {
	var names []string
	for _, t := range StreakTiers {
		names = append(names, t.Name)
	}
	for _, t := range CollectionTiers {
		names = append(names, t.Name)
	}
	for _, s := range Specials {
		names = append(names, s.Name)
	}
	for _, id := range []string{"1", "2", "3", "4"} {
		names = append(names, ShopAchievements[id].Name)
	}
	return names
}

// nextTier returns the first tier reached by value and not yet held.
func nextTier(u *model.UserRecord, tiers []Tier, value int64) (Achievement, bool) {
	for _, t := range tiers {
		if value >= t.Min && !u.HasAchievement(t.Name) {
			return t.Achievement, true
		}
	}
	return Achievement{}, false
}

// grant appends a and pays its reward. The caller must hold the ledger lock.
func grant(u *model.UserRecord, a Achievement) bool {
	if u.HasAchievement(a.Name) {
		return false
	}
	u.Achievements = append(u.Achievements, a.Name)
	if a.Reward != 0 {
		Credit(u, a.Reward)
	}
	return true
}
