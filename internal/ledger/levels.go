package ledger

import "strings"

// Level is one rung of the balance ladder shown by /stats.
type Level struct {
	Min   int64
	Max   int64
	Name  string
	Emoji string
}

// Levels ascend by Min. The last rung is open-ended.
var Levels = []Level{
	{0, 9, "Minion Apprentice", "🥚"},
	{10, 49, "Banana Carrier", "🍌"},
	{50, 119, "Bunch Collector", "🧺"},
	{120, 199, "Bananologist", "📚"},
	{200, 309, "Gorilla Scientist", "🦍"},
	{310, 499, "Keeper of the Fiery Banana", "🔥"},
	{500, 749, "Banana King", "👑"},
	{750, 999, "Banana Hero", "🚀"},
	{1000, 1499, "Legendary Minion", "💫"},
	{1500, 2499, "Lord of the Jungle", "🪐"},
	{2500, 3999, "Evolved Minion", "🧬"},
	{4000, 9999, "Immortal Bananologist", "🌌"},
	{10000, -1, "You... How... Cheater...", "😶"},
}

// LevelInfo describes a balance's position on the ladder.
type LevelInfo struct {
	Level
	Percent  int
	Bar      string
	MaxLevel bool
}

// LevelFor returns the level reached by balance with a 10-cell progress bar.
// Negative balances sit on the first rung at 0%.
func LevelFor(balance int64) LevelInfo {
	lvl := Levels[0]
	for i := len(Levels) - 1; i >= 0; i-- {
		if balance >= Levels[i].Min {
			lvl = Levels[i]
			break
		}
	}

	info := LevelInfo{Level: lvl}
	if lvl.Max < 0 {
		info.MaxLevel = true
		info.Percent = 100
	} else {
		ratio := float64(balance-lvl.Min) / float64(lvl.Max-lvl.Min)
		ratio = max(0, min(ratio, 1))
		info.Percent = int(ratio * 100)
	}

	filled := info.Percent / 10
	info.Bar = strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
	return info
}
