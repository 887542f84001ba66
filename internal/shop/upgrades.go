package shop

import (
	"strconv"

	"banana-bot/internal/apperr"
	"banana-bot/internal/model"
)

// Upgrade is a permanent item bought level by level.
type Upgrade struct {
	Kind   model.UpgradeKind
	Name   string
	Prices []int64
}

// MaxLevel returns the top level.
func (u Upgrade) MaxLevel() int {
	return len(u.Prices)
}

// Price returns the price of level, which counts from 1.
func (u Upgrade) Price(level int) int64 {
	return u.Prices[level-1]
}

// Upgrades lists the upgrade tracks in menu order.
var Upgrades = []Upgrade{
	{Kind: model.UpgradeBananaBag, Name: "📦 Banana Bag", Prices: []int64{100, 250, 500}},
	{Kind: model.UpgradeBananaTotem, Name: "🏆 Banana Totem", Prices: []int64{150, 400, 1000}},
}

var (
	bagBonus     = []int64{1, 2, 3}
	totemGold    = []float64{4, 8, 12}
	totemDiamond = []float64{0.66, 1.32, 1.98}
)

var (
	ErrUnknownUpgrade = apperr.Input("❌ upgrade not found!")
	ErrUpgradeOrder   = apperr.Input("❌ buy the previous levels first!")
	ErrUpgradeMaxed   = apperr.Input("❌ this upgrade is already at the top level!")
)

// LookupUpgrade finds the track for kind.
func LookupUpgrade(kind model.UpgradeKind) (Upgrade, bool) {
	for _, u := range Upgrades {
		if u.Kind == kind {
			return u, true
		}
	}
	return Upgrade{}, false
}

// CheckLevel validates buying level when current is already owned.
func (u Upgrade) CheckLevel(current, level int) error {
	if current >= u.MaxLevel() {
		return ErrUpgradeMaxed
	}
	if level != current+1 {
		return ErrUpgradeOrder
	}
	return nil
}

// BagBonus returns the flat reward bonus of a banana bag level.
func BagBonus(level int) int64 {
	if level <= 0 {
		return 0
	}
	return bagBonus[min(level, len(bagBonus))-1]
}

// TotemBonus returns the gold and diamond chance bonuses, in percent points,
// of a banana totem level.
func TotemBonus(level int) (gold, diamond float64) {
	if level <= 0 {
		return 0, 0
	}
	i := min(level, len(totemGold)) - 1
	return totemGold[i], totemDiamond[i]
}

// Effect describes what level of the track gives.
func (u Upgrade) Effect(level int) string {
	switch u.Kind {
	case model.UpgradeBananaBag:
		return "+" + strconv.FormatInt(BagBonus(level), 10) + "🍌 to every harvest"
	case model.UpgradeBananaTotem:
		g, d := TotemBonus(level)
		return "+" + strconv.FormatFloat(g, 'f', -1, 64) + "% golden, +" + strconv.FormatFloat(d, 'f', -1, 64) + "% diamond"
	default:
		return "unknown effect"
	}
}
