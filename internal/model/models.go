// Package model defines the data models for the banana bot.
package model

import (
	"slices"
	"time"
)

// RecordVersion is the current snapshot document version.
const RecordVersion = 2

// BoostKind names a per-user reward modifier.
type BoostKind string

// Boost kinds. Counter kinds hold remaining uses; TimeAccelerator holds a unix expiry.
const (
	BoostMidasTouch      BoostKind = "midas_touch"      // Triples gold chance, counted in uses
	BoostMultiplier      BoostKind = "multiplier"       // Doubles base reward, counted in uses
	BoostTimeAccelerator BoostKind = "time_accelerator" // Shortens cooldown until the stored unix time
	BoostTimeMachine     BoostKind = "time_machine"     // One-time cooldown skip charges
)

// IsExpiry reports whether the boost value is a unix timestamp rather than a use counter.
func (k BoostKind) IsExpiry() bool {
	return k == BoostTimeAccelerator
}

// UpgradeKind names a permanent purchased upgrade.
type UpgradeKind string

// Upgrade kinds.
const (
	UpgradeBananaBag   UpgradeKind = "banana_bag"
	UpgradeBananaTotem UpgradeKind = "banana_totem"
)

// UserRecord is the persisted economy and progress record of one user.
type UserRecord struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name,omitempty"`
	Balance        int64               `json:"balance"`
	LifetimeEarned int64               `json:"lifetime_earned"`
	Wins           int                 `json:"wins"`
	Losses         int                 `json:"losses"`
	CurrentStreak  int                 `json:"current_streak"`
	MaxStreak      int                 `json:"max_streak"`
	Achievements   []string            `json:"achievements"`
	WarnCount      int                 `json:"warn_count"`
	Boosts         map[BoostKind]int64 `json:"boosts"`
	Inventory      []string            `json:"inventory"`
	LastRewardAt   time.Time           `json:"last_reward_at"`
	Upgrades       map[UpgradeKind]int `json:"upgrades"`
	DiamondBananas int                 `json:"diamond_bananas"`
	EventWins      int                 `json:"event_wins"`
	GoldenMinion   bool                `json:"golden_minion"`
	PrefixUntil    time.Time           `json:"prefix_until"`
}

// NewUserRecord returns an empty record with all collections allocated.
func NewUserRecord(id int64) *UserRecord {
	return &UserRecord{
		ID:           id,
		Achievements: []string{},
		Boosts:       map[BoostKind]int64{},
		Inventory:    []string{},
		Upgrades:     map[UpgradeKind]int{},
	}
}

// Normalize allocates nil collections and clamps counters into their valid ranges.
func (u *UserRecord) Normalize() {
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
	if u.Boosts == nil {
		u.Boosts = map[BoostKind]int64{}
	}
	if u.Inventory == nil {
		u.Inventory = []string{}
	}
	if u.Upgrades == nil {
		u.Upgrades = map[UpgradeKind]int{}
	}
	u.WarnCount = max(0, min(u.WarnCount, 10))
	u.CurrentStreak = max(0, u.CurrentStreak)
	u.MaxStreak = max(u.MaxStreak, u.CurrentStreak)
}

// Clone returns a deep copy safe to hand out of the ledger lock.
func (u *UserRecord) Clone() *UserRecord {
	c := *u
	c.Achievements = slices.Clone(u.Achievements)
	c.Inventory = slices.Clone(u.Inventory)
	c.Boosts = make(map[BoostKind]int64, len(u.Boosts))
	for k, v := range u.Boosts {
		c.Boosts[k] = v
	}
	c.Upgrades = make(map[UpgradeKind]int, len(u.Upgrades))
	for k, v := range u.Upgrades {
		c.Upgrades[k] = v
	}
	return &c
}

// HasAchievement reports whether the named achievement is unlocked.
func (u *UserRecord) HasAchievement(name string) bool {
	return slices.Contains(u.Achievements, name)
}

// HasItem reports whether the inventory holds at least one copy of the item.
func (u *UserRecord) HasItem(itemID string) bool {
	return slices.Contains(u.Inventory, itemID)
}

// RemoveItem removes one copy of the item and reports whether one was present.
func (u *UserRecord) RemoveItem(itemID string) bool {
	i := slices.Index(u.Inventory, itemID)
	if i < 0 {
		return false
	}
	u.Inventory = slices.Delete(u.Inventory, i, i+1)
	return true
}

// Snapshot is the whole persisted document.
type Snapshot struct {
	Version int                    `json:"version"`
	Users   map[string]*UserRecord `json:"users"`
}
