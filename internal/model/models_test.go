package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRecord_CloneIsDeep(t *testing.T) {
	u := NewUserRecord(42)
	u.Achievements = append(u.Achievements, "first")
	u.Inventory = append(u.Inventory, "1")
	u.Boosts[BoostMultiplier] = 3
	u.Upgrades[UpgradeBananaBag] = 1

	c := u.Clone()
	c.Achievements[0] = "changed"
	c.Inventory = append(c.Inventory, "2")
	c.Boosts[BoostMultiplier] = 0
	c.Upgrades[UpgradeBananaBag] = 3

	assert.Equal(t, []string{"first"}, u.Achievements)
	assert.Equal(t, []string{"1"}, u.Inventory)
	assert.Equal(t, int64(3), u.Boosts[BoostMultiplier])
	assert.Equal(t, 1, u.Upgrades[UpgradeBananaBag])
}

func TestUserRecord_RemoveItem(t *testing.T) {
	u := NewUserRecord(1)
	u.Inventory = []string{"a", "b", "a"}

	assert.True(t, u.RemoveItem("a"))
	assert.Equal(t, []string{"b", "a"}, u.Inventory)
	assert.False(t, u.RemoveItem("zzz"))
	assert.True(t, u.HasItem("a"))
}

func TestUserRecord_Normalize(t *testing.T) {
	u := &UserRecord{ID: 7, WarnCount: 14, CurrentStreak: 4, MaxStreak: 2}
	u.Normalize()

	assert.NotNil(t, u.Boosts)
	assert.NotNil(t, u.Upgrades)
	assert.NotNil(t, u.Achievements)
	assert.NotNil(t, u.Inventory)
	assert.Equal(t, 10, u.WarnCount)
	assert.Equal(t, 4, u.MaxStreak)
}
