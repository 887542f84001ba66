package shop

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banana-bot/internal/model"
)

func TestCatalog_ReserveAndRestock(t *testing.T) {
	c := NewCatalog([]Item{
		{ID: "a", Price: 1, Stock: 1, MaxStock: 3, Category: CategoryFun},
		{ID: "b", Price: 1, Stock: Unlimited, MaxStock: Unlimited, Category: CategoryFun},
	})

	_, err := c.Reserve("a")
	require.NoError(t, err)
	_, err = c.Reserve("a")
	assert.ErrorIs(t, err, ErrSoldOut)

	c.Release("a")
	assert.Equal(t, 1, c.Stock("a"))

	for i := 0; i < 5; i++ {
		_, err = c.Reserve("b")
		require.NoError(t, err)
	}
	assert.Equal(t, Unlimited, c.Stock("b"))

	c.Restock()
	assert.Equal(t, 3, c.Stock("a"))

	_, err = c.Reserve("zzz")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestItems_Rules(t *testing.T) {
	c := NewCatalog(Items)
	for _, id := range []string{"1", "2", "3", "4"} {
		it, ok := c.Item(id)
		require.True(t, ok)
		assert.True(t, it.Unique(), id)
		assert.True(t, it.KeptOnUse(), id)
	}
	gm, _ := c.Item("19")
	assert.True(t, gm.KeptOnUse())
	assert.False(t, gm.Usable())

	drum, _ := c.Item("9")
	assert.False(t, drum.KeptOnUse())
	assert.Equal(t, Unlimited, c.Stock("9"))

	assert.Len(t, c.InCategory(CategoryBoosts), 4)
}

func TestUpgrades(t *testing.T) {
	bag, ok := LookupUpgrade(model.UpgradeBananaBag)
	require.True(t, ok)
	assert.Equal(t, 3, bag.MaxLevel())
	assert.Equal(t, int64(250), bag.Price(2))

	assert.NoError(t, bag.CheckLevel(0, 1))
	assert.ErrorIs(t, bag.CheckLevel(0, 2), ErrUpgradeOrder)
	assert.ErrorIs(t, bag.CheckLevel(3, 4), ErrUpgradeMaxed)

	assert.Equal(t, int64(0), BagBonus(0))
	assert.Equal(t, int64(3), BagBonus(3))

	g, d := TotemBonus(2)
	assert.Equal(t, 8.0, g)
	assert.InDelta(t, 1.32, d, 1e-9)

	totem, _ := LookupUpgrade(model.UpgradeBananaTotem)
	assert.Equal(t, "+12% golden, +1.98% diamond", totem.Effect(3))
	assert.Equal(t, "+1🍌 to every harvest", bag.Effect(1))
}

func TestCallbackData(t *testing.T) {
	data := Data(CallbackUpgrade, 42, "banana_bag", "2")
	assert.Equal(t, "upg_buy:42:banana_bag:2", data)

	action, owner, args, ok := ParseData("\f" + data)
	require.True(t, ok)
	assert.Equal(t, CallbackUpgrade, action)
	assert.Equal(t, int64(42), owner)
	assert.Equal(t, []string{"banana_bag", "2"}, args)

	_, _, _, ok = ParseData("shop_back")
	assert.False(t, ok)
	_, _, _, ok = ParseData("shop_back:abc")
	assert.False(t, ok)

	assert.True(t, IsShopData("\finv_use:1:5"))
	assert.False(t, IsShopData("ttt_move:1:5"))
}

func TestPanels(t *testing.T) {
	c := NewCatalog(Items)
	u := model.NewUserRecord(7)
	u.Inventory = []string{"1", "9", "9", "19"}

	inv := BuildInventoryPanel(c, u)
	require.Len(t, inv.InlineKeyboard, 2, "one button each for 1 and 9, none for the golden minion")

	cat := BuildCategoryPanel(c, CategoryAchievements, 7, u)
	assert.True(t, strings.HasPrefix(cat.InlineKeyboard[0][0].Text, "✅"))

	u.Upgrades[model.UpgradeBananaBag] = 3
	up := BuildUpgradesPanel(u)
	require.Len(t, up.InlineKeyboard, 2, "maxed bag is hidden, totem and close remain")

	msg := FormatInventoryMessage(c, u)
	assert.Contains(t, msg, "Mystic Drum")
}
