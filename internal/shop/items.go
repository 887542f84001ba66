// Package shop holds the banana shop catalog, stock and upgrade tables.
package shop

import (
	"slices"
	"sync"

	"banana-bot/internal/apperr"
)

// Effect is what using an item does.
type Effect string

// Item effects
const (
	EffectAchievement     Effect = "achievement"
	EffectSecretBonus     Effect = "secret_bonus"
	EffectMidasTouch      Effect = "midas_touch"
	EffectMultiplier      Effect = "multiplier"
	EffectTimeAccelerator Effect = "time_accelerator"
	EffectTimeMachine     Effect = "time_machine"
	EffectPrefixTop       Effect = "prefix_top"
	EffectMysticDrum      Effect = "mystic_drum"
	EffectBananaBomb      Effect = "banana_bomb"
	EffectGoldenMinion    Effect = "golden_minion"
)

// Category groups items in the shop menu.
type Category string

const (
	CategoryAchievements Category = "achievements"
	CategoryBoosts       Category = "boosts"
	CategoryFun          Category = "fun"
	CategoryPrestige     Category = "prestige"
)

// Categories lists the menu order.
var Categories = []Category{CategoryAchievements, CategoryBoosts, CategoryFun, CategoryPrestige}

// Title returns the menu caption.
func (c Category) Title() string {
	switch c {
	case CategoryAchievements:
		return "🏆 Achievements"
	case CategoryBoosts:
		return "⚡ Boosts"
	case CategoryFun:
		return "🎭 Fun stuff"
	case CategoryPrestige:
		return "👑 Statuses"
	default:
		return "Category"
	}
}

// Unlimited marks an item that never runs out.
const Unlimited = -1

// Item is a catalog entry.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Effect      Effect
	Category    Category
	Stock       int // initial stock
	MaxStock    int // stock after a restock
}

// Unique reports whether a user may own at most one copy.
func (i Item) Unique() bool {
	return i.Category == CategoryAchievements
}

// KeptOnUse reports whether using the item leaves it in the inventory.
func (i Item) KeptOnUse() bool {
	return i.Category == CategoryAchievements || i.Effect == EffectGoldenMinion
}

// Usable reports whether the inventory shows a use button for the item.
func (i Item) Usable() bool {
	return i.Effect != EffectGoldenMinion
}

// Items is the full catalog in display order.
var Items = []Item{
	{"1", "🍌 Banana Newbie", "Your first step into the world of banana achievements!", 5, EffectAchievement, CategoryAchievements, 50, 10},
	{"2", "🍌 Seasoned Bananologist", "Now you know a little more about bananas than the others!", 10, EffectAchievement, CategoryAchievements, 30, 5},
	{"3", "🍌 Lord of Bunches", "Whole bunches of bananas bow before you!", 25, EffectAchievement, CategoryAchievements, 20, 3},
	{"4", "🍌 Banana Tycoon", "The peak of a banana career! But what is this secret effect?..", 100, EffectSecretBonus, CategoryAchievements, 10, 1},
	{"5", "✨ Midas Touch (3 uses)", "Triples the golden banana chance for your next 3 /banana!", 5, EffectMidasTouch, CategoryBoosts, 25, 25},
	{"6", "🌀 Multiplier (5x)", "Doubles the bananas of your next 5 /banana!", 15, EffectMultiplier, CategoryBoosts, 15, 15},
	{"10", "⏳ Time Accelerator (1 hour)", "Cuts the /banana cooldown to 15 minutes for 1 hour!", 25, EffectTimeAccelerator, CategoryBoosts, 20, 20},
	{"11", "🌀 Time Machine (1 time)", "Instantly skips the cooldown for one /banana!", 40, EffectTimeMachine, CategoryBoosts, 15, 15},
	{"8", "🏷️ «🍌» prefix in the top", "Puts a banana before your name in /leaderboard for 1 day", 5, EffectPrefixTop, CategoryFun, 40, 40},
	{"9", "🥁 Mystic Drum", "Bam-bam-bam! What will happen? Nobody knows! Maybe riches, maybe nothing... No guarantees!", 3, EffectMysticDrum, CategoryFun, Unlimited, Unlimited},
	{"12", "💣 Banana Bomb", "Everyone in the chat gets +3-5🍌 per message for 1 minute!", 15, EffectBananaBomb, CategoryFun, 10, 10},
	{"19", "👑 Golden Minion", "A special 🥇 badge in /leaderboard! Pure status!", 300, EffectGoldenMinion, CategoryPrestige, Unlimited, Unlimited},
}

// Errors for shop operations
var (
	ErrUnknownItem = apperr.Input("🍌 item not found!")
	ErrSoldOut     = apperr.Input("🍌 the minions bought everything up!")
	ErrAlreadyOwn  = apperr.Input("🍌 you already have this one!")
	ErrNotOwned    = apperr.Input("🍌 you don't have this item!")
)

// Catalog tracks live stock for the items.
type Catalog struct {
	items []Item

	mu    sync.Mutex
	stock map[string]int
}

// NewCatalog creates a catalog over items with their initial stock.
func NewCatalog(items []Item) *Catalog {
	c := &Catalog{items: slices.Clone(items), stock: make(map[string]int, len(items))}
	for _, it := range items {
		c.stock[it.ID] = it.Stock
	}
	return c
}

// Item finds an item by ID.
func (c *Catalog) Item(id string) (Item, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// InCategory returns the items of cat in display order.
func (c *Catalog) InCategory(cat Category) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

// Stock returns the remaining stock of id, or Unlimited.
func (c *Catalog) Stock(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stock[id]
}

// Reserve takes one unit of stock.
func (c *Catalog) Reserve(id string) (Item, error) {
	it, ok := c.Item(id)
	if !ok {
		return Item{}, ErrUnknownItem
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch n := c.stock[id]; {
	case n == Unlimited:
	case n <= 0:
		return Item{}, ErrSoldOut
	default:
		c.stock[id] = n - 1
	}
	return it, nil
}

// Release returns a unit reserved by a purchase that did not go through.
func (c *Catalog) Release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.stock[id]; ok && n != Unlimited {
		c.stock[id] = n + 1
	}
}

// Restock resets every limited item to its max stock.
func (c *Catalog) Restock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.MaxStock != Unlimited {
			c.stock[it.ID] = it.MaxStock
		}
	}
}

// MysticDrum lists the drum's flavor replies.
var MysticDrum = []string{
	"🥁 Bam-bam-bam! Nothing happened...",
	"🥁 You heard a whisper: 'Ba-na-na...'",
	"🥁 The minions froze... but nothing happened!",
}
