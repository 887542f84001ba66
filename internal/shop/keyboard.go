package shop

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/model"
)

// Callback data prefixes. Every shop button carries the menu owner's ID.
const (
	CallbackCategory = "shop_cat"     // shop_cat:<owner>:<category>
	CallbackItem     = "shop_item"    // shop_item:<owner>:<id>
	CallbackBuy      = "shop_buy"     // shop_buy:<owner>:<id>
	CallbackConfirm  = "shop_confirm" // shop_confirm:<owner>:<id>
	CallbackBack     = "shop_back"    // shop_back:<owner>
	CallbackInvOpen  = "inv_open"     // inv_open:<owner>
	CallbackInvUse   = "inv_use"      // inv_use:<owner>:<id>
	CallbackUpgrade  = "upg_buy"      // upg_buy:<owner>:<kind>:<level>
	CallbackUpgClose = "upg_close"    // upg_close:<owner>
)

// Data builds callback data for action.
func Data(action string, owner int64, args ...string) string {
	parts := append([]string{action, strconv.FormatInt(owner, 10)}, args...)
	return strings.Join(parts, ":")
}

// ParseData splits callback data built by Data.
func ParseData(data string) (action string, owner int64, args []string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(data, "\f"), ":")
	if len(parts) < 2 {
		return "", 0, nil, false
	}
	owner, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, nil, false
	}
	return parts[0], owner, parts[2:], true
}

// IsShopData reports whether data belongs to a shop, inventory or upgrade menu.
func IsShopData(data string) bool {
	data = strings.TrimPrefix(data, "\f")
	return strings.HasPrefix(data, "shop_") || strings.HasPrefix(data, "inv_") || strings.HasPrefix(data, "upg_")
}

// BuildMainPanel creates the category menu.
func BuildMainPanel(owner int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, cat := range Categories {
		rows = append(rows, markup.Row(markup.Data(cat.Title(), Data(CallbackCategory, owner, string(cat)))))
	}
	markup.Inline(rows...)
	return markup
}

// BuildCategoryPanel lists the in-stock items of cat.
func BuildCategoryPanel(c *Catalog, cat Category, owner int64, u *model.UserRecord) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, it := range c.InCategory(cat) {
		if c.Stock(it.ID) == 0 {
			continue
		}
		text := fmt.Sprintf("%s - %d🍌", it.Name, it.Price)
		if it.Unique() && u != nil && u.HasItem(it.ID) {
			text = fmt.Sprintf("✅ %s (bought)", it.Name)
		}
		rows = append(rows, markup.Row(markup.Data(text, Data(CallbackItem, owner, it.ID))))
	}
	if len(rows) == 0 {
		rows = append(rows, markup.Row(markup.Data("🛒 Nothing here", Data(CallbackBack, owner))))
	}
	rows = append(rows, markup.Row(markup.Data("🔙 Back", Data(CallbackBack, owner))))
	markup.Inline(rows...)
	return markup
}

// BuildItemPanel shows the buy button for an item.
func BuildItemPanel(it Item, owner int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data(fmt.Sprintf("🛒 Buy for %d🍌", it.Price), Data(CallbackBuy, owner, it.ID))),
		markup.Row(markup.Data("🔙 Back", Data(CallbackCategory, owner, string(it.Category)))),
	)
	return markup
}

// BuildConfirmPanel asks to confirm a purchase.
func BuildConfirmPanel(it Item, owner int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Yes! I want it!", Data(CallbackConfirm, owner, it.ID)),
		markup.Data("No, changed my mind", Data(CallbackItem, owner, it.ID)),
	))
	return markup
}

// BuildPurchasedPanel follows a successful purchase.
func BuildPurchasedPanel(owner int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🎒 Open inventory", Data(CallbackInvOpen, owner))),
		markup.Row(markup.Data("🛒 Back to the shop", Data(CallbackBack, owner))),
	)
	return markup
}

// BuildInventoryPanel adds a use button per distinct usable item.
func BuildInventoryPanel(c *Catalog, u *model.UserRecord) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	seen := make(map[string]bool)
	for _, id := range u.Inventory {
		it, ok := c.Item(id)
		if !ok || seen[id] || !it.Usable() {
			continue
		}
		seen[id] = true
		rows = append(rows, markup.Row(markup.Data("✨ Use "+it.Name, Data(CallbackInvUse, u.ID, id))))
	}
	markup.Inline(rows...)
	return markup
}

// BuildUpgradesPanel offers the next level of every track.
func BuildUpgradesPanel(u *model.UserRecord) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, up := range Upgrades {
		level := u.Upgrades[up.Kind]
		if level >= up.MaxLevel() {
			continue
		}
		next := level + 1
		text := fmt.Sprintf("%s: buy level %d - %d🍌", up.Name, next, up.Price(next))
		rows = append(rows, markup.Row(markup.Data(text, Data(CallbackUpgrade, u.ID, string(up.Kind), strconv.Itoa(next)))))
	}
	rows = append(rows, markup.Row(markup.Data("❌ Close", Data(CallbackUpgClose, u.ID))))
	markup.Inline(rows...)
	return markup
}

// FormatMainMessage creates the shop welcome text.
func FormatMainMessage(balance int64) string {
	return fmt.Sprintf("🛒 Banana shop 🍌\n\n💰 Your balance: %d🍌\n\nPick a category:", balance)
}

// FormatCategoryMessage heads a category menu.
func FormatCategoryMessage(cat Category, balance int64) string {
	return fmt.Sprintf("🛒 %s\n\n💰 Your balance: %d🍌\n\nPick an item:", cat.Title(), balance)
}

// FormatItemDetail describes an item with its stock.
func FormatItemDetail(it Item, stock int, balance int64) string {
	msg := fmt.Sprintf("🛍️ %s\n\n💡 %s\n💰 Price: %d🍌", it.Name, it.Description, it.Price)
	if stock != Unlimited {
		msg += fmt.Sprintf("\n📦 Left: %d", stock)
	}
	msg += fmt.Sprintf("\n\n💰 Your balance: %d🍌", balance)
	return msg
}

// FormatConfirmMessage asks the buyer to confirm.
func FormatConfirmMessage(it Item, balance int64) string {
	return fmt.Sprintf("🦍 The minion asks:\nDo you really want %s for %d🍌?\n\n%s\n\n💰 Your balance: %d🍌",
		it.Name, it.Price, it.Description, balance)
}

// FormatPurchased reports a completed purchase.
func FormatPurchased(it Item, balance int64) string {
	return fmt.Sprintf("🎉 Hooray! The minions completed the purchase!\n\n🛍️ %s\n💡 %s\n\n💰 New balance: %d🍌\n\nOpen your inventory to use the item!",
		it.Name, it.Description, balance)
}

// FormatInventoryMessage lists owned items and active boosts.
func FormatInventoryMessage(c *Catalog, u *model.UserRecord) string {
	if len(u.Inventory) == 0 && len(u.Boosts) == 0 {
		return "📦 Your inventory is empty!"
	}

	var b strings.Builder
	b.WriteString("🎒 Your inventory\n")
	if len(u.Inventory) > 0 {
		b.WriteString("\n🛍️ Bought items:\n")
		for _, id := range u.Inventory {
			if it, ok := c.Item(id); ok {
				fmt.Fprintf(&b, "• %s (ID: %s)\n", it.Name, id)
			}
		}
	}
	if len(u.Boosts) > 0 {
		b.WriteString("\n⚡ Active boosts:\n")
		for _, kind := range []model.BoostKind{model.BoostMidasTouch, model.BoostMultiplier, model.BoostTimeAccelerator, model.BoostTimeMachine} {
			if v, ok := u.Boosts[kind]; ok && v > 0 {
				fmt.Fprintf(&b, "• %s\n", FormatBoost(kind, v))
			}
		}
	}
	return b.String()
}

// FormatUpgradesMessage shows the current upgrade levels.
func FormatUpgradesMessage(u *model.UserRecord) string {
	var b strings.Builder
	b.WriteString("🔧 Upgrades\n")
	for _, up := range Upgrades {
		level := u.Upgrades[up.Kind]
		fmt.Fprintf(&b, "\n%s: level %d/%d\n", up.Name, level, up.MaxLevel())
		if level > 0 {
			fmt.Fprintf(&b, "   → %s\n", up.Effect(level))
		}
	}
	return b.String()
}

// FormatBoost describes one boost entry.
func FormatBoost(kind model.BoostKind, v int64) string {
	switch kind {
	case model.BoostMidasTouch:
		return fmt.Sprintf("✨ Midas Touch: %d uses", v)
	case model.BoostMultiplier:
		return fmt.Sprintf("🌀 Multiplier: %d uses", v)
	case model.BoostTimeAccelerator:
		return "⏳ Time Accelerator: until " + time.Unix(v, 0).UTC().Format("15:04") + " UTC"
	case model.BoostTimeMachine:
		return fmt.Sprintf("🌀 Time Machine: %d uses", v)
	default:
		return fmt.Sprintf("%s: %d", kind, v)
	}
}
