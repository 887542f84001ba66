package service

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/apperr"
	"banana-bot/internal/game"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/model"
	"banana-bot/internal/timer"
)

// Account errors
var (
	ErrAddUsage = apperr.Input("ℹ️ Usage: reply to a member with /add_bananas <amount>")
)

const (
	leaderboardSize = 5
	lockedShown     = 5
)

var positionEmojis = map[int]string{1: "🥇", 2: "🥈", 3: "🥉", 4: "4️⃣", 5: "5️⃣"}

// AccountService shows balances, levels, achievements and the leaderboard.
type AccountService struct {
	ledger *ledger.Ledger
	msg    messenger.Messenger
	clock  timer.Scheduler
	games  *game.Registry
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(l *ledger.Ledger, msg messenger.Messenger, clock timer.Scheduler, games *game.Registry) *AccountService {
	return &AccountService{
		ledger: l,
		msg:    msg,
		clock:  clock,
		games:  games,
	}
}

// Remember keeps the member's display name for the leaderboard.
func (s *AccountService) Remember(ctx context.Context, p game.Player) {
	s.ledger.Remember(ctx, p.ID, p.Display())
}

// Stats shows p's balance, level and match record.
func (s *AccountService) Stats(ctx context.Context, o Origin, p game.Player) error {
	u := s.ledger.GetOrCreate(ctx, p.ID)
	lvl := ledger.LevelFor(u.Balance)

	var b strings.Builder
	b.WriteString("╔═════════════════╗\n║ 🎮 BANANA STATS\n╠═════════════════╣\n")
	fmt.Fprintf(&b, "║ 🍌 Bananas: %d\n", u.Balance)
	fmt.Fprintf(&b, "║ 🎖 Level: %s %s\n", lvl.Emoji, html.EscapeString(lvl.Name))
	if lvl.MaxLevel {
		b.WriteString("║ 🏆 Max level!\n")
	}
	fmt.Fprintf(&b, "║ 📊 Progress:\n║ %s (%d%%)\n", lvl.Bar, lvl.Percent)
	b.WriteString("╠═════════════════╣\n")
	fmt.Fprintf(&b, "║ 🔥 Current streak: %d wins in a row!\n", u.CurrentStreak)
	fmt.Fprintf(&b, "║ 🏅 Record: %d wins! 💪\n", u.MaxStreak)
	fmt.Fprintf(&b, "║ ✅ Wins: %d 🎯\n", u.Wins)
	fmt.Fprintf(&b, "║ ❌ Losses: %d 🤷\n", u.Losses)
	fmt.Fprintf(&b, "║ 💎 Diamond bananas: %d\n", u.DiamondBananas)
	b.WriteString("╠═════════════════╣\n║ 🏅 Achievements:\n")
	if len(u.Achievements) == 0 {
		b.WriteString("║ Nothing yet… Be-be-be!\n")
	} else {
		for _, a := range u.Achievements {
			fmt.Fprintf(&b, "║ %s\n", html.EscapeString(a))
		}
	}
	b.WriteString("╚═════════════════╝")

	send(s.msg, o.ChatID, b.String(), messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, HTML: true})
	return nil
}

// Achievements lists p's unlocked achievements and a few locked ones.
func (s *AccountService) Achievements(ctx context.Context, o Origin, p game.Player) error {
	u := s.ledger.GetOrCreate(ctx, p.ID)

	var locked []string
	for _, name := range ledger.AllAchievementNames() {
		if !u.HasAchievement(name) {
			locked = append(locked, name)
		}
	}

	var b strings.Builder
	b.WriteString("🏆 <b>Your achievements:</b>\n\n")
	fmt.Fprintf(&b, "🔓 <b>Unlocked:</b> %d\n", len(u.Achievements))
	if len(u.Achievements) == 0 {
		b.WriteString("Nothing yet...\n\n")
	} else {
		b.WriteString(html.EscapeString(strings.Join(u.Achievements, ", ")) + "\n\n")
	}
	fmt.Fprintf(&b, "🔒 <b>Locked:</b> %d\n", len(locked))
	switch {
	case len(locked) == 0:
		b.WriteString("You have them all!")
	case len(locked) > lockedShown:
		b.WriteString(html.EscapeString(strings.Join(locked[:lockedShown], ", ")) + "...")
	default:
		b.WriteString(html.EscapeString(strings.Join(locked, ", ")))
	}

	send(s.msg, o.ChatID, b.String(), messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, HTML: true})
	return nil
}

// Leaderboard posts the top five and the caller's own position.
func (s *AccountService) Leaderboard(ctx context.Context, o Origin, caller game.Player) error {
	text, ok := s.leaderboard(caller)
	if !ok {
		send(s.msg, o.ChatID, "🍌 Nobody has collected bananas yet! Be-be-be!", o.reply())
		return nil
	}
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(button(m, "🔄 Refresh", CbLeaderboard)))
	send(s.msg, o.ChatID, text, messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, HTML: true, Markup: m})
	return nil
}

// RefreshLeaderboard redraws a leaderboard message for whoever pressed it.
func (s *AccountService) RefreshLeaderboard(ctx context.Context, o Origin, caller game.Player) (string, error) {
	text, ok := s.leaderboard(caller)
	if !ok {
		return "", nil
	}
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(button(m, "🔄 Refresh", CbLeaderboard)))
	edit(s.msg, o.Ref(), text, messenger.Options{HTML: true, Markup: m})
	return "🔄 Updated", nil
}

func (s *AccountService) leaderboard(caller game.Player) (string, bool) {
	all := s.ledger.Top(0)
	if len(all) == 0 {
		return "", false
	}
	now := s.clock.Now()

	var b strings.Builder
	b.WriteString("🏆 <b>TOP-5 BANANA MINIONS</b> 🏆\n────────────────────\n\n")
	for i, u := range all[:min(leaderboardSize, len(all))] {
		fmt.Fprintf(&b, "%s <b>%s</b>\n   🍌 Balance: <code>%d</code>\n   💎 Total: <code>%d</code>\n\n",
			positionEmojis[i+1], html.EscapeString(s.decorate(u, now)), u.Balance, u.LifetimeEarned)
	}

	pos := 0
	var me *model.UserRecord
	for i, u := range all {
		if u.ID == caller.ID {
			pos, me = i+1, u
			break
		}
	}
	b.WriteString("\n────────────────────\n<b>Your position:</b>\n")
	if me == nil {
		fmt.Fprintf(&b, "%s\n📊 You are not ranked yet!\n👥 Minions in total: <code>%d</code>", html.EscapeString(caller.Display()), len(all))
		return b.String(), true
	}
	emoji, ok := positionEmojis[pos]
	if !ok {
		emoji = strconv.Itoa(pos) + "."
	}
	fmt.Fprintf(&b, "%s <b>%s</b>\n🍌 Balance: <code>%d</code>\n💎 Total: <code>%d</code>\n📊 Place: <code>%d</code> of <code>%d</code>",
		emoji, html.EscapeString(s.decorate(me, now)), me.Balance, me.LifetimeEarned, pos, len(all))
	return b.String(), true
}

// decorate renders a leaderboard name with the purchased badges.
func (s *AccountService) decorate(u *model.UserRecord, now time.Time) string {
	name := u.Name
	if name == "" {
		id := strconv.FormatInt(u.ID, 10)
		name = "Minion #" + id[max(0, len(id)-4):]
	}
	if u.PrefixUntil.After(now) {
		name = "🍌 " + name
	}
	if u.GoldenMinion {
		name = "🥇 " + name
	}
	return name
}

// AddBananas adjusts target's balance by amount. Admins only.
func (s *AccountService) AddBananas(ctx context.Context, o Origin, admin bool, target *game.Player, arg string) error {
	if !admin {
		return ErrAdminOnly
	}
	if target == nil {
		return ErrAddUsage
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || amount == 0 {
		return ErrAddUsage
	}
	balance := s.ledger.AddCurrency(ctx, target.ID, amount)
	send(s.msg, o.ChatID, fmt.Sprintf("✅ %s: %+d🍌\n💰 New balance: %d🍌", target.Display(), amount, balance), o.reply())
	return nil
}

// GetID shows the chat, user and thread IDs of the origin.
func (s *AccountService) GetID(ctx context.Context, o Origin, p game.Player) error {
	text := fmt.Sprintf("🆔 Chat ID: <code>%d</code>\n👤 User ID: <code>%d</code>", o.ChatID, p.ID)
	if o.ThreadID != 0 {
		text += fmt.Sprintf("\n🧵 Thread ID: <code>%d</code>", o.ThreadID)
	}
	send(s.msg, o.ChatID, text, messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, HTML: true})
	return nil
}

// Help lists the commands.
func (s *AccountService) Help(ctx context.Context, o Origin) error {
	var b strings.Builder
	b.WriteString("🍌 Ba-na-na! I'm the banana bot!\n\n🎮 Games:\n")
	for _, g := range s.games.List() {
		b.WriteString(game.HelpLine(g) + "\n")
	}
	b.WriteString(helpText)
	send(s.msg, o.ChatID, b.String(), o.reply())
	return nil
}

const helpText = `
🍌 Bananas:
/banana - harvest bananas
/stats - your stats
/leaderboard - top minions
/achievements - your achievements
/shop - the banana shop
/inv - your inventory
/upgrades - permanent upgrades
/poll Question <A> <B> - start a poll

📜 Order:
/law - show or propose the law
/event_status - current chat event
/getid - chat and user IDs`
