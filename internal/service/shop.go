package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"banana-bot/internal/apperr"
	"banana-bot/internal/game"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/model"
	"banana-bot/internal/pkg/lock"
	"banana-bot/internal/shop"
	"banana-bot/internal/timer"
)

// Shop service errors
var (
	ErrNotYourMenu = apperr.Forbidden("🦍 Oi! This is not your menu!")
	ErrNotUsable   = apperr.Input("🍌 this item works on its own, no need to use it!")
	ErrBadShopData = apperr.Stale("🍌 this button is out of date")
	ErrShopBusy    = apperr.Input("⏳ hold on, your last order is still being packed!")
)

const (
	secretBonus      = 100
	secretBonusDelay = 30 * time.Second
	prefixDuration   = 24 * time.Hour
	orderWait        = 5 * time.Second

	bombArmedText = "💣 Banana bomb armed! For 1 minute everyone gets +3-5🍌 per message!"
)

// BombStarter arms a banana bomb for an item use.
type BombStarter interface {
	StartBomb(ctx context.Context, o Origin, userID int64) error
}

// ShopService handles shop, inventory and upgrade business logic
type ShopService struct {
	catalog  *shop.Catalog
	ledger   *ledger.Ledger
	msg      messenger.Messenger
	sched    timer.Scheduler
	rand     game.Random
	bombs    BombStarter
	userLock *lock.KeyLock[int64]
}

// NewShopService creates a new ShopService instance
func NewShopService(
	catalog *shop.Catalog,
	l *ledger.Ledger,
	msg messenger.Messenger,
	sched timer.Scheduler,
	r game.Random,
	bombs BombStarter,
	userLock *lock.KeyLock[int64],
) *ShopService {
	return &ShopService{
		catalog:  catalog,
		ledger:   l,
		msg:      msg,
		sched:    sched,
		rand:     r,
		bombs:    bombs,
		userLock: userLock,
	}
}

// Catalog exposes the live catalog.
func (s *ShopService) Catalog() *shop.Catalog {
	return s.catalog
}

// Open posts the shop's category menu for user.
func (s *ShopService) Open(ctx context.Context, o Origin, userID int64) error {
	u := s.ledger.GetOrCreate(ctx, userID)
	send(s.msg, o.ChatID, shop.FormatMainMessage(u.Balance), messenger.Options{
		ReplyTo:  o.MessageID,
		ThreadID: o.ThreadID,
		Markup:   shop.BuildMainPanel(userID),
	})
	return nil
}

// Inventory posts user's inventory with use buttons.
func (s *ShopService) Inventory(ctx context.Context, o Origin, userID int64) error {
	u := s.ledger.GetOrCreate(ctx, userID)
	send(s.msg, o.ChatID, shop.FormatInventoryMessage(s.catalog, u), messenger.Options{
		ReplyTo:  o.MessageID,
		ThreadID: o.ThreadID,
		Markup:   shop.BuildInventoryPanel(s.catalog, u),
	})
	return nil
}

// Upgrades posts user's upgrade levels with the next-level offers.
func (s *ShopService) Upgrades(ctx context.Context, o Origin, userID int64) error {
	u := s.ledger.GetOrCreate(ctx, userID)
	send(s.msg, o.ChatID, shop.FormatUpgradesMessage(u), messenger.Options{
		ReplyTo:  o.MessageID,
		ThreadID: o.ThreadID,
		Markup:   shop.BuildUpgradesPanel(u),
	})
	return nil
}

// Restock refills every limited item. Admins only.
func (s *ShopService) Restock(ctx context.Context, o Origin, admin bool) error {
	if !admin {
		return ErrAdminOnly
	}
	s.catalog.Restock()
	log.Info().Int64("chat_id", o.ChatID).Msg("Shop restocked")
	send(s.msg, o.ChatID, "🛒 Every item is back in stock! Ba-na-na!", o.reply())
	return nil
}

// Purchase buys one copy of itemID. Stock is checked first, then balance,
// then uniqueness. A failed purchase returns the reserved stock.
func (s *ShopService) Purchase(ctx context.Context, userID int64, itemID string) (shop.Item, *model.UserRecord, error) {
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	it, err := s.catalog.Reserve(itemID)
	if err != nil {
		return shop.Item{}, nil, err
	}
	u, err := s.ledger.Mutate(ctx, userID, func(u *model.UserRecord) error {
		if u.Balance < it.Price {
			return apperr.Inputf("🍌 you need %d more🍌!", it.Price-u.Balance)
		}
		if it.Unique() && u.HasItem(it.ID) {
			return shop.ErrAlreadyOwn
		}
		u.Balance -= it.Price
		u.Inventory = append(u.Inventory, it.ID)
		if it.Effect == shop.EffectGoldenMinion {
			u.GoldenMinion = true
		}
		return nil
	})
	if err != nil {
		s.catalog.Release(itemID)
		return shop.Item{}, nil, err
	}
	log.Info().Int64("user_id", userID).Str("item", it.ID).Int64("price", it.Price).Msg("Item purchased")
	return it, u, nil
}

// UseItem applies the effect of an owned item and removes one copy unless
// the item is kept on use. Uses by the same user are serialized.
func (s *ShopService) UseItem(ctx context.Context, o Origin, userID int64, itemID string) (string, error) {
	it, ok := s.catalog.Item(itemID)
	if !ok {
		return "", shop.ErrUnknownItem
	}
	if !it.Usable() {
		return "", ErrNotUsable
	}

	var result string
	err := s.userLock.WithLockContext(ctx, userID, orderWait, func() error {
		var err error
		if it.Effect == shop.EffectBananaBomb {
			result, err = s.useBomb(ctx, o, userID, it)
			return err
		}
		result, err = s.use(ctx, userID, it)
		return err
	})
	if errors.Is(err, lock.ErrLockTimeout) {
		return "", ErrShopBusy
	}
	if err != nil {
		return "", err
	}

	if it.Effect == shop.EffectAchievement || it.Effect == shop.EffectSecretBonus {
		result = s.unlock(ctx, o, userID, it)
	}
	return result, nil
}

func (s *ShopService) use(ctx context.Context, userID int64, it shop.Item) (string, error) {
	now := s.sched.Now()
	var result string
	_, err := s.ledger.Mutate(ctx, userID, func(u *model.UserRecord) error {
		if !u.HasItem(it.ID) {
			return shop.ErrNotOwned
		}
		result = s.apply(u, it, now)
		if !it.KeptOnUse() {
			u.RemoveItem(it.ID)
		}
		return nil
	})
	return result, err
}

// useBomb takes the bomb out of the inventory before arming it and puts it
// back when the chat refuses a new bomb.
func (s *ShopService) useBomb(ctx context.Context, o Origin, userID int64, it shop.Item) (string, error) {
	_, err := s.ledger.Mutate(ctx, userID, func(u *model.UserRecord) error {
		if !u.RemoveItem(it.ID) {
			return shop.ErrNotOwned
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.bombs.StartBomb(ctx, o, userID); err != nil {
		_, _ = s.ledger.Mutate(ctx, userID, func(u *model.UserRecord) error {
			u.Inventory = append(u.Inventory, it.ID)
			return nil
		})
		return "", err
	}
	return bombArmedText, nil
}

func (s *ShopService) apply(u *model.UserRecord, it shop.Item, now time.Time) string {
	switch it.Effect {
	case shop.EffectMidasTouch:
		ledger.AddBoostUses(u, model.BoostMidasTouch, 3)
		return "✨ Midas Touch is on! Your next 3 /banana have a bigger golden chance!"
	case shop.EffectMultiplier:
		ledger.AddBoostUses(u, model.BoostMultiplier, 5)
		return "🌀 Multiplier is on! Your next 5 /banana pay double!"
	case shop.EffectTimeAccelerator:
		ledger.ExtendBoost(u, model.BoostTimeAccelerator, now, time.Hour)
		return "⏳ Time Accelerator is on! For 1 hour the /banana cooldown is 15 minutes!"
	case shop.EffectTimeMachine:
		ledger.AddBoostUses(u, model.BoostTimeMachine, 1)
		return "🌀 Time Machine is charged! Your next /banana skips the cooldown!"
	case shop.EffectPrefixTop:
		u.PrefixUntil = later(u.PrefixUntil, now).Add(prefixDuration)
		return "🏷️ Your name wears a 🍌 in /leaderboard for a day!"
	case shop.EffectMysticDrum:
		return game.Pick(s.rand, shop.MysticDrum)
	case shop.EffectBananaBomb:
		return bombArmedText
	default:
		return "🎉 Effect activated!"
	}
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// unlock grants the achievement behind a shop item. The tycoon's secret
// bonus is paid only on the first unlock.
func (s *ShopService) unlock(ctx context.Context, o Origin, userID int64, it shop.Item) string {
	a, ok := ledger.ShopAchievements[it.ID]
	if !ok {
		return "🎉 Effect activated!"
	}
	if !s.ledger.Unlock(ctx, userID, a) {
		return "🏅 You already hold " + a.Name
	}
	if it.Effect != shop.EffectSecretBonus {
		return "🏆 Achievement unlocked: " + a.Name + "\n" + a.Message
	}

	chatID, threadID := o.ChatID, o.ThreadID
	s.sched.AfterFunc(secretBonusDelay, func() {
		balance := s.ledger.AddCurrency(context.Background(), userID, secretBonus)
		text := fmt.Sprintf("😄 Just kidding!\n\nHere are %d🍌 for your trouble!\n💰 New balance: %d🍌", secretBonus, balance)
		send(s.msg, chatID, text, messenger.Options{ThreadID: threadID, Silent: true})
	})
	return "🔒 You became a Banana Tycoon... and all your bananas vanished! But don't worry..."
}

// BuyUpgrade buys level of the kind track.
func (s *ShopService) BuyUpgrade(ctx context.Context, userID int64, kind model.UpgradeKind, level int) (*model.UserRecord, error) {
	up, ok := shop.LookupUpgrade(kind)
	if !ok {
		return nil, shop.ErrUnknownUpgrade
	}
	var rec *model.UserRecord
	err := s.userLock.WithLock(userID, func() error {
		var err error
		rec, err = s.ledger.Mutate(ctx, userID, func(u *model.UserRecord) error {
			if err := up.CheckLevel(u.Upgrades[kind], level); err != nil {
				return err
			}
			price := up.Price(level)
			if u.Balance < price {
				return apperr.Inputf("❌ not enough bananas! You need %d🍌", price)
			}
			u.Balance -= price
			u.Upgrades[kind] = level
			return nil
		})
		return err
	})
	return rec, err
}

// Callback routes a press on a shop, inventory or upgrade menu. Menus
// belong to the user they were opened for.
func (s *ShopService) Callback(ctx context.Context, o Origin, userID int64, data string) (string, error) {
	action, owner, args, ok := shop.ParseData(data)
	if !ok {
		return "", ErrBadShopData
	}
	if owner != userID {
		return "", ErrNotYourMenu
	}
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch action {
	case shop.CallbackBack:
		u := s.ledger.GetOrCreate(ctx, userID)
		edit(s.msg, o.Ref(), shop.FormatMainMessage(u.Balance), messenger.Options{Markup: shop.BuildMainPanel(userID)})
	case shop.CallbackCategory:
		cat := shop.Category(arg(0))
		u := s.ledger.GetOrCreate(ctx, userID)
		edit(s.msg, o.Ref(), shop.FormatCategoryMessage(cat, u.Balance), messenger.Options{Markup: shop.BuildCategoryPanel(s.catalog, cat, userID, u)})
	case shop.CallbackItem:
		it, ok := s.catalog.Item(arg(0))
		if !ok {
			return "", shop.ErrUnknownItem
		}
		u := s.ledger.GetOrCreate(ctx, userID)
		edit(s.msg, o.Ref(), shop.FormatItemDetail(it, s.catalog.Stock(it.ID), u.Balance), messenger.Options{Markup: shop.BuildItemPanel(it, userID)})
	case shop.CallbackBuy:
		it, ok := s.catalog.Item(arg(0))
		if !ok {
			return "", shop.ErrUnknownItem
		}
		if s.catalog.Stock(it.ID) == 0 {
			return "", shop.ErrSoldOut
		}
		u := s.ledger.GetOrCreate(ctx, userID)
		if u.Balance < it.Price {
			return "", apperr.Inputf("🍌 you need %d more🍌!", it.Price-u.Balance)
		}
		edit(s.msg, o.Ref(), shop.FormatConfirmMessage(it, u.Balance), messenger.Options{Markup: shop.BuildConfirmPanel(it, userID)})
	case shop.CallbackConfirm:
		it, u, err := s.Purchase(ctx, userID, arg(0))
		if err != nil {
			return "", err
		}
		edit(s.msg, o.Ref(), shop.FormatPurchased(it, u.Balance), messenger.Options{Markup: shop.BuildPurchasedPanel(userID)})
		return "🎉 Purchased!", nil
	case shop.CallbackInvOpen:
		u := s.ledger.GetOrCreate(ctx, userID)
		edit(s.msg, o.Ref(), shop.FormatInventoryMessage(s.catalog, u), messenger.Options{Markup: shop.BuildInventoryPanel(s.catalog, u)})
	case shop.CallbackInvUse:
		it, ok := s.catalog.Item(arg(0))
		if !ok {
			return "", shop.ErrUnknownItem
		}
		result, err := s.UseItem(ctx, o, userID, it.ID)
		if err != nil {
			return "", err
		}
		edit(s.msg, o.Ref(), fmt.Sprintf("🎯 Used item: %s\n\n%s\n\n🆔 ID: %s", it.Name, result, it.ID), messenger.Options{})
	case shop.CallbackUpgrade:
		level, err := strconv.Atoi(arg(1))
		if err != nil {
			return "", ErrBadShopData
		}
		u, err := s.BuyUpgrade(ctx, userID, model.UpgradeKind(arg(0)), level)
		if err != nil {
			return "", err
		}
		edit(s.msg, o.Ref(), shop.FormatUpgradesMessage(u), messenger.Options{Markup: shop.BuildUpgradesPanel(u)})
		return "🔧 Upgrade bought!", nil
	case shop.CallbackUpgClose:
		_ = s.msg.Delete(o.Ref())
	default:
		return "", ErrBadShopData
	}
	return "", nil
}
