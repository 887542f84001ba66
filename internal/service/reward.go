package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"banana-bot/internal/apperr"
	"banana-bot/internal/config"
	"banana-bot/internal/event"
	"banana-bot/internal/game"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/metrics"
	"banana-bot/internal/model"
	"banana-bot/internal/shop"
	"banana-bot/internal/timer"
)

// Reward chances, in percent of a roll in [0,100).
const (
	diamondChance  = 0.33
	goldChance     = 2.0
	theftThreshold = 22.33
	diamondPayout  = 50
	goldPayout     = 10
)

// RewardKind tells what the /banana roll produced.
type RewardKind int

// Reward kinds.
const (
	RewardRegular RewardKind = iota
	RewardGold
	RewardDiamond
	RewardTheft
)

// Reward is the outcome of one /banana claim.
type Reward struct {
	Kind            RewardKind
	Amount          int64
	Stolen          int64
	Lucky           bool
	Multiplied      bool
	BagBonus        int64
	UsedTimeMachine bool
	Record          *model.UserRecord
	Achievements    []ledger.Achievement
}

// RewardService runs the cooldown-gated /banana reward.
type RewardService struct {
	cfg       config.RewardConfig
	ledger    *ledger.Ledger
	events    *event.Manager
	msg       messenger.Messenger
	sched     timer.Scheduler
	rand      game.Random
	metrics   *metrics.Metrics
	luckyHour int
}

// NewRewardService creates a new RewardService instance. A negative lucky
// hour in cfg is replaced by a random hour.
func NewRewardService(
	cfg config.RewardConfig,
	l *ledger.Ledger,
	events *event.Manager,
	msg messenger.Messenger,
	sched timer.Scheduler,
	r game.Random,
	m *metrics.Metrics,
) *RewardService {
	hour := cfg.LuckyHour
	if hour < 0 {
		hour = r.IntN(24)
	}
	return &RewardService{
		cfg:       cfg,
		ledger:    l,
		events:    events,
		msg:       msg,
		sched:     sched,
		rand:      r,
		metrics:   m,
		luckyHour: hour,
	}
}

// LuckyHour returns the hour of day with the 1.5x bonus.
func (s *RewardService) LuckyHour() int {
	return s.luckyHour
}

// cooldownError reports the time left before the next claim.
func cooldownError(remaining time.Duration, last time.Time) error {
	return apperr.Inputf("⏳ Too early! Next banana in %s\n⌛ Last time: %s",
		clock(remaining), last.Format("15:04"))
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// Claim computes and books one reward for userID in chatID.
func (s *RewardService) Claim(ctx context.Context, chatID, userID int64) (Reward, error) {
	now := s.sched.Now()
	var r Reward

	rec, err := s.ledger.Mutate(ctx, userID, func(u *model.UserRecord) error {
		r = Reward{}

		cooldown := s.cfg.Cooldown
		if ledger.BoostActive(u, model.BoostTimeAccelerator, now) {
			cooldown = s.cfg.AcceleratedCooldown
		}
		if elapsed := now.Sub(u.LastRewardAt); !u.LastRewardAt.IsZero() && elapsed < cooldown {
			if !ledger.TakeBoostUse(u, model.BoostTimeMachine) {
				return cooldownError(cooldown-elapsed, u.LastRewardAt)
			}
			r.UsedTimeMachine = true
		}

		multiplier := 1.0
		if ledger.BoostActive(u, model.BoostMultiplier, now) {
			multiplier = 2.0
			r.Multiplied = true
		}
		hour := 1.0
		if now.Hour() == s.luckyHour {
			hour = 1.5
			r.Lucky = true
		}

		base := game.Between(s.rand, s.cfg.MinAmount, s.cfg.MaxAmount)
		amount := int64(float64(base) * hour * multiplier)
		r.BagBonus = shop.BagBonus(u.Upgrades[model.UpgradeBananaBag])
		amount += r.BagBonus

		gold := goldChance
		if ledger.BoostActive(u, model.BoostMidasTouch, now) {
			gold *= 3
		}
		diamond := diamondChance
		tg, td := shop.TotemBonus(u.Upgrades[model.UpgradeBananaTotem])
		gold += tg
		diamond += td

		roll := s.rand.Float64() * 100
		switch {
		case roll < diamond:
			r.Kind = RewardDiamond
			amount = diamondPayout
			u.DiamondBananas++
		case roll < diamond+gold:
			r.Kind = RewardGold
			amount = int64(goldPayout * multiplier)
		case roll < theftThreshold:
			stolen := min(game.Between(s.rand, 1, 3), max(u.Balance, 0))
			if stolen > 0 {
				u.Balance -= stolen
				r.Kind = RewardTheft
				r.Stolen = stolen
			}
		}

		ledger.Credit(u, amount)
		r.Amount = amount
		u.LastRewardAt = now
		ledger.ConsumeRewardBoosts(u)
		ledger.RecordResult(u, true)
		return nil
	})
	if err != nil {
		return Reward{}, err
	}

	s.events.Record(chatID, userID, r.Amount)
	r.Achievements = s.ledger.EvaluateAll(ctx, userID)
	if len(r.Achievements) > 0 {
		rec, _ = s.ledger.Get(userID)
	}
	r.Record = rec
	s.metrics.Granted("banana", r.Amount)
	return r, nil
}

// Banana answers the /banana command and cleans both messages up later.
func (s *RewardService) Banana(ctx context.Context, o Origin, userID int64) error {
	r, err := s.Claim(ctx, o.ChatID, userID)
	text := ""
	switch {
	case err == nil:
		text = FormatReward(r, s.sched.Now())
	case apperr.KindOf(err) == apperr.KindInput:
		text = apperr.Message(err)
	default:
		return err
	}

	reply := send(s.msg, o.ChatID, text, o.reply())
	deleteLater(s.sched, s.msg, s.cfg.CleanupDelay, o.Ref(), reply)
	return nil
}

// FormatReward renders a claim result.
func FormatReward(r Reward, now time.Time) string {
	var b strings.Builder
	u := r.Record

	if r.UsedTimeMachine {
		b.WriteString("⏰ The time machine skipped your cooldown!\n")
	}
	switch r.Kind {
	case RewardDiamond:
		b.WriteString("🎖 WOW! You got a diamond banana!\n")
		fmt.Fprintf(&b, "💎 Total: +%d bananas\n", r.Amount)
	case RewardGold:
		b.WriteString("🎖 WOW! You got a golden banana!\n")
		fmt.Fprintf(&b, "💎 Total: +%d bananas\n", r.Amount)
	case RewardTheft:
		fmt.Fprintf(&b, "⚠️ Oh no! The minions stole %d🍌!\n", r.Stolen)
		fmt.Fprintf(&b, "💎 Total: +%d bananas\n", r.Amount)
	default:
		var mods []string
		if r.Lucky {
			mods = append(mods, "lucky hour x1.5")
		}
		if r.Multiplied {
			mods = append(mods, "boost x2")
		}
		if r.BagBonus > 0 {
			mods = append(mods, fmt.Sprintf("bag +%d", r.BagBonus))
		}
		if len(mods) > 0 {
			fmt.Fprintf(&b, "🍌 Got +%d banana(s) (%s)\n", r.Amount, strings.Join(mods, " + "))
		} else {
			fmt.Fprintf(&b, "🍌 Got +%d banana(s)\n", r.Amount)
		}
	}

	fmt.Fprintf(&b, "💰 You now have: %d bananas\n", u.Balance)
	fmt.Fprintf(&b, "🤑 Earned in total: %d\n", u.LifetimeEarned)
	b.WriteString("🚀 At this rate we'll fly to space!")

	if active := activeBoosts(u, now); len(active) > 0 {
		fmt.Fprintf(&b, "\n\n🔮 Active boosts: %s", strings.Join(active, ", "))
	}
	for _, a := range r.Achievements {
		fmt.Fprintf(&b, "\n\n🎉 %s: %s", a.Name, a.Message)
	}
	return b.String()
}

func activeBoosts(u *model.UserRecord, now time.Time) []string {
	var out []string
	for _, kind := range []model.BoostKind{
		model.BoostMidasTouch, model.BoostMultiplier, model.BoostTimeAccelerator, model.BoostTimeMachine,
	} {
		v, ok := u.Boosts[kind]
		if !ok || !ledger.BoostActive(u, kind, now) {
			continue
		}
		out = append(out, shop.FormatBoost(kind, v))
	}
	if lvl := u.Upgrades[model.UpgradeBananaBag]; lvl > 0 {
		out = append(out, fmt.Sprintf("Banana Bag lvl %d (+%d)", lvl, shop.BagBonus(lvl)))
	}
	if lvl := u.Upgrades[model.UpgradeBananaTotem]; lvl > 0 {
		g, d := shop.TotemBonus(lvl)
		out = append(out, fmt.Sprintf("Banana Totem lvl %d (+%g%%/+%g%%)", lvl, g, d))
	}
	return out
}
