package event

import (
	"errors"
	"sync"
	"time"

	"banana-bot/internal/apperr"
	"banana-bot/internal/game"
	"banana-bot/internal/session"
	"banana-bot/internal/timer"
)

var (
	ErrBombCooldown = apperr.Input("💣 a banana bomb went off here recently! Try again later.")
	ErrBombLive     = apperr.Input("💣 a banana bomb is already ticking in this chat!")
)

// BombConfig tunes banana bombs.
type BombConfig struct {
	Duration       time.Duration
	Cooldown       time.Duration
	PayoutInterval time.Duration
	Min, Max       int64
}

// Bomb is a live banana bomb.
type Bomb struct {
	ActivatorID int64
	StartedAt   time.Time
	EndsAt      time.Time
	ThreadID    int

	lastPaid map[int64]time.Time
}

// Bombs keeps at most one live bomb per chat and enforces the per-chat
// cooldown between bomb starts.
type Bombs struct {
	cfg   BombConfig
	reg   *session.Registry[*Bomb]
	clock timer.Scheduler
	rand  game.Random

	mu      sync.Mutex
	started map[int64]time.Time
}

// NewBombs creates a bomb tracker.
func NewBombs(cfg BombConfig, sched timer.Scheduler, r game.Random, opts ...session.Option) *Bombs {
	return &Bombs{
		cfg:     cfg,
		reg:     session.NewRegistry[*Bomb](session.KindBomb, sched, opts...),
		clock:   sched,
		rand:    r,
		started: make(map[int64]time.Time),
	}
}

// Start arms a bomb in chatID. onExpire runs once the bomb has gone quiet.
func (b *Bombs) Start(chatID, activatorID int64, threadID int, onExpire func(chatID int64)) (Bomb, error) {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	if last, ok := b.started[chatID]; ok && now.Sub(last) < b.cfg.Cooldown {
		return Bomb{}, ErrBombCooldown
	}

	bomb, _, err := b.reg.TryCreate(chatID, func(session.Handle) (*Bomb, error) {
		return &Bomb{
			ActivatorID: activatorID,
			StartedAt:   now,
			EndsAt:      now.Add(b.cfg.Duration),
			ThreadID:    threadID,
			lastPaid:    make(map[int64]time.Time),
		}, nil
	})
	if err != nil {
		if errors.Is(err, session.ErrAlreadyActive) {
			return Bomb{}, ErrBombLive
		}
		return Bomb{}, err
	}
	b.started[chatID] = now

	if _, err := b.reg.Arm(chatID, b.cfg.Duration, func(_ *Bomb, h session.Handle) {
		if onExpire != nil {
			onExpire(h.ChatID)
		}
	}); err != nil {
		return Bomb{}, err
	}
	return *bomb, nil
}

// Payout rolls a reward for a message by userID while a bomb is live. ok is
// false when there is no bomb or the user was paid within the interval.
func (b *Bombs) Payout(chatID, userID int64) (amount int64, ok bool) {
	now := b.clock.Now()
	_, _, err := b.reg.Update(chatID, func(bomb *Bomb, _ session.Handle) error {
		if !now.Before(bomb.EndsAt) {
			return session.ErrNotFound
		}
		if last, seen := bomb.lastPaid[userID]; seen && now.Sub(last) < b.cfg.PayoutInterval {
			return errPaidRecently
		}
		amount = game.Between(b.rand, b.cfg.Min, b.cfg.Max)
		bomb.lastPaid[userID] = now
		return nil
	})
	if err != nil {
		return 0, false
	}
	return amount, true
}

var errPaidRecently = errors.New("paid recently")

// Live reports whether chatID has a ticking bomb.
func (b *Bombs) Live(chatID int64) bool {
	_, _, ok := b.reg.Get(chatID)
	return ok
}
