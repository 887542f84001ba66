// Package event runs chat-wide timed events and banana bombs.
package event

import (
	"errors"
	"slices"
	"time"

	"banana-bot/internal/apperr"
	"banana-bot/internal/game"
	"banana-bot/internal/session"
	"banana-bot/internal/timer"
)

// Kind names an event type.
type Kind string

const (
	BananaRain Kind = "banana_rain"
	BananaFest Kind = "banana_fest"
)

// Template is the fixed configuration of an event kind.
type Template struct {
	Kind        Kind
	Description string
	Goal        int64
	Reward      int64
	Duration    time.Duration
}

// Templates lists the event kinds.
var Templates = []Template{
	{
		Kind:        BananaRain,
		Description: "☔️ Banana rain!\nCollect 50🍌 as a whole chat!",
		Goal:        50,
		Reward:      5,
		Duration:    time.Hour,
	},
	{
		Kind:        BananaFest,
		Description: "🎪 Banana fest!\nCollect 100🍌 for a mega reward (10 🍌)!",
		Goal:        100,
		Reward:      10,
		Duration:    2 * time.Hour,
	},
}

// Lookup finds the template for kind.
func Lookup(kind string) (Template, bool) {
	for _, s := range Templates {
		if string(s.Kind) == kind {
			return s, true
		}
	}
	return Template{}, false
}

var (
	ErrNoEvent = apperr.Stale("ℹ️ there is no active event in this chat")
	ErrRunning = apperr.Input("⚠️ an event is already running in this chat")
)

// Event is a running chat event.
type Event struct {
	Template
	Progress     int64
	Participants []int64
	StartedAt    time.Time
}

// Expired reports whether the event's duration has elapsed at now.
func (e *Event) Expired(now time.Time) bool {
	return now.Sub(e.StartedAt) > e.Duration
}

// Remaining returns the time left at now.
func (e *Event) Remaining(now time.Time) time.Duration {
	return max(e.Duration-now.Sub(e.StartedAt), 0)
}

// GoalReached reports whether progress met the goal.
func (e *Event) GoalReached() bool {
	return e.Progress >= e.Goal
}

func (e *Event) clone() Event {
	c := *e
	c.Participants = slices.Clone(e.Participants)
	return c
}

// Manager keeps at most one event per chat. Expiry is lazy: a lapsed event
// is purged on the next touch instead of by a timer.
type Manager struct {
	reg   *session.Registry[*Event]
	clock timer.Scheduler
	rand  game.Random
}

// NewManager creates an event manager.
func NewManager(sched timer.Scheduler, r game.Random, opts ...session.Option) *Manager {
	return &Manager{
		reg:   session.NewRegistry[*Event](session.KindEvent, sched, opts...),
		clock: sched,
		rand:  r,
	}
}

func (m *Manager) purge(chatID int64) {
	now := m.clock.Now()
	m.reg.DestroyWhen(chatID, func(e *Event, _ session.Handle) bool {
		return e.Expired(now)
	})
}

// Start opens an event of kind in chatID. An empty or unknown kind picks
// one at random.
func (m *Manager) Start(chatID int64, kind string) (Event, error) {
	tmpl, ok := Lookup(kind)
	if !ok {
		tmpl = game.Pick(m.rand, Templates)
	}

	m.purge(chatID)
	e, _, err := m.reg.TryCreate(chatID, func(session.Handle) (*Event, error) {
		return &Event{Template: tmpl, StartedAt: m.clock.Now()}, nil
	})
	if err != nil {
		if errors.Is(err, session.ErrAlreadyActive) {
			return Event{}, ErrRunning
		}
		return Event{}, err
	}
	return e.clone(), nil
}

// Record adds amount to the chat's event progress and enrolls userID. It
// returns false when no event is running or the event has lapsed.
func (m *Manager) Record(chatID, userID, amount int64) bool {
	now := m.clock.Now()
	_, _, err := m.reg.Update(chatID, func(e *Event, _ session.Handle) error {
		if e.Expired(now) {
			return ErrNoEvent
		}
		e.Progress += amount
		if !slices.Contains(e.Participants, userID) {
			e.Participants = append(e.Participants, userID)
		}
		return nil
	})
	if errors.Is(err, ErrNoEvent) {
		m.purge(chatID)
	}
	return err == nil
}

// Status returns a copy of the chat's running event.
func (m *Manager) Status(chatID int64) (Event, error) {
	m.purge(chatID)
	var out Event
	_, _, err := m.reg.Update(chatID, func(e *Event, _ session.Handle) error {
		out = e.clone()
		return nil
	})
	if err != nil {
		return Event{}, ErrNoEvent
	}
	return out, nil
}

// End removes the chat's event and returns it for payout. An event whose
// duration has lapsed but that nobody touched since is still returned.
func (m *Manager) End(chatID int64) (Event, error) {
	e, ok := m.reg.Destroy(chatID)
	if !ok {
		return Event{}, ErrNoEvent
	}
	return e.clone(), nil
}

// Now returns the manager's clock.
func (m *Manager) Now() time.Time {
	return m.clock.Now()
}
