package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banana-bot/internal/event"
	"banana-bot/internal/game/gametest"
)

var bombCfg = event.BombConfig{
	Duration:       time.Minute,
	Cooldown:       time.Hour,
	PayoutInterval: 10 * time.Second,
	Min:            3,
	Max:            5,
}

func newEvents(f *fixture, values ...int) (*EventService, *event.Manager) {
	r := gametest.NewSeq(values...)
	events := event.NewManager(f.clock, r)
	bombs := event.NewBombs(bombCfg, f.clock, r)
	return NewEventService(events, bombs, f.ledger, f.msg, r, f.metrics), events
}

func TestEvent_AdminOnly(t *testing.T) {
	f := newFixture(t)
	svc, _ := newEvents(f)

	assert.ErrorIs(t, svc.Start(f.ctx, f.origin(), false, "banana_rain"), ErrAdminOnly)
	assert.ErrorIs(t, svc.End(f.ctx, f.origin(), false), ErrAdminOnly)
	assert.ErrorIs(t, svc.Status(f.ctx, f.origin()), event.ErrNoEvent)
}

// **Feature: banana-bot, Property 13: Ending an event pays every participant**
func TestEvent_EndPaysParticipants(t *testing.T) {
	f := newFixture(t)
	svc, events := newEvents(f)
	require.NoError(t, svc.Start(f.ctx, f.origin(), true, "banana_rain"))
	assert.ErrorIs(t, svc.Start(f.ctx, f.origin(), true, "banana_rain"), event.ErrRunning)

	events.Record(testChat, alice.ID, 30)
	events.Record(testChat, bob.ID, 25)
	require.NoError(t, svc.Status(f.ctx, f.origin()))
	assert.Contains(t, f.lastText(t, "Send"), "Progress: 55/50")

	require.NoError(t, svc.End(f.ctx, f.origin(), true))
	text := f.lastText(t, "Send")
	assert.Contains(t, text, "Each of the 2 participants gets 5 bananas")
	assert.Contains(t, text, "Goal reached")

	for _, id := range []int64{alice.ID, bob.ID} {
		u, ok := f.ledger.Get(id)
		require.True(t, ok)
		assert.Equal(t, 1, u.EventWins)
		assert.GreaterOrEqual(t, u.Balance, int64(5))
	}
	assert.ErrorIs(t, svc.End(f.ctx, f.origin(), true), event.ErrNoEvent)
}

func TestEvent_EndAfterDurationStillPays(t *testing.T) {
	f := newFixture(t)
	svc, events := newEvents(f)
	require.NoError(t, svc.Start(f.ctx, f.origin(), true, "banana_rain"))
	events.Record(testChat, alice.ID, 50)

	f.clock.Advance(2 * time.Hour)

	require.NoError(t, svc.End(f.ctx, f.origin(), true))
	assert.Contains(t, f.lastText(t, "Send"), "Goal reached")
	u, ok := f.ledger.Get(alice.ID)
	require.True(t, ok)
	assert.Equal(t, 1, u.EventWins)
	assert.GreaterOrEqual(t, u.Balance, int64(5))
}

func TestEvent_EndWithoutParticipants(t *testing.T) {
	f := newFixture(t)
	svc, _ := newEvents(f)
	require.NoError(t, svc.Start(f.ctx, f.origin(), true, "banana_fest"))

	require.NoError(t, svc.End(f.ctx, f.origin(), true))
	assert.Contains(t, f.lastText(t, "Send"), "Nobody took part")
}

func TestEvent_BombPaysOncePerInterval(t *testing.T) {
	f := newFixture(t)
	// Between(3,5) draws 3+v%3; Float64 draws v/1000 for the notice roll.
	svc, _ := newEvents(f, 1, 0)
	require.NoError(t, svc.StartBomb(f.ctx, f.origin(), alice.ID))

	svc.Message(f.ctx, f.origin(), bob)
	u, _ := f.ledger.Get(bob.ID)
	assert.Equal(t, int64(4), u.Balance)
	assert.Contains(t, f.lastText(t, "Send"), "+4🍌 for Bob")

	svc.Message(f.ctx, f.origin(), bob)
	u, _ = f.ledger.Get(bob.ID)
	assert.Equal(t, int64(4), u.Balance, "paid within the interval")

	f.clock.Advance(10 * time.Second)
	svc.Message(f.ctx, f.origin(), bob)
	u, _ = f.ledger.Get(bob.ID)
	assert.Equal(t, int64(8), u.Balance)
}

func TestEvent_BombGoesQuietAndCoolsDown(t *testing.T) {
	f := newFixture(t)
	svc, _ := newEvents(f)
	require.NoError(t, svc.StartBomb(f.ctx, f.origin(), alice.ID))
	assert.ErrorIs(t, svc.StartBomb(f.ctx, f.origin(), alice.ID), event.ErrBombLive)

	f.clock.Advance(time.Minute)
	assert.Contains(t, f.lastText(t, "Send"), "gone quiet")

	svc.Message(f.ctx, f.origin(), bob)
	_, ok := f.ledger.Get(bob.ID)
	assert.False(t, ok, "no payout after the bomb")

	assert.ErrorIs(t, svc.StartBomb(f.ctx, f.origin(), alice.ID), event.ErrBombCooldown)
	f.clock.Advance(time.Hour)
	assert.NoError(t, svc.StartBomb(f.ctx, f.origin(), alice.ID))
}
