package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"banana-bot/internal/config"
	"banana-bot/internal/moderation"
)

func newModeration(f *fixture) *ModerationService {
	cfg := config.ModerationConfig{
		ConfirmTimeout: time.Minute,
		JailDefault:    30 * time.Minute,
		JailMax:        24 * time.Hour,
		KickDuration:   time.Minute,
	}
	return NewModerationService(cfg, f.ledger, f.msg, f.clock)
}

func target() *Target {
	return &Target{Player: bob}
}

// **Feature: banana-bot, Property 9: Each warning applies the ladder**
func TestModeration_WarnLadder(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	require.NoError(t, svc.Warn(f.ctx, f.origin(), true, target()))
	assert.Contains(t, f.lastText(t, "Send"), "1st warning")
	f.msg.AssertNotCalled(t, "Mute", testChat, bob.ID, mock.Anything)

	require.NoError(t, svc.Warn(f.ctx, f.origin(), true, target()))
	f.msg.AssertCalled(t, "Mute", testChat, bob.ID, testStart.Add(30*time.Minute))
	assert.Contains(t, f.lastText(t, "Send"), "30 minutes")

	for range moderation.MaxWarns - 3 {
		require.NoError(t, svc.Warn(f.ctx, f.origin(), true, target()))
	}
	u, _ := f.ledger.Get(bob.ID)
	assert.Equal(t, moderation.MaxWarns-1, u.WarnCount)

	require.NoError(t, svc.Warn(f.ctx, f.origin(), true, target()))
	f.msg.AssertCalled(t, "Ban", testChat, bob.ID, time.Time{})
	assert.Contains(t, f.lastText(t, "Send"), "Permanent BAN")
	u, _ = f.ledger.Get(bob.ID)
	assert.Equal(t, 0, u.WarnCount, "the ban resets the ladder")
}

func TestModeration_FailedBanKeepsWarnings(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)
	f.fail("Ban", errors.New("not enough rights"), mock.Anything, mock.Anything, mock.Anything)

	for range moderation.MaxWarns {
		require.NoError(t, svc.Warn(f.ctx, f.origin(), true, target()))
	}
	assert.Contains(t, f.lastText(t, "Send"), "Could not ban")
	u, _ := f.ledger.Get(bob.ID)
	assert.Equal(t, moderation.MaxWarns, u.WarnCount)
}

func TestModeration_Guards(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	assert.ErrorIs(t, svc.Warn(f.ctx, f.origin(), false, target()), ErrAdminOnly)
	assert.ErrorIs(t, svc.Warn(f.ctx, f.origin(), true, nil), ErrNoTarget)
	assert.ErrorIs(t, svc.Ban(f.ctx, f.origin(), true, &Target{Player: bob, Admin: true}), ErrProtectedTarget)
	assert.ErrorIs(t, svc.Kick(f.ctx, f.origin(), true, &Target{Player: bob, Bot: true}), ErrProtectedTarget)
	f.msg.AssertNotCalled(t, "Ban", mock.Anything, mock.Anything, mock.Anything)
}

func TestModeration_UnwarnAndWarns(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	require.NoError(t, svc.Warns(f.ctx, f.origin(), bob))
	assert.Contains(t, f.lastText(t, "Send"), "clean record")

	assert.Error(t, svc.Unwarn(f.ctx, f.origin(), true, target()))

	require.NoError(t, svc.Warn(f.ctx, f.origin(), true, target()))
	require.NoError(t, svc.Warns(f.ctx, f.origin(), bob))
	assert.Contains(t, f.lastText(t, "Send"), "1/10")

	require.NoError(t, svc.Unwarn(f.ctx, f.origin(), true, target()))
	assert.Contains(t, f.lastText(t, "Send"), "Warnings left: 0/10")
}

func TestModeration_JailClampsDuration(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	require.NoError(t, svc.Jail(f.ctx, f.origin(), true, target(), []string{"100000", "spam"}))
	f.msg.AssertCalled(t, "Mute", testChat, bob.ID, testStart.Add(24*time.Hour))
	assert.Contains(t, f.lastText(t, "Send"), "Reason: spam")
}

func TestModeration_KickLetsBackIn(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	require.NoError(t, svc.Kick(f.ctx, f.origin(), true, target()))
	f.msg.AssertCalled(t, "Ban", testChat, bob.ID, testStart.Add(time.Minute))
	f.msg.AssertNotCalled(t, "Unban", testChat, bob.ID)

	f.clock.Advance(time.Minute)
	f.msg.AssertCalled(t, "Unban", testChat, bob.ID)
}

// **Feature: banana-bot, Property 10: Ban and kick wait for the requesting admin**
func TestModeration_TextBanNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	handled, err := svc.Text(f.ctx, f.origin(), alice, true, target(), "ban")
	require.NoError(t, err)
	require.True(t, handled)
	f.msg.AssertNotCalled(t, "Ban", mock.Anything, mock.Anything, mock.Anything)

	buttons := lastButtons(t, f, "Send")
	require.Len(t, buttons, 2)
	unique, args := ParseCallback(buttons[0])
	require.Equal(t, CbConfirm, unique)
	require.Equal(t, []string{args[0], "yes"}, args)

	_, err = svc.Confirm(f.ctx, f.origin(), carol, args[0], true)
	assert.ErrorIs(t, err, moderation.ErrNotRequester)

	notice, err := svc.Confirm(f.ctx, f.origin(), alice, args[0], true)
	require.NoError(t, err)
	assert.Equal(t, "✅ Done", notice)
	f.msg.AssertCalled(t, "Ban", testChat, bob.ID, time.Time{})

	_, err = svc.Confirm(f.ctx, f.origin(), alice, args[0], true)
	assert.ErrorIs(t, err, moderation.ErrConfirmExpired)
}

func TestModeration_ConfirmationExpires(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	_, err := svc.Text(f.ctx, f.origin(), alice, true, target(), "kick")
	require.NoError(t, err)
	_, args := ParseCallback(sendMarkupData(t, f))

	f.clock.Advance(time.Minute)
	assert.Equal(t, 0, svc.Confirmations().Len())
	_, err = svc.Confirm(f.ctx, f.origin(), alice, args[0], true)
	assert.ErrorIs(t, err, moderation.ErrConfirmExpired)
}

func TestModeration_TextCommands(t *testing.T) {
	f := newFixture(t)
	svc := newModeration(f)

	handled, err := svc.Text(f.ctx, f.origin(), alice, true, target(), "hello there")
	assert.NoError(t, err)
	assert.False(t, handled)

	handled, err = svc.Text(f.ctx, f.origin(), alice, true, nil, "warn")
	assert.NoError(t, err)
	assert.False(t, handled, "no reply means no target")

	handled, err = svc.Text(f.ctx, f.origin(), alice, false, target(), "warn")
	assert.True(t, handled)
	assert.ErrorIs(t, err, ErrAdminOnly)

	handled, err = svc.Text(f.ctx, f.origin(), alice, true, target(), "мут 5")
	require.NoError(t, err)
	assert.True(t, handled)
	f.msg.AssertCalled(t, "Mute", testChat, bob.ID, testStart.Add(5*time.Minute))
}
