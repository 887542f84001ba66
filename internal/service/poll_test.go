package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banana-bot/internal/game/poll"
)

func openPoll(t *testing.T, f *fixture, svc *PollService) string {
	t.Helper()
	require.NoError(t, svc.Create(f.ctx, f.origin(), alice.ID, "Best fruit? <Banana> <Apple>"))
	return mustSID(t, svc.Registry())
}

func pollRef() Origin {
	return Origin{ChatID: testChat, MessageID: anchorID}
}

func TestPoll_CreateRendersButtons(t *testing.T) {
	f := newFixture(t)
	svc := NewPollService(f.msg, f.clock)
	sid := openPoll(t, f, svc)

	assert.Contains(t, f.lastText(t, "Send"), "Best fruit?")
	buttons := lastButtons(t, f, "Send")
	require.Len(t, buttons, 3)
	unique, args := ParseCallback(buttons[1])
	assert.Equal(t, CbPollVote, unique)
	assert.Equal(t, []string{sid, "1"}, args)
	unique, _ = ParseCallback(buttons[2])
	assert.Equal(t, CbPollEnd, unique)

	p, _, _ := svc.Registry().Get(testChat)
	assert.Equal(t, anchorID, p.MessageID)
}

func TestPoll_OnePerChat(t *testing.T) {
	f := newFixture(t)
	svc := NewPollService(f.msg, f.clock)
	openPoll(t, f, svc)

	err := svc.Create(f.ctx, f.origin(), bob.ID, "Again? <Yes> <No>")
	assert.ErrorIs(t, err, ErrPollRunning)
	assert.ErrorIs(t, svc.Create(f.ctx, Origin{ChatID: testChat - 1}, bob.ID, "Lonely <one>"), poll.ErrUsage)
}

// **Feature: banana-bot, Property 11: A revote replaces the earlier choice**
func TestPoll_RevoteAndEnd(t *testing.T) {
	f := newFixture(t)
	svc := NewPollService(f.msg, f.clock)
	sid := openPoll(t, f, svc)

	notice, err := svc.Vote(f.ctx, pollRef(), bob.ID, sid, "0")
	require.NoError(t, err)
	assert.Equal(t, "🗳 You voted for: Banana", notice)

	_, err = svc.Vote(f.ctx, pollRef(), bob.ID, sid, "1")
	require.NoError(t, err)
	text := f.lastText(t, "Edit")
	assert.Contains(t, text, "Banana: 0 votes (0%)")
	assert.Contains(t, text, "Apple: 1 votes (100%)")
	assert.Contains(t, text, "Voted: 1")

	_, err = svc.Vote(f.ctx, pollRef(), bob.ID, sid, "7")
	assert.ErrorIs(t, err, poll.ErrBadOption)

	_, err = svc.End(f.ctx, pollRef(), bob.ID, false, sid)
	assert.ErrorIs(t, err, poll.ErrNotOwner)

	notice, err = svc.End(f.ctx, pollRef(), alice.ID, false, sid)
	require.NoError(t, err)
	assert.Equal(t, "📊 Poll closed", notice)
	assert.Contains(t, f.lastText(t, "Edit"), "Poll closed!")
	assert.Equal(t, 0, svc.Registry().Len())

	_, err = svc.Vote(f.ctx, pollRef(), carol.ID, sid, "0")
	assert.ErrorIs(t, err, poll.ErrEnded)
}

func TestPoll_OldButtonsDoNotReachNewPoll(t *testing.T) {
	f := newFixture(t)
	svc := NewPollService(f.msg, f.clock)
	old := openPoll(t, f, svc)
	_, err := svc.End(f.ctx, pollRef(), 99, true, old)
	require.NoError(t, err)

	fresh := openPoll(t, f, svc)
	require.NotEqual(t, old, fresh)

	_, err = svc.Vote(f.ctx, pollRef(), bob.ID, old, "0")
	assert.ErrorIs(t, err, poll.ErrEnded)
	p, _, _ := svc.Registry().Get(testChat)
	results, total := p.Results()
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, results[0].Count)
}
