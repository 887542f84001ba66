package handler

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/apperr"
	"banana-bot/internal/config"
	"banana-bot/internal/metrics"
)

type fakeContext struct {
	tele.Context
	msg       *tele.Message
	replies   []string
	responses []*tele.CallbackResponse
}

func (c *fakeContext) Message() *tele.Message { return c.msg }

func (c *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what.(string))
	return nil
}

func (c *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		resp = append(resp, nil)
	}
	c.responses = append(c.responses, resp[0])
	return nil
}

func newBase(t *testing.T) *Base {
	t.Helper()
	cfg := &config.Config{Bot: config.BotConfig{Nickname: "Vanito"}, Admin: config.AdminConfig{IDs: []int64{1}}}
	return NewBase(cfg, metrics.New(prometheus.NewRegistry()))
}

func TestRender(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		msg  string
		want string
	}{
		{apperr.KindInput, "it's not your turn! 🕒", "❌ It's not your turn! 🕒"},
		{apperr.KindForbidden, "not for you, minion!", "🚫 Not for you, minion!"},
		{apperr.KindStale, "this game is already over", "⌛ This game is already over"},
		{apperr.KindInput, "🍌 item not found!", "🍌 item not found!"},
		{apperr.KindStale, "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, render(tt.kind, tt.msg))
	}
}

func TestDone(t *testing.T) {
	b := newBase(t)

	c := &fakeContext{}
	require.NoError(t, b.done(c, "stats", nil))
	assert.Empty(t, c.replies)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.CommandsHandled.WithLabelValues("stats", "ok")))

	require.NoError(t, b.done(c, "vote", apperr.Input("not among the suspects")))
	assert.Equal(t, []string{"❌ Not among the suspects"}, c.replies)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.CommandsHandled.WithLabelValues("vote", "input")))

	boom := errors.New("boom")
	assert.ErrorIs(t, b.done(c, "vote", boom), boom, "internal errors go to OnError")
	assert.Len(t, c.replies, 1)
}

func TestAnswer(t *testing.T) {
	b := newBase(t)
	c := &fakeContext{}

	require.NoError(t, b.answer(c, "ttt_move", "✅ Move made", nil))
	require.NoError(t, b.answer(c, "ttt_move", "", apperr.Input("it's not your turn!")))
	require.NoError(t, b.answer(c, "ttt_move", "", apperr.Forbidden("you are not playing in this game!")))

	require.Len(t, c.responses, 3)
	assert.Equal(t, "✅ Move made", c.responses[0].Text)
	assert.False(t, c.responses[1].ShowAlert, "input errors are a toast")
	assert.True(t, c.responses[2].ShowAlert)

	boom := errors.New("boom")
	assert.ErrorIs(t, b.answer(c, "ttt_move", "", boom), boom)
	assert.Len(t, c.responses, 4, "the spinner is still cleared")
}

func TestTargetSkipsTopicHeader(t *testing.T) {
	alice := &tele.User{ID: 2, FirstName: "Alice"}
	c := &fakeContext{msg: &tele.Message{ReplyTo: &tele.Message{Sender: alice, TopicCreated: &tele.Topic{Name: "general"}}}}
	assert.Nil(t, targetPlayer(c))

	c.msg.ReplyTo.TopicCreated = nil
	p := targetPlayer(c)
	require.NotNil(t, p)
	assert.Equal(t, "Alice", p.Display())
}

func TestTextTriggers(t *testing.T) {
	h := &TextHandler{Base: newBase(t), triggers: map[string]tele.HandlerFunc{
		"vanito banana": func(tele.Context) error { return nil },
	}}

	_, ok := h.trigger("  Vanito BANANA please")
	assert.True(t, ok)
	_, ok = h.trigger("vanito banana")
	assert.True(t, ok)
	_, ok = h.trigger("vanito bananas")
	assert.False(t, ok, "the trigger word must stand alone")
	_, ok = h.trigger("banana")
	assert.False(t, ok)
}
