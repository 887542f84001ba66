// Property-based tests for middleware functions.
// **Feature: banana-bot, Property 14: Admin Permission Check**
// **Feature: banana-bot, Property 15: Whitelist Enforcement**
package bot

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"banana-bot/internal/config"
)

// fakeContext implements the parts of tele.Context the middleware reads.
// Anything else panics through the nil embedded interface.
type fakeContext struct {
	tele.Context
	chat    *tele.Chat
	sender  *tele.User
	replies []string
}

func (c *fakeContext) Chat() *tele.Chat   { return c.chat }
func (c *fakeContext) Sender() *tele.User { return c.sender }
func (c *fakeContext) Text() string       { return "/cmd" }

func (c *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what.(string))
	return nil
}

// run passes c through mw and reports whether the handler was reached.
func run(mw tele.MiddlewareFunc, c tele.Context) bool {
	reached := false
	_ = mw(func(tele.Context) error {
		reached = true
		return nil
	})(c)
	return reached
}

func adminIDs(t *rapid.T) []int64 {
	return rapid.SliceOfNDistinct(rapid.Int64Range(1, 1000000000), 1, 10, rapid.ID[int64]).Draw(t, "adminIDs")
}

// TestAdminPermissionCheckProperty tests the admin permission check logic.
// *For any* admin command, the handler runs iff the sender is a configured admin.
func TestAdminPermissionCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := adminIDs(t)
		cfg := &config.Config{Admin: config.AdminConfig{IDs: ids}}

		userID := rapid.OneOf(
			rapid.SampledFrom(ids),
			rapid.Int64Range(1, 1000000000),
		).Draw(t, "userID")
		c := &fakeContext{sender: &tele.User{ID: userID}}

		reached := run(AdminMiddleware(cfg), c)
		expected := slices.Contains(ids, userID)
		if reached != expected {
			t.Fatalf("admin check mismatch: userID=%d, adminIDs=%v, expected=%v, got=%v", userID, ids, expected, reached)
		}
		if !reached && len(c.replies) != 1 {
			t.Fatalf("non-admin should get exactly one refusal, got %v", c.replies)
		}
	})
}

// TestWhitelistEnforcementProperty tests the whitelist enforcement logic.
// *For any* group update, the handler runs iff the chat is whitelisted or the
// whitelist is empty.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1000000000, -1), 0, 10).Draw(t, "chats")
		cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: chats}}

		gen := rapid.Int64Range(-1000000000, -1)
		if len(chats) > 0 {
			gen = rapid.OneOf(rapid.SampledFrom(chats), gen)
		}
		chatID := gen.Draw(t, "chatID")

		c := &fakeContext{
			chat:   &tele.Chat{ID: chatID, Type: tele.ChatSuperGroup},
			sender: &tele.User{ID: 1},
		}
		reached := run(WhitelistMiddleware(cfg), c)
		expected := len(chats) == 0 || slices.Contains(chats, chatID)
		if reached != expected {
			t.Fatalf("whitelist mismatch: chatID=%d, chats=%v, expected=%v, got=%v", chatID, chats, expected, reached)
		}
	})
}

func TestWhitelist_PrivateChatNeedsGroupVisit(t *testing.T) {
	cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: []int64{-100}}}
	mw := WhitelistMiddleware(cfg)
	user := &tele.User{ID: 42}
	private := &fakeContext{chat: &tele.Chat{ID: 42, Type: tele.ChatPrivate}, sender: user}
	group := &fakeContext{chat: &tele.Chat{ID: -100, Type: tele.ChatGroup}, sender: user}

	assert.False(t, run(mw, private), "unknown user in private")
	assert.True(t, run(mw, group))
	assert.True(t, run(mw, private), "seen in a whitelisted group")

	open := WhitelistMiddleware(&config.Config{})
	stranger := &fakeContext{chat: &tele.Chat{ID: 7, Type: tele.ChatPrivate}, sender: &tele.User{ID: 7}}
	assert.True(t, run(open, stranger), "no whitelist admits private chats")
}

func TestWhitelist_IgnoresUpdatesWithoutSender(t *testing.T) {
	c := &fakeContext{chat: &tele.Chat{ID: -1, Type: tele.ChatGroup}}
	assert.False(t, run(WhitelistMiddleware(&config.Config{}), c))
}

func TestRecoveryMiddleware(t *testing.T) {
	c := &fakeContext{sender: &tele.User{ID: 1}}
	err := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})(c)
	assert.NoError(t, err)
	assert.Equal(t, []string{internalErrorText}, c.replies)
}
