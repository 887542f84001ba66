package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/config"
)

// privateUsers tracks members seen in a whitelisted group. Only they may
// talk to the bot in private while a whitelist is configured.
type privateUsers struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func (p *privateUsers) allow(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids[userID] = struct{}{}
}

func (p *privateUsers) allowed(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.ids[userID]
	return ok
}

// WhitelistMiddleware creates a middleware that drops updates from chats
// outside the whitelist. An empty whitelist admits every chat.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	seen := &privateUsers{ids: make(map[int64]struct{})}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()

			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if len(cfg.Whitelist.Chats) == 0 || seen.allowed(sender.ID) {
					return next(c)
				}
				log.Debug().
					Int64("user_id", sender.ID).
					Msg("Ignoring private chat from user not seen in a whitelisted group")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			seen.allow(sender.ID)
			return next(c)
		}
	}
}

// AdminMiddleware creates a middleware that checks if the user is an admin.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if !cfg.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return c.Reply("🚫 Only the Big Bananas can use this command!")
			}

			return next(c)
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming messages.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received update")

			return next(c)
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("text", c.Text()).
						Msg("Recovered from panic in handler")
					_ = c.Reply(internalErrorText)
					err = nil
				}
			}()
			return next(c)
		}
	}
}
