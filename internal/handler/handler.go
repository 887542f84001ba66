// Package handler adapts telebot updates to the service layer.
//
// Handlers read the origin, sender and reply target of an update, call one
// service operation and turn its classified error into a reply or an alert.
// Internal errors are returned to telebot's OnError.
package handler

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/apperr"
	"banana-bot/internal/config"
	"banana-bot/internal/game"
	"banana-bot/internal/metrics"
	"banana-bot/internal/service"
)

// Base holds what every handler needs to read an update.
type Base struct {
	cfg     *config.Config
	metrics *metrics.Metrics
}

// NewBase creates a new Base.
func NewBase(cfg *config.Config, m *metrics.Metrics) *Base {
	return &Base{cfg: cfg, metrics: m}
}

// origin returns where the update came from. For a button press this is the
// message carrying the keyboard.
func origin(c tele.Context) service.Origin {
	var o service.Origin
	if chat := c.Chat(); chat != nil {
		o.ChatID = chat.ID
	}
	if msg := c.Message(); msg != nil {
		o.MessageID = msg.ID
		if msg.TopicMessage {
			o.ThreadID = msg.ThreadID
		}
	}
	return o
}

func player(u *tele.User) game.Player {
	if u == nil {
		return game.Player{}
	}
	return game.Player{
		ID:       u.ID,
		Name:     strings.TrimSpace(u.FirstName + " " + u.LastName),
		Username: u.Username,
	}
}

// isAdmin reports whether userID holds the configured admin role.
func (b *Base) isAdmin(userID int64) bool {
	return b.cfg.IsAdmin(userID)
}

// protected reports whether u may not be punished: configured admins, chat
// administrators and bots.
func (b *Base) protected(c tele.Context, u *tele.User) bool {
	if u.IsBot || b.cfg.IsAdmin(u.ID) {
		return true
	}
	chat := c.Chat()
	if chat == nil || chat.Type == tele.ChatPrivate {
		return false
	}
	m, err := c.Bot().ChatMemberOf(chat, u)
	if err != nil {
		log.Debug().Err(err).Int64("chat_id", chat.ID).Int64("user_id", u.ID).Msg("Chat member lookup failed")
		return false
	}
	return m.Role == tele.Administrator || m.Role == tele.Creator
}

// target returns the author of the message the update replies to.
func (b *Base) target(c tele.Context) *service.Target {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		return nil
	}
	// In forum topics every message replies to the topic header.
	if msg.ReplyTo.TopicCreated != nil {
		return nil
	}
	u := msg.ReplyTo.Sender
	return &service.Target{
		Player: player(u),
		Admin:  b.protected(c, u),
		Bot:    u.IsBot,
	}
}

// targetPlayer is target without the protection lookup.
func targetPlayer(c tele.Context) *game.Player {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil || msg.ReplyTo.TopicCreated != nil {
		return nil
	}
	p := player(msg.ReplyTo.Sender)
	return &p
}

// render prefixes a plain message with the icon of its class.
func render(kind apperr.Kind, msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if !unicode.IsLetter(r) {
		return msg
	}
	msg = string(unicode.ToUpper(r)) + msg[size:]
	switch kind {
	case apperr.KindForbidden:
		return "🚫 " + msg
	case apperr.KindStale:
		return "⌛ " + msg
	default:
		return "❌ " + msg
	}
}

// done reports the outcome of a command. Classified errors become a reply.
func (b *Base) done(c tele.Context, command string, err error) error {
	if err == nil {
		b.metrics.Command(command, "ok")
		return nil
	}
	kind := apperr.KindOf(err)
	b.metrics.Command(command, kind.String())
	if kind == apperr.KindInternal {
		return err
	}
	return c.Reply(render(kind, apperr.Message(err)), &tele.SendOptions{AllowWithoutReply: true})
}

// answer reports the outcome of a button press. Forbidden and stale presses
// get an alert, input errors a toast.
func (b *Base) answer(c tele.Context, command, notice string, err error) error {
	if err == nil {
		b.metrics.Command(command, "ok")
		return c.Respond(&tele.CallbackResponse{Text: notice})
	}
	kind := apperr.KindOf(err)
	b.metrics.Command(command, kind.String())
	if kind == apperr.KindInternal {
		_ = c.Respond()
		return err
	}
	return c.Respond(&tele.CallbackResponse{
		Text:      render(kind, apperr.Message(err)),
		ShowAlert: kind != apperr.KindInput,
	})
}
