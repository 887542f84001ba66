package messenger

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// Telegram implements Messenger on a telebot instance.
type Telegram struct {
	bot *tele.Bot
}

// NewTelegram wraps b.
func NewTelegram(b *tele.Bot) *Telegram {
	return &Telegram{bot: b}
}

func sendOptions(opts Options) *tele.SendOptions {
	so := &tele.SendOptions{
		ReplyMarkup:         opts.Markup,
		ThreadID:            opts.ThreadID,
		DisableNotification: opts.Silent,
	}
	if opts.ReplyTo != 0 {
		so.ReplyTo = &tele.Message{ID: opts.ReplyTo}
		so.AllowWithoutReply = true
	}
	if opts.HTML {
		so.ParseMode = tele.ModeHTML
	}
	return so
}

func stored(ref Ref) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

// Send posts text to chatID.
func (t *Telegram) Send(chatID int64, text string, opts Options) (Ref, error) {
	msg, err := t.bot.Send(&tele.Chat{ID: chatID}, text, sendOptions(opts))
	if err != nil {
		return Ref{}, err
	}
	return Ref{ChatID: chatID, MessageID: msg.ID}, nil
}

// Edit replaces the text and markup of ref.
func (t *Telegram) Edit(ref Ref, text string, opts Options) error {
	_, err := t.bot.Edit(stored(ref), text, sendOptions(opts))
	switch {
	case err == nil:
		return nil
	case isNotModified(err):
		return nil
	case isGone(err):
		return ErrMessageGone
	default:
		return err
	}
}

// Delete removes ref. Failures are logged and swallowed.
func (t *Telegram) Delete(ref Ref) error {
	if err := t.bot.Delete(stored(ref)); err != nil {
		log.Debug().Err(err).Int64("chat_id", ref.ChatID).Int("message_id", ref.MessageID).Msg("Delete message failed")
	}
	return nil
}

func member(userID int64, rights tele.Rights, until time.Time) *tele.ChatMember {
	m := &tele.ChatMember{User: &tele.User{ID: userID}, Rights: rights}
	if !until.IsZero() {
		m.RestrictedUntil = until.Unix()
	}
	return m
}

// Mute restricts userID until the given time.
func (t *Telegram) Mute(chatID, userID int64, until time.Time) error {
	return t.bot.Restrict(&tele.Chat{ID: chatID}, member(userID, tele.NoRights(), until))
}

// Unmute lifts restrictions on userID.
func (t *Telegram) Unmute(chatID, userID int64) error {
	return t.bot.Restrict(&tele.Chat{ID: chatID}, member(userID, tele.NoRestrictions(), time.Time{}))
}

// Ban removes userID until the given time, or forever.
func (t *Telegram) Ban(chatID, userID int64, until time.Time) error {
	return t.bot.Ban(&tele.Chat{ID: chatID}, member(userID, tele.Rights{}, until))
}

// Unban lets userID join again.
func (t *Telegram) Unban(chatID, userID int64) error {
	return t.bot.Unban(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
}

func isNotModified(err error) bool {
	return errors.Is(err, tele.ErrMessageNotModified) || strings.Contains(err.Error(), "message is not modified")
}

func isGone(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "message to edit not found") || strings.Contains(msg, "message can't be edited")
}
