// Package messenger is the outbound side of the bot: sending, editing and
// deleting messages and applying chat member restrictions.
package messenger

import (
	"errors"
	"time"

	tele "gopkg.in/telebot.v3"
)

// ErrMessageGone is returned by Edit when the target message no longer exists.
var ErrMessageGone = errors.New("messenger: message gone")

// Ref addresses a sent message.
type Ref struct {
	ChatID    int64
	MessageID int
}

// Options tune a send or an edit.
type Options struct {
	ReplyTo  int
	ThreadID int
	Markup   *tele.ReplyMarkup
	HTML     bool
	Silent   bool
}

// Messenger performs chat side effects.
type Messenger interface {
	Send(chatID int64, text string, opts Options) (Ref, error)
	// Edit treats an unchanged message as success.
	Edit(ref Ref, text string, opts Options) error
	Delete(ref Ref) error
	// Mute forbids userID to write until the given time.
	Mute(chatID, userID int64, until time.Time) error
	// Unmute lifts every restriction.
	Unmute(chatID, userID int64) error
	// Ban removes userID. A zero until bans permanently.
	Ban(chatID, userID int64, until time.Time) error
	Unban(chatID, userID int64) error
}
