// Package service provides business logic implementations.
//
// Services mutate session state and the ledger first, then talk to the
// messenger. Messenger failures are logged and never undo a state change.
package service

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/messenger"
	"banana-bot/internal/timer"
)

// Origin identifies the message a command or button press came from.
type Origin struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

// Ref returns the origin message reference.
func (o Origin) Ref() messenger.Ref {
	return messenger.Ref{ChatID: o.ChatID, MessageID: o.MessageID}
}

func (o Origin) reply() messenger.Options {
	return messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID}
}

func (o Origin) inThread() messenger.Options {
	return messenger.Options{ThreadID: o.ThreadID}
}

// Callback uniques. Button data is "\f<unique>|<arg>|<arg>...".
const (
	CbDuelAccept   = "ttt_accept"
	CbDuelDecline  = "ttt_decline"
	CbDuelMove     = "ttt_move"
	CbRPSAccept    = "rps_accept"
	CbRPSDecline   = "rps_decline"
	CbRPSPick      = "rps_pick"
	CbRPSStop      = "rps_stop"
	CbRPSSong      = "rps_song"
	CbAppeal       = "law_appeal"
	CbAppealDecide = "law_decide"
	CbLawProposal  = "law_vote"
	CbConfirm      = "mod_confirm"
	CbPollVote     = "poll_vote"
	CbPollEnd      = "poll_end"
	CbLeaderboard  = "top_refresh"
)

// ParseCallback splits raw callback data into its unique and arguments.
func ParseCallback(data string) (unique string, args []string) {
	data = strings.TrimPrefix(data, "\f")
	parts := strings.Split(data, "|")
	return parts[0], parts[1:]
}

func button(m *tele.ReplyMarkup, text, unique string, args ...string) tele.Btn {
	return m.Data(text, unique, args...)
}

func send(m messenger.Messenger, chatID int64, text string, opts messenger.Options) messenger.Ref {
	ref, err := m.Send(chatID, text, opts)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("Send message failed")
	}
	return ref
}

func edit(m messenger.Messenger, ref messenger.Ref, text string, opts messenger.Options) {
	if ref.MessageID == 0 {
		return
	}
	err := m.Edit(ref, text, opts)
	switch {
	case err == nil:
	case errors.Is(err, messenger.ErrMessageGone):
		log.Debug().Int64("chat_id", ref.ChatID).Int("message_id", ref.MessageID).Msg("Anchor message is gone")
	default:
		log.Warn().Err(err).Int64("chat_id", ref.ChatID).Int("message_id", ref.MessageID).Msg("Edit message failed")
	}
}

// deleteLater removes refs after d. Zero refs are skipped.
func deleteLater(sched timer.Scheduler, m messenger.Messenger, d time.Duration, refs ...messenger.Ref) {
	if d <= 0 {
		return
	}
	sched.AfterFunc(d, func() {
		for _, ref := range refs {
			if ref.MessageID != 0 {
				_ = m.Delete(ref)
			}
		}
	})
}
