package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/apperr"
	"banana-bot/internal/game/poll"
	"banana-bot/internal/messenger"
	"banana-bot/internal/session"
	"banana-bot/internal/timer"
)

// ErrPollRunning is returned when the chat already has an open poll.
var ErrPollRunning = apperr.Input("📊 a poll is already running in this chat, end it first!")

// PollService runs one banana poll per chat.
type PollService struct {
	msg   messenger.Messenger
	polls *session.Registry[*poll.Poll]
}

// NewPollService creates a new PollService instance.
func NewPollService(msg messenger.Messenger, sched timer.Scheduler, opts ...session.Option) *PollService {
	return &PollService{
		msg:   msg,
		polls: session.NewRegistry[*poll.Poll](session.KindPoll, sched, opts...),
	}
}

// Registry exposes the open polls.
func (s *PollService) Registry() *session.Registry[*poll.Poll] {
	return s.polls
}

// Create parses "Question <a> <b> ..." and posts the poll.
func (s *PollService) Create(ctx context.Context, o Origin, creatorID int64, text string) error {
	question, options, err := poll.Parse(text)
	if err != nil {
		return err
	}
	p, h, err := s.polls.TryCreate(o.ChatID, func(session.Handle) (*poll.Poll, error) {
		p, err := poll.New(creatorID, question, options)
		if err != nil {
			return nil, err
		}
		p.ThreadID = o.ThreadID
		return p, nil
	})
	if err != nil {
		if errors.Is(err, session.ErrAlreadyActive) {
			return ErrPollRunning
		}
		return err
	}

	ref := send(s.msg, o.ChatID, p.Render(), messenger.Options{ThreadID: o.ThreadID, HTML: true, Markup: pollMarkup(h.ID, len(options))})
	_, _, _ = s.polls.Update(o.ChatID, func(p *poll.Poll, cur session.Handle) error {
		if cur.ID == h.ID {
			p.MessageID = ref.MessageID
		}
		return nil
	})
	return nil
}

func (s *PollService) live(chatID int64, sid string, fn func(p *poll.Poll) error) (*poll.Poll, session.Handle, error) {
	p, h, err := s.polls.Update(chatID, func(p *poll.Poll, h session.Handle) error {
		if err := sameSession(h, sid); err != nil {
			return poll.ErrEnded
		}
		return fn(p)
	})
	if errors.Is(err, session.ErrNotFound) {
		return nil, session.Handle{}, poll.ErrEnded
	}
	return p, h, err
}

// Vote records userID's choice of option and refreshes the message.
func (s *PollService) Vote(ctx context.Context, o Origin, userID int64, sid, option string) (string, error) {
	idx, err := strconv.Atoi(option)
	if err != nil {
		return "", poll.ErrBadOption
	}
	var text, choice string
	var count int
	_, h, err := s.live(o.ChatID, sid, func(p *poll.Poll) error {
		if err := p.Vote(userID, idx); err != nil {
			return err
		}
		text, choice, count = p.Render(), p.Options[idx], len(p.Options)
		return nil
	})
	if err != nil {
		return "", err
	}
	edit(s.msg, o.Ref(), text, messenger.Options{HTML: true, Markup: pollMarkup(h.ID, count)})
	return "🗳 You voted for: " + choice, nil
}

// End closes the poll. Only its creator or an admin may do that.
func (s *PollService) End(ctx context.Context, o Origin, userID int64, admin bool, sid string) (string, error) {
	var text string
	_, h, err := s.live(o.ChatID, sid, func(p *poll.Poll) error {
		if err := p.End(userID, admin); err != nil {
			return err
		}
		text = p.Render()
		return nil
	})
	if err != nil {
		return "", err
	}
	s.polls.DestroyWhen(o.ChatID, func(p *poll.Poll, cur session.Handle) bool {
		return cur.ID == h.ID && p.Ended
	})
	edit(s.msg, o.Ref(), text, messenger.Options{HTML: true})
	return "📊 Poll closed", nil
}

func pollMarkup(id uuid.UUID, options int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	sid := id.String()
	rows := make([]tele.Row, 0, options+1)
	for i := range options {
		rows = append(rows, m.Row(button(m, poll.Emojis[i], CbPollVote, sid, strconv.Itoa(i))))
	}
	rows = append(rows, m.Row(button(m, "End poll 🍌", CbPollEnd, sid)))
	m.Inline(rows...)
	return m
}
