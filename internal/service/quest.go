package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"banana-bot/internal/apperr"
	"banana-bot/internal/config"
	"banana-bot/internal/game"
	"banana-bot/internal/game/quest"
	"banana-bot/internal/messenger"
	"banana-bot/internal/session"
	"banana-bot/internal/timer"
)

// Quest errors
var (
	ErrQuestRunning = apperr.Input("🔍 a quest is already running! Use /clue, /vote and /ask")
	ErrNoQuest      = apperr.Stale("ℹ️ there is no active quest right now!")
)

// QuestService runs detective quests.
type QuestService struct {
	cfg       config.QuestConfig
	msg       messenger.Messenger
	rand      game.Random
	quests    *session.Registry[*quest.Quest]
	scenarios []quest.Scenario
	clues     []string
}

// NewQuestService creates a new QuestService instance using the built-in
// scenario and clue pools.
func NewQuestService(
	cfg config.QuestConfig,
	msg messenger.Messenger,
	sched timer.Scheduler,
	r game.Random,
	opts ...session.Option,
) *QuestService {
	return &QuestService{
		cfg:       cfg,
		msg:       msg,
		rand:      r,
		quests:    session.NewRegistry[*quest.Quest](session.KindQuest, sched, opts...),
		scenarios: quest.Scenarios,
		clues:     quest.Clues,
	}
}

// Registry exposes the live quests.
func (s *QuestService) Registry() *session.Registry[*quest.Quest] {
	return s.quests
}

func questOrigin(q *quest.Quest) messenger.Options {
	return messenger.Options{ReplyTo: q.TriggerMessageID, ThreadID: q.ThreadID}
}

// Start opens a quest in o.ChatID and arms its expiry.
func (s *QuestService) Start(ctx context.Context, o Origin) error {
	q, _, err := s.quests.TryCreate(o.ChatID, func(session.Handle) (*quest.Quest, error) {
		q, err := quest.New(s.rand, s.scenarios, s.clues)
		if err != nil {
			return nil, err
		}
		q.TriggerMessageID = o.MessageID
		q.ThreadID = o.ThreadID
		return q, nil
	})
	if err != nil {
		if errors.Is(err, session.ErrAlreadyActive) {
			return ErrQuestRunning
		}
		return err
	}
	if _, err := s.quests.Arm(o.ChatID, s.cfg.Duration, func(q *quest.Quest, h session.Handle) {
		s.announce(h.ChatID, q)
	}); err != nil {
		return err
	}

	text := fmt.Sprintf(`🔍 DETECTIVE QUEST!

🛑 %s
🔎 Suspects: %s

Use:
/clue - get a clue
/vote @nick - cast your vote
/ask @nick question - interrogate
/stop_quest - stop the quest

You have %s to solve it!`, q.Scenario.Crime, strings.Join(q.Scenario.Suspects, ", "), humanMinutes(s.cfg.Duration.Minutes()))
	send(s.msg, o.ChatID, text, o.reply())
	return nil
}

func humanMinutes(m float64) string {
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%g minutes", m)
}

// AutoStart opens a quest in the configured chat unless one is running there.
func (s *QuestService) AutoStart(ctx context.Context) {
	if s.cfg.AutoChatID == 0 {
		return
	}
	err := s.Start(ctx, Origin{ChatID: s.cfg.AutoChatID, ThreadID: s.cfg.AutoThreadID})
	switch {
	case err == nil:
		log.Info().Int64("chat_id", s.cfg.AutoChatID).Msg("Quest auto-started")
	case errors.Is(err, ErrQuestRunning):
		log.Debug().Int64("chat_id", s.cfg.AutoChatID).Msg("Quest already running, auto-start skipped")
	default:
		log.Error().Err(err).Int64("chat_id", s.cfg.AutoChatID).Msg("Quest auto-start failed")
	}
}

func (s *QuestService) update(chatID int64, fn func(q *quest.Quest) error) (*quest.Quest, error) {
	q, _, err := s.quests.Update(chatID, func(q *quest.Quest, _ session.Handle) error {
		return fn(q)
	})
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrNoQuest
	}
	return q, err
}

// Clue reveals one clue.
func (s *QuestService) Clue(ctx context.Context, o Origin) error {
	var text string
	_, err := s.update(o.ChatID, func(q *quest.Quest) error {
		if clue, ok := q.Clue(s.rand); ok {
			text = "🔎 Clue: " + clue
		} else {
			text = "🔎 All clues have been found already!"
		}
		return nil
	})
	if err != nil {
		return err
	}
	send(s.msg, o.ChatID, text, o.reply())
	return nil
}

// Vote records userID's vote for suspect.
func (s *QuestService) Vote(ctx context.Context, o Origin, userID int64, suspect string) error {
	if suspect == "" {
		return apperr.Input("ℹ️ Usage: /vote @nick")
	}
	if _, err := s.update(o.ChatID, func(q *quest.Quest) error {
		return q.Vote(userID, suspect)
	}); err != nil {
		return err
	}
	send(s.msg, o.ChatID, "🗳 Vote accepted: "+suspect, o.reply())
	return nil
}

// Ask answers an interrogation.
func (s *QuestService) Ask(ctx context.Context, o Origin, suspect string) error {
	if suspect == "" {
		return apperr.Input("ℹ️ Usage: /ask @nick your question")
	}
	var answer string
	if _, err := s.update(o.ChatID, func(q *quest.Quest) error {
		answer = q.Ask(s.rand, suspect)
		return nil
	}); err != nil {
		return err
	}
	send(s.msg, o.ChatID, answer, o.reply())
	return nil
}

// Stop resolves the quest now. The expiry timer is cancelled with the session.
func (s *QuestService) Stop(ctx context.Context, o Origin) error {
	q, ok := s.quests.Destroy(o.ChatID)
	if !ok {
		return ErrNoQuest
	}
	s.announce(o.ChatID, q)
	return nil
}

func (s *QuestService) announce(chatID int64, q *quest.Quest) {
	v := q.Tally()
	verdict := "incorrect"
	if v.Correct {
		verdict = "correct"
	}
	text := fmt.Sprintf(`🕵️‍♂️ Quest over!

🔍 Crime: %s
🦹‍♂️ Culprit: %s
💡 Solution: %s

🏆 The votes picked: %s (%s)

Thanks for playing! Ba-na-na! 🎵`, q.Scenario.Crime, v.Culprit, q.Scenario.Solution, v.Chosen, verdict)
	send(s.msg, chatID, text, questOrigin(q))
}
