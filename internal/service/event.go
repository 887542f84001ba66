package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"banana-bot/internal/event"
	"banana-bot/internal/game"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/metrics"
	"banana-bot/internal/model"
)

// bombNoticeChance is how often a bomb payout is announced in the chat.
const bombNoticeChance = 0.1

// EventService runs chat events and banana bombs.
type EventService struct {
	events  *event.Manager
	bombs   *event.Bombs
	ledger  *ledger.Ledger
	msg     messenger.Messenger
	rand    game.Random
	metrics *metrics.Metrics
}

// NewEventService creates a new EventService instance.
func NewEventService(
	events *event.Manager,
	bombs *event.Bombs,
	l *ledger.Ledger,
	msg messenger.Messenger,
	r game.Random,
	m *metrics.Metrics,
) *EventService {
	return &EventService{
		events:  events,
		bombs:   bombs,
		ledger:  l,
		msg:     msg,
		rand:    r,
		metrics: m,
	}
}

// Start opens a chat event of kind. Admins only.
func (s *EventService) Start(ctx context.Context, o Origin, admin bool, kind string) error {
	if !admin {
		return ErrAdminOnly
	}
	e, err := s.events.Start(o.ChatID, kind)
	if err != nil {
		return err
	}
	log.Info().Int64("chat_id", o.ChatID).Str("kind", string(e.Kind)).Msg("Chat event started")
	text := fmt.Sprintf("🎉 A new event has begun!\n\n%s\nProgress: 0/%d\nTime limit: %d minutes",
		e.Description, e.Goal, int(e.Duration.Minutes()))
	send(s.msg, o.ChatID, text, o.reply())
	return nil
}

// Status shows the running event.
func (s *EventService) Status(ctx context.Context, o Origin) error {
	e, err := s.events.Status(o.ChatID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("📊 Current event: %s\nProgress: %d/%d\nParticipants: %d\nTime left: %d minutes",
		e.Description, e.Progress, e.Goal, len(e.Participants), int(e.Remaining(s.events.Now()).Minutes()))
	send(s.msg, o.ChatID, text, o.reply())
	return nil
}

// End closes the running event and pays every participant. When the goal
// was reached each participant is also credited with an event win.
func (s *EventService) End(ctx context.Context, o Origin, admin bool) error {
	if !admin {
		return ErrAdminOnly
	}
	e, err := s.events.End(o.ChatID)
	if err != nil {
		return err
	}
	if len(e.Participants) == 0 {
		send(s.msg, o.ChatID, "⚠️ Nobody took part. The event ended without rewards.", o.reply())
		return nil
	}

	won := e.GoalReached()
	for _, id := range e.Participants {
		_, _ = s.ledger.Mutate(ctx, id, func(u *model.UserRecord) error {
			ledger.Credit(u, e.Reward)
			if won {
				u.EventWins++
			}
			return nil
		})
		s.metrics.Granted("event", e.Reward)
		if won {
			s.ledger.EvaluateAll(ctx, id)
		}
	}

	text := fmt.Sprintf("🎉 The event is over!\nEach of the %d participants gets %d bananas!", len(e.Participants), e.Reward)
	if won {
		text += fmt.Sprintf("\n🏆 Goal reached: %d/%d!", e.Progress, e.Goal)
	}
	send(s.msg, o.ChatID, text, o.reply())
	return nil
}

// StartBomb arms a banana bomb activated by userID.
func (s *EventService) StartBomb(ctx context.Context, o Origin, userID int64) error {
	threadID := o.ThreadID
	_, err := s.bombs.Start(o.ChatID, userID, threadID, func(chatID int64) {
		send(s.msg, chatID, "💥 The banana bomb has gone quiet. Back to normal!", messenger.Options{ThreadID: threadID})
	})
	return err
}

// Message pays the author of a plain message while a bomb is live.
func (s *EventService) Message(ctx context.Context, o Origin, user game.Player) {
	amount, ok := s.bombs.Payout(o.ChatID, user.ID)
	if !ok {
		return
	}
	s.ledger.AddCurrency(ctx, user.ID, amount)
	s.metrics.Granted("bomb", amount)
	if s.rand.Float64() < bombNoticeChance {
		send(s.msg, o.ChatID, fmt.Sprintf("💣 Banana bomb! +%d🍌 for %s", amount, user.Display()), o.reply())
	}
}
