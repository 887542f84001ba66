package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/config"
	"banana-bot/internal/game"
	"banana-bot/internal/game/rps"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/session"
	"banana-bot/internal/timer"
)

// Songs are the flavor lines of the song button.
var Songs = []string{
	"🎵 Ba-na-na! Ba-na-na-na! 🍌",
	"🎶 Bee-do bee-do bee-do! 🚨",
	"🎤 Papaya! Papayaaa! 🥭",
	"🎵 Underwear! 🩲 Ha-ha-ha!",
}

// RPSService runs rock-scissors-banana duels.
type RPSService struct {
	cfg    config.DuelConfig
	ledger *ledger.Ledger
	msg    messenger.Messenger
	rand   game.Random
	duels  *session.Registry[*rps.Duel]
}

// NewRPSService creates a new RPSService instance.
func NewRPSService(
	cfg config.DuelConfig,
	l *ledger.Ledger,
	msg messenger.Messenger,
	sched timer.Scheduler,
	r game.Random,
	opts ...session.Option,
) *RPSService {
	return &RPSService{
		cfg:    cfg,
		ledger: l,
		msg:    msg,
		rand:   r,
		duels:  session.NewRegistry[*rps.Duel](session.KindRPS, sched, opts...),
	}
}

// Registry exposes the live duels.
func (s *RPSService) Registry() *session.Registry[*rps.Duel] {
	return s.duels
}

// Challenge proposes a duel and posts the invitation.
func (s *RPSService) Challenge(ctx context.Context, o Origin, challenger, opponent game.Player) error {
	_, h, err := s.duels.TryCreate(o.ChatID, func(session.Handle) (*rps.Duel, error) {
		return rps.New(challenger, opponent)
	})
	if err != nil {
		return err
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		button(markup, "✅ Accept", CbRPSAccept, h.ID.String()),
		button(markup, "❌ Decline", CbRPSDecline, h.ID.String()),
	))
	text := fmt.Sprintf("🥊 %s challenges %s to a Banana Fight!\n🪨 ✂️ 🍌", challenger.Display(), opponent.Display())
	ref := send(s.msg, o.ChatID, text, messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, Markup: markup})

	_, _, _ = s.duels.UpdateIf(o.ChatID, h.Generation, func(d *rps.Duel, _ session.Handle) error {
		d.MessageID = ref.MessageID
		d.ThreadID = o.ThreadID
		return nil
	})
	_, err = s.duels.Arm(o.ChatID, s.cfg.ProposalTimeout, func(d *rps.Duel, h session.Handle) {
		if d.MessageID != 0 {
			_ = s.msg.Delete(messenger.Ref{ChatID: h.ChatID, MessageID: d.MessageID})
		}
		log.Debug().Int64("chat_id", h.ChatID).Msg("RPS proposal expired")
	})
	return err
}

// Accept starts a proposed duel. An active duel has no timer.
func (s *RPSService) Accept(ctx context.Context, chatID, userID int64, sid string) (string, error) {
	var view rps.Duel
	_, h, _, err := s.duels.Apply(chatID, 0, nil, func(d *rps.Duel, h session.Handle) (session.Next, error) {
		if err := sameSession(h, sid); err != nil {
			return session.NextKeep, err
		}
		if err := d.Accept(userID); err != nil {
			return session.NextKeep, err
		}
		view = *d
		return session.NextDisarm, nil
	})
	if err != nil {
		return "", err
	}

	edit(s.msg, messenger.Ref{ChatID: chatID, MessageID: view.MessageID}, duelText(&view, nil), messenger.Options{Markup: choiceMarkup(h)})
	return "🥊 Fight!", nil
}

// Decline withdraws or refuses a proposed duel.
func (s *RPSService) Decline(ctx context.Context, chatID, userID int64, sid string) (string, error) {
	return s.end(chatID, userID, sid, rps.Proposed, "❌ %s declined the Banana Fight.")
}

// Stop ends an active duel.
func (s *RPSService) Stop(ctx context.Context, chatID, userID int64, sid string) (string, error) {
	return s.end(chatID, userID, sid, rps.Active, "🛑 %s stopped the Banana Fight.")
}

func (s *RPSService) end(chatID, userID int64, sid string, phase rps.Phase, format string) (string, error) {
	phaseErr := rps.ErrNotActive
	if phase == rps.Proposed {
		phaseErr = rps.ErrNotProposed
	}

	var view rps.Duel
	_, _, _, err := s.duels.Apply(chatID, 0, nil, func(d *rps.Duel, h session.Handle) (session.Next, error) {
		if err := sameSession(h, sid); err != nil {
			return session.NextKeep, err
		}
		if d.Phase != phase {
			return session.NextKeep, phaseErr
		}
		if !d.IsPlayer(userID) {
			return session.NextKeep, rps.ErrNotPlayer
		}
		view = *d
		return session.NextClose, nil
	})
	if err != nil {
		return "", err
	}

	var who game.Player
	for _, seat := range view.Seats {
		if seat.Player.ID == userID {
			who = seat.Player
		}
	}
	text := fmt.Sprintf(format, who.Display())
	if phase == rps.Active {
		text += "\n\n" + scoreLine(&view)
	}
	edit(s.msg, messenger.Ref{ChatID: chatID, MessageID: view.MessageID}, text, messenger.Options{})
	return "👋 Bye!", nil
}

// Pick records a choice. A repeated pick in the same round is a no-op.
func (s *RPSService) Pick(ctx context.Context, chatID, userID int64, sid, code string) (string, error) {
	c, err := rps.ParseChoice(code)
	if err != nil {
		return "", err
	}

	var accepted bool
	var res *rps.RoundResult
	var view rps.Duel
	_, h, err := s.duels.Update(chatID, func(d *rps.Duel, h session.Handle) error {
		if err := sameSession(h, sid); err != nil {
			return err
		}
		var err error
		if accepted, res, err = d.Choose(userID, c); err != nil {
			return err
		}
		view = *d
		return nil
	})
	if err != nil {
		return "", err
	}
	if !accepted {
		return "🤚 You have already chosen this round!", nil
	}

	ref := messenger.Ref{ChatID: chatID, MessageID: view.MessageID}
	if res == nil {
		edit(s.msg, ref, duelText(&view, nil), messenger.Options{Markup: choiceMarkup(h)})
		return "✅ Choice accepted: " + c.Emoji(), nil
	}

	var extra []string
	if !res.Tie {
		s.ledger.RecordMatchResult(ctx, res.Winner.ID, true)
		s.ledger.RecordMatchResult(ctx, res.Loser.ID, false)
		for _, p := range []game.Player{res.Winner, res.Loser} {
			if a, ok := s.ledger.EvaluateAchievements(ctx, p.ID); ok {
				extra = append(extra, fmt.Sprintf("🎉 %s: %s %s", p.Display(), a.Name, a.Message))
			}
		}
	}
	text := duelText(&view, res)
	if len(extra) > 0 {
		text += "\n\n" + strings.Join(extra, "\n")
	}
	edit(s.msg, ref, text, messenger.Options{Markup: choiceMarkup(h)})
	return "✅ Choice accepted: " + c.Emoji(), nil
}

// Song answers the song button.
func (s *RPSService) Song() string {
	return game.Pick(s.rand, Songs)
}

func scoreLine(d *rps.Duel) string {
	a, b := d.Seats[0], d.Seats[1]
	return fmt.Sprintf("📊 Score: %s %d : %d %s", a.Player.Display(), a.Score, b.Score, b.Player.Display())
}

func duelText(d *rps.Duel, res *rps.RoundResult) string {
	var b strings.Builder
	b.WriteString("🥊 Banana Fight\n")

	if res != nil {
		fmt.Fprintf(&b, "\nRound %d: %s %s vs %s %s\n", res.Round,
			d.Seats[0].Player.Display(), res.Choices[0].Emoji(), res.Choices[1].Emoji(), d.Seats[1].Player.Display())
		if res.Tie {
			b.WriteString("🤝 Tie!\n")
		} else {
			fmt.Fprintf(&b, "🏆 %s takes the round!\n", res.Winner.Display())
		}
	}

	b.WriteString("\n")
	b.WriteString(scoreLine(d))
	fmt.Fprintf(&b, "\n\nRound %d, make your choice:", d.Round)
	for _, seat := range d.Seats {
		mark := "🤔"
		if seat.Choice != rps.None {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n%s %s", mark, seat.Player.Display())
	}
	return b.String()
}

func choiceMarkup(h session.Handle) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	sid := h.ID.String()
	picks := make([]tele.Btn, 0, len(rps.Choices))
	for _, c := range rps.Choices {
		picks = append(picks, button(markup, c.Label(), CbRPSPick, sid, c.Code()))
	}
	markup.Inline(
		markup.Row(picks...),
		markup.Row(
			button(markup, "🎵 Song", CbRPSSong, sid),
			button(markup, "🛑 Stop", CbRPSStop, sid),
		),
	)
	return markup
}
