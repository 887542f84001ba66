package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"banana-bot/internal/config"
	"banana-bot/internal/game"
	"banana-bot/internal/game/tictactoe"
	"banana-bot/internal/ledger"
	"banana-bot/internal/messenger"
	"banana-bot/internal/session"
	"banana-bot/internal/timer"
)

// BoardDuelService runs tic-tac-toe duels.
type BoardDuelService struct {
	cfg    config.DuelConfig
	ledger *ledger.Ledger
	msg    messenger.Messenger
	games  *session.Registry[*tictactoe.Game]
	roster *session.Roster
}

// NewBoardDuelService creates a new BoardDuelService instance.
func NewBoardDuelService(
	cfg config.DuelConfig,
	l *ledger.Ledger,
	msg messenger.Messenger,
	sched timer.Scheduler,
	roster *session.Roster,
	opts ...session.Option,
) *BoardDuelService {
	return &BoardDuelService{
		cfg:    cfg,
		ledger: l,
		msg:    msg,
		games:  session.NewRegistry[*tictactoe.Game](session.KindBoardDuel, sched, opts...),
		roster: roster,
	}
}

// Registry exposes the live duels.
func (s *BoardDuelService) Registry() *session.Registry[*tictactoe.Game] {
	return s.games
}

// sameSession guards button presses against a newer duel in the same chat.
func sameSession(h session.Handle, sid string) error {
	if h.ID.String() != sid {
		return session.ErrSuperseded
	}
	return nil
}

// Challenge proposes a duel and posts the invitation.
func (s *BoardDuelService) Challenge(ctx context.Context, o Origin, challenger, opponent game.Player) error {
	if err := s.roster.Claim(o.ChatID, challenger.ID, opponent.ID); err != nil {
		return err
	}
	g, h, err := s.games.TryCreate(o.ChatID, func(session.Handle) (*tictactoe.Game, error) {
		return tictactoe.New(challenger, opponent)
	})
	if err != nil {
		s.roster.Release(o.ChatID, challenger.ID, opponent.ID)
		return err
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		button(markup, "✅ Accept", CbDuelAccept, h.ID.String()),
		button(markup, "❌ Decline", CbDuelDecline, h.ID.String()),
	))
	text := fmt.Sprintf("🎮 %s challenges %s to Vanyanya-Banyanya!\n%s, do you accept?",
		g.Challenger.Display(), g.Opponent.Display(), g.Opponent.Display())
	ref := send(s.msg, o.ChatID, text, messenger.Options{ReplyTo: o.MessageID, ThreadID: o.ThreadID, Markup: markup})

	_, _, _ = s.games.UpdateIf(o.ChatID, h.Generation, func(g *tictactoe.Game, _ session.Handle) error {
		g.MessageID = ref.MessageID
		g.ThreadID = o.ThreadID
		return nil
	})
	_, err = s.games.Arm(o.ChatID, s.cfg.ProposalTimeout, s.expire)
	return err
}

// Accept starts a proposed duel.
func (s *BoardDuelService) Accept(ctx context.Context, chatID, userID int64, sid string) (string, error) {
	var view tictactoe.Game
	_, h, _, err := s.games.Apply(chatID, s.cfg.MoveTimeout, s.expire, func(g *tictactoe.Game, h session.Handle) (session.Next, error) {
		if err := sameSession(h, sid); err != nil {
			return session.NextKeep, err
		}
		if err := g.Accept(userID); err != nil {
			return session.NextKeep, err
		}
		view = *g
		return session.NextRearm, nil
	})
	if err != nil {
		return "", err
	}

	s.render(chatID, &view, h)
	return "🎮 Game on!", nil
}

// Decline withdraws or refuses a proposed duel.
func (s *BoardDuelService) Decline(ctx context.Context, chatID, userID int64, sid string) (string, error) {
	var g tictactoe.Game
	_, _, _, err := s.games.Apply(chatID, 0, nil, func(cur *tictactoe.Game, h session.Handle) (session.Next, error) {
		if err := sameSession(h, sid); err != nil {
			return session.NextKeep, err
		}
		if err := cur.CanCancel(userID); err != nil {
			return session.NextKeep, err
		}
		g = *cur
		return session.NextClose, nil
	})
	if err != nil {
		return "", err
	}
	s.roster.Release(chatID, g.Challenger.ID, g.Opponent.ID)

	who := g.Opponent.Display() + " declined the duel"
	if userID == g.Challenger.ID {
		who = g.Challenger.Display() + " cancelled the duel"
	}
	edit(s.msg, messenger.Ref{ChatID: chatID, MessageID: g.MessageID}, "❌ "+who+".", messenger.Options{})
	return "❌ Duel cancelled", nil
}

// Move places the acting player's mark on cell. A move that ends the game
// removes the session; any other move restarts the turn timer.
func (s *BoardDuelService) Move(ctx context.Context, chatID, userID int64, sid string, cell int) (string, error) {
	var view tictactoe.Game
	_, h, next, err := s.games.Apply(chatID, s.cfg.MoveTimeout, s.expire, func(g *tictactoe.Game, h session.Handle) (session.Next, error) {
		if err := sameSession(h, sid); err != nil {
			return session.NextKeep, err
		}
		outcome, err := g.Move(userID, cell)
		if err != nil {
			return session.NextKeep, err
		}
		view = *g
		if outcome == tictactoe.Ongoing {
			return session.NextRearm, nil
		}
		return session.NextClose, nil
	})
	if err != nil {
		return "", err
	}

	if next == session.NextRearm {
		s.render(chatID, &view, h)
		return "", nil
	}
	s.finish(ctx, chatID, &view, "")
	return "🏁 Game over", nil
}

// expire handles both a lapsed proposal and a player who stopped moving.
func (s *BoardDuelService) expire(g *tictactoe.Game, h session.Handle) {
	ctx := context.Background()
	ref := messenger.Ref{ChatID: h.ChatID, MessageID: g.MessageID}

	switch g.Phase {
	case tictactoe.Proposed:
		s.roster.Release(h.ChatID, g.Challenger.ID, g.Opponent.ID)
		if ref.MessageID != 0 {
			_ = s.msg.Delete(ref)
		}
		log.Debug().Int64("chat_id", h.ChatID).Msg("Board duel proposal expired")
	case tictactoe.Active:
		idle := g.Current()
		if err := g.Forfeit(idle.ID); err != nil {
			return
		}
		s.finish(ctx, h.ChatID, g, fmt.Sprintf("⏰ %s ran out of time.\n", idle.Display()))
	}
}

// finish books the result of a finished game and renders the final board.
func (s *BoardDuelService) finish(ctx context.Context, chatID int64, g *tictactoe.Game, prefix string) {
	s.roster.Release(chatID, g.Challenger.ID, g.Opponent.ID)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(boardText(g))
	b.WriteString("\n\n")
	b.WriteString(gridText(g))
	b.WriteString("\n\n")

	if winner, loser, ok := g.Result(); ok {
		s.ledger.RecordMatchResult(ctx, winner.ID, true)
		s.ledger.RecordMatchResult(ctx, loser.ID, false)
		fmt.Fprintf(&b, "🏆 %s wins! 🍌", winner.Display())
		if a, granted := s.ledger.EvaluateAchievements(ctx, winner.ID); granted {
			fmt.Fprintf(&b, "\n\n🎉 %s: %s", a.Name, a.Message)
		}
	} else {
		b.WriteString("🤝 It's a draw! Both minions are equally strong!")
	}

	edit(s.msg, messenger.Ref{ChatID: chatID, MessageID: g.MessageID}, b.String(), messenger.Options{})
}

func (s *BoardDuelService) render(chatID int64, g *tictactoe.Game, h session.Handle) {
	text := boardText(g) + fmt.Sprintf("\n\nTurn: %s %s", g.Turn.Symbol(), g.Current().Display())
	edit(s.msg, messenger.Ref{ChatID: chatID, MessageID: g.MessageID}, text, messenger.Options{Markup: boardMarkup(g, h)})
}

func boardText(g *tictactoe.Game) string {
	return fmt.Sprintf("🎮 Vanyanya-Banyanya\n%s %s vs %s %s",
		tictactoe.MarkA.Symbol(), g.Challenger.Display(), tictactoe.MarkB.Symbol(), g.Opponent.Display())
}

func cellLabel(m tictactoe.Mark) string {
	if m == tictactoe.Empty {
		return "⬜"
	}
	return m.Symbol()
}

func gridText(g *tictactoe.Game) string {
	var b strings.Builder
	for cell, m := range g.Board {
		b.WriteString(cellLabel(m))
		if cell%3 == 2 && cell < tictactoe.Cells-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func boardMarkup(g *tictactoe.Game, h session.Handle) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, 3)
	for r := 0; r < 3; r++ {
		btns := make([]tele.Btn, 0, 3)
		for c := 0; c < 3; c++ {
			cell := r*3 + c
			btns = append(btns, button(markup, cellLabel(g.Board[cell]), CbDuelMove, h.ID.String(), strconv.Itoa(cell)))
		}
		rows = append(rows, markup.Row(btns...))
	}
	markup.Inline(rows...)
	return markup
}
