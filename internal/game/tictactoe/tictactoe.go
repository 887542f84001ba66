// Package tictactoe implements the banana tic-tac-toe duel as a pure state machine.
package tictactoe

import (
	"banana-bot/internal/apperr"
	"banana-bot/internal/game"
)

// Errors for the board duel
var (
	ErrNotProposed   = apperr.Stale("this challenge is no longer open")
	ErrNotActive     = apperr.Stale("this game is already over")
	ErrNotOpponent   = apperr.Forbidden("this challenge isn't for you! 🍌")
	ErrNotChallenger = apperr.Forbidden("only the challenger can cancel the game!")
	ErrNotPlayer     = apperr.Forbidden("you are not playing in this game! 🍌")
	ErrNotYourTurn   = apperr.Input("it's not your turn! 🕒")
	ErrCellTaken     = apperr.Input("invalid move! Try another cell! ❌")
	ErrBadCell       = apperr.Input("there is no such cell")
	ErrSelfChallenge = apperr.Input("you can't play against yourself! Find another minion!")
)

// Mark is the content of a board cell.
type Mark uint8

// Marks. MarkA belongs to the challenger and moves first.
const (
	Empty Mark = iota
	MarkA
	MarkB
)

// Symbol returns the emoji drawn for the mark.
func (m Mark) Symbol() string {
	switch m {
	case MarkA:
		return "🅱️"
	case MarkB:
		return "🍌"
	default:
		return " "
	}
}

// other returns the opposing mark.
func (m Mark) other() Mark {
	if m == MarkA {
		return MarkB
	}
	return MarkA
}

// Phase is the lifecycle stage of a game.
type Phase int

// Phases.
const (
	Proposed Phase = iota
	Active
	Finished
)

// Outcome is the result of a move.
type Outcome int

// Outcomes.
const (
	Ongoing Outcome = iota
	Win
	Draw
)

// Cells is the number of board cells, indexed row-major from 0.
const Cells = 9

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Game is one board duel between a challenger and an opponent.
type Game struct {
	Challenger game.Player
	Opponent   game.Player
	Phase      Phase
	Board      [Cells]Mark
	Turn       Mark
	Moves      int
	Outcome    Outcome
	Winner     Mark

	// MessageID is the anchor message the board is rendered into.
	MessageID int
	ThreadID  int
}

// New creates a proposed game.
func New(challenger, opponent game.Player) (*Game, error) {
	if challenger.ID == opponent.ID {
		return nil, ErrSelfChallenge
	}
	return &Game{
		Challenger: challenger,
		Opponent:   opponent,
		Phase:      Proposed,
		Turn:       MarkA,
	}, nil
}

// Accept starts the game. Only the opponent may accept.
func (g *Game) Accept(userID int64) error {
	if g.Phase != Proposed {
		return ErrNotProposed
	}
	if userID != g.Opponent.ID {
		return ErrNotOpponent
	}
	g.Phase = Active
	return nil
}

// CanCancel checks that userID may withdraw or decline the proposal.
func (g *Game) CanCancel(userID int64) error {
	if g.Phase != Proposed {
		return ErrNotProposed
	}
	if userID != g.Challenger.ID && userID != g.Opponent.ID {
		return ErrNotChallenger
	}
	return nil
}

// PlayerOf returns the player owning mark.
func (g *Game) PlayerOf(mark Mark) game.Player {
	if mark == MarkA {
		return g.Challenger
	}
	return g.Opponent
}

// MarkOf returns the mark of userID, or Empty for outsiders.
func (g *Game) MarkOf(userID int64) Mark {
	switch userID {
	case g.Challenger.ID:
		return MarkA
	case g.Opponent.ID:
		return MarkB
	default:
		return Empty
	}
}

// Current returns the player whose turn it is.
func (g *Game) Current() game.Player {
	return g.PlayerOf(g.Turn)
}

// Move places the current player's mark on cell. Illegal moves leave the
// game untouched. A win is checked before a draw.
func (g *Game) Move(userID int64, cell int) (Outcome, error) {
	if g.Phase != Active {
		return Ongoing, ErrNotActive
	}
	mark := g.MarkOf(userID)
	if mark == Empty {
		return Ongoing, ErrNotPlayer
	}
	if mark != g.Turn {
		return Ongoing, ErrNotYourTurn
	}
	if cell < 0 || cell >= Cells {
		return Ongoing, ErrBadCell
	}
	if g.Board[cell] != Empty {
		return Ongoing, ErrCellTaken
	}

	g.Board[cell] = mark
	g.Moves++

	if winner := g.lineWinner(); winner != Empty {
		g.finish(Win, winner)
		return Win, nil
	}
	if g.Moves == Cells {
		g.finish(Draw, Empty)
		return Draw, nil
	}

	g.Turn = mark.other()
	return Ongoing, nil
}

// Forfeit ends an active game in favour of the player who is not loserID.
func (g *Game) Forfeit(loserID int64) error {
	if g.Phase != Active {
		return ErrNotActive
	}
	mark := g.MarkOf(loserID)
	if mark == Empty {
		return ErrNotPlayer
	}
	g.finish(Win, mark.other())
	return nil
}

// Result returns the winner and loser of a won game.
func (g *Game) Result() (winner, loser game.Player, ok bool) {
	if g.Phase != Finished || g.Outcome != Win {
		return game.Player{}, game.Player{}, false
	}
	return g.PlayerOf(g.Winner), g.PlayerOf(g.Winner.other()), true
}

func (g *Game) finish(outcome Outcome, winner Mark) {
	g.Phase = Finished
	g.Outcome = outcome
	g.Winner = winner
}

func (g *Game) lineWinner() Mark {
	for _, l := range lines {
		a := g.Board[l[0]]
		if a != Empty && a == g.Board[l[1]] && a == g.Board[l[2]] {
			return a
		}
	}
	return Empty
}

// Descriptor describes the board duel for the command catalog.
type Descriptor struct{}

func (Descriptor) Name() string        { return "Vanyanya-Banyanya" }
func (Descriptor) Command() string     { return "game" }
func (Descriptor) Description() string { return "banana tic-tac-toe, reply to your opponent's message" }
