// Package rps implements the rock-scissors-banana duel: simultaneous choices,
// resolved round by round until the players stop.
package rps

import (
	"banana-bot/internal/apperr"
	"banana-bot/internal/game"
)

// Errors for the duel
var (
	ErrNotProposed   = apperr.Stale("the challenge is out of date! Be-be-be!")
	ErrNotActive     = apperr.Stale("game not found! Oh-oh!")
	ErrNotOpponent   = apperr.Forbidden("not for you, minion!")
	ErrNotPlayer     = apperr.Forbidden("you're not a participant!")
	ErrBadChoice     = apperr.Input("unknown choice")
	ErrSelfChallenge = apperr.Input("a minion can't play against itself! Be-be-be!")
)

// Choice is one of the three hand shapes.
type Choice uint8

// Choices. None means no choice submitted yet.
const (
	None Choice = iota
	Rock
	Scissors
	Banana
)

// Choices lists the playable shapes in button order.
var Choices = []Choice{Rock, Scissors, Banana}

// beats maps each choice to the single choice it defeats.
var beats = map[Choice]Choice{
	Rock:     Scissors,
	Scissors: Banana,
	Banana:   Rock,
}

// Beats reports whether a defeats b.
func Beats(a, b Choice) bool {
	v, ok := beats[a]
	return ok && v == b
}

// Emoji returns the button symbol.
func (c Choice) Emoji() string {
	switch c {
	case Rock:
		return "🪨"
	case Scissors:
		return "✂️"
	case Banana:
		return "🍌"
	default:
		return "❔"
	}
}

// Label returns the button caption.
func (c Choice) Label() string {
	switch c {
	case Rock:
		return "🪨 Pebble"
	case Scissors:
		return "✂️ Snippers"
	case Banana:
		return "🍌 Banana"
	default:
		return "❔"
	}
}

// Code returns the stable identifier used in callback data.
func (c Choice) Code() string {
	switch c {
	case Rock:
		return "rock"
	case Scissors:
		return "scissors"
	case Banana:
		return "banana"
	default:
		return ""
	}
}

// ParseChoice converts a callback code back into a Choice.
func ParseChoice(code string) (Choice, error) {
	for _, c := range Choices {
		if c.Code() == code {
			return c, nil
		}
	}
	return None, ErrBadChoice
}

// Phase is the lifecycle stage of a duel.
type Phase int

// Phases. An active duel has no terminal phase of its own; it ends when
// destroyed by a decline or a stop.
const (
	Proposed Phase = iota
	Active
)

// Seat is one player's standing in the duel.
type Seat struct {
	Player game.Player
	Choice Choice
	Score  int
}

// RoundResult describes a resolved round.
type RoundResult struct {
	Round   int
	Choices [2]Choice
	Tie     bool
	Winner  game.Player
	Loser   game.Player
}

// Duel is one best-of-N match between two seats. Seat 0 is the challenger.
type Duel struct {
	Seats [2]Seat
	Phase Phase
	Round int

	MessageID int
	ThreadID  int
}

// New creates a proposed duel.
func New(challenger, opponent game.Player) (*Duel, error) {
	if challenger.ID == opponent.ID {
		return nil, ErrSelfChallenge
	}
	return &Duel{
		Seats: [2]Seat{{Player: challenger}, {Player: opponent}},
		Phase: Proposed,
		Round: 1,
	}, nil
}

// Challenger returns the player who opened the duel.
func (d *Duel) Challenger() game.Player {
	return d.Seats[0].Player
}

// Opponent returns the challenged player.
func (d *Duel) Opponent() game.Player {
	return d.Seats[1].Player
}

// Accept starts the duel. Only the opponent may accept.
func (d *Duel) Accept(userID int64) error {
	if d.Phase != Proposed {
		return ErrNotProposed
	}
	if userID != d.Opponent().ID {
		return ErrNotOpponent
	}
	d.Phase = Active
	return nil
}

// IsPlayer reports whether userID sits in the duel.
func (d *Duel) IsPlayer(userID int64) bool {
	return d.seat(userID) != nil
}

func (d *Duel) seat(userID int64) *Seat {
	for i := range d.Seats {
		if d.Seats[i].Player.ID == userID {
			return &d.Seats[i]
		}
	}
	return nil
}

// Choose records userID's choice for the current round. A second choice in
// the same round is ignored and reported with accepted=false. When both have
// chosen the round resolves at once and res is non-nil.
func (d *Duel) Choose(userID int64, c Choice) (accepted bool, res *RoundResult, err error) {
	if d.Phase != Active {
		return false, nil, ErrNotActive
	}
	if c == None {
		return false, nil, ErrBadChoice
	}
	s := d.seat(userID)
	if s == nil {
		return false, nil, ErrNotPlayer
	}
	if s.Choice != None {
		return false, nil, nil
	}
	s.Choice = c

	if d.Seats[0].Choice == None || d.Seats[1].Choice == None {
		return true, nil, nil
	}
	return true, d.resolve(), nil
}

// Waiting reports whether userID has already chosen this round.
func (d *Duel) Waiting(userID int64) bool {
	s := d.seat(userID)
	return s != nil && s.Choice != None
}

func (d *Duel) resolve() *RoundResult {
	a, b := &d.Seats[0], &d.Seats[1]
	res := &RoundResult{Round: d.Round, Choices: [2]Choice{a.Choice, b.Choice}}

	switch {
	case a.Choice == b.Choice:
		res.Tie = true
	case Beats(a.Choice, b.Choice):
		a.Score++
		res.Winner, res.Loser = a.Player, b.Player
	default:
		b.Score++
		res.Winner, res.Loser = b.Player, a.Player
	}

	a.Choice, b.Choice = None, None
	d.Round++
	return res
}

// Descriptor describes the duel for the command catalog.
type Descriptor struct{}

func (Descriptor) Name() string        { return "Banana Fight" }
func (Descriptor) Command() string     { return "knb" }
func (Descriptor) Description() string { return "rock, scissors, banana, reply to your opponent's message" }
