// Package game defines what the chat games have in common: players, the
// random source they draw from, and the catalog shown by /help.
package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Player is a participant identified by platform user ID.
type Player struct {
	ID       int64
	Name     string
	Username string
}

// Display returns @username when known, otherwise the first name.
func (p Player) Display() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("id%d", p.ID)
}

// Random is the randomness games draw from. Tests substitute a fixed sequence.
type Random interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

// NewRandom returns a Random backed by the runtime's global generator.
func NewRandom() Random {
	return globalRandom{}
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int   { return rand.IntN(n) }
func (globalRandom) Float64() float64 { return rand.Float64() }

// Between returns a uniform integer in [lo, hi].
func Between(r Random, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(r.IntN(int(hi-lo+1)))
}

// Pick returns a uniform element of items. items must not be empty.
func Pick[T any](r Random, items []T) T {
	return items[r.IntN(len(items))]
}

// Info describes a game for the command catalog.
type Info interface {
	// Name returns the game's display name (e.g., "Banana Tic-Tac-Toe")
	Name() string

	// Command returns the command that starts this game (e.g., "game")
	Command() string

	// Description returns a brief description of the game
	Description() string
}

// HelpLine renders an Info as one /help entry.
func HelpLine(g Info) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(g.Command())
	b.WriteString(" - ")
	b.WriteString(g.Name())
	if d := g.Description(); d != "" {
		b.WriteString(": ")
		b.WriteString(d)
	}
	return b.String()
}
