package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banana-bot/internal/game"
)

var (
	alice = game.Player{ID: 1, Name: "Alice"}
	bob   = game.Player{ID: 2, Name: "Bob"}
)

func newActive(t *testing.T) *Game {
	t.Helper()
	g, err := New(alice, bob)
	require.NoError(t, err)
	require.NoError(t, g.Accept(bob.ID))
	return g
}

func TestNew_RejectsSelf(t *testing.T) {
	_, err := New(alice, alice)
	assert.ErrorIs(t, err, ErrSelfChallenge)
}

func TestAccept_OnlyOpponent(t *testing.T) {
	g, _ := New(alice, bob)

	assert.ErrorIs(t, g.Accept(alice.ID), ErrNotOpponent)
	assert.Equal(t, Proposed, g.Phase)

	require.NoError(t, g.Accept(bob.ID))
	assert.Equal(t, Active, g.Phase)
	assert.ErrorIs(t, g.Accept(bob.ID), ErrNotProposed)
}

func TestMove_Rules(t *testing.T) {
	g := newActive(t)

	tests := []struct {
		name  string
		user  int64
		cell  int
		err   error
		moves int
	}{
		{"outsider", 99, 0, ErrNotPlayer, 0},
		{"out of turn", bob.ID, 0, ErrNotYourTurn, 0},
		{"bad cell", alice.ID, 9, ErrBadCell, 0},
		{"legal", alice.ID, 4, nil, 1},
		{"taken", bob.ID, 4, ErrCellTaken, 1},
		{"legal reply", bob.ID, 0, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := g.Turn
			_, err := g.Move(tt.user, tt.cell)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, before, g.Turn, "illegal move must not advance turn")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.moves, g.Moves)
		})
	}
}

func TestMove_TopRowWinForFirstMover(t *testing.T) {
	g := newActive(t)

	moves := []struct {
		user int64
		cell int
	}{
		{alice.ID, 0}, {bob.ID, 3}, {alice.ID, 1}, {bob.ID, 4}, {alice.ID, 2},
	}
	var outcome Outcome
	for _, m := range moves {
		var err error
		outcome, err = g.Move(m.user, m.cell)
		require.NoError(t, err)
	}

	assert.Equal(t, Win, outcome)
	assert.Equal(t, Finished, g.Phase)
	winner, loser, ok := g.Result()
	require.True(t, ok)
	assert.Equal(t, alice, winner)
	assert.Equal(t, bob, loser)

	_, err := g.Move(bob.ID, 8)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestMove_WinOnFullBoardIsNotDraw(t *testing.T) {
	g := newActive(t)

	// A completes column 0-3-6 with the ninth move
	seq := []int{0, 1, 3, 4, 2, 5, 7, 8, 6}
	var outcome Outcome
	for i, cell := range seq {
		user := alice.ID
		if i%2 == 1 {
			user = bob.ID
		}
		var err error
		outcome, err = g.Move(user, cell)
		require.NoError(t, err)
	}

	assert.Equal(t, 9, g.Moves)
	assert.Equal(t, Win, outcome)
	assert.Equal(t, MarkA, g.Winner)
}

func TestMove_Draw(t *testing.T) {
	g := newActive(t)

	// A B A / A B B / B A A
	seq := []int{0, 1, 2, 4, 3, 5, 7, 6, 8}
	var outcome Outcome
	for i, cell := range seq {
		user := alice.ID
		if i%2 == 1 {
			user = bob.ID
		}
		var err error
		outcome, err = g.Move(user, cell)
		require.NoError(t, err)
	}

	assert.Equal(t, Draw, outcome)
	_, _, ok := g.Result()
	assert.False(t, ok)
}

func TestForfeit(t *testing.T) {
	g := newActive(t)

	require.NoError(t, g.Forfeit(alice.ID))
	winner, loser, ok := g.Result()
	require.True(t, ok)
	assert.Equal(t, bob, winner)
	assert.Equal(t, alice, loser)
}

func TestCanCancel(t *testing.T) {
	g, _ := New(alice, bob)

	assert.NoError(t, g.CanCancel(alice.ID))
	assert.NoError(t, g.CanCancel(bob.ID))
	assert.ErrorIs(t, g.CanCancel(3), ErrNotChallenger)

	require.NoError(t, g.Accept(bob.ID))
	assert.ErrorIs(t, g.CanCancel(alice.ID), ErrNotProposed)
}
