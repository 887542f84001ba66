package rps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banana-bot/internal/game"
)

var (
	stuart = game.Player{ID: 10, Name: "Stuart"}
	dave   = game.Player{ID: 20, Name: "Dave"}
)

func newActive(t *testing.T) *Duel {
	t.Helper()
	d, err := New(stuart, dave)
	require.NoError(t, err)
	require.NoError(t, d.Accept(dave.ID))
	return d
}

func TestBeats(t *testing.T) {
	assert.True(t, Beats(Rock, Scissors))
	assert.True(t, Beats(Scissors, Banana))
	assert.True(t, Beats(Banana, Rock))
	assert.False(t, Beats(Scissors, Rock))
	assert.False(t, Beats(Rock, Rock))
}

func TestChoose_ResolvesOnSecondChoice(t *testing.T) {
	d := newActive(t)

	ok, res, err := d.Choose(stuart.ID, Rock)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, res)

	// Resubmission in the same round is a no-op
	ok, res, err = d.Choose(stuart.ID, Banana)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)

	ok, res, err = d.Choose(dave.ID, Scissors)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, stuart, res.Winner)
	assert.Equal(t, dave, res.Loser)
	assert.Equal(t, [2]Choice{Rock, Scissors}, res.Choices)

	assert.Equal(t, 2, d.Round)
	assert.Equal(t, 1, d.Seats[0].Score)
	assert.False(t, d.Waiting(stuart.ID), "choices cleared for the next round")
}

func TestChoose_Tie(t *testing.T) {
	d := newActive(t)

	_, _, _ = d.Choose(stuart.ID, Banana)
	_, res, err := d.Choose(dave.ID, Banana)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Tie)
	assert.Equal(t, 0, d.Seats[0].Score)
	assert.Equal(t, 0, d.Seats[1].Score)
}

func TestChoose_Errors(t *testing.T) {
	d, _ := New(stuart, dave)

	_, _, err := d.Choose(stuart.ID, Rock)
	assert.ErrorIs(t, err, ErrNotActive)

	assert.ErrorIs(t, d.Accept(stuart.ID), ErrNotOpponent)
	require.NoError(t, d.Accept(dave.ID))

	_, _, err = d.Choose(99, Rock)
	assert.ErrorIs(t, err, ErrNotPlayer)

	_, _, err = d.Choose(stuart.ID, None)
	assert.ErrorIs(t, err, ErrBadChoice)
}

func TestParseChoice(t *testing.T) {
	for _, c := range Choices {
		got, err := ParseChoice(c.Code())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseChoice("paper")
	assert.ErrorIs(t, err, ErrBadChoice)
}
