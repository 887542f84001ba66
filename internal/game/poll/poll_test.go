package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		question string
		options  []string
		wantErr  bool
	}{
		{"two options", "Lunch? <Banana> <Apple>", "Lunch?", []string{"Banana", "Apple"}, false},
		{"five options", "Q <a> <b> <c> <d> <e>", "Q", []string{"a", "b", "c", "d", "e"}, false},
		{"six options", "Q <a> <b> <c> <d> <e> <f>", "", nil, true},
		{"one option", "Q <a>", "", nil, true},
		{"no question", "<a> <b>", "", nil, true},
		{"blank option skipped", "Q <a> < > <b>", "Q", []string{"a", "b"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, opts, err := Parse(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.question, q)
			assert.Equal(t, tt.options, opts)
		})
	}
}

func TestVote_Overwrite(t *testing.T) {
	p, err := New(1, "Q", []string{"a", "b"})
	require.NoError(t, err)

	require.NoError(t, p.Vote(10, 0))
	require.NoError(t, p.Vote(11, 0))
	require.NoError(t, p.Vote(10, 1))

	results, total := p.Results()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, results[0].Count)
	assert.Equal(t, 1, results[1].Count)
	assert.Equal(t, 50, results[0].Percent)

	assert.ErrorIs(t, p.Vote(10, 2), ErrBadOption)
	assert.ErrorIs(t, p.Vote(10, -1), ErrBadOption)
}

func TestResults_Rounding(t *testing.T) {
	p, _ := New(1, "Q", []string{"a", "b"})
	_ = p.Vote(1, 0)
	_ = p.Vote(2, 0)
	_ = p.Vote(3, 1)

	results, _ := p.Results()
	assert.Equal(t, 67, results[0].Percent)
	assert.Equal(t, 33, results[1].Percent)
}

func TestEnd(t *testing.T) {
	p, _ := New(1, "Q", []string{"a", "b"})

	assert.ErrorIs(t, p.End(2, false), ErrNotOwner)
	require.NoError(t, p.End(2, true))
	assert.True(t, p.Ended)

	assert.ErrorIs(t, p.Vote(3, 0), ErrEnded)
	assert.ErrorIs(t, p.End(1, false), ErrEnded)
	assert.Contains(t, p.Render(), "Poll closed")
}

func TestRender_Empty(t *testing.T) {
	p, _ := New(1, "Lunch?", []string{"Banana", "Apple"})
	out := p.Render()
	assert.Contains(t, out, "🍌 - Banana: 0 votes (0%)")
	assert.Contains(t, out, "🍉 - Apple: 0 votes (0%)")
	assert.Contains(t, out, "Voted: 0")
}
