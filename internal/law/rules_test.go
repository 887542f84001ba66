package law

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_EachTextSelectsItsOwnRule(t *testing.T) {
	c := NewCatalog()
	require.Len(t, Builtin, 20)
	for _, r := range Builtin {
		got, ok := c.Match(r.Text)
		require.True(t, ok, r.Text)
		assert.Equal(t, r.Text, got.Text)
	}
}

func TestBuiltin_OrderedChain(t *testing.T) {
	c := NewCatalog()

	// The consonant template also contains the vowel marker; the earlier rule wins.
	got, ok := c.Match("Использовать только согласные буквы")
	require.True(t, ok)
	assert.Equal(t, "Use only vowel letters", got.Text)

	got, ok = c.Match("Все сообщения должны заканчиваться знаком вопроса?")
	require.True(t, ok)
	assert.Equal(t, Builtin[0].Text, got.Text)

	_, ok = c.Match("Be nice to each other")
	assert.False(t, ok)
}

func TestBuiltin_Predicates(t *testing.T) {
	c := NewCatalog()
	tests := []struct {
		law       string
		text      string
		violation bool
	}{
		{"question mark", "how are you?", false},
		{"question mark", "hello", true},
		{"letter 'E'", "banana", false},
		{"letter 'E'", "hello", true},
		{"letter 'E'", "привет", true},
		{"random number from 1 to 100", "I pick 42", false},
		{"random number from 1 to 100", "I pick 420", true},
		{"random number from 1 to 100", "no numbers", true},
		{"whisper", "psst banana", false},
		{"whisper", "Psst", true},
		{"words shorter than 5 letters", "a big cat", false},
		{"words shorter than 5 letters", "banana time", true},
		{"digits are forbidden except 7", "777", false},
		{"digits are forbidden except 7", "778", true},
		{"letters found in the word 'minion'", "mini moon", false},
		{"letters found in the word 'minion'", "banana", true},
		{"only vowel letters", "aaa ooo", false},
		{"only vowel letters", "ab", true},
		{"only consonant letters", "brr", false},
		{"only consonant letters", "bra", true},
		{"without spaces", "banana!", false},
		{"without spaces", "ba nana", true},
		{"only emoji", "🍌😀", false},
		{"only emoji", "🍌 yes", true},
		{"only emoji", "", true},
		{"every word starts with a capital letter", "Big Banana", false},
		{"every word starts with a capital letter", "Big banana", true},
		{"no repeating letters", "abc", false},
		{"no repeating letters", "Abca", true},
		{"only punctuation marks", "?!...", false},
		{"only punctuation marks", "ok!", true},
		{"even number of characters", "ab", false},
		{"even number of characters", "abc", true},
		{"palindrome", "А роза упала на лапу Азора", false},
		{"palindrome", "Never odd or even", false},
		{"palindrome", "banana", true},
		{"without vowel letters", "brrr", false},
		{"without vowel letters", "bar", true},
		{"only cyrillic letters", "банан 123", false},
		{"only cyrillic letters", "банан ok", true},
		{"alternating case", "bAnAnA", false},
		{"alternating case", "BaNaNa", true},
		{"mathematical symbols", "2 + 2 = (4)", false},
		{"mathematical symbols", "2 + x", true},
	}

	for _, tt := range tests {
		t.Run(tt.law+"/"+tt.text, func(t *testing.T) {
			r, ok := c.Match(tt.law)
			require.True(t, ok)
			assert.Equal(t, tt.violation, r.Violates(tt.text))
		})
	}
}

func TestExprRules(t *testing.T) {
	rules, err := Parse([]byte(`
laws:
  - text: "Messages must be short"
    expr: "length <= 10"
  - text: "Questions with at least three words"
    expr: "ends_with_question && words >= 3"
`))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	c := NewCatalog(rules...)
	assert.Equal(t, 22, c.Len())

	short, ok := c.Match("Messages must be short")
	require.True(t, ok)
	assert.False(t, short.Violates("tiny"))
	assert.True(t, short.Violates("this is far too long"))

	q, ok := c.Match("Questions with at least three words")
	require.True(t, ok)
	assert.False(t, q.Violates("is it ok?"))
	assert.True(t, q.Violates("ok?"))
}

func TestExprRules_Invalid(t *testing.T) {
	_, err := Parse([]byte("laws:\n  - text: bad\n    expr: \"length <=\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("laws:\n  - text: \"\"\n    expr: \"true\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("laws: [unclosed"))
	assert.Error(t, err)
}

func TestParams(t *testing.T) {
	p := Params("Hi 42 there?")
	assert.Equal(t, float64(12), p["length"])
	assert.Equal(t, float64(3), p["words"])
	assert.Equal(t, float64(7), p["letters"])
	assert.Equal(t, float64(2), p["digits"])
	assert.Equal(t, float64(2), p["spaces"])
	assert.Equal(t, float64(1), p["upper"])
	assert.Equal(t, float64(6), p["lower"])
	assert.Equal(t, true, p["ends_with_question"])
}
