package law

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is one catalog entry. A law matches the rule when its text contains
// any of the markers, case-insensitively.
type Rule struct {
	Text     string
	Markers  []string
	Violates func(text string) bool
}

// Matches reports whether lawText selects this rule.
func (r Rule) Matches(lawText string) bool {
	lower := strings.ToLower(lawText)
	for _, m := range r.Markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

const (
	cyrVowels     = "аеёиоуыэюя"
	latVowels     = "aeiou"
	cyrConsonants = "бвгджзйклмнпрстфхцчшщ"
	latConsonants = "bcdfghjklmnpqrstvwxyz"
	cyrAlphabet   = "абвгдеёжзийклмнопрстуфхцчшщъыьэюя"
	minionLetters = "миньо" + "mino"
	mathSymbols   = "+-*/=()0123456789 "
)

var (
	numberRe = regexp.MustCompile(`\d+`)
	wordRe   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

func anyRune(text string, pred func(rune) bool) bool {
	return strings.IndexFunc(text, pred) >= 0
}

func anyLetter(text string, pred func(lower rune) bool) bool {
	return anyRune(text, func(c rune) bool {
		return unicode.IsLetter(c) && pred(unicode.ToLower(c))
	})
}

func in(set string) func(rune) bool {
	return func(c rune) bool { return strings.ContainsRune(set, c) }
}

func notIn(set string) func(rune) bool {
	return func(c rune) bool { return !strings.ContainsRune(set, c) }
}

func isEmoji(c rune) bool {
	switch {
	case c >= 0x1F600 && c <= 0x1F64F,
		c >= 0x1F300 && c <= 0x1F5FF,
		c >= 0x1F680 && c <= 0x1F6FF,
		c >= 0x1F1E0 && c <= 0x1F1FF,
		c >= 0x2702 && c <= 0x27B0,
		c >= 0x24C2 && c <= 0x1F251:
		return true
	}
	return false
}

// Builtin is the ordered rule chain. The first matching rule wins.
var Builtin = []Rule{
	{
		Text:    "All messages must end with a question mark?",
		Markers: []string{"question mark", "знаком вопроса"},
		Violates: func(text string) bool {
			return !strings.HasSuffix(text, "?")
		},
	},
	{
		Text:    "The letter 'E' is forbidden",
		Markers: []string{"letter 'E'", "букву 'Е'"},
		Violates: func(text string) bool {
			return anyLetter(text, in("еe"))
		},
	},
	{
		Text:    "Every message must contain a random number from 1 to 100",
		Markers: []string{"random number from 1 to 100", "случайное число от 1 до 100"},
		Violates: func(text string) bool {
			for _, m := range numberRe.FindAllString(text, -1) {
				if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 100 {
					return false
				}
			}
			return true
		},
	},
	{
		Text:    "Speak only in a whisper (all letters lowercase)",
		Markers: []string{"whisper", "шёпотом"},
		Violates: func(text string) bool {
			return text != strings.ToLower(text)
		},
	},
	{
		Text:    "Use only words shorter than 5 letters",
		Markers: []string{"words shorter than 5 letters", "слова короче 5 букв"},
		Violates: func(text string) bool {
			return slices.ContainsFunc(wordRe.FindAllString(text, -1), func(w string) bool {
				return utf8.RuneCountInString(w) >= 5
			})
		},
	},
	{
		Text:    "All digits are forbidden except 7",
		Markers: []string{"digits are forbidden except 7", "цифры, кроме 7"},
		Violates: func(text string) bool {
			return anyRune(text, func(c rune) bool { return unicode.IsDigit(c) && c != '7' })
		},
	},
	{
		Text:    "Use only the letters found in the word 'minion'",
		Markers: []string{"letters found in the word 'minion'", "буквы, которые есть в слове 'миньон'"},
		Violates: func(text string) bool {
			return anyLetter(text, notIn(minionLetters))
		},
	},
	{
		Text:    "Use only vowel letters",
		Markers: []string{"only vowel letters", "гласные буквы"},
		Violates: func(text string) bool {
			return anyLetter(text, notIn(cyrVowels+latVowels))
		},
	},
	{
		Text:    "Use only consonant letters",
		Markers: []string{"only consonant letters", "согласные буквы"},
		Violates: func(text string) bool {
			return anyLetter(text, notIn(cyrConsonants+latConsonants))
		},
	},
	{
		Text:    "Write without spaces",
		Markers: []string{"without spaces", "без пробелов"},
		Violates: func(text string) bool {
			return strings.Contains(text, " ")
		},
	},
	{
		Text:    "Write only emoji",
		Markers: []string{"only emoji", "только эмодзи"},
		Violates: func(text string) bool {
			return text == "" || anyRune(text, func(c rune) bool { return !isEmoji(c) })
		},
	},
	{
		Text:    "Every word starts with a capital letter",
		Markers: []string{"every word starts with a capital letter", "каждое слово с заглавной буквы"},
		Violates: func(text string) bool {
			return slices.ContainsFunc(strings.Fields(text), func(w string) bool {
				first, _ := utf8.DecodeRuneInString(w)
				return !unicode.IsUpper(first)
			})
		},
	},
	{
		Text:    "No repeating letters",
		Markers: []string{"no repeating letters", "без повторяющихся букв"},
		Violates: func(text string) bool {
			seen := make(map[rune]bool)
			for _, c := range text {
				if !unicode.IsLetter(c) {
					continue
				}
				c = unicode.ToLower(c)
				if seen[c] {
					return true
				}
				seen[c] = true
			}
			return false
		},
	},
	{
		Text:    "Write only punctuation marks",
		Markers: []string{"only punctuation marks", "только знаки препинания"},
		Violates: func(text string) bool {
			return anyRune(text, func(c rune) bool { return unicode.IsLetter(c) || unicode.IsNumber(c) })
		},
	},
	{
		Text:    "Every message must have an even number of characters",
		Markers: []string{"even number of characters", "четное количество символов"},
		Violates: func(text string) bool {
			return utf8.RuneCountInString(text)%2 != 0
		},
	},
	{
		Text:    "Every message must be a palindrome",
		Markers: []string{"palindrome", "палиндром"},
		Violates: func(text string) bool {
			var clean []rune
			for _, c := range strings.ToLower(text) {
				if strings.ContainsRune(cyrAlphabet, c) || (c >= 'a' && c <= 'z') {
					clean = append(clean, c)
				}
			}
			rev := slices.Clone(clean)
			slices.Reverse(rev)
			return !slices.Equal(clean, rev)
		},
	},
	{
		Text:    "Write without vowel letters",
		Markers: []string{"without vowel letters", "без гласных букв"},
		Violates: func(text string) bool {
			return anyLetter(text, in(cyrVowels+latVowels))
		},
	},
	{
		Text:    "Use only Cyrillic letters",
		Markers: []string{"only cyrillic letters", "только русские буквы"},
		Violates: func(text string) bool {
			return anyLetter(text, notIn(cyrAlphabet))
		},
	},
	{
		Text:    "Alternating case is mandatory (lower, upper, lower...)",
		Markers: []string{"alternating case", "чередование регистра"},
		Violates: func(text string) bool {
			i := 0
			for _, c := range text {
				if unicode.IsLetter(c) {
					if (i%2 == 0 && !unicode.IsLower(c)) || (i%2 != 0 && !unicode.IsUpper(c)) {
						return true
					}
				}
				i++
			}
			return false
		},
	},
	{
		Text:    "Use only mathematical symbols",
		Markers: []string{"mathematical symbols", "математические символы"},
		Violates: func(text string) bool {
			return anyRune(text, notIn(mathSymbols))
		},
	},
}
