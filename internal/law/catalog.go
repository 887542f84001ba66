// Package law holds the chat law catalog and the per-chat law enforcer.
package law

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Knetic/govaluate"
	"gopkg.in/yaml.v3"

	"banana-bot/internal/game"
)

// Catalog is an ordered list of rules: built-ins first, then expression rules.
type Catalog struct {
	rules []Rule
}

// NewCatalog returns a catalog of the built-in rules followed by extra.
func NewCatalog(extra ...Rule) *Catalog {
	rules := make([]Rule, 0, len(Builtin)+len(extra))
	rules = append(rules, Builtin...)
	rules = append(rules, extra...)
	return &Catalog{rules: rules}
}

// Match returns the first rule selected by lawText.
func (c *Catalog) Match(lawText string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Matches(lawText) {
			return r, true
		}
	}
	return Rule{}, false
}

// Texts returns the rule texts in catalog order.
func (c *Catalog) Texts() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Text
	}
	return out
}

// Random returns the text of a random rule.
func (c *Catalog) Random(r game.Random) string {
	return game.Pick(r, c.rules).Text
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// ExprLaw is an expression rule as written in the catalog file.
type ExprLaw struct {
	Text string `yaml:"text"`
	Expr string `yaml:"expr"`
}

type catalogFile struct {
	Laws []ExprLaw `yaml:"laws"`
}

// LoadFile reads expression rules from a YAML file of the form
//
//	laws:
//	  - text: "Messages must be short"
//	    expr: "length <= 20"
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read law catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes expression rules from YAML.
func Parse(data []byte) ([]Rule, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse law catalog: %w", err)
	}

	rules := make([]Rule, 0, len(f.Laws))
	for i, def := range f.Laws {
		r, err := ExprRule(def)
		if err != nil {
			return nil, fmt.Errorf("law %d: %w", i+1, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ExprRule compiles def into a rule. The message violates the rule when the
// expression evaluates to false. An expression that fails at evaluation time
// or yields a non-boolean never reports a violation.
func ExprRule(def ExprLaw) (Rule, error) {
	text := strings.TrimSpace(def.Text)
	if text == "" {
		return Rule{}, fmt.Errorf("empty law text")
	}
	expr, err := govaluate.NewEvaluableExpression(def.Expr)
	if err != nil {
		return Rule{}, fmt.Errorf("compile %q: %w", def.Expr, err)
	}

	return Rule{
		Text:    text,
		Markers: []string{text},
		Violates: func(msg string) bool {
			result, err := expr.Evaluate(Params(msg))
			if err != nil {
				return false
			}
			ok, isBool := result.(bool)
			return isBool && !ok
		},
	}, nil
}

// Params computes the expression variables for a message.
func Params(text string) map[string]interface{} {
	var letters, digits, spaces, upper, lower int
	for _, c := range text {
		switch {
		case unicode.IsLetter(c):
			letters++
			if unicode.IsUpper(c) {
				upper++
			} else if unicode.IsLower(c) {
				lower++
			}
		case unicode.IsDigit(c):
			digits++
		case unicode.IsSpace(c):
			spaces++
		}
	}

	return map[string]interface{}{
		"length":             float64(utf8.RuneCountInString(text)),
		"words":              float64(len(strings.Fields(text))),
		"letters":            float64(letters),
		"digits":             float64(digits),
		"spaces":             float64(spaces),
		"upper":              float64(upper),
		"lower":              float64(lower),
		"ends_with_question": strings.HasSuffix(text, "?"),
	}
}
