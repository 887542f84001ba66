// Package poll implements banana polls with 2 to 5 options.
package poll

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"banana-bot/internal/apperr"
)

const (
	MinOptions = 2
	MaxOptions = 5
)

// Emojis labels the option buttons in order.
var Emojis = [MaxOptions]string{"🍌", "🍉", "🍎", "🍐", "🍇"}

var (
	ErrUsage     = apperr.Input("usage: /poll Question <Option1> <Option2> [<Option3>]...[<Option5>], 2 to 5 options")
	ErrBadOption = apperr.Input("no such option")
	ErrEnded     = apperr.Stale("oh banana! The poll is over, no more voting 🛑")
	ErrNotOwner  = apperr.Forbidden("wee-doo, wee-doo! Only the creator or a boss admin can close the banana poll 🍌👑")
)

var optionRe = regexp.MustCompile(`<([^<>]+)>`)

// Parse splits "Question <a> <b>" into the question and its options.
func Parse(text string) (question string, options []string, err error) {
	question, _, _ = strings.Cut(text, "<")
	question = strings.TrimSpace(question)
	for _, m := range optionRe.FindAllStringSubmatch(text, -1) {
		if opt := strings.TrimSpace(m[1]); opt != "" {
			options = append(options, opt)
		}
	}
	if question == "" || len(options) < MinOptions || len(options) > MaxOptions {
		return "", nil, ErrUsage
	}
	return question, options, nil
}

// Poll is one running poll.
type Poll struct {
	Question  string
	Options   []string
	CreatorID int64
	Ended     bool
	MessageID int
	ThreadID  int

	votes map[int64]int
}

// New validates the options and returns an open poll.
func New(creatorID int64, question string, options []string) (*Poll, error) {
	if strings.TrimSpace(question) == "" || len(options) < MinOptions || len(options) > MaxOptions {
		return nil, ErrUsage
	}
	return &Poll{
		Question:  question,
		Options:   options,
		CreatorID: creatorID,
		votes:     make(map[int64]int),
	}, nil
}

// Vote records userID's choice, replacing any earlier one.
func (p *Poll) Vote(userID int64, option int) error {
	if p.Ended {
		return ErrEnded
	}
	if option < 0 || option >= len(p.Options) {
		return ErrBadOption
	}
	p.votes[userID] = option
	return nil
}

// End closes the poll. Only the creator or an admin may end it.
func (p *Poll) End(userID int64, admin bool) error {
	if p.Ended {
		return ErrEnded
	}
	if userID != p.CreatorID && !admin {
		return ErrNotOwner
	}
	p.Ended = true
	return nil
}

// Result is the tally for one option.
type Result struct {
	Emoji   string
	Option  string
	Count   int
	Percent int
}

// Results returns per-option counts and rounded percentages.
func (p *Poll) Results() (results []Result, total int) {
	counts := make([]int, len(p.Options))
	for _, opt := range p.votes {
		counts[opt]++
	}
	total = len(p.votes)
	results = make([]Result, len(p.Options))
	for i, opt := range p.Options {
		pct := 0
		if total > 0 {
			pct = (counts[i]*200 + total) / (total * 2)
		}
		results[i] = Result{Emoji: Emojis[i], Option: opt, Count: counts[i], Percent: pct}
	}
	return results, total
}

// Render formats the poll message body.
func (p *Poll) Render() string {
	results, total := p.Results()
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s</b>\n", html.EscapeString(p.Question))
	for _, r := range results {
		fmt.Fprintf(&b, "%s - %s: %d votes (%d%%)\n", r.Emoji, html.EscapeString(r.Option), r.Count, r.Percent)
	}
	fmt.Fprintf(&b, "\n🗳 Voted: %d", total)
	if p.Ended {
		b.WriteString("\n\n💥 Poll closed! The bananas are safe! 🍌🍌🍌")
	}
	return b.String()
}
