// Package moderation holds the warn ladder, jail argument parsing, text
// commands and pending confirmations for destructive actions.
package moderation

import (
	"strconv"
	"strings"
	"time"
)

// Penalty is what a warn count earns.
type Penalty struct {
	Warns int
	Mute  time.Duration
	Ban   bool
}

// MaxWarns is the count that ends in a permanent ban.
const MaxWarns = 10

var ladder = map[int]time.Duration{
	2: 30 * time.Minute,
	3: 2 * time.Hour,
	4: 4 * time.Hour,
	5: 6 * time.Hour,
	6: 12 * time.Hour,
	7: 24 * time.Hour,
	8: 48 * time.Hour,
	9: 72 * time.Hour,
}

// PenaltyFor returns the penalty for reaching count warns. The first warn
// carries no mute.
func PenaltyFor(count int) Penalty {
	if count >= MaxWarns {
		return Penalty{Warns: count, Ban: true}
	}
	return Penalty{Warns: count, Mute: ladder[count]}
}

// Describe returns the chat notice for a penalty.
func (p Penalty) Describe(name string) string {
	switch {
	case p.Ban:
		return "💀 " + name + " collected " + strconv.Itoa(MaxWarns) + " warnings!\n🚀 Permanent BAN for chronic violations!\nBanana hell for you! 🔥🍌"
	case p.Warns <= 1:
		return "⚠️ " + name + " got the 1st warning!\nNo punishment yet, but be careful!\nBe-be-be-be-doom! 🎶"
	default:
		return "🔇 " + name + " now has " + strconv.Itoa(p.Warns) + " warnings!\nMuted for " + HumanDuration(p.Mute) + " for bad behavior!\nBe-be-be, careful! 🎵"
	}
}

// HumanDuration formats d as minutes, hours or days.
func HumanDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// DefaultReason is used when a jail reason is omitted.
const DefaultReason = "no reason given"

// ParseJail reads "[minutes] [reason...]". A leading number is clamped to
// [1, maxMinutes]; otherwise every argument is the reason.
func ParseJail(args []string, defMinutes, maxMinutes int) (minutes int, reason string) {
	minutes, reason = defMinutes, DefaultReason
	if len(args) == 0 {
		return minutes, reason
	}
	if n, err := strconv.Atoi(args[0]); err == nil && isDigits(args[0]) {
		minutes = min(max(1, n), maxMinutes)
		args = args[1:]
	}
	if len(args) > 0 {
		reason = strings.Join(args, " ")
	}
	return minutes, reason
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// Command is a text-triggered moderation action.
type Command string

const (
	CmdMute   Command = "mute"
	CmdFree   Command = "free"
	CmdWarn   Command = "warn"
	CmdUnwarn Command = "unwarn"
	CmdBan    Command = "ban"
	CmdKick   Command = "kick"
)

var aliases = map[string]Command{
	"mute":   CmdMute,
	"free":   CmdFree,
	"warn":   CmdWarn,
	"unwarn": CmdUnwarn,
	"ban":    CmdBan,
	"kick":   CmdKick,
	"мут":    CmdMute,
	"фри":    CmdFree,
	"варн":   CmdWarn,
	"анварн": CmdUnwarn,
	"бан":    CmdBan,
	"кик":    CmdKick,
}

// NeedsConfirmation reports whether c must be confirmed before it runs.
func (c Command) NeedsConfirmation() bool {
	return c == CmdBan || c == CmdKick
}

// ParseText recognises a moderation command as the first word of text.
func ParseText(text string) (cmd Command, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil, false
	}
	cmd, ok = aliases[strings.ToLower(fields[0])]
	if !ok {
		return "", nil, false
	}
	return cmd, fields[1:], true
}
