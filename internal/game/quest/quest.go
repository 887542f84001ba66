// Package quest implements the timed detective quest: a crime scenario, a
// clue pool, suspect interrogation and a plurality vote on the culprit.
package quest

import (
	"errors"
	"fmt"
	"slices"

	"banana-bot/internal/apperr"
	"banana-bot/internal/game"
)

// NoOne is the verdict when nobody voted.
const NoOne = "no one"

var (
	ErrUnknownSuspect = apperr.Input("not among the suspects")
	ErrNoScenario     = errors.New("quest: no scenarios configured")
)

// Scenario is one crime to solve.
type Scenario struct {
	Crime    string
	Suspects []string
	Culprit  string
	Solution string
	// Answers holds interrogation lines per suspect.
	Answers map[string][]string
}

// Scenarios is the built-in scenario pool.
var Scenarios = []Scenario{
	{
		Crime:    "100🍌 were stolen from the banana vault!",
		Suspects: []string{"@Mister_Yellow", "@Banana_Joe", "@Minion_Harry"},
		Culprit:  "@Banana_Joe",
		Solution: "He was the only one who knew the vault code",
		Answers: map[string][]string{
			"@Mister_Yellow": {"I was at the banana stall!", "Don't touch me!", "I'm innocent!"},
			"@Banana_Joe":    {"Uhh... I... didn't take anything!", "*scratches nervously*", "Maybe yes, maybe no..."},
			"@Minion_Harry":  {"I was asleep!", "I'm tiny, I couldn't have!", "Ask Banana Joe!"},
		},
	},
}

// Clues is the built-in clue pool shared by all scenarios.
var Clues = []string{
	"Yellow footprints were found at the crime scene",
	"Someone heard a strange 'Ba-na-na' sound",
	"Cameras caught movement at 3:15",
	"Traces of banana peel were discovered",
}

// UnknownAnswer is the reply for anyone outside the answer script.
const UnknownAnswer = "Never heard of them"

type vote struct {
	userID  int64
	suspect string
}

// Quest is the state of one running quest.
type Quest struct {
	Scenario Scenario
	Revealed []string

	TriggerMessageID int
	ThreadID         int

	clues []string
	votes []vote
}

// New picks a random scenario and returns an active quest.
func New(r game.Random, scenarios []Scenario, clues []string) (*Quest, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoScenario
	}
	return &Quest{
		Scenario: game.Pick(r, scenarios),
		clues:    slices.Clone(clues),
	}, nil
}

// Clue reveals one not yet revealed clue at random. ok is false when every
// clue has been found.
func (q *Quest) Clue(r game.Random) (clue string, ok bool) {
	var left []string
	for _, c := range q.clues {
		if !slices.Contains(q.Revealed, c) {
			left = append(left, c)
		}
	}
	if len(left) == 0 {
		return "", false
	}
	clue = game.Pick(r, left)
	q.Revealed = append(q.Revealed, clue)
	return clue, true
}

// IsSuspect reports whether name is on the suspect list.
func (q *Quest) IsSuspect(name string) bool {
	return slices.Contains(q.Scenario.Suspects, name)
}

// Vote records or overwrites userID's vote. An overwritten vote keeps the
// voter's original position.
func (q *Quest) Vote(userID int64, suspect string) error {
	if !q.IsSuspect(suspect) {
		return ErrUnknownSuspect
	}
	for i := range q.votes {
		if q.votes[i].userID == userID {
			q.votes[i].suspect = suspect
			return nil
		}
	}
	q.votes = append(q.votes, vote{userID: userID, suspect: suspect})
	return nil
}

// Votes returns the number of voters.
func (q *Quest) Votes() int {
	return len(q.votes)
}

// Ask returns a scripted interrogation reply. Names without a script get
// UnknownAnswer.
func (q *Quest) Ask(r game.Random, suspect string) string {
	answers := q.Scenario.Answers[suspect]
	if len(answers) == 0 {
		return fmt.Sprintf("%s: %s", suspect, UnknownAnswer)
	}
	return fmt.Sprintf("%s: %s", suspect, game.Pick(r, answers))
}

// Verdict is the outcome of the vote.
type Verdict struct {
	Chosen  string
	Count   int
	Correct bool
	Culprit string
}

// Tally resolves the vote by plurality. Ties go to the candidate that was
// first voted for in voter order. With no votes the verdict is NoOne.
func (q *Quest) Tally() Verdict {
	v := Verdict{Chosen: NoOne, Culprit: q.Scenario.Culprit}

	counts := make(map[string]int, len(q.Scenario.Suspects))
	var order []string
	for _, vt := range q.votes {
		if _, seen := counts[vt.suspect]; !seen {
			order = append(order, vt.suspect)
		}
		counts[vt.suspect]++
	}
	for _, s := range order {
		if counts[s] > v.Count {
			v.Chosen, v.Count = s, counts[s]
		}
	}
	v.Correct = v.Count > 0 && v.Chosen == q.Scenario.Culprit
	return v
}

// Descriptor describes the quest for the command catalog.
type Descriptor struct{}

func (Descriptor) Name() string        { return "Detective Quest" }
func (Descriptor) Command() string     { return "quest" }
func (Descriptor) Description() string { return "solve the banana crime in 5 minutes: /clue, /vote, /ask, /stop_quest" }
