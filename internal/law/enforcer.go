package law

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"banana-bot/internal/apperr"
)

var (
	ErrEmptyLaw   = apperr.Input("the law text is empty! Be-be-be!")
	ErrNoLaw      = apperr.Stale("no law is active right now")
	ErrNoAppeal   = apperr.Stale("this appeal has already been resolved")
	ErrNoProposal = apperr.Stale("this proposal has already been decided")
)

// Law is the active law of one chat.
type Law struct {
	ChatID int64
	Text   string
	SetBy  int64
	Until  time.Time

	rule    Rule
	checked bool
}

// Remaining returns the time left until the law lapses.
func (l Law) Remaining(now time.Time) time.Duration {
	return max(l.Until.Sub(now), 0)
}

// Enforceable reports whether the law text selects a catalog rule.
func (l Law) Enforceable() bool {
	return l.checked
}

// AppealKey identifies the message that was punished.
type AppealKey struct {
	ChatID    int64
	MessageID int
}

// Appeal is a pending request to reverse a law fine.
type Appeal struct {
	Key        AppealKey
	UserID     int64
	UserName   string
	Law        string
	Message    string
	Fine       int64
	MutedUntil time.Time
	CreatedAt  time.Time
}

// Proposal is a law suggested by a regular member, waiting for an admin.
type Proposal struct {
	ID         uuid.UUID
	ChatID     int64
	ProposerID int64
	Proposer   string
	Text       string
	CreatedAt  time.Time
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) { e.now = now }
}

// Enforcer tracks the active law per chat, open appeals and proposals.
type Enforcer struct {
	catalog *Catalog
	now     func() time.Time

	mu        sync.Mutex
	laws      map[int64]Law
	appeals   map[AppealKey]Appeal
	proposals map[uuid.UUID]Proposal
}

// NewEnforcer creates an enforcer over catalog.
func NewEnforcer(catalog *Catalog, opts ...Option) *Enforcer {
	e := &Enforcer{
		catalog:   catalog,
		now:       time.Now,
		laws:      make(map[int64]Law),
		appeals:   make(map[AppealKey]Appeal),
		proposals: make(map[uuid.UUID]Proposal),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the rule catalog.
func (e *Enforcer) Catalog() *Catalog {
	return e.catalog
}

// Set installs text as the chat's law for d, replacing any previous law.
func (e *Enforcer) Set(chatID, setBy int64, text string, d time.Duration) (Law, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Law{}, ErrEmptyLaw
	}
	rule, ok := e.catalog.Match(text)
	l := Law{
		ChatID:  chatID,
		Text:    text,
		SetBy:   setBy,
		Until:   e.now().Add(d),
		rule:    rule,
		checked: ok,
	}

	e.mu.Lock()
	e.laws[chatID] = l
	e.mu.Unlock()
	return l, nil
}

// Active returns the chat's law if it has not lapsed. A lapsed law is purged.
func (e *Enforcer) Active(chatID int64) (Law, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeLocked(chatID)
}

func (e *Enforcer) activeLocked(chatID int64) (Law, bool) {
	l, ok := e.laws[chatID]
	if !ok {
		return Law{}, false
	}
	if !e.now().Before(l.Until) {
		delete(e.laws, chatID)
		return Law{}, false
	}
	return l, true
}

// Clear removes the chat's law.
func (e *Enforcer) Clear(chatID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.laws[chatID]
	delete(e.laws, chatID)
	return ok
}

// Check reports whether text breaks the chat's active law.
func (e *Enforcer) Check(chatID int64, text string) (Law, bool) {
	l, ok := e.Active(chatID)
	if !ok || !l.checked {
		return Law{}, false
	}
	if !l.rule.Violates(text) {
		return Law{}, false
	}
	return l, true
}

// OpenAppeal stores an appeal keyed by the punished message.
func (e *Enforcer) OpenAppeal(a Appeal) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = e.now()
	}
	e.mu.Lock()
	e.appeals[a.Key] = a
	e.mu.Unlock()
}

// Appeal returns the appeal for key without resolving it.
func (e *Enforcer) Appeal(key AppealKey) (Appeal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.appeals[key]
	if !ok {
		return Appeal{}, ErrNoAppeal
	}
	return a, nil
}

// ResolveAppeal removes and returns the appeal for key. Exactly one caller
// wins a concurrent resolution.
func (e *Enforcer) ResolveAppeal(key AppealKey) (Appeal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.appeals[key]
	if !ok {
		return Appeal{}, ErrNoAppeal
	}
	delete(e.appeals, key)
	return a, nil
}

// Appeals returns the number of open appeals.
func (e *Enforcer) Appeals() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.appeals)
}

// Propose records a law proposal.
func (e *Enforcer) Propose(chatID, proposerID int64, proposer, text string) (Proposal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Proposal{}, ErrEmptyLaw
	}
	p := Proposal{
		ID:         uuid.New(),
		ChatID:     chatID,
		ProposerID: proposerID,
		Proposer:   proposer,
		Text:       text,
		CreatedAt:  e.now(),
	}
	e.mu.Lock()
	e.proposals[p.ID] = p
	e.mu.Unlock()
	return p, nil
}

// TakeProposal removes and returns the proposal with id.
func (e *Enforcer) TakeProposal(id uuid.UUID) (Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.proposals[id]
	if !ok {
		return Proposal{}, ErrNoProposal
	}
	delete(e.proposals, id)
	return p, nil
}
