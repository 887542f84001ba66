// Package session keeps the live per-chat game sessions and their expiry timers.
//
// Every operation runs under the registry mutex, so check-and-insert is
// atomic. Each session carries a generation that changes whenever its timer
// is re-armed; a timer callback acts only if the generation it captured is
// still current, which makes a late fire after cancellation harmless.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"banana-bot/internal/apperr"
	"banana-bot/internal/timer"
)

// Kind names a session family. At most one session of a kind lives per chat.
type Kind string

// Session kinds.
const (
	KindBoardDuel Kind = "board_duel"
	KindRPS       Kind = "rps"
	KindQuest     Kind = "quest"
	KindEvent     Kind = "event"
	KindPoll      Kind = "poll"
	KindBomb      Kind = "bomb"
)

// CloseReason tells observers why a session left the registry.
type CloseReason string

// Close reasons.
const (
	ClosedDestroyed CloseReason = "destroyed"
	ClosedExpired   CloseReason = "expired"
)

// Registry errors.
var (
	ErrAlreadyActive = apperr.Input("a game of this kind is already running in this chat")
	ErrNotFound      = apperr.Stale("this game is no longer active")
	ErrSuperseded    = apperr.Stale("this action is out of date")
)

// Observer is notified when sessions open and close.
type Observer interface {
	SessionOpened(kind Kind)
	SessionClosed(kind Kind, reason CloseReason)
}

type nopObserver struct{}

func (nopObserver) SessionOpened(Kind)              {}
func (nopObserver) SessionClosed(Kind, CloseReason) {}

// Handle identifies one incarnation of a session.
type Handle struct {
	ID         uuid.UUID
	ChatID     int64
	Generation uint64
	CreatedAt  time.Time
}

type entry[S any] struct {
	state  S
	handle Handle
	cancel timer.Cancel
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver reports open and close events to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// Registry holds at most one session of state type S per chat.
// S is normally a pointer so Update callbacks can mutate it in place.
type Registry[S any] struct {
	kind  Kind
	sched timer.Scheduler
	obs   Observer

	mu      sync.Mutex
	entries map[int64]*entry[S]
}

// NewRegistry creates a registry for kind using sched for expiry timers.
func NewRegistry[S any](kind Kind, sched timer.Scheduler, opts ...Option) *Registry[S] {
	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[S]{
		kind:    kind,
		sched:   sched,
		obs:     o.observer,
		entries: make(map[int64]*entry[S]),
	}
}

// Kind returns the session kind this registry holds.
func (r *Registry[S]) Kind() Kind {
	return r.kind
}

// TryCreate registers a new session for chatID built by factory. The factory
// runs under the registry lock and must not block. Returns ErrAlreadyActive
// if the chat already has a session, or the factory's error.
func (r *Registry[S]) TryCreate(chatID int64, factory func(h Handle) (S, error)) (S, Handle, error) {
	var zero S

	r.mu.Lock()
	if _, ok := r.entries[chatID]; ok {
		r.mu.Unlock()
		return zero, Handle{}, ErrAlreadyActive
	}

	h := Handle{
		ID:         uuid.New(),
		ChatID:     chatID,
		Generation: 1,
		CreatedAt:  r.sched.Now(),
	}
	state, err := factory(h)
	if err != nil {
		r.mu.Unlock()
		return zero, Handle{}, err
	}
	r.entries[chatID] = &entry[S]{state: state, handle: h}
	r.mu.Unlock()

	r.obs.SessionOpened(r.kind)
	return state, h, nil
}

// Get returns the live session for chatID.
func (r *Registry[S]) Get(chatID int64) (S, Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[chatID]
	if !ok {
		var zero S
		return zero, Handle{}, false
	}
	return e.state, e.handle, true
}

// Update runs fn on the live session under the registry lock.
// Returns ErrNotFound when no session exists, or fn's error.
func (r *Registry[S]) Update(chatID int64, fn func(s S, h Handle) error) (S, Handle, error) {
	return r.update(chatID, 0, fn)
}

// UpdateIf is Update restricted to the session generation gen.
// Returns ErrSuperseded when the generation has moved on.
func (r *Registry[S]) UpdateIf(chatID int64, gen uint64, fn func(s S, h Handle) error) (S, Handle, error) {
	return r.update(chatID, gen, fn)
}

func (r *Registry[S]) update(chatID int64, gen uint64, fn func(s S, h Handle) error) (S, Handle, error) {
	var zero S

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[chatID]
	if !ok {
		return zero, Handle{}, ErrNotFound
	}
	if gen != 0 && e.handle.Generation != gen {
		return zero, Handle{}, ErrSuperseded
	}
	if err := fn(e.state, e.handle); err != nil {
		return zero, Handle{}, err
	}
	return e.state, e.handle, nil
}

// Arm (re)starts the session's expiry timer. The generation is bumped and any
// previous timer cancelled. When the timer fires with its generation still
// current, the session is removed and onExpire runs outside the lock.
func (r *Registry[S]) Arm(chatID int64, d time.Duration, onExpire func(s S, h Handle)) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[chatID]
	if !ok {
		return Handle{}, ErrNotFound
	}
	r.armLocked(chatID, e, d, onExpire)
	return e.handle, nil
}

// Disarm cancels the expiry timer without removing the session.
func (r *Registry[S]) Disarm(chatID int64) (Handle, error) {
	return r.Arm(chatID, 0, nil)
}

// Next is what Apply does with a session once its mutation succeeds.
type Next int

// Apply outcomes.
const (
	NextKeep   Next = iota // leave the timer as it is
	NextRearm              // restart the expiry timer
	NextDisarm             // cancel the expiry timer
	NextClose              // remove the session
)

// Apply runs fn on the live session and carries out the step it returns in
// the same critical section, so a timer of the old generation never observes
// the new state. NextRearm schedules onExpire after d.
func (r *Registry[S]) Apply(chatID int64, d time.Duration, onExpire func(s S, h Handle), fn func(s S, h Handle) (Next, error)) (S, Handle, Next, error) {
	var zero S

	r.mu.Lock()
	e, ok := r.entries[chatID]
	if !ok {
		r.mu.Unlock()
		return zero, Handle{}, NextKeep, ErrNotFound
	}
	next, err := fn(e.state, e.handle)
	if err != nil {
		r.mu.Unlock()
		return zero, Handle{}, NextKeep, err
	}
	switch next {
	case NextRearm:
		r.armLocked(chatID, e, d, onExpire)
	case NextDisarm:
		r.armLocked(chatID, e, 0, nil)
	case NextClose:
		r.removeLocked(chatID, e)
	}
	state, h := e.state, e.handle
	r.mu.Unlock()

	if next == NextClose {
		r.obs.SessionClosed(r.kind, ClosedDestroyed)
	}
	return state, h, next, nil
}

// armLocked cancels e's timer, bumps the generation and, for d > 0, schedules
// a new expiry. The caller must hold r.mu.
func (r *Registry[S]) armLocked(chatID int64, e *entry[S], d time.Duration, onExpire func(s S, h Handle)) {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.handle.Generation++
	if d <= 0 {
		return
	}
	gen := e.handle.Generation
	e.cancel = r.sched.AfterFunc(d, func() {
		r.expire(chatID, gen, onExpire)
	})
}

func (r *Registry[S]) expire(chatID int64, gen uint64, onExpire func(s S, h Handle)) {
	r.mu.Lock()
	e, ok := r.entries[chatID]
	if !ok || e.handle.Generation != gen {
		r.mu.Unlock()
		return
	}
	delete(r.entries, chatID)
	r.mu.Unlock()

	r.obs.SessionClosed(r.kind, ClosedExpired)
	if onExpire != nil {
		onExpire(e.state, e.handle)
	}
}

// Destroy removes the session and cancels its timer.
func (r *Registry[S]) Destroy(chatID int64) (S, bool) {
	return r.destroy(chatID, 0)
}

// DestroyIf removes the session only while its generation equals gen.
func (r *Registry[S]) DestroyIf(chatID int64, gen uint64) (S, bool) {
	return r.destroy(chatID, gen)
}

// DestroyWhen removes the session when pred holds for it, atomically with the check.
func (r *Registry[S]) DestroyWhen(chatID int64, pred func(s S, h Handle) bool) (S, bool) {
	var zero S

	r.mu.Lock()
	e, ok := r.entries[chatID]
	if !ok || !pred(e.state, e.handle) {
		r.mu.Unlock()
		return zero, false
	}
	r.removeLocked(chatID, e)
	r.mu.Unlock()

	r.obs.SessionClosed(r.kind, ClosedDestroyed)
	return e.state, true
}

func (r *Registry[S]) destroy(chatID int64, gen uint64) (S, bool) {
	return r.DestroyWhen(chatID, func(_ S, h Handle) bool {
		return gen == 0 || h.Generation == gen
	})
}

func (r *Registry[S]) removeLocked(chatID int64, e *entry[S]) {
	if e.cancel != nil {
		e.cancel()
	}
	delete(r.entries, chatID)
}

// Len returns the number of live sessions.
func (r *Registry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Chats returns the chat IDs with a live session.
func (r *Registry[S]) Chats() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
