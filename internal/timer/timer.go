// Package timer provides the deferred-callback primitives behind every expiry in the bot.
package timer

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Cancel stops a scheduled callback. It reports whether the callback was
// stopped before it ran. A false result means the callback may already be
// running, so callbacks must re-check the state they act on.
type Cancel func() bool

// Scheduler schedules one-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Cancel
	Now() time.Time
}

// Real schedules callbacks on the runtime timer heap.
type Real struct{}

// NewReal creates a wall-clock scheduler.
func NewReal() *Real {
	return &Real{}
}

// AfterFunc runs fn on its own goroutine after d.
func (Real) AfterFunc(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// Now returns the wall-clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// Every calls fn after first and then once per interval until ctx is done.
func Every(ctx context.Context, first, interval time.Duration, fn func(context.Context)) {
	t := time.NewTimer(first)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
			t.Reset(interval)
		}
	}
}

// Manual is a scheduler driven by Advance. Callbacks run synchronously on the
// goroutine calling Advance, in due-time order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
}

// NewManual creates a manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers fn to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, p := range m.pending {
			if p == t {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
				t.stopped = true
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d, firing every callback that falls due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.pending, func(i, j int) bool {
			if m.pending[i].at.Equal(m.pending[j].at) {
				return m.pending[i].seq < m.pending[j].seq
			}
			return m.pending[i].at.Before(m.pending[j].at)
		})
		if len(m.pending) == 0 || m.pending[0].at.After(target) {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.now = next.at
		m.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of callbacks that have not fired or been cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
