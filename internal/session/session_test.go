package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banana-bot/internal/apperr"
	"banana-bot/internal/timer"
)

type counter struct {
	n int
}

// recordingObserver counts open and close events.
type recordingObserver struct {
	mu     sync.Mutex
	opened int
	closed map[CloseReason]int
}

func (o *recordingObserver) SessionOpened(Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened++
}

func (o *recordingObserver) SessionClosed(_ Kind, reason CloseReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed == nil {
		o.closed = map[CloseReason]int{}
	}
	o.closed[reason]++
}

func newCounter(Handle) (*counter, error) { return &counter{}, nil }

func newTestRegistry(t *testing.T) (*Registry[*counter], *timer.Manual, *recordingObserver) {
	t.Helper()
	clock := timer.NewManual(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	obs := &recordingObserver{}
	return NewRegistry[*counter](KindQuest, clock, WithObserver(obs)), clock, obs
}

func TestTryCreate_SecondCallAlreadyActive(t *testing.T) {
	r, _, obs := newTestRegistry(t)

	_, h, err := r.TryCreate(1, newCounter)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Generation)
	assert.Equal(t, int64(1), h.ChatID)

	_, _, err = r.TryCreate(1, newCounter)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, obs.opened)

	// Other chats are independent
	_, _, err = r.TryCreate(2, newCounter)
	assert.NoError(t, err)
}

func TestTryCreate_FactoryError(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	boom := errors.New("boom")

	_, _, err := r.TryCreate(1, func(Handle) (*counter, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())
}

func TestUpdate(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	_, _, err := r.Update(1, func(*counter, Handle) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, apperr.KindStale, apperr.KindOf(err))

	_, _, err = r.TryCreate(1, newCounter)
	require.NoError(t, err)

	c, _, err := r.Update(1, func(c *counter, _ Handle) error {
		c.n++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.n)
}

func TestUpdateIf_Superseded(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, h, _ := r.TryCreate(1, newCounter)

	h2, err := r.Arm(1, time.Minute, nil)
	require.NoError(t, err)
	assert.Greater(t, h2.Generation, h.Generation)

	_, _, err = r.UpdateIf(1, h.Generation, func(*counter, Handle) error { return nil })
	assert.ErrorIs(t, err, ErrSuperseded)

	_, _, err = r.UpdateIf(1, h2.Generation, func(*counter, Handle) error { return nil })
	assert.NoError(t, err)
}

func TestArm_ExpiryRemovesSession(t *testing.T) {
	r, clock, obs := newTestRegistry(t)
	_, _, _ = r.TryCreate(1, newCounter)

	var expired []int64
	_, err := r.Arm(1, 5*time.Minute, func(_ *counter, h Handle) {
		expired = append(expired, h.ChatID)
		// A new session can start from inside the callback
		_, _, err := r.TryCreate(1, newCounter)
		assert.NoError(t, err)
	})
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	assert.Empty(t, expired)

	clock.Advance(time.Minute)
	assert.Equal(t, []int64{1}, expired)
	assert.Equal(t, 1, obs.closed[ClosedExpired])
	assert.Equal(t, 1, r.Len(), "replacement session created by the callback")
}

func TestArm_RearmCancelsPrevious(t *testing.T) {
	r, clock, _ := newTestRegistry(t)
	_, _, _ = r.TryCreate(1, newCounter)

	fires := 0
	onExpire := func(*counter, Handle) { fires++ }

	_, _ = r.Arm(1, time.Minute, onExpire)
	clock.Advance(30 * time.Second)
	_, _ = r.Arm(1, time.Minute, onExpire)
	clock.Advance(45 * time.Second)
	assert.Equal(t, 0, fires, "first timer was superseded")

	clock.Advance(15 * time.Second)
	assert.Equal(t, 1, fires)
}

func TestDestroy_CancelsTimer(t *testing.T) {
	r, clock, obs := newTestRegistry(t)
	_, _, _ = r.TryCreate(1, newCounter)

	fired := false
	_, _ = r.Arm(1, time.Minute, func(*counter, Handle) { fired = true })

	_, ok := r.Destroy(1)
	require.True(t, ok)
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Hour)
	assert.False(t, fired)
	assert.Equal(t, 1, obs.closed[ClosedDestroyed])

	_, ok = r.Destroy(1)
	assert.False(t, ok)
}

// A timer whose cancel came too late must still be a no-op. The stale
// callback is simulated by building one for an old generation.
func TestExpire_StaleGenerationIsNoop(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, h, _ := r.TryCreate(1, newCounter)

	_, _ = r.Arm(1, time.Minute, nil)

	fired := false
	r.expire(1, h.Generation, func(*counter, Handle) { fired = true })

	assert.False(t, fired)
	assert.Equal(t, 1, r.Len())
}

// A timer that fires while Apply is mutating must wait for the lock and then
// find its generation gone.
func TestApply_StaleTimerWaitsOutTheTransition(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, _, _ = r.TryCreate(1, newCounter)
	armed, _ := r.Arm(1, time.Minute, nil)

	var fired atomic.Bool
	done := make(chan struct{})
	c, h, next, err := r.Apply(1, time.Minute, nil, func(c *counter, _ Handle) (Next, error) {
		go func() {
			defer close(done)
			r.expire(1, armed.Generation, func(*counter, Handle) { fired.Store(true) })
		}()
		time.Sleep(10 * time.Millisecond)
		c.n = 1
		return NextRearm, nil
	})
	<-done

	require.NoError(t, err)
	assert.Equal(t, NextRearm, next)
	assert.Equal(t, 1, c.n)
	assert.Equal(t, armed.Generation+1, h.Generation)
	assert.False(t, fired.Load(), "the old timer saw the new state")
	assert.Equal(t, 1, r.Len())
}

func TestApply_Steps(t *testing.T) {
	r, clock, obs := newTestRegistry(t)
	_, h, _ := r.TryCreate(1, newCounter)

	expired := 0
	onExpire := func(*counter, Handle) { expired++ }
	step := func(n Next) func(*counter, Handle) (Next, error) {
		return func(c *counter, _ Handle) (Next, error) {
			c.n++
			return n, nil
		}
	}

	_, h1, _, err := r.Apply(1, time.Minute, onExpire, step(NextKeep))
	require.NoError(t, err)
	assert.Equal(t, h.Generation, h1.Generation, "keep leaves the generation")

	_, _, _, err = r.Apply(1, time.Minute, onExpire, step(NextRearm))
	require.NoError(t, err)
	_, _, _, err = r.Apply(1, time.Minute, onExpire, step(NextDisarm))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	assert.Equal(t, 0, expired, "disarm cancels the timer")

	c, _, next, err := r.Apply(1, time.Minute, onExpire, step(NextClose))
	require.NoError(t, err)
	assert.Equal(t, NextClose, next)
	assert.Equal(t, 4, c.n)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1, obs.closed[ClosedDestroyed])

	_, _, _, err = r.Apply(1, 0, nil, step(NextKeep))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApply_ErrorChangesNothing(t *testing.T) {
	r, clock, _ := newTestRegistry(t)
	_, _, _ = r.TryCreate(1, newCounter)
	armed, _ := r.Arm(1, time.Minute, nil)

	boom := errors.New("boom")
	_, _, _, err := r.Apply(1, 0, nil, func(*counter, Handle) (Next, error) { return NextClose, boom })
	assert.ErrorIs(t, err, boom)

	_, h, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, armed.Generation, h.Generation)
	clock.Advance(time.Minute)
	assert.Equal(t, 0, r.Len(), "the original timer still runs")
}

func TestDestroyIf(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, h, _ := r.TryCreate(1, newCounter)
	h2, _ := r.Disarm(1)

	_, ok := r.DestroyIf(1, h.Generation)
	assert.False(t, ok)

	_, ok = r.DestroyIf(1, h2.Generation)
	assert.True(t, ok)
}

func TestTryCreate_ConcurrentSingleWinner(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := r.TryCreate(7, newCounter); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, r.Len())
}

func TestRoster(t *testing.T) {
	r := NewRoster()

	require.NoError(t, r.Claim(1, 10, 11))
	assert.ErrorIs(t, r.Claim(2, 11, 12), ErrUserBusy)

	_, busy := r.ChatOf(12)
	assert.False(t, busy, "failed claim takes nobody")

	r.Release(2, 10)
	chat, ok := r.ChatOf(10)
	require.True(t, ok, "release from another chat is ignored")
	assert.Equal(t, int64(1), chat)

	r.Release(1, 10, 11)
	assert.NoError(t, r.Claim(2, 11, 12))
}
