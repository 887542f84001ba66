// Package lock provides keyed locking for read-compute-write sequences on one user.
package lock

import (
	"context"
	"sync"
	"time"
)

// entry is a mutex shared by every holder or waiter of one key.
type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock serializes work per key. Entries are dropped once no goroutine
// holds or waits on them.
type KeyLock[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// New creates an empty KeyLock.
func New[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{entries: make(map[K]*entry)}
}

// acquire registers interest in key and returns its entry.
func (l *KeyLock[K]) acquire(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	return e
}

// release drops interest in key, deleting the entry when unused.
func (l *KeyLock[K]) release(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Lock blocks until key is free.
func (l *KeyLock[K]) Lock(key K) {
	l.acquire(key).mu.Lock()
}

// Unlock releases key. Calling Unlock on a key that is not locked panics.
func (l *KeyLock[K]) Unlock(key K) {
	l.mu.Lock()
	e, ok := l.entries[key]
	l.mu.Unlock()
	if !ok {
		panic("lock: unlock of unlocked key")
	}
	e.mu.Unlock()
	l.release(key, e)
}

// TryLock acquires key without blocking and reports whether it succeeded.
func (l *KeyLock[K]) TryLock(key K) bool {
	e := l.acquire(key)
	if e.mu.TryLock() {
		return true
	}
	l.release(key, e)
	return false
}

// WithLock executes fn while holding key.
func (l *KeyLock[K]) WithLock(key K, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}

// WithLockContext executes fn while holding key, giving up after timeout or
// when ctx is done. Returns ErrLockTimeout when the lock was not acquired in time.
func (l *KeyLock[K]) WithLockContext(ctx context.Context, key K, timeout time.Duration, fn func() error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Poll with TryLock until the deadline
	delay := time.Millisecond
	for !l.TryLock(key) {
		select {
		case <-timeoutCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrLockTimeout
		case <-time.After(delay):
		}
		delay = min(delay*2, 50*time.Millisecond)
	}
	defer l.Unlock(key)

	return fn()
}

// Len returns the number of keys currently held or awaited.
func (l *KeyLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
