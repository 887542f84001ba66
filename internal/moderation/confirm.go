package moderation

import (
	"strconv"
	"sync"
	"time"

	"banana-bot/internal/apperr"
	"banana-bot/internal/timer"
)

var (
	ErrConfirmExpired = apperr.Stale("⏳ confirmation time is over")
	ErrNotRequester   = apperr.Forbidden("only the admin who asked can confirm this")
)

// Request is a destructive action waiting for a yes/no press.
type Request struct {
	Key        string
	Command    Command
	AdminID    int64
	ChatID     int64
	TargetID   int64
	TargetName string
	Args       []string
	ExpiresAt  time.Time
}

type pending struct {
	req    Request
	cancel timer.Cancel
}

// Confirmations holds pending requests until answered or expired.
type Confirmations struct {
	sched   timer.Scheduler
	timeout time.Duration

	mu    sync.Mutex
	items map[string]pending
}

// NewConfirmations creates a store whose entries expire after timeout.
func NewConfirmations(sched timer.Scheduler, timeout time.Duration) *Confirmations {
	return &Confirmations{
		sched:   sched,
		timeout: timeout,
		items:   make(map[string]pending),
	}
}

// Open stores req under a fresh key and schedules its purge.
func (c *Confirmations) Open(req Request) Request {
	now := c.sched.Now()
	req.Key = strconv.FormatInt(req.AdminID, 36) + "." + strconv.FormatInt(req.ChatID, 36) + "." + strconv.FormatInt(now.UnixNano(), 36)
	req.ExpiresAt = now.Add(c.timeout)
	key := req.Key

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = pending{
		req:    req,
		cancel: c.sched.AfterFunc(c.timeout, func() { c.purge(key) }),
	}
	return req
}

func (c *Confirmations) purge(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Take removes and returns the request for key. Only its admin may take it;
// anyone else gets ErrNotRequester and the request stays.
func (c *Confirmations) Take(key string, userID int64) (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[key]
	if !ok || !c.sched.Now().Before(p.req.ExpiresAt) {
		delete(c.items, key)
		return Request{}, ErrConfirmExpired
	}
	if p.req.AdminID != userID {
		return Request{}, ErrNotRequester
	}
	delete(c.items, key)
	p.cancel()
	return p.req, nil
}

// Len returns the number of pending requests.
func (c *Confirmations) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
