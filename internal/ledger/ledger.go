// Package ledger owns the per-user banana records and their persistence.
package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"banana-bot/internal/apperr"
	"banana-bot/internal/model"
	"banana-bot/internal/repository"
)

// Ledger errors.
var (
	ErrInsufficientBalance = apperr.Input("not enough bananas")
	ErrNoWarns             = apperr.Input("this user has no warnings")
)

// MaxWarns is the warn count that triggers a ban.
const MaxWarns = 10

// LoadInfo describes what Load found in the store.
type LoadInfo struct {
	Users    int
	Migrated bool
	Fallback bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithSaveFailureHook calls fn after every failed snapshot write.
func WithSaveFailureHook(fn func(err error)) Option {
	return func(l *Ledger) { l.onSaveError = fn }
}

// WithSaveTimeout bounds each snapshot write.
func WithSaveTimeout(d time.Duration) Option {
	return func(l *Ledger) { l.saveTimeout = d }
}

// Ledger is the in-memory authority over user records. Every mutation
// rewrites the whole snapshot through the store; write failures are logged
// and the in-memory state stays authoritative.
type Ledger struct {
	mu    sync.Mutex
	users map[int64]*model.UserRecord
	seq   uint64

	saveMu      sync.Mutex
	savedSeq    uint64
	store       repository.Store
	saveTimeout time.Duration
	onSaveError func(err error)

	now func() time.Time
}

// New creates an empty Ledger backed by store.
func New(store repository.Store, opts ...Option) *Ledger {
	l := &Ledger{
		users:       make(map[int64]*model.UserRecord),
		store:       store,
		saveTimeout: 5 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory state with the stored snapshot, migrating the
// legacy format. A missing or unreadable snapshot leaves the ledger empty.
func (l *Ledger) Load(ctx context.Context) LoadInfo {
	data, err := l.store.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoSnapshot) {
			log.Info().Msg("No ledger snapshot found, starting empty")
			return LoadInfo{}
		}
		log.Error().Err(err).Msg("Failed to load ledger snapshot, starting empty")
		return LoadInfo{Fallback: true}
	}

	users, migrated, err := decodeSnapshot(data)
	if err != nil {
		log.Error().Err(err).Msg("Corrupt ledger snapshot, starting empty")
		return LoadInfo{Fallback: true}
	}

	l.mu.Lock()
	l.users = users
	l.mu.Unlock()

	if migrated {
		log.Info().Int("users", len(users)).Msg("Migrated legacy ledger snapshot")
	}
	return LoadInfo{Users: len(users), Migrated: migrated}
}

// Len returns the number of known users.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

// Get returns a copy of the user record if it exists.
func (l *Ledger) Get(userID int64) (*model.UserRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[userID]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// GetOrCreate returns a copy of the user record, creating an empty one first if needed.
func (l *Ledger) GetOrCreate(ctx context.Context, userID int64) *model.UserRecord {
	l.mu.Lock()
	u, ok := l.users[userID]
	if ok {
		c := u.Clone()
		l.mu.Unlock()
		return c
	}
	u = model.NewUserRecord(userID)
	l.users[userID] = u
	c := u.Clone()
	seq, doc := l.snapshotLocked()
	l.mu.Unlock()

	l.persist(ctx, seq, doc)
	return c
}

// Remember stores the display name of userID, creating the record if
// needed. An unchanged name is not persisted again.
func (l *Ledger) Remember(ctx context.Context, userID int64, name string) {
	l.mu.Lock()
	if u, ok := l.users[userID]; ok && (u.Name == name || name == "") {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	_, _ = l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		u.Name = name
		return nil
	})
}

// Mutate applies fn to a copy of the user record and commits it when fn
// returns nil. A failed fn leaves the stored record untouched.
func (l *Ledger) Mutate(ctx context.Context, userID int64, fn func(u *model.UserRecord) error) (*model.UserRecord, error) {
	l.mu.Lock()
	cur, ok := l.users[userID]
	if !ok {
		cur = model.NewUserRecord(userID)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	next.Normalize()
	l.users[userID] = next
	out := next.Clone()
	seq, doc := l.snapshotLocked()
	l.mu.Unlock()

	l.persist(ctx, seq, doc)
	return out, nil
}

// MutateAll applies fn to every record and commits those for which it reports a change.
func (l *Ledger) MutateAll(ctx context.Context, fn func(u *model.UserRecord) bool) int {
	l.mu.Lock()
	changed := 0
	for _, u := range l.users {
		if fn(u) {
			u.Normalize()
			changed++
		}
	}
	if changed == 0 {
		l.mu.Unlock()
		return 0
	}
	seq, doc := l.snapshotLocked()
	l.mu.Unlock()

	l.persist(ctx, seq, doc)
	return changed
}

// Credit adds delta to the balance, counting gains into lifetime earnings.
func Credit(u *model.UserRecord, delta int64) {
	u.Balance += delta
	if delta > 0 {
		u.LifetimeEarned += delta
	}
}

// AddCurrency applies delta to the balance and returns the new balance.
// The balance is not clamped, so fines may drive it negative.
func (l *Ledger) AddCurrency(ctx context.Context, userID int64, delta int64) int64 {
	u, _ := l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		Credit(u, delta)
		return nil
	})
	return u.Balance
}

// Spend deducts amount if the balance covers it.
// Returns ErrInsufficientBalance otherwise.
func (l *Ledger) Spend(ctx context.Context, userID int64, amount int64) (int64, error) {
	u, err := l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		if u.Balance < amount {
			return ErrInsufficientBalance
		}
		u.Balance -= amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// RecordResult updates wins, losses and streaks on u in place.
func RecordResult(u *model.UserRecord, win bool) {
	if win {
		u.Wins++
		u.CurrentStreak++
		if u.CurrentStreak > u.MaxStreak {
			u.MaxStreak = u.CurrentStreak
		}
		return
	}
	u.Losses++
	u.CurrentStreak = 0
}

// RecordMatchResult counts a win or a loss. A loss resets the current streak.
func (l *Ledger) RecordMatchResult(ctx context.Context, userID int64, win bool) {
	_, _ = l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		RecordResult(u, win)
		return nil
	})
}

// EvaluateAchievements grants at most one achievement: the first tier, in
// ascending order of the streak table and then the collection table, that is
// reached and not yet held. Returns false when nothing new was granted.
func (l *Ledger) EvaluateAchievements(ctx context.Context, userID int64) (Achievement, bool) {
	var granted Achievement
	var ok bool

	_, _ = l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		if a, found := nextTier(u, StreakTiers, int64(u.CurrentStreak)); found {
			granted, ok = a, grant(u, a)
			return nil
		}
		if a, found := nextTier(u, CollectionTiers, u.LifetimeEarned); found {
			granted, ok = a, grant(u, a)
		}
		return nil
	})
	return granted, ok
}

// EvaluateAll grants every eligible achievement not yet held: streak tiers,
// then collection tiers, then specials.
func (l *Ledger) EvaluateAll(ctx context.Context, userID int64) []Achievement {
	var granted []Achievement

	_, _ = l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		for _, t := range StreakTiers {
			if int64(u.CurrentStreak) >= t.Min && grant(u, t.Achievement) {
				granted = append(granted, t.Achievement)
			}
		}
		for _, t := range CollectionTiers {
			if u.LifetimeEarned >= t.Min && grant(u, t.Achievement) {
				granted = append(granted, t.Achievement)
			}
		}
		for _, s := range Specials {
			if s.Eligible(u) && grant(u, s.Achievement) {
				granted = append(granted, s.Achievement)
			}
		}
		return nil
	})
	return granted
}

// Unlock grants a directly. It is a no-op returning false when already held.
func (l *Ledger) Unlock(ctx context.Context, userID int64, a Achievement) bool {
	var ok bool
	_, _ = l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		ok = grant(u, a)
		return nil
	})
	return ok
}

// Warn increments the warn count, capped at MaxWarns, and returns it.
func (l *Ledger) Warn(ctx context.Context, userID int64) int {
	u, _ := l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		u.WarnCount = min(u.WarnCount+1, MaxWarns)
		return nil
	})
	return u.WarnCount
}

// Unwarn removes one warning and returns the remaining count.
// Returns ErrNoWarns when there is nothing to remove.
func (l *Ledger) Unwarn(ctx context.Context, userID int64) (int, error) {
	u, err := l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		if u.WarnCount <= 0 {
			return ErrNoWarns
		}
		u.WarnCount--
		return nil
	})
	if err != nil {
		return 0, err
	}
	return u.WarnCount, nil
}

// ResetWarns clears the warn count.
func (l *Ledger) ResetWarns(ctx context.Context, userID int64) {
	_, _ = l.Mutate(ctx, userID, func(u *model.UserRecord) error {
		u.WarnCount = 0
		return nil
	})
}

// Top returns up to limit records ordered by balance descending, then user ID ascending.
func (l *Ledger) Top(limit int) []*model.UserRecord {
	l.mu.Lock()
	all := make([]*model.UserRecord, 0, len(l.users))
	for _, u := range l.users {
		all = append(all, u.Clone())
	}
	l.mu.Unlock()

	sortByBalance(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Rank returns the 1-based position of the user in the balance ordering and
// the total number of users. Position is 0 for unknown users.
func (l *Ledger) Rank(userID int64) (int, int) {
	all := l.Top(0)
	for i, u := range all {
		if u.ID == userID {
			return i + 1, len(all)
		}
	}
	return 0, len(all)
}

func sortByBalance(users []*model.UserRecord) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Balance != users[j].Balance {
			return users[i].Balance > users[j].Balance
		}
		return users[i].ID < users[j].ID
	})
}

// snapshotLocked encodes the document and tags it with a sequence number.
// The caller must hold l.mu.
func (l *Ledger) snapshotLocked() (uint64, []byte) {
	l.seq++
	doc, err := encodeSnapshot(l.users)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode ledger snapshot")
		return l.seq, nil
	}
	return l.seq, doc
}

// persist writes doc unless a newer document has already been written.
func (l *Ledger) persist(ctx context.Context, seq uint64, doc []byte) {
	if doc == nil {
		return
	}

	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	if seq <= l.savedSeq {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.saveTimeout)
	defer cancel()

	if err := l.store.Save(ctx, doc); err != nil {
		log.Error().Err(err).Uint64("seq", seq).Msg("Failed to save ledger snapshot")
		if l.onSaveError != nil {
			l.onSaveError(err)
		}
		return
	}
	l.savedSeq = seq
}
