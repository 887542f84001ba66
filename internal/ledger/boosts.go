package ledger

import (
	"context"
	"time"

	"banana-bot/internal/model"
)

// BoostActive reports whether kind currently affects rewards. Counter values
// of 0 or less count as absent.
func BoostActive(u *model.UserRecord, kind model.BoostKind, now time.Time) bool {
	v, ok := u.Boosts[kind]
	if !ok {
		return false
	}
	if kind.IsExpiry() {
		return now.Unix() < v
	}
	return v > 0
}

// AddBoostUses adds n uses of a counter boost.
func AddBoostUses(u *model.UserRecord, kind model.BoostKind, n int64) {
	u.Boosts[kind] += n
}

// ExtendBoost pushes an expiry boost to at least now+d.
func ExtendBoost(u *model.UserRecord, kind model.BoostKind, now time.Time, d time.Duration) {
	until := now.Add(d).Unix()
	u.Boosts[kind] = max(u.Boosts[kind], until)
}

// TakeBoostUse consumes one use of a counter boost, pruning it at zero.
// Returns false when no use was available.
func TakeBoostUse(u *model.UserRecord, kind model.BoostKind) bool {
	if u.Boosts[kind] <= 0 {
		delete(u.Boosts, kind)
		return false
	}
	u.Boosts[kind]--
	if u.Boosts[kind] <= 0 {
		delete(u.Boosts, kind)
	}
	return true
}

// ConsumeRewardBoosts spends one use of every per-reward counter boost after a
// rewarded action.
func ConsumeRewardBoosts(u *model.UserRecord) {
	TakeBoostUse(u, model.BoostMidasTouch)
	TakeBoostUse(u, model.BoostMultiplier)
}

// pruneBoosts removes spent counters and lapsed expiries.
func pruneBoosts(u *model.UserRecord, now time.Time) bool {
	changed := false
	for kind, v := range u.Boosts {
		if kind.IsExpiry() {
			if now.Unix() > v {
				delete(u.Boosts, kind)
				changed = true
			}
			continue
		}
		if v <= 0 {
			delete(u.Boosts, kind)
			changed = true
		}
	}
	return changed
}

// SweepExpiredBoosts prunes boosts across all users and returns how many
// records changed.
func (l *Ledger) SweepExpiredBoosts(ctx context.Context) int {
	now := l.now()
	return l.MutateAll(ctx, func(u *model.UserRecord) bool {
		return pruneBoosts(u, now)
	})
}

// Now returns the ledger clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}
