package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"banana-bot/internal/model"
)

// legacyKeys are top-level entries of the unversioned document that are not users.
var legacyKeys = map[string]bool{
	"active_events": true,
	"active_bombs":  true,
}

// legacyUser is the unversioned per-user object.
type legacyUser struct {
	Bananas          json.Number       `json:"bananas"`
	TotalEarned      *json.Number      `json:"total_earned"`
	Wins             int               `json:"wins"`
	Losses           int               `json:"losses"`
	CurrentStreak    int               `json:"current_streak"`
	MaxStreak        int               `json:"max_streak"`
	Achievements     []string          `json:"achievements"`
	Warns            int               `json:"warns"`
	LastBanana       float64           `json:"last_banana"`
	BananaBagLevel   int               `json:"banana_bag_level"`
	BananaTotemLevel int               `json:"banana_totem_level"`
	DiamondBananas   int               `json:"diamond_bananas"`
	EventWins        int               `json:"event_wins"`
	GoldenMinion     bool              `json:"golden_minion"`
	Inventory        []string          `json:"inventory"`
	Boosts           map[string]number `json:"boosts"`
}

// number accepts JSON numbers with or without a fractional part.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

// decodeSnapshot parses a stored document into user records. It reports
// whether the document was in the legacy unversioned format.
func decodeSnapshot(data []byte) (map[int64]*model.UserRecord, bool, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, false, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if _, ok := top["version"]; ok {
		users, err := decodeCurrent(data)
		return users, false, err
	}

	users, err := decodeLegacy(top)
	return users, true, err
}

// decodeCurrent parses a versioned document.
func decodeCurrent(data []byte) (map[int64]*model.UserRecord, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Version > model.RecordVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, model.RecordVersion)
	}

	users := make(map[int64]*model.UserRecord, len(snap.Users))
	for key, u := range snap.Users {
		if u == nil {
			continue
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		u.ID = id
		u.Normalize()
		users[id] = u
	}
	return users, nil
}

// decodeLegacy converts each user entry of the flat legacy map.
func decodeLegacy(top map[string]json.RawMessage) (map[int64]*model.UserRecord, error) {
	users := make(map[int64]*model.UserRecord, len(top))
	for key, raw := range top {
		if legacyKeys[key] {
			continue
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		users[id] = migrateLegacyUser(id, raw)
	}
	return users, nil
}

// migrateLegacyUser maps one legacy value onto a current record. Values that
// cannot be interpreted yield an empty record; an unreadable field of an
// object is skipped and the rest are kept.
func migrateLegacyUser(id int64, raw json.RawMessage) *model.UserRecord {
	u := model.NewUserRecord(id)

	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "{"):
		// Parsed below
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				u.Balance, u.LifetimeEarned = n, n
			}
		}
		return u
	default:
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			u.Balance, u.LifetimeEarned = int64(f), int64(f)
		}
		return u
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Warn().Int64("user_id", id).Err(err).Msg("Unreadable legacy user, starting empty")
		return u
	}
	var old legacyUser
	for name, value := range fields {
		if err := decodeLegacyField(&old, name, value); err != nil {
			log.Warn().
				Int64("user_id", id).
				Str("field", name).
				Err(err).
				Msg("Skipping unreadable legacy field")
		}
	}

	u.Balance = numberToInt(old.Bananas)
	u.LifetimeEarned = u.Balance
	if old.TotalEarned != nil {
		u.LifetimeEarned = numberToInt(*old.TotalEarned)
	}
	u.Wins = old.Wins
	u.Losses = old.Losses
	u.CurrentStreak = old.CurrentStreak
	u.MaxStreak = old.MaxStreak
	if old.Achievements != nil {
		u.Achievements = old.Achievements
	}
	u.WarnCount = old.Warns
	if old.LastBanana > 0 {
		sec := int64(old.LastBanana)
		nsec := int64((old.LastBanana - float64(sec)) * 1e9)
		u.LastRewardAt = time.Unix(sec, nsec).UTC()
	}
	if old.BananaBagLevel > 0 {
		u.Upgrades[model.UpgradeBananaBag] = old.BananaBagLevel
	}
	if old.BananaTotemLevel > 0 {
		u.Upgrades[model.UpgradeBananaTotem] = old.BananaTotemLevel
	}
	u.DiamondBananas = old.DiamondBananas
	u.EventWins = old.EventWins
	u.GoldenMinion = old.GoldenMinion
	if old.Inventory != nil {
		u.Inventory = old.Inventory
	}
	for k, v := range old.Boosts {
		kind := model.BoostKind(k)
		switch kind {
		case model.BoostMidasTouch, model.BoostMultiplier, model.BoostTimeAccelerator, model.BoostTimeMachine:
			if int64(v) > 0 {
				u.Boosts[kind] = int64(v)
			}
		}
	}

	u.Normalize()
	return u
}

// decodeLegacyField decodes a single field into dst. dst is left untouched
// when the value does not fit the field.
func decodeLegacyField(dst *legacyUser, name string, value json.RawMessage) error {
	one, err := json.Marshal(map[string]json.RawMessage{name: value})
	if err != nil {
		return err
	}
	decode := func(v *legacyUser) error {
		dec := json.NewDecoder(bytes.NewReader(one))
		dec.UseNumber()
		return dec.Decode(v)
	}
	var scratch legacyUser
	if err := decode(&scratch); err != nil {
		return err
	}
	return decode(dst)
}

// numberToInt truncates a JSON number, treating garbage as zero.
func numberToInt(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return 0
}

// encodeSnapshot renders the current document.
func encodeSnapshot(users map[int64]*model.UserRecord) ([]byte, error) {
	snap := model.Snapshot{
		Version: model.RecordVersion,
		Users:   make(map[string]*model.UserRecord, len(users)),
	}
	for id, u := range users {
		snap.Users[strconv.FormatInt(id, 10)] = u
	}
	return json.MarshalIndent(snap, "", "  ")
}
