// Package domain holds the pure types of the accolade engine.
// The engine tracks player progress toward a catalog of accomplishments,
// decides unlocks, derives meta-accomplishments from aggregate history,
// and schedules celebratory presentations for each unlock.
package domain

import "time"

// ─── Catalog Types ──────────────────────────────────────────────────────────

// Category groups accomplishments by gameplay theme.
type Category string

const (
	CatCultivation Category = "cultivation"
	CatCommerce    Category = "commerce"
	CatGenetics    Category = "genetics"
	CatProgression Category = "progression"
	CatSpecial     Category = "special"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CatCultivation, CatCommerce, CatGenetics, CatProgression, CatSpecial}
}

// Rarity is an ordered classification driving celebration intensity and
// queue admission priority. Higher values outrank lower ones.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

// String returns the lowercase rarity name.
func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityUncommon:
		return "uncommon"
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "epic"
	case RarityLegendary:
		return "legendary"
	default:
		return "unknown"
	}
}

// ParseRarity converts a catalog string into a Rarity.
// Returns RarityCommon, false for unrecognized input.
func ParseRarity(s string) (Rarity, bool) {
	switch s {
	case "common":
		return RarityCommon, true
	case "uncommon":
		return RarityUncommon, true
	case "rare":
		return RarityRare, true
	case "epic":
		return RarityEpic, true
	case "legendary":
		return RarityLegendary, true
	default:
		return RarityCommon, false
	}
}

// AccomplishmentDef defines a single accomplishment. Immutable after load.
// TargetValue must be > 0 and IDs are globally unique; the catalog loader
// rejects definitions that violate either.
type AccomplishmentDef struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Rarity      Rarity   `json:"rarity"`
	Points      int      `json:"points"`
	TriggerKey  string   `json:"trigger_key"`
	TargetValue float64  `json:"target_value"`
	IsSecret    bool     `json:"is_secret"`
	IsMilestone bool     `json:"is_milestone"`
}

// ─── Progress & Unlock Types ────────────────────────────────────────────────

// ProgressRecord accumulates trigger deltas for one (player, accomplishment)
// pair. CurrentValue is monotonically non-decreasing until unlock, after
// which it is frozen.
type ProgressRecord struct {
	AccomplishmentID string    `json:"accomplishment_id"`
	PlayerID         string    `json:"player_id"`
	CurrentValue     float64   `json:"current_value"`
	LastUpdate       time.Time `json:"last_update"`
}

// Fraction returns progress toward the target, clamped to [0, 1).
// An unlocked accomplishment never reports a fraction; callers stop
// asking once the unlock event exists.
func (p ProgressRecord) Fraction(target float64) float64 {
	if target <= 0 {
		return 0
	}
	f := p.CurrentValue / target
	if f >= 1 {
		f = 0.999999
	}
	if f < 0 {
		f = 0
	}
	return f
}

// UnlockEvent is created exactly once per (accomplishment, player) pair.
// Re-triggering an unlocked accomplishment never produces a second event.
type UnlockEvent struct {
	ID               string    `json:"id"`
	AccomplishmentID string    `json:"accomplishment_id"`
	PlayerID         string    `json:"player_id"`
	Timestamp        time.Time `json:"timestamp"`
	PointsAwarded    int       `json:"points_awarded"`
}

// StreakState tracks consecutive unlocks within a rolling window.
// ConsecutiveCount is ≥ 1 once any unlock has occurred.
type StreakState struct {
	LastUnlock       time.Time `json:"last_unlock"`
	ConsecutiveCount int       `json:"consecutive_count"`
}

// ─── Aggregate State ────────────────────────────────────────────────────────

// AggregateStats is the read-only snapshot meta-rule predicates evaluate.
// Predicates must not mutate it.
type AggregateStats struct {
	PlayerID        string               `json:"player_id"`
	UnlockedCount   int                  `json:"unlocked_count"`
	TotalPoints     int                  `json:"total_points"`
	CurrentStreak   int                  `json:"current_streak"`
	CategoryMastery map[Category]float64 `json:"category_mastery"`
	LastUnlockAt    time.Time            `json:"last_unlock_at"`
}

// MetaRule derives an accomplishment from aggregate player history.
// Firing is permanent per (rule, player): the predicate becoming false and
// true again never re-fires the rule.
type MetaRule struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	TriggerKey  string                    `json:"trigger_key"`
	Predicate   func(AggregateStats) bool `json:"-"`
}

// ─── Trigger Events ─────────────────────────────────────────────────────────

// TriggerEvent is the unit of input delivered by external event sources.
// The engine has no knowledge of how these are produced.
type TriggerEvent struct {
	Key      string  `json:"key"`
	Value    float64 `json:"value"`
	PlayerID string  `json:"player_id"`
}

// StreakTriggerKey is the synthetic trigger key the streak tracker forwards
// into the ledger when a streak threshold is reached.
const StreakTriggerKey = "achievement_streak"
