// Package catalog loads the accomplishment and meta-rule definitions from
// a TOML data file. The catalog is validated at load and immutable
// afterwards: a bad catalog aborts startup rather than limping along.
package catalog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/greenhouse-games/accolade/internal/domain"
)

// ─── File Schema ────────────────────────────────────────────────────────────

// File is the top-level TOML document.
type File struct {
	Accomplishments []AccomplishmentEntry `toml:"accomplishment"`
	MetaRules       []MetaRuleEntry       `toml:"meta_rule"`
}

// AccomplishmentEntry is one [[accomplishment]] table.
type AccomplishmentEntry struct {
	ID          string  `toml:"id"`
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Category    string  `toml:"category"`
	Rarity      string  `toml:"rarity"`
	Points      int     `toml:"points"`
	TriggerKey  string  `toml:"trigger_key"`
	TargetValue float64 `toml:"target_value"`
	Secret      bool    `toml:"secret"`
	Milestone   bool    `toml:"milestone"`
}

// MetaRuleEntry is one [[meta_rule]] table. The condition is declarative:
// a kind naming which aggregate statistic to compare, and a threshold.
type MetaRuleEntry struct {
	ID         string  `toml:"id"`
	Name       string  `toml:"name"`
	TriggerKey string  `toml:"trigger_key"`
	Condition  string  `toml:"condition"`
	Threshold  float64 `toml:"threshold"`
	Category   string  `toml:"category"` // category_mastery conditions only
}

// Condition kinds evaluable against aggregate player state.
const (
	CondUnlockedCount   = "unlocked_count"
	CondTotalPoints     = "total_points"
	CondStreakLength    = "streak_length"
	CondCategoryMastery = "category_mastery"
)

// ─── Loading ────────────────────────────────────────────────────────────────

// Load reads and validates a catalog file.
func Load(path string) ([]domain.AccomplishmentDef, []domain.MetaRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates raw TOML catalog bytes.
func Parse(data []byte) ([]domain.AccomplishmentDef, []domain.MetaRule, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(f.Accomplishments) == 0 {
		return nil, nil, domain.ErrCatalogEmpty
	}

	defs := make([]domain.AccomplishmentDef, 0, len(f.Accomplishments))
	seen := make(map[string]bool, len(f.Accomplishments))
	for _, e := range f.Accomplishments {
		def, err := e.toDef()
		if err != nil {
			return nil, nil, fmt.Errorf("accomplishment %q: %w", e.ID, err)
		}
		if seen[def.ID] {
			return nil, nil, fmt.Errorf("accomplishment %q: %w", def.ID, domain.ErrDuplicateID)
		}
		seen[def.ID] = true
		defs = append(defs, def)
	}

	rules := make([]domain.MetaRule, 0, len(f.MetaRules))
	seenRules := make(map[string]bool, len(f.MetaRules))
	for _, e := range f.MetaRules {
		rule, err := e.toRule()
		if err != nil {
			return nil, nil, fmt.Errorf("meta rule %q: %w", e.ID, err)
		}
		if seenRules[rule.ID] {
			return nil, nil, fmt.Errorf("meta rule %q: %w", rule.ID, domain.ErrDuplicateRuleID)
		}
		seenRules[rule.ID] = true
		rules = append(rules, rule)
	}

	return defs, rules, nil
}

func (e AccomplishmentEntry) toDef() (domain.AccomplishmentDef, error) {
	var def domain.AccomplishmentDef

	if e.ID == "" || e.Name == "" || e.TriggerKey == "" {
		return def, fmt.Errorf("id, name, and trigger_key are required")
	}
	if e.TargetValue <= 0 {
		return def, domain.ErrInvalidTarget
	}

	rarity, ok := domain.ParseRarity(e.Rarity)
	if !ok {
		return def, fmt.Errorf("%q: %w", e.Rarity, domain.ErrUnknownRarity)
	}

	category := domain.Category(e.Category)
	if !validCategory(category) {
		return def, fmt.Errorf("%q: %w", e.Category, domain.ErrUnknownCategory)
	}

	return domain.AccomplishmentDef{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Category:    category,
		Rarity:      rarity,
		Points:      e.Points,
		TriggerKey:  e.TriggerKey,
		TargetValue: e.TargetValue,
		IsSecret:    e.Secret,
		IsMilestone: e.Milestone,
	}, nil
}

func (e MetaRuleEntry) toRule() (domain.MetaRule, error) {
	var rule domain.MetaRule

	if e.ID == "" || e.TriggerKey == "" {
		return rule, fmt.Errorf("id and trigger_key are required")
	}

	pred, err := buildPredicate(e)
	if err != nil {
		return rule, err
	}

	return domain.MetaRule{
		ID:         e.ID,
		Name:       e.Name,
		TriggerKey: e.TriggerKey,
		Predicate:  pred,
	}, nil
}

// buildPredicate compiles a declarative condition into a pure function of
// aggregate player state.
func buildPredicate(e MetaRuleEntry) (func(domain.AggregateStats) bool, error) {
	threshold := e.Threshold
	switch e.Condition {
	case CondUnlockedCount:
		return func(s domain.AggregateStats) bool {
			return float64(s.UnlockedCount) >= threshold
		}, nil
	case CondTotalPoints:
		return func(s domain.AggregateStats) bool {
			return float64(s.TotalPoints) >= threshold
		}, nil
	case CondStreakLength:
		return func(s domain.AggregateStats) bool {
			return float64(s.CurrentStreak) >= threshold
		}, nil
	case CondCategoryMastery:
		category := domain.Category(e.Category)
		if !validCategory(category) {
			return nil, fmt.Errorf("%q: %w", e.Category, domain.ErrUnknownCategory)
		}
		return func(s domain.AggregateStats) bool {
			return s.CategoryMastery[category] >= threshold
		}, nil
	default:
		return nil, fmt.Errorf("%q: %w", e.Condition, domain.ErrUnknownCondition)
	}
}

func validCategory(c domain.Category) bool {
	for _, known := range domain.Categories() {
		if c == known {
			return true
		}
	}
	return false
}
