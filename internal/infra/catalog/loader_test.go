package catalog

import (
	"errors"
	"strconv"
	"testing"

	"github.com/greenhouse-games/accolade/internal/domain"
)

const validCatalog = `
[[accomplishment]]
id = "first_harvest"
name = "First Harvest"
category = "cultivation"
rarity = "common"
points = 10
trigger_key = "plant_harvested"
target_value = 1.0

[[accomplishment]]
id = "hidden_gem"
name = "Hidden Gem"
category = "special"
rarity = "legendary"
points = 100
trigger_key = "gem_found"
target_value = 1.0
secret = true
milestone = true

[[meta_rule]]
id = "hunter"
name = "Hunter"
trigger_key = "meta_hunter"
condition = "unlocked_count"
threshold = 10.0
`

func TestParse_ValidCatalog(t *testing.T) {
	defs, rules, err := Parse([]byte(validCatalog))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("defs = %d, want 2", len(defs))
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}

	gem := defs[1]
	if gem.Rarity != domain.RarityLegendary || !gem.IsSecret || !gem.IsMilestone {
		t.Errorf("hidden_gem parsed wrong: %+v", gem)
	}

	// Compiled predicate evaluates against aggregate state.
	rule := rules[0]
	if rule.Predicate(domain.AggregateStats{UnlockedCount: 9}) {
		t.Error("predicate true below threshold")
	}
	if !rule.Predicate(domain.AggregateStats{UnlockedCount: 10}) {
		t.Error("predicate false at threshold")
	}
}

func TestParse_EmptyCatalog(t *testing.T) {
	_, _, err := Parse([]byte(""))
	if !errors.Is(err, domain.ErrCatalogEmpty) {
		t.Fatalf("err = %v, want ErrCatalogEmpty", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	entry := func(id, rarity, category string, target float64) string {
		return `
[[accomplishment]]
id = "` + id + `"
name = "x"
category = "` + category + `"
rarity = "` + rarity + `"
trigger_key = "e"
target_value = ` + strconv.FormatFloat(target, 'f', 1, 64)
	}

	tests := []struct {
		name string
		toml string
		want error
	}{
		{
			"duplicate id",
			entry("a", "common", "cultivation", 1) + entry("a", "common", "cultivation", 1),
			domain.ErrDuplicateID,
		},
		{
			"zero target",
			entry("a", "common", "cultivation", 0),
			domain.ErrInvalidTarget,
		},
		{
			"unknown rarity",
			entry("a", "mythic", "cultivation", 1),
			domain.ErrUnknownRarity,
		},
		{
			"unknown category",
			entry("a", "common", "cooking", 1),
			domain.ErrUnknownCategory,
		},
		{
			"unknown condition",
			entry("a", "common", "cultivation", 1) + `
[[meta_rule]]
id = "r"
trigger_key = "k"
condition = "moon_phase"
threshold = 1.0`,
			domain.ErrUnknownCondition,
		},
		{
			"duplicate rule id",
			entry("a", "common", "cultivation", 1) + `
[[meta_rule]]
id = "r"
trigger_key = "k"
condition = "total_points"
threshold = 1.0

[[meta_rule]]
id = "r"
trigger_key = "k2"
condition = "total_points"
threshold = 2.0`,
			domain.ErrDuplicateRuleID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.toml))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_CategoryMasteryCondition(t *testing.T) {
	data := `
[[accomplishment]]
id = "a"
name = "x"
category = "genetics"
rarity = "rare"
trigger_key = "e"
target_value = 1.0

[[meta_rule]]
id = "mastery"
trigger_key = "meta_mastery"
condition = "category_mastery"
threshold = 0.5
category = "genetics"
`
	_, rules, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	pred := rules[0].Predicate
	stats := domain.AggregateStats{
		CategoryMastery: map[domain.Category]float64{domain.CatGenetics: 0.5},
	}
	if !pred(stats) {
		t.Error("predicate false at mastery threshold")
	}
	if pred(domain.AggregateStats{}) {
		t.Error("predicate true with no mastery data")
	}
}

func TestDefault_Valid(t *testing.T) {
	defs, rules := Default()
	if len(defs) == 0 {
		t.Fatal("embedded catalog has no accomplishments")
	}
	if len(rules) == 0 {
		t.Fatal("embedded catalog has no meta rules")
	}

	// Every rule's trigger key should target a catalog entry so synthetic
	// triggers are not silently absorbed.
	byTrigger := map[string]bool{}
	for _, d := range defs {
		byTrigger[d.TriggerKey] = true
	}
	for _, r := range rules {
		if !byTrigger[r.TriggerKey] {
			t.Errorf("rule %s emits %q which no accomplishment consumes", r.ID, r.TriggerKey)
		}
	}
}
