package progress

import (
	"fmt"
	"log"

	"github.com/greenhouse-games/accolade/internal/domain"
)

// MetaEvaluator fires meta-rules against aggregate player state. Each
// (rule, player) pair fires at most once, permanently. The predicate
// later flipping false and true again never re-fires it. Predicates are
// expected to be side-effect-free; a faulting predicate is isolated and
// never aborts the rest of the batch.
// Not safe for concurrent use; serialized by the Engine.
type MetaEvaluator struct {
	rules []domain.MetaRule
	fired map[string]map[string]bool // player -> rule id
}

// RuleState pairs a rule with its fired flag for one player.
type RuleState struct {
	Rule  domain.MetaRule `json:"rule"`
	Fired bool            `json:"fired"`
}

// NewMetaEvaluator creates an evaluator over an immutable rule set.
func NewMetaEvaluator(rules []domain.MetaRule) *MetaEvaluator {
	return &MetaEvaluator{
		rules: rules,
		fired: make(map[string]map[string]bool),
	}
}

// CheckAll evaluates every not-yet-fired rule for the player against the
// given snapshot and returns the rules that fired. Evaluation is
// re-entrant: it may run with partially updated state mid-burst.
func (m *MetaEvaluator) CheckAll(playerID string, stats domain.AggregateStats) []domain.MetaRule {
	var fired []domain.MetaRule
	for _, rule := range m.rules {
		if m.hasFired(playerID, rule.ID) {
			continue
		}

		ok, err := evaluate(rule, stats)
		if err != nil {
			log.Printf("[meta] rule %s faulted for player %s: %v", rule.ID, playerID, err)
			continue
		}
		if !ok {
			continue
		}

		m.markFired(playerID, rule.ID)
		fired = append(fired, rule)
	}
	return fired
}

// Rules returns the immutable rule set.
func (m *MetaEvaluator) Rules() []domain.MetaRule {
	return m.rules
}

// States returns every rule with its fired flag for the player.
func (m *MetaEvaluator) States(playerID string) []RuleState {
	out := make([]RuleState, 0, len(m.rules))
	for _, rule := range m.rules {
		out = append(out, RuleState{Rule: rule, Fired: m.hasFired(playerID, rule.ID)})
	}
	return out
}

// evaluate runs one predicate with panic isolation.
func evaluate(rule domain.MetaRule, stats domain.AggregateStats) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = fmt.Errorf("predicate panic: %v", r)
		}
	}()
	if rule.Predicate == nil {
		return false, nil
	}
	return rule.Predicate(stats), nil
}

func (m *MetaEvaluator) hasFired(playerID, ruleID string) bool {
	return m.fired[playerID][ruleID]
}

func (m *MetaEvaluator) markFired(playerID, ruleID string) {
	set := m.fired[playerID]
	if set == nil {
		set = make(map[string]bool)
		m.fired[playerID] = set
	}
	set[ruleID] = true
}
