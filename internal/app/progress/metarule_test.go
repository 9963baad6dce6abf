package progress

import (
	"testing"

	"github.com/greenhouse-games/accolade/internal/domain"
)

func TestMetaEvaluator_FiresOnce(t *testing.T) {
	m := NewMetaEvaluator([]domain.MetaRule{
		{
			ID: "hunter", TriggerKey: "meta_hunter",
			Predicate: func(s domain.AggregateStats) bool { return s.UnlockedCount >= 10 },
		},
	})

	stats := domain.AggregateStats{UnlockedCount: 10}
	if fired := m.CheckAll("p1", stats); len(fired) != 1 {
		t.Fatalf("first check fired %d rules, want 1", len(fired))
	}

	// Predicate still true, but the rule is spent for this player.
	if fired := m.CheckAll("p1", stats); len(fired) != 0 {
		t.Fatalf("second check fired %d rules, want 0", len(fired))
	}

	// Other players are unaffected.
	if fired := m.CheckAll("p2", stats); len(fired) != 1 {
		t.Fatalf("other player fired %d rules, want 1", len(fired))
	}
}

func TestMetaEvaluator_NeverRefires(t *testing.T) {
	m := NewMetaEvaluator([]domain.MetaRule{
		{
			ID: "points", TriggerKey: "meta_points",
			Predicate: func(s domain.AggregateStats) bool { return s.TotalPoints >= 100 },
		},
	})

	m.CheckAll("p1", domain.AggregateStats{TotalPoints: 100})

	// False, then true again: the fired flag is permanent.
	m.CheckAll("p1", domain.AggregateStats{TotalPoints: 0})
	if fired := m.CheckAll("p1", domain.AggregateStats{TotalPoints: 200}); len(fired) != 0 {
		t.Fatal("rule re-fired after predicate flapped")
	}
}

func TestMetaEvaluator_FaultIsolation(t *testing.T) {
	m := NewMetaEvaluator([]domain.MetaRule{
		{
			ID: "broken", TriggerKey: "meta_broken",
			Predicate: func(s domain.AggregateStats) bool { panic("boom") },
		},
		{
			ID: "healthy", TriggerKey: "meta_healthy",
			Predicate: func(s domain.AggregateStats) bool { return true },
		},
	})

	fired := m.CheckAll("p1", domain.AggregateStats{})
	if len(fired) != 1 || fired[0].ID != "healthy" {
		t.Fatalf("fired = %v, want only the healthy rule", fired)
	}

	// The faulting rule is not marked fired; it may succeed later.
	states := m.States("p1")
	for _, st := range states {
		if st.Rule.ID == "broken" && st.Fired {
			t.Error("faulting rule must not be marked fired")
		}
	}
}

func TestMetaEvaluator_NilPredicate(t *testing.T) {
	m := NewMetaEvaluator([]domain.MetaRule{{ID: "empty", TriggerKey: "meta_empty"}})
	if fired := m.CheckAll("p1", domain.AggregateStats{}); len(fired) != 0 {
		t.Fatal("nil predicate must never fire")
	}
}
