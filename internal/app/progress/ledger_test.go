package progress

import (
	"testing"
	"time"

	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/domain"
)

func testDefs() []domain.AccomplishmentDef {
	return []domain.AccomplishmentDef{
		{
			ID: "first_harvest", Name: "First Harvest",
			Category: domain.CatCultivation, Rarity: domain.RarityCommon,
			Points: 10, TriggerKey: "plant_harvested", TargetValue: 1,
		},
		{
			ID: "green_thumb", Name: "Green Thumb",
			Category: domain.CatCultivation, Rarity: domain.RarityUncommon,
			Points: 25, TriggerKey: "plant_harvested", TargetValue: 5,
		},
		{
			ID: "first_sale", Name: "Open for Business",
			Category: domain.CatCommerce, Rarity: domain.RarityCommon,
			Points: 10, TriggerKey: "sale_completed", TargetValue: 1,
		},
	}
}

func TestLedger_UnlockAtTarget(t *testing.T) {
	l := NewLedger(testDefs(), events.NewBus())
	now := time.Now()

	unlocks := l.Apply("plant_harvested", 1, "p1", now)
	if len(unlocks) != 1 {
		t.Fatalf("Apply() unlocks = %d, want 1", len(unlocks))
	}
	if unlocks[0].AccomplishmentID != "first_harvest" {
		t.Errorf("unlocked %q, want first_harvest", unlocks[0].AccomplishmentID)
	}
	if unlocks[0].PointsAwarded != 10 {
		t.Errorf("points = %d, want 10", unlocks[0].PointsAwarded)
	}
	if l.Points("p1") != 10 {
		t.Errorf("Points() = %d, want 10", l.Points("p1"))
	}
}

func TestLedger_UnlockIdempotent(t *testing.T) {
	l := NewLedger(testDefs(), events.NewBus())
	now := time.Now()

	l.Apply("plant_harvested", 10, "p1", now) // unlocks both cultivation entries
	before := l.Points("p1")

	unlocks := l.Apply("plant_harvested", 10, "p1", now.Add(time.Minute))
	if len(unlocks) != 0 {
		t.Fatalf("re-trigger produced %d unlocks, want 0", len(unlocks))
	}
	if l.Points("p1") != before {
		t.Errorf("points changed on re-trigger: %d -> %d", before, l.Points("p1"))
	}
	if got := l.UnlockedCount("p1"); got != 2 {
		t.Errorf("UnlockedCount() = %d, want 2", got)
	}
}

func TestLedger_ZeroDeltaCountsAsOne(t *testing.T) {
	l := NewLedger(testDefs(), events.NewBus())

	unlocks := l.Apply("sale_completed", 0, "p1", time.Now())
	if len(unlocks) != 1 {
		t.Fatalf("zero delta unlocks = %d, want 1", len(unlocks))
	}
}

func TestLedger_NegativeDeltaDropped(t *testing.T) {
	l := NewLedger(testDefs(), events.NewBus())
	now := time.Now()

	l.Apply("plant_harvested", 3, "p1", now)
	l.Apply("plant_harvested", -2, "p1", now)

	recs := l.Progress("p1")
	for _, rec := range recs {
		if rec.AccomplishmentID == "green_thumb" && rec.CurrentValue != 3 {
			t.Errorf("green_thumb progress = %g, want 3 (negative delta must not regress)", rec.CurrentValue)
		}
	}
}

func TestLedger_UnknownTriggerAbsorbed(t *testing.T) {
	l := NewLedger(testDefs(), events.NewBus())

	unlocks := l.Apply("no_such_key", 1, "p1", time.Now())
	if unlocks != nil {
		t.Fatalf("unknown trigger produced unlocks: %v", unlocks)
	}
}

func TestLedger_ProgressFractionClamped(t *testing.T) {
	bus := events.NewBus()
	var last float64
	bus.OnProgressUpdated(func(e events.ProgressUpdated) { last = e.Fraction })

	l := NewLedger(testDefs(), bus)
	l.Apply("plant_harvested", 4, "p1", time.Now()) // first_harvest unlocks; green_thumb at 4/5

	if last >= 1 || last < 0.7 {
		t.Errorf("fraction = %g, want 0.8 (clamped below 1)", last)
	}
}

func TestLedger_CategoryMastery(t *testing.T) {
	l := NewLedger(testDefs(), events.NewBus())
	l.Apply("plant_harvested", 1, "p1", time.Now()) // 1 of 2 cultivation

	mastery := l.CategoryMastery("p1")
	if got := mastery[domain.CatCultivation]; got != 0.5 {
		t.Errorf("cultivation mastery = %g, want 0.5", got)
	}
	if got := mastery[domain.CatCommerce]; got != 0 {
		t.Errorf("commerce mastery = %g, want 0", got)
	}
	if _, ok := mastery[domain.CatGenetics]; ok {
		t.Error("empty category should be omitted from mastery")
	}
}
