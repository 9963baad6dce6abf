package celebration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/domain"
)

func def(id string, rarity domain.Rarity) domain.AccomplishmentDef {
	return domain.AccomplishmentDef{
		ID: id, Name: id, Category: domain.CatCultivation,
		Rarity: rarity, Points: 10, TriggerKey: "e", TargetValue: 1,
	}
}

// fastConfig shrinks every duration so phase sequences finish in
// microseconds.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.DurationScale = 0.000001
	cfg.WakeInterval = time.Millisecond
	return cfg
}

// ─── Admission ──────────────────────────────────────────────────────────────

func TestScheduler_EvictsLowerRarityAtCapacity(t *testing.T) {
	cfg := fastConfig()
	cfg.Capacity = 2
	s := NewScheduler(cfg, events.NewBus())

	if err := s.Enqueue(def("c1", domain.RarityCommon), "p1"); err != nil {
		t.Fatalf("enqueue c1: %v", err)
	}
	if err := s.Enqueue(def("c2", domain.RarityCommon), "p1"); err != nil {
		t.Fatalf("enqueue c2: %v", err)
	}
	if err := s.Enqueue(def("r1", domain.RarityRare), "p1"); err != nil {
		t.Fatalf("enqueue r1 at capacity: %v", err)
	}

	pending := s.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending = %d items, want 2", len(pending))
	}
	// The oldest strictly-lower-rarity item is evicted; FIFO order among
	// survivors is preserved.
	if pending[0].Def.ID != "c2" || pending[1].Def.ID != "r1" {
		t.Errorf("pending order = [%s %s], want [c2 r1]", pending[0].Def.ID, pending[1].Def.ID)
	}
}

func TestScheduler_DropsAtCapacityWithoutEvictableItem(t *testing.T) {
	cfg := fastConfig()
	cfg.Capacity = 2
	bus := events.NewBus()
	var drops []events.CelebrationDropped
	bus.OnCelebrationDropped(func(e events.CelebrationDropped) { drops = append(drops, e) })
	s := NewScheduler(cfg, bus)

	s.Enqueue(def("r1", domain.RarityRare), "p1")
	s.Enqueue(def("r2", domain.RarityRare), "p1")

	err := s.Enqueue(def("c1", domain.RarityCommon), "p1")
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}

	pending := s.Pending()
	if len(pending) != 2 || pending[0].Def.ID != "r1" || pending[1].Def.ID != "r2" {
		t.Errorf("queue changed on rejected admission: %v", pending)
	}
	if len(drops) != 1 || drops[0].Reason != DropCapacity {
		t.Errorf("drops = %v, want one capacity drop", drops)
	}
}

func TestScheduler_EqualRarityNeverEvicted(t *testing.T) {
	cfg := fastConfig()
	cfg.Capacity = 1
	s := NewScheduler(cfg, events.NewBus())

	s.Enqueue(def("c1", domain.RarityCommon), "p1")
	err := s.Enqueue(def("c2", domain.RarityCommon), "p1")
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull (equal rarity must not evict)", err)
	}
}

func TestScheduler_EvictionDisabled(t *testing.T) {
	cfg := fastConfig()
	cfg.Capacity = 1
	cfg.PriorityEviction = false
	s := NewScheduler(cfg, events.NewBus())

	s.Enqueue(def("c1", domain.RarityCommon), "p1")
	err := s.Enqueue(def("l1", domain.RarityLegendary), "p1")
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull with eviction disabled", err)
	}
}

func TestScheduler_DuplicateRejected(t *testing.T) {
	s := NewScheduler(fastConfig(), events.NewBus())

	s.Enqueue(def("c1", domain.RarityCommon), "p1")
	err := s.Enqueue(def("c1", domain.RarityCommon), "p1")
	if !errors.Is(err, domain.ErrDuplicateCelebration) {
		t.Fatalf("err = %v, want ErrDuplicateCelebration", err)
	}
}

func TestScheduler_DisabledDropsEverything(t *testing.T) {
	cfg := fastConfig()
	cfg.Enabled = false
	s := NewScheduler(cfg, events.NewBus())

	err := s.Enqueue(def("c1", domain.RarityCommon), "p1")
	if !errors.Is(err, domain.ErrCelebrationsDisabled) {
		t.Fatalf("err = %v, want ErrCelebrationsDisabled", err)
	}
	if len(s.Pending()) != 0 {
		t.Error("disabled scheduler queued an item")
	}
}

// ─── Phase Sequence ─────────────────────────────────────────────────────────

// waitCompleted blocks until n completed notifications arrive.
func waitCompleted(t *testing.T, ch <-chan events.CelebrationCompleted, n int) []events.CelebrationCompleted {
	t.Helper()
	var out []events.CelebrationCompleted
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case e := <-ch:
			out = append(out, e)
		case <-timeout:
			t.Fatalf("timed out waiting for %d completions, got %d", n, len(out))
		}
	}
	return out
}

func TestScheduler_RunsFullSequence(t *testing.T) {
	bus := events.NewBus()
	done := make(chan events.CelebrationCompleted, 8)
	bus.OnCelebrationCompleted(func(e events.CelebrationCompleted) { done <- e })

	var effects []string
	bus.OnCelebrationEffect(func(e events.CelebrationEffect) { effects = append(effects, e.Effect) })
	displayed := make(chan string, 1)
	bus.OnCelebrationDisplay(func(e events.CelebrationDisplay) {
		select {
		case displayed <- e.Message:
		default:
		}
	})

	s := NewScheduler(fastConfig(), bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue(def("r1", domain.RarityRare), "p1")

	completed := waitCompleted(t, done, 1)
	if completed[0].Faulted {
		t.Error("clean sequence reported faulted")
	}
	if completed[0].Item.State != domain.CelebrationCompleted {
		t.Errorf("state = %q, want completed", completed[0].Item.State)
	}

	// Rare profiles include the screen emphasis and fade phases.
	wantEffects := map[string]bool{"fanfare_rare": false, "screen_flash": false, "fade_out": false}
	for _, e := range effects {
		if _, ok := wantEffects[e]; ok {
			wantEffects[e] = true
		}
	}
	for name, seen := range wantEffects {
		if !seen {
			t.Errorf("effect %q never emitted (got %v)", name, effects)
		}
	}

	select {
	case msg := <-displayed:
		if msg != "Impressive! r1" {
			t.Errorf("display message = %q", msg)
		}
	default:
		t.Error("display notification never emitted")
	}

	if len(s.Active()) != 0 {
		t.Error("active set not empty after completion")
	}
	if recent := s.Recent(); len(recent) != 1 || recent[0].Def.ID != "r1" {
		t.Errorf("recent = %v, want [r1]", recent)
	}
}

// TestScheduler_CleanupUnconditional forces a fault mid-sequence via a
// panicking effect observer: the item must still leave the active set,
// join recent history, and emit a completed notification.
func TestScheduler_CleanupUnconditional(t *testing.T) {
	bus := events.NewBus()
	done := make(chan events.CelebrationCompleted, 8)
	bus.OnCelebrationCompleted(func(e events.CelebrationCompleted) { done <- e })
	bus.OnCelebrationEffect(func(e events.CelebrationEffect) {
		panic("effect subscriber exploded")
	})

	s := NewScheduler(fastConfig(), bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue(def("c1", domain.RarityCommon), "p1")

	completed := waitCompleted(t, done, 1)
	if !completed[0].Faulted {
		t.Error("faulted sequence not reported as faulted")
	}
	if len(s.Active()) != 0 {
		t.Error("active slot leaked after fault")
	}
	if recent := s.Recent(); len(recent) != 1 || recent[0].Def.ID != "c1" {
		t.Errorf("recent = %v, want the faulted item", recent)
	}

	// The released slot admits the next item.
	s.Enqueue(def("c2", domain.RarityCommon), "p1")
	waitCompleted(t, done, 1)
}

func TestScheduler_MaxConcurrent(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxConcurrent = 2
	bus := events.NewBus()
	done := make(chan events.CelebrationCompleted, 8)
	bus.OnCelebrationCompleted(func(e events.CelebrationCompleted) { done <- e })

	s := NewScheduler(cfg, bus)

	for _, id := range []string{"a", "b", "c", "d"} {
		s.Enqueue(def(id, domain.RarityCommon), "p1")
	}

	ctx := context.Background()
	s.admit(ctx)
	if got := len(s.Active()) + len(done); got > 2 {
		t.Errorf("active after one admit pass = %d, want <= 2", got)
	}
	if got := len(s.Pending()); got < 2 {
		t.Errorf("pending after one admit pass = %d, want >= 2", got)
	}

	waitCompleted(t, done, 2)
	s.admit(ctx)
	waitCompleted(t, done, 2)

	if got := s.Stats().RecentCount; got != 4 {
		t.Errorf("recent count = %d, want 4", got)
	}
}

func TestScheduler_HistoryRing(t *testing.T) {
	cfg := fastConfig()
	cfg.HistorySize = 2
	bus := events.NewBus()
	done := make(chan events.CelebrationCompleted, 8)
	bus.OnCelebrationCompleted(func(e events.CelebrationCompleted) { done <- e })

	s := NewScheduler(cfg, bus)

	now := time.Now()
	var tick int64
	s.SetClock(func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	for _, id := range []string{"a", "b", "c"} {
		s.Enqueue(def(id, domain.RarityCommon), "p1")
		waitCompleted(t, done, 1)
	}

	recent := s.Recent()
	if len(recent) != 2 {
		t.Fatalf("recent = %d items, want 2 (ring bound)", len(recent))
	}
	if recent[0].Def.ID != "c" || recent[1].Def.ID != "b" {
		t.Errorf("recent order = [%s %s], want [c b] (most-recent-first)",
			recent[0].Def.ID, recent[1].Def.ID)
	}
}

func TestScheduler_Clear(t *testing.T) {
	bus := events.NewBus()
	var drops []events.CelebrationDropped
	bus.OnCelebrationDropped(func(e events.CelebrationDropped) { drops = append(drops, e) })

	s := NewScheduler(fastConfig(), bus)
	s.Enqueue(def("a", domain.RarityCommon), "p1")
	s.Enqueue(def("b", domain.RarityCommon), "p1")

	if n := s.Clear(); n != 2 {
		t.Fatalf("Clear() = %d, want 2", n)
	}
	if len(s.Pending()) != 0 {
		t.Error("pending not empty after clear")
	}
	if len(drops) != 2 || drops[0].Reason != DropCleared {
		t.Errorf("drops = %v, want two cleared drops", drops)
	}
}
