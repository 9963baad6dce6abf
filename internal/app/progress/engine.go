package progress

import (
	"context"
	"sync"
	"time"

	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/domain"
	"github.com/greenhouse-games/accolade/internal/infra/metrics"
)

// Config tunes the progress engine.
type Config struct {
	StreakWindow    time.Duration // gap tolerance between unlocks (default 24h)
	StreakThreshold int           // streak-reached notification threshold (default 3)
}

// DefaultConfig returns production engine defaults.
func DefaultConfig() Config {
	return Config{
		StreakWindow:    24 * time.Hour,
		StreakThreshold: 3,
	}
}

// Celebrator receives unlocks for presentation. Enqueueing must return
// immediately; the celebration scheduler satisfies this.
type Celebrator interface {
	Celebrate(def domain.AccomplishmentDef, playerID string)
}

// Engine is the single coordination point for a process: all mutations to
// progress records, streak state, and meta-rule fired flags are serialized
// through its mutex. No two trigger events for the same player are
// processed concurrently. Notifications and collaborator calls raised
// during a mutation are collected and delivered after the mutex is
// released, so observers may call back into the query API.
type Engine struct {
	mu      sync.Mutex
	ledger  *Ledger
	streaks *StreakTracker
	meta    *MetaEvaluator
	bus     *events.Bus
	clock   func() time.Time
	notes   []func() // deliveries pending the mutex release

	rewards   domain.RewardService
	display   domain.DisplayService
	celebrate Celebrator
}

// NewEngine wires the ledger, streak tracker, and meta evaluator over an
// immutable catalog.
func NewEngine(cfg Config, defs []domain.AccomplishmentDef, rules []domain.MetaRule, bus *events.Bus) *Engine {
	e := &Engine{
		streaks: NewStreakTracker(cfg.StreakWindow, cfg.StreakThreshold),
		meta:    NewMetaEvaluator(rules),
		bus:     bus,
		clock:   time.Now,
	}
	e.ledger = NewLedger(defs, deferredNotifier{e})
	return e
}

// deferredNotifier queues the ledger's publishes on the owning engine.
type deferredNotifier struct{ e *Engine }

func (d deferredNotifier) PublishProgressUpdated(ev events.ProgressUpdated) {
	d.e.notes = append(d.e.notes, func() { d.e.bus.PublishProgressUpdated(ev) })
}

func (d deferredNotifier) PublishCategoryMastery(ev events.CategoryMasteryUpdated) {
	d.e.notes = append(d.e.notes, func() { d.e.bus.PublishCategoryMastery(ev) })
}

// SetRewardService attaches the external reward collaborator. A nil
// service degrades health but never halts bookkeeping; reward
// side-effects are simply skipped.
func (e *Engine) SetRewardService(r domain.RewardService) { e.rewards = r }

// SetDisplayService attaches the external display collaborator.
func (e *Engine) SetDisplayService(d domain.DisplayService) { e.display = d }

// SetCelebrator attaches the celebration scheduler.
func (e *Engine) SetCelebrator(c Celebrator) { e.celebrate = c }

// SetClock overrides the time source. Test hook.
func (e *Engine) SetClock(clock func() time.Time) { e.clock = clock }

// Bus returns the engine's notification bus.
func (e *Engine) Bus() *events.Bus { return e.bus }

// ApplyTrigger processes one external trigger event. Returns immediately;
// celebrations run on their own schedule.
func (e *Engine) ApplyTrigger(key string, value float64, playerID string) {
	e.mu.Lock()
	e.applyLocked(key, value, playerID, e.clock())
	notes := e.takeNotesLocked()
	e.mu.Unlock()

	deliver(notes)
}

// Consume drains an event source until the context is cancelled or the
// source closes its channel.
func (e *Engine) Consume(ctx context.Context, src domain.EventSource) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src.Events():
			if !ok {
				return
			}
			e.ApplyTrigger(ev.Key, ev.Value, ev.PlayerID)
		}
	}
}

// applyLocked runs the unlock pipeline. Synthetic triggers (streak, meta)
// re-enter here recursively; termination is guaranteed because every
// accomplishment and meta-rule fires at most once per player.
func (e *Engine) applyLocked(key string, value float64, playerID string, now time.Time) {
	metrics.TriggersApplied.Inc()

	unlocks := e.ledger.Apply(key, value, playerID, now)
	for _, ev := range unlocks {
		def, ok := e.ledger.Definition(ev.AccomplishmentID)
		if !ok {
			continue
		}

		metrics.UnlocksTotal.WithLabelValues(string(def.Category), def.Rarity.String()).Inc()
		metrics.PointsAwarded.Add(float64(ev.PointsAwarded))

		// Streaks first: crossing the threshold feeds the ledger back a
		// synthetic trigger carrying the consecutive count, once per run.
		count, reached := e.streaks.RecordUnlock(playerID, ev.Timestamp)
		metrics.StreakLength.Set(float64(count))
		if reached {
			e.notes = append(e.notes, func() {
				e.bus.PublishStreakReached(events.StreakReached{PlayerID: playerID, Count: count})
			})
			e.applyLocked(domain.StreakTriggerKey, float64(count), playerID, now)
		}

		// Meta-rules see the aggregate state as of this unlock.
		e.checkMetaLocked(playerID, now)

		e.notes = append(e.notes, func() { e.settleRewards(def, ev) })

		if e.celebrate != nil {
			e.notes = append(e.notes, func() { e.celebrate.Celebrate(def, playerID) })
		}
	}
}

// checkMetaLocked fires pending meta-rules and forwards their synthetic
// triggers. A trigger key with no catalog target is silently absorbed by
// the ledger.
func (e *Engine) checkMetaLocked(playerID string, now time.Time) {
	fired := e.meta.CheckAll(playerID, e.aggregateLocked(playerID))
	for _, rule := range fired {
		metrics.MetaRulesFired.Inc()
		note := events.MetaRuleTriggered{
			RuleID:   rule.ID,
			Name:     rule.Name,
			PlayerID: playerID,
		}
		e.notes = append(e.notes, func() { e.bus.PublishMetaRuleTriggered(note) })
		e.applyLocked(rule.TriggerKey, 1, playerID, now)
	}
}

// settleRewards calls the reward collaborator and emits the
// unlock-completed notification only when distribution succeeds. A missing
// collaborator skips side-effects without touching bookkeeping. Runs as a
// queued delivery, after the engine mutex is released.
func (e *Engine) settleRewards(def domain.AccomplishmentDef, ev domain.UnlockEvent) {
	if e.rewards == nil {
		return
	}
	bundle, err := e.rewards.CalculateRewards(def, ev.PlayerID)
	if err != nil {
		return
	}
	if !e.rewards.DistributeRewards(bundle) {
		return
	}
	if e.display != nil {
		e.display.ShowNotification(def, bundle)
	}
	e.bus.PublishUnlockCompleted(events.UnlockCompleted{Event: ev, Def: def, Bundle: bundle})
}

// ─── Query API ──────────────────────────────────────────────────────────────

// Stats is the current statistics snapshot for one player.
type Stats struct {
	domain.AggregateStats
	TotalDefined int `json:"total_defined"`
}

// Stats returns the player's statistics snapshot.
func (e *Engine) Stats(playerID string) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		AggregateStats: e.aggregateLocked(playerID),
		TotalDefined:   len(e.ledger.Definitions()),
	}
}

// Definitions returns the immutable accomplishment catalog.
func (e *Engine) Definitions() []domain.AccomplishmentDef {
	return e.ledger.Definitions()
}

// Definition looks up one catalog entry by id.
func (e *Engine) Definition(id string) (domain.AccomplishmentDef, bool) {
	return e.ledger.Definition(id)
}

// Progress returns the player's in-flight progress records.
func (e *Engine) Progress(playerID string) []domain.ProgressRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Progress(playerID)
}

// Unlocks returns the player's unlock events.
func (e *Engine) Unlocks(playerID string) []domain.UnlockEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Unlocks(playerID)
}

// MetaRuleStates lists every meta-rule with its fired flag for the player.
func (e *Engine) MetaRuleStates(playerID string) []RuleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta.States(playerID)
}

// Mastery returns the player's per-category unlock fraction.
func (e *Engine) Mastery(playerID string) map[domain.Category]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.CategoryMastery(playerID)
}

// Streak returns the player's streak state.
func (e *Engine) Streak(playerID string) (domain.StreakState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streaks.State(playerID)
}

// ─── Administrative Operations ──────────────────────────────────────────────

// ForceMetaRecheck re-evaluates all pending meta-rules for a player.
func (e *Engine) ForceMetaRecheck(playerID string) {
	e.mu.Lock()
	e.checkMetaLocked(playerID, e.clock())
	notes := e.takeNotesLocked()
	e.mu.Unlock()

	deliver(notes)
}

// ResetStreak clears the player's streak state.
func (e *Engine) ResetStreak(playerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.streaks.Reset(playerID)
	metrics.StreakLength.Set(0)
}

// ─── Internal ───────────────────────────────────────────────────────────────

// takeNotesLocked drains the pending deliveries. Recursion through
// applyLocked appends in emission order, so replay preserves it.
func (e *Engine) takeNotesLocked() []func() {
	notes := e.notes
	e.notes = nil
	return notes
}

func deliver(notes []func()) {
	for _, fn := range notes {
		fn()
	}
}

func (e *Engine) aggregateLocked(playerID string) domain.AggregateStats {
	return domain.AggregateStats{
		PlayerID:        playerID,
		UnlockedCount:   e.ledger.UnlockedCount(playerID),
		TotalPoints:     e.ledger.Points(playerID),
		CurrentStreak:   e.streaks.Current(playerID),
		CategoryMastery: e.ledger.CategoryMastery(playerID),
		LastUnlockAt:    e.ledger.LastUnlockAt(playerID),
	}
}
