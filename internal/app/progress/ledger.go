// Package progress implements the accomplishment bookkeeping core:
// the progress ledger (unlock decisions), the streak tracker, the
// meta-rule evaluator, and the engine that serializes them per process.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/domain"
)

// notifier receives the ledger's progress and mastery notifications.
// *events.Bus satisfies it directly; the Engine substitutes a deferring
// implementation so observers run outside its mutex.
type notifier interface {
	PublishProgressUpdated(events.ProgressUpdated)
	PublishCategoryMastery(events.CategoryMasteryUpdated)
}

// Ledger owns per-(player, accomplishment) progress accumulation and the
// unlock decision. It is not safe for concurrent use; the Engine is the
// single coordination point that serializes all mutations.
type Ledger struct {
	defs      []domain.AccomplishmentDef
	byTrigger map[string][]int // trigger key -> indices into defs
	byID      map[string]int

	// player -> accomplishment -> record
	records  map[string]map[string]*domain.ProgressRecord
	unlocked map[string]map[string]domain.UnlockEvent
	points   map[string]int

	notify notifier
}

// NewLedger creates a ledger over an immutable catalog of definitions.
func NewLedger(defs []domain.AccomplishmentDef, notify notifier) *Ledger {
	l := &Ledger{
		defs:      defs,
		byTrigger: make(map[string][]int),
		byID:      make(map[string]int),
		records:   make(map[string]map[string]*domain.ProgressRecord),
		unlocked:  make(map[string]map[string]domain.UnlockEvent),
		points:    make(map[string]int),
		notify:    notify,
	}
	for i, def := range defs {
		l.byTrigger[def.TriggerKey] = append(l.byTrigger[def.TriggerKey], i)
		l.byID[def.ID] = i
	}
	return l
}

// Apply advances every non-unlocked accomplishment matching the trigger
// key and returns the unlock events created. An unknown trigger key
// matches zero accomplishments and is not an error: the catalog may
// evolve without this layer changing. Re-applying a trigger after unlock
// is a silent no-op. A zero delta counts as 1; negative deltas are
// dropped to preserve progress monotonicity.
func (l *Ledger) Apply(key string, delta float64, playerID string, now time.Time) []domain.UnlockEvent {
	if delta == 0 {
		delta = 1
	}
	if delta < 0 {
		return nil
	}

	var unlocks []domain.UnlockEvent
	for _, i := range l.byTrigger[key] {
		def := l.defs[i]
		if l.isUnlocked(playerID, def.ID) {
			continue // frozen: duplicated external events must not double-count
		}

		rec := l.record(playerID, def.ID)
		rec.CurrentValue += delta
		rec.LastUpdate = now

		if rec.CurrentValue >= def.TargetValue {
			ev := domain.UnlockEvent{
				ID:               uuid.NewString(),
				AccomplishmentID: def.ID,
				PlayerID:         playerID,
				Timestamp:        now,
				PointsAwarded:    def.Points,
			}
			l.playerUnlocks(playerID)[def.ID] = ev
			l.points[playerID] += def.Points
			unlocks = append(unlocks, ev)

			l.notify.PublishCategoryMastery(events.CategoryMasteryUpdated{
				PlayerID: playerID,
				Category: def.Category,
				Fraction: l.categoryFraction(playerID, def.Category),
			})
		} else {
			l.notify.PublishProgressUpdated(events.ProgressUpdated{
				PlayerID:         playerID,
				AccomplishmentID: def.ID,
				Fraction:         rec.Fraction(def.TargetValue),
			})
		}
	}
	return unlocks
}

// Definitions returns the immutable catalog.
func (l *Ledger) Definitions() []domain.AccomplishmentDef {
	return l.defs
}

// Definition looks up one definition by id.
func (l *Ledger) Definition(id string) (domain.AccomplishmentDef, bool) {
	i, ok := l.byID[id]
	if !ok {
		return domain.AccomplishmentDef{}, false
	}
	return l.defs[i], true
}

// UnlockedCount returns how many accomplishments the player has unlocked.
func (l *Ledger) UnlockedCount(playerID string) int {
	return len(l.unlocked[playerID])
}

// Points returns the player's accumulated point total.
func (l *Ledger) Points(playerID string) int {
	return l.points[playerID]
}

// Unlocks returns the player's unlock events in no particular order.
func (l *Ledger) Unlocks(playerID string) []domain.UnlockEvent {
	out := make([]domain.UnlockEvent, 0, len(l.unlocked[playerID]))
	for _, ev := range l.unlocked[playerID] {
		out = append(out, ev)
	}
	return out
}

// Progress returns the player's in-flight progress records, unlocked
// accomplishments excluded.
func (l *Ledger) Progress(playerID string) []domain.ProgressRecord {
	var out []domain.ProgressRecord
	for id, rec := range l.records[playerID] {
		if !l.isUnlocked(playerID, id) {
			out = append(out, *rec)
		}
	}
	return out
}

// CategoryMastery returns the unlock fraction per category for a player.
// Categories with no defined accomplishments are omitted.
func (l *Ledger) CategoryMastery(playerID string) map[domain.Category]float64 {
	out := make(map[domain.Category]float64)
	for _, cat := range domain.Categories() {
		total := 0
		for _, def := range l.defs {
			if def.Category == cat {
				total++
			}
		}
		if total > 0 {
			out[cat] = l.categoryFraction(playerID, cat)
		}
	}
	return out
}

// LastUnlockAt returns the most recent unlock timestamp, zero if none.
func (l *Ledger) LastUnlockAt(playerID string) time.Time {
	var last time.Time
	for _, ev := range l.unlocked[playerID] {
		if ev.Timestamp.After(last) {
			last = ev.Timestamp
		}
	}
	return last
}

// ─── Internal ───────────────────────────────────────────────────────────────

func (l *Ledger) isUnlocked(playerID, accID string) bool {
	_, ok := l.unlocked[playerID][accID]
	return ok
}

func (l *Ledger) record(playerID, accID string) *domain.ProgressRecord {
	recs := l.records[playerID]
	if recs == nil {
		recs = make(map[string]*domain.ProgressRecord)
		l.records[playerID] = recs
	}
	rec := recs[accID]
	if rec == nil {
		rec = &domain.ProgressRecord{AccomplishmentID: accID, PlayerID: playerID}
		recs[accID] = rec
	}
	return rec
}

func (l *Ledger) playerUnlocks(playerID string) map[string]domain.UnlockEvent {
	m := l.unlocked[playerID]
	if m == nil {
		m = make(map[string]domain.UnlockEvent)
		l.unlocked[playerID] = m
	}
	return m
}

func (l *Ledger) categoryFraction(playerID string, cat domain.Category) float64 {
	total, done := 0, 0
	for _, def := range l.defs {
		if def.Category != cat {
			continue
		}
		total++
		if l.isUnlocked(playerID, def.ID) {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}
