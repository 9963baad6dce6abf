// Package events provides the instance-scoped notification bus for the
// accolade engine. Components publish typed notifications; collaborators
// subscribe at construction and are invoked synchronously in registration
// order. There is no process-wide static state: every engine owns its bus.
package events

import (
	"sync"

	"github.com/greenhouse-games/accolade/internal/domain"
)

// ─── Notification Payloads ──────────────────────────────────────────────────

// UnlockCompleted is published after an unlock's reward distribution
// succeeded.
type UnlockCompleted struct {
	Event  domain.UnlockEvent
	Def    domain.AccomplishmentDef
	Bundle domain.RewardBundle
}

// ProgressUpdated carries the clamped progress fraction for a
// not-yet-unlocked accomplishment.
type ProgressUpdated struct {
	PlayerID         string
	AccomplishmentID string
	Fraction         float64
}

// StreakReached is published when a player's consecutive-unlock count
// reaches the configured threshold.
type StreakReached struct {
	PlayerID string
	Count    int
}

// MetaRuleTriggered is published when a meta-rule fires for a player.
type MetaRuleTriggered struct {
	RuleID   string
	Name     string
	PlayerID string
}

// CategoryMasteryUpdated carries the completion fraction for one category.
type CategoryMasteryUpdated struct {
	PlayerID string
	Category domain.Category
	Fraction float64
}

// HealthUpdated carries a fresh service health snapshot.
type HealthUpdated struct {
	Snapshot domain.ServiceHealthSnapshot
}

// CelebrationStarted marks the beginning of an item's phase sequence.
type CelebrationStarted struct {
	Item domain.CelebrationItem
}

// CelebrationEffect names a visual/audio/screen effect with its intensity.
type CelebrationEffect struct {
	ItemID    string
	Effect    string
	Intensity float64
}

// CelebrationDisplay carries the rendered message for the display-info
// phase of a celebration.
type CelebrationDisplay struct {
	ItemID  string
	Message string
}

// CelebrationCompleted marks the end of an item's phase sequence.
// Faulted is true when the sequence aborted mid-phase; cleanup ran anyway.
type CelebrationCompleted struct {
	Item    domain.CelebrationItem
	Faulted bool
}

// CelebrationDropped is the observable warning for items rejected at
// admission, whether capacity exhaustion or duplicate suppression.
type CelebrationDropped struct {
	AccomplishmentID string
	PlayerID         string
	Reason           string
}

// ─── Bus ────────────────────────────────────────────────────────────────────

// Bus is a typed observer registry. Zero value is not usable; create with
// NewBus. Safe for concurrent publish and subscribe.
type Bus struct {
	mu sync.RWMutex

	unlock       []func(UnlockCompleted)
	progress     []func(ProgressUpdated)
	streak       []func(StreakReached)
	meta         []func(MetaRuleTriggered)
	mastery      []func(CategoryMasteryUpdated)
	health       []func(HealthUpdated)
	celebStart   []func(CelebrationStarted)
	celebEffect  []func(CelebrationEffect)
	celebDisplay []func(CelebrationDisplay)
	celebDone    []func(CelebrationCompleted)
	celebDrop    []func(CelebrationDropped)
}

// NewBus creates an empty notification bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnUnlockCompleted registers an unlock-completed observer.
func (b *Bus) OnUnlockCompleted(fn func(UnlockCompleted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unlock = append(b.unlock, fn)
}

// OnProgressUpdated registers a progress observer.
func (b *Bus) OnProgressUpdated(fn func(ProgressUpdated)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progress = append(b.progress, fn)
}

// OnStreakReached registers a streak observer.
func (b *Bus) OnStreakReached(fn func(StreakReached)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streak = append(b.streak, fn)
}

// OnMetaRuleTriggered registers a meta-rule observer.
func (b *Bus) OnMetaRuleTriggered(fn func(MetaRuleTriggered)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meta = append(b.meta, fn)
}

// OnCategoryMastery registers a category-mastery observer.
func (b *Bus) OnCategoryMastery(fn func(CategoryMasteryUpdated)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mastery = append(b.mastery, fn)
}

// OnHealthUpdated registers a health snapshot observer.
func (b *Bus) OnHealthUpdated(fn func(HealthUpdated)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health = append(b.health, fn)
}

// OnCelebrationStarted registers a celebration-started observer.
func (b *Bus) OnCelebrationStarted(fn func(CelebrationStarted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.celebStart = append(b.celebStart, fn)
}

// OnCelebrationEffect registers an effect observer.
func (b *Bus) OnCelebrationEffect(fn func(CelebrationEffect)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.celebEffect = append(b.celebEffect, fn)
}

// OnCelebrationDisplay registers a display-info observer.
func (b *Bus) OnCelebrationDisplay(fn func(CelebrationDisplay)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.celebDisplay = append(b.celebDisplay, fn)
}

// OnCelebrationCompleted registers a celebration-completed observer.
func (b *Bus) OnCelebrationCompleted(fn func(CelebrationCompleted)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.celebDone = append(b.celebDone, fn)
}

// OnCelebrationDropped registers a drop-warning observer.
func (b *Bus) OnCelebrationDropped(fn func(CelebrationDropped)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.celebDrop = append(b.celebDrop, fn)
}

// ─── Publish ────────────────────────────────────────────────────────────────
// Publishers snapshot the observer slice under RLock, then invoke outside
// any new registration but synchronously on the caller's goroutine.

// PublishUnlockCompleted notifies unlock observers.
func (b *Bus) PublishUnlockCompleted(e UnlockCompleted) {
	for _, fn := range snapshot(&b.mu, &b.unlock) {
		fn(e)
	}
}

// PublishProgressUpdated notifies progress observers.
func (b *Bus) PublishProgressUpdated(e ProgressUpdated) {
	for _, fn := range snapshot(&b.mu, &b.progress) {
		fn(e)
	}
}

// PublishStreakReached notifies streak observers.
func (b *Bus) PublishStreakReached(e StreakReached) {
	for _, fn := range snapshot(&b.mu, &b.streak) {
		fn(e)
	}
}

// PublishMetaRuleTriggered notifies meta-rule observers.
func (b *Bus) PublishMetaRuleTriggered(e MetaRuleTriggered) {
	for _, fn := range snapshot(&b.mu, &b.meta) {
		fn(e)
	}
}

// PublishCategoryMastery notifies mastery observers.
func (b *Bus) PublishCategoryMastery(e CategoryMasteryUpdated) {
	for _, fn := range snapshot(&b.mu, &b.mastery) {
		fn(e)
	}
}

// PublishHealthUpdated notifies health observers.
func (b *Bus) PublishHealthUpdated(e HealthUpdated) {
	for _, fn := range snapshot(&b.mu, &b.health) {
		fn(e)
	}
}

// PublishCelebrationStarted notifies celebration-started observers.
func (b *Bus) PublishCelebrationStarted(e CelebrationStarted) {
	for _, fn := range snapshot(&b.mu, &b.celebStart) {
		fn(e)
	}
}

// PublishCelebrationEffect notifies effect observers.
func (b *Bus) PublishCelebrationEffect(e CelebrationEffect) {
	for _, fn := range snapshot(&b.mu, &b.celebEffect) {
		fn(e)
	}
}

// PublishCelebrationDisplay notifies display-info observers.
func (b *Bus) PublishCelebrationDisplay(e CelebrationDisplay) {
	for _, fn := range snapshot(&b.mu, &b.celebDisplay) {
		fn(e)
	}
}

// PublishCelebrationCompleted notifies celebration-completed observers.
func (b *Bus) PublishCelebrationCompleted(e CelebrationCompleted) {
	for _, fn := range snapshot(&b.mu, &b.celebDone) {
		fn(e)
	}
}

// PublishCelebrationDropped notifies drop observers.
func (b *Bus) PublishCelebrationDropped(e CelebrationDropped) {
	for _, fn := range snapshot(&b.mu, &b.celebDrop) {
		fn(e)
	}
}

func snapshot[T any](mu *sync.RWMutex, observers *[]T) []T {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]T, len(*observers))
	copy(out, *observers)
	return out
}
