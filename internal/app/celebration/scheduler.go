package celebration

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/domain"
	"github.com/greenhouse-games/accolade/internal/infra/metrics"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config tunes the celebration scheduler.
type Config struct {
	Capacity         int           // pending queue bound (default 10)
	MaxConcurrent    int           // concurrent phase sequences (default 3)
	WakeInterval     time.Duration // consumer wake period (default 500ms)
	HistorySize      int           // recent-history ring size (default 20)
	PriorityEviction bool          // rarity-biased admission under pressure
	Enabled          bool          // master toggle
	DurationScale    float64       // multiplies every profile duration (default 1.0)
}

// DefaultConfig returns production scheduler defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:         10,
		MaxConcurrent:    3,
		WakeInterval:     500 * time.Millisecond,
		HistorySize:      20,
		PriorityEviction: true,
		Enabled:          true,
		DurationScale:    1.0,
	}
}

// Admission drop reasons surfaced through the warning notification.
const (
	DropDisabled  = "disabled"
	DropDuplicate = "duplicate"
	DropCapacity  = "capacity"
	DropEvicted   = "evicted"
	DropCleared   = "cleared"
)

// screenEmphasisHold is the brief pause after the screen-effect phase.
const screenEmphasisHold = 300 * time.Millisecond

// ─── Scheduler ──────────────────────────────────────────────────────────────

// Scheduler is a bounded FIFO of celebration items with a single
// sequential consumer. Admission is best-effort rarity-biased, not a full
// priority queue: relative FIFO order among same-or-higher-rarity items is
// preserved, and at most one strictly-lower-rarity item is evicted per
// admission attempt. Enqueue never blocks.
type Scheduler struct {
	mu       sync.Mutex
	cfg      Config
	pending  []*domain.CelebrationItem
	active   map[string]*domain.CelebrationItem // keyed by accomplishment id
	recent   []domain.CelebrationItem           // most-recent-first
	cooldown time.Time                          // last completion timestamp

	bus   *events.Bus
	clock func() time.Time
}

// NewScheduler creates a scheduler publishing on the given bus.
func NewScheduler(cfg Config, bus *events.Bus) *Scheduler {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.WakeInterval <= 0 {
		cfg.WakeInterval = 500 * time.Millisecond
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 20
	}
	if cfg.DurationScale <= 0 {
		cfg.DurationScale = 1.0
	}
	return &Scheduler{
		cfg:    cfg,
		active: make(map[string]*domain.CelebrationItem),
		bus:    bus,
		clock:  time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Scheduler) SetClock(clock func() time.Time) { s.clock = clock }

// Celebrate enqueues a celebration for an unlock. Admission failures are
// expected no-ops, reported only through the drop notification.
func (s *Scheduler) Celebrate(def domain.AccomplishmentDef, playerID string) {
	_ = s.Enqueue(def, playerID)
}

// Enqueue admits an item into the pending queue. Duplicate accomplishments
// (already pending or active) are rejected. At capacity, eviction removes
// the first queued item of strictly lower rarity than the incoming one;
// if none exists, the incoming item is dropped and the queue unchanged.
func (s *Scheduler) Enqueue(def domain.AccomplishmentDef, playerID string) error {
	drop, err := s.enqueue(def, playerID)
	if drop != nil {
		// Published outside the lock so observers may query the scheduler.
		metrics.CelebrationsDropped.WithLabelValues(drop.Reason).Inc()
		s.bus.PublishCelebrationDropped(*drop)
	}
	return err
}

func (s *Scheduler) enqueue(def domain.AccomplishmentDef, playerID string) (*events.CelebrationDropped, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		return dropEvent(def.ID, playerID, DropDisabled), domain.ErrCelebrationsDisabled
	}
	if s.hasItemLocked(def.ID) {
		return dropEvent(def.ID, playerID, DropDuplicate), domain.ErrDuplicateCelebration
	}

	item := &domain.CelebrationItem{
		ID:         uuid.NewString(),
		Def:        def,
		PlayerID:   playerID,
		State:      domain.CelebrationPending,
		EnqueuedAt: s.clock(),
	}

	if len(s.pending) < s.cfg.Capacity {
		s.pending = append(s.pending, item)
		metrics.CelebrationQueueDepth.Set(float64(len(s.pending)))
		return nil, nil
	}

	if s.cfg.PriorityEviction {
		for i, queued := range s.pending {
			if queued.Def.Rarity < def.Rarity {
				queued.State = domain.CelebrationEvicted
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				s.pending = append(s.pending, item)
				metrics.CelebrationsEvicted.Inc()
				return dropEvent(queued.Def.ID, queued.PlayerID, DropEvicted), nil
			}
		}
	}

	return dropEvent(def.ID, playerID, DropCapacity), domain.ErrQueueFull
}

// Run is the consumer loop. It wakes on a fixed interval and starts
// pending items as concurrent phase sequences while the active count is
// below the cap. Call in a goroutine; cancellation stops the loop before
// its next wake and lets in-flight runs finish their cleanup.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.WakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.admit(ctx)
		}
	}
}

// admit dequeues front items into active runs up to MaxConcurrent.
func (s *Scheduler) admit(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.active) < s.cfg.MaxConcurrent && len(s.pending) > 0 {
		item := s.pending[0]
		s.pending = s.pending[1:]

		item.State = domain.CelebrationActive
		item.StartedAt = s.clock()
		s.active[item.Def.ID] = item

		metrics.CelebrationQueueDepth.Set(float64(len(s.pending)))
		metrics.CelebrationsActive.Set(float64(len(s.active)))

		go s.run(ctx, item)
	}
}

// run executes the phase sequence for one item. Cleanup is unconditional:
// whatever faults mid-sequence, the item leaves the active set, joins the
// recent history, and the completed notification is emitted.
func (s *Scheduler) run(ctx context.Context, item *domain.CelebrationItem) {
	faulted := false
	defer func() {
		if r := recover(); r != nil {
			faulted = true
			log.Printf("[celebration] sequence fault for %s: %v", item.Def.ID, r)
		}
		s.finish(item, faulted)
	}()

	// Phase 1: resolve and customize the profile for this item.
	profile := s.scaled(ResolveProfile(item.Def))
	s.mu.Lock()
	item.Profile = profile
	snapshot := *item
	s.mu.Unlock()

	// Phase 2: started notification.
	s.bus.PublishCelebrationStarted(events.CelebrationStarted{Item: snapshot})

	// Phase 3: visual and audio effects.
	s.bus.PublishCelebrationEffect(events.CelebrationEffect{
		ItemID:    item.ID,
		Effect:    profile.EffectName,
		Intensity: profile.Intensity,
	})
	s.bus.PublishCelebrationEffect(events.CelebrationEffect{
		ItemID:    item.ID,
		Effect:    "fanfare_" + item.Def.Rarity.String(),
		Intensity: profile.Intensity,
	})

	// Phase 4: display info, held for the display duration.
	s.bus.PublishCelebrationDisplay(events.CelebrationDisplay{
		ItemID:  item.ID,
		Message: RenderMessage(profile, item.Def),
	})
	if !s.hold(ctx, profile.DisplayDuration) {
		return
	}

	// Phase 5: screen emphasis, when the profile asks for it.
	if profile.ScreenEmphasis {
		s.bus.PublishCelebrationEffect(events.CelebrationEffect{
			ItemID:    item.ID,
			Effect:    "screen_flash",
			Intensity: profile.Intensity,
		})
		if !s.hold(ctx, s.scale(screenEmphasisHold)) {
			return
		}
	}

	// Phase 6: hold for the profile's total duration.
	if !s.hold(ctx, profile.Duration) {
		return
	}

	// Phase 7: fade out.
	s.bus.PublishCelebrationEffect(events.CelebrationEffect{
		ItemID:    item.ID,
		Effect:    "fade_out",
		Intensity: profile.Intensity,
	})
	s.hold(ctx, profile.FadeDuration)
}

// finish is the unconditional cleanup phase: release the active slot,
// record history, stamp the cooldown, notify completion.
func (s *Scheduler) finish(item *domain.CelebrationItem, faulted bool) {
	s.mu.Lock()
	delete(s.active, item.Def.ID)
	item.State = domain.CelebrationCompleted
	item.CompletedAt = s.clock()
	s.cooldown = item.CompletedAt

	s.recent = append([]domain.CelebrationItem{*item}, s.recent...)
	if len(s.recent) > s.cfg.HistorySize {
		s.recent = s.recent[:s.cfg.HistorySize]
	}
	metrics.CelebrationsActive.Set(float64(len(s.active)))
	snapshot := *item
	s.mu.Unlock()

	metrics.CelebrationsCompleted.Inc()
	s.bus.PublishCelebrationCompleted(events.CelebrationCompleted{Item: snapshot, Faulted: faulted})
}

// hold suspends the run cooperatively. Returns false when cancelled.
func (s *Scheduler) hold(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ─── Runtime Configuration ──────────────────────────────────────────────────

// SetEnabled toggles celebration admission at runtime.
func (s *Scheduler) SetEnabled(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Enabled = v
}

// SetPriorityEviction toggles rarity-biased eviction at runtime.
func (s *Scheduler) SetPriorityEviction(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.PriorityEviction = v
}

// SetDurationScale adjusts all celebration durations at runtime.
// Non-positive values are ignored.
func (s *Scheduler) SetDurationScale(scale float64) {
	if scale <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.DurationScale = scale
}

// Clear evicts every pending item. Administrative operation; active runs
// are left to finish. Returns the number of items cleared.
func (s *Scheduler) Clear() int {
	s.mu.Lock()
	var drops []events.CelebrationDropped
	for _, item := range s.pending {
		item.State = domain.CelebrationEvicted
		drops = append(drops, *dropEvent(item.Def.ID, item.PlayerID, DropCleared))
	}
	n := len(s.pending)
	s.pending = nil
	metrics.CelebrationQueueDepth.Set(0)
	s.mu.Unlock()

	for _, d := range drops {
		metrics.CelebrationsDropped.WithLabelValues(d.Reason).Inc()
		s.bus.PublishCelebrationDropped(d)
	}
	return n
}

// ─── Introspection ──────────────────────────────────────────────────────────

// Pending returns copies of queued items in FIFO order.
func (s *Scheduler) Pending() []domain.CelebrationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CelebrationItem, len(s.pending))
	for i, item := range s.pending {
		out[i] = *item
	}
	return out
}

// Active returns copies of currently running items.
func (s *Scheduler) Active() []domain.CelebrationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CelebrationItem, 0, len(s.active))
	for _, item := range s.active {
		out = append(out, *item)
	}
	return out
}

// Recent returns the completed-history ring, most-recent-first.
func (s *Scheduler) Recent() []domain.CelebrationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CelebrationItem, len(s.recent))
	copy(out, s.recent)
	return out
}

// Stats summarizes scheduler state.
type Stats struct {
	PendingCount     int       `json:"pending_count"`
	ActiveCount      int       `json:"active_count"`
	RecentCount      int       `json:"recent_count"`
	LastCompletedAt  time.Time `json:"last_completed_at"`
	Enabled          bool      `json:"enabled"`
	PriorityEviction bool      `json:"priority_eviction"`
	DurationScale    float64   `json:"duration_scale"`
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		PendingCount:     len(s.pending),
		ActiveCount:      len(s.active),
		RecentCount:      len(s.recent),
		LastCompletedAt:  s.cooldown,
		Enabled:          s.cfg.Enabled,
		PriorityEviction: s.cfg.PriorityEviction,
		DurationScale:    s.cfg.DurationScale,
	}
}

// ─── Internal ───────────────────────────────────────────────────────────────

func (s *Scheduler) hasItemLocked(accID string) bool {
	if _, ok := s.active[accID]; ok {
		return true
	}
	for _, item := range s.pending {
		if item.Def.ID == accID {
			return true
		}
	}
	return false
}

func dropEvent(accID, playerID, reason string) *events.CelebrationDropped {
	return &events.CelebrationDropped{
		AccomplishmentID: accID,
		PlayerID:         playerID,
		Reason:           reason,
	}
}

func (s *Scheduler) scaled(p domain.CelebrationProfile) domain.CelebrationProfile {
	p.Duration = s.scale(p.Duration)
	p.DisplayDuration = s.scale(p.DisplayDuration)
	p.FadeDuration = s.scale(p.FadeDuration)
	return p
}

func (s *Scheduler) scale(d time.Duration) time.Duration {
	s.mu.Lock()
	scale := s.cfg.DurationScale
	s.mu.Unlock()
	return time.Duration(float64(d) * scale)
}
