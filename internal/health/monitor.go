// Package health monitors the engine's external service collaborators.
// Availability is discovered once at startup; health is re-probed on a
// fixed interval and published as a wholesale snapshot swap.
package health

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/greenhouse-games/accolade/internal/app/events"
	"github.com/greenhouse-games/accolade/internal/domain"
	"github.com/greenhouse-games/accolade/internal/infra/metrics"
)

// DefaultInterval is the production probe period.
const DefaultInterval = 5 * time.Second

// probeTimeout bounds a single Ready call.
const probeTimeout = 2 * time.Second

// Monitor probes the tracking, reward, and display collaborators. A nil
// collaborator is permanently unavailable and unhealthy; the engine keeps
// running in degraded mode either way.
type Monitor struct {
	mu       sync.RWMutex
	snapshot domain.ServiceHealthSnapshot

	tracking domain.Collaborator
	rewards  domain.Collaborator
	display  domain.Collaborator

	interval time.Duration
	bus      *events.Bus
	clock    func() time.Time
}

// NewMonitor creates a monitor over the three collaborators. Any of them
// may be nil.
func NewMonitor(tracking, rewards, display domain.Collaborator, interval time.Duration, bus *events.Bus) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		tracking: tracking,
		rewards:  rewards,
		display:  display,
		interval: interval,
		bus:      bus,
		clock:    time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (m *Monitor) SetClock(clock func() time.Time) { m.clock = clock }

// Discover performs the one-time availability pass. Availability reflects
// presence alone: a located collaborator that fails its first probe is
// available but unhealthy, and may still recover on a later check.
// Availability flags are frozen after this call; only health flags change
// afterwards.
func (m *Monitor) Discover(ctx context.Context) domain.ServiceHealthSnapshot {
	snap := domain.ServiceHealthSnapshot{
		TrackingAvailable: m.locate("tracking", m.tracking),
		RewardAvailable:   m.locate("rewards", m.rewards),
		DisplayAvailable:  m.locate("display", m.display),
		CheckedAt:         m.clock(),
	}
	snap.TrackingHealthy = snap.TrackingAvailable && m.probe(ctx, m.tracking)
	snap.RewardHealthy = snap.RewardAvailable && m.probe(ctx, m.rewards)
	snap.DisplayHealthy = snap.DisplayAvailable && m.probe(ctx, m.display)
	snap.AllHealthy = snap.TrackingHealthy && snap.RewardHealthy && snap.DisplayHealthy

	if !snap.AllHealthy {
		log.Printf("[health] running degraded: tracking=%v rewards=%v display=%v",
			snap.TrackingAvailable, snap.RewardAvailable, snap.DisplayAvailable)
	}

	m.store(snap)
	return snap
}

// Run starts the periodic probe loop. Call in a goroutine after Discover.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check probes every available collaborator once and swaps in a fresh
// snapshot. Unavailable collaborators are never re-probed.
func (m *Monitor) Check(ctx context.Context) domain.ServiceHealthSnapshot {
	prev := m.Snapshot()

	snap := domain.ServiceHealthSnapshot{
		TrackingAvailable: prev.TrackingAvailable,
		RewardAvailable:   prev.RewardAvailable,
		DisplayAvailable:  prev.DisplayAvailable,
		CheckedAt:         m.clock(),
	}
	snap.TrackingHealthy = snap.TrackingAvailable && m.probe(ctx, m.tracking)
	snap.RewardHealthy = snap.RewardAvailable && m.probe(ctx, m.rewards)
	snap.DisplayHealthy = snap.DisplayAvailable && m.probe(ctx, m.display)
	snap.AllHealthy = snap.TrackingHealthy && snap.RewardHealthy && snap.DisplayHealthy

	m.store(snap)
	return snap
}

// Snapshot returns the latest snapshot. Readers always see a complete
// probe pass, never a half-updated one.
func (m *Monitor) Snapshot() domain.ServiceHealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *Monitor) store(snap domain.ServiceHealthSnapshot) {
	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	metrics.ServiceHealth.WithLabelValues("tracking").Set(boolGauge(snap.TrackingHealthy))
	metrics.ServiceHealth.WithLabelValues("rewards").Set(boolGauge(snap.RewardHealthy))
	metrics.ServiceHealth.WithLabelValues("display").Set(boolGauge(snap.DisplayHealthy))

	m.bus.PublishHealthUpdated(events.HealthUpdated{Snapshot: snap})
}

// locate is the one-time presence check. A nil collaborator is the
// dependency-not-located case: reported once, never re-probed.
func (m *Monitor) locate(name string, c domain.Collaborator) bool {
	if c == nil {
		log.Printf("[health] %s: %v", name, domain.ErrDependencyMissing)
		return false
	}
	return true
}

func (m *Monitor) probe(ctx context.Context, c domain.Collaborator) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := c.Ready(ctx); err != nil {
		log.Printf("[health] %s probe failed: %v", c.Name(), err)
		return false
	}
	return true
}

func boolGauge(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
