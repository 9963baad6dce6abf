// Package metrics provides Prometheus metrics for the accolade engine:
// counters and gauges for triggers, unlocks, meta-rules, streaks,
// celebrations, and service health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Progress ───────────────────────────────────────────────────────────────

// TriggersApplied counts trigger events applied to the ledger, synthetic
// triggers included.
var TriggersApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "accolade",
	Name:      "triggers_applied_total",
	Help:      "Total trigger events applied to the progress ledger.",
})

// UnlocksTotal counts unlock events by category and rarity.
var UnlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "accolade",
	Name:      "unlocks_total",
	Help:      "Total accomplishment unlocks.",
}, []string{"category", "rarity"})

// PointsAwarded counts points credited on unlock.
var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "accolade",
	Name:      "points_awarded_total",
	Help:      "Total points awarded by unlocks.",
})

// MetaRulesFired counts meta-rule firings.
var MetaRulesFired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "accolade",
	Name:      "meta_rules_fired_total",
	Help:      "Total meta-rule firings.",
})

// StreakLength tracks the most recent consecutive-unlock count.
var StreakLength = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "accolade",
	Name:      "streak_length",
	Help:      "Most recent consecutive-unlock streak count.",
})

// ─── Celebrations ───────────────────────────────────────────────────────────

// CelebrationQueueDepth tracks pending celebration items.
var CelebrationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "accolade",
	Name:      "celebration_queue_depth",
	Help:      "Number of pending celebration items.",
})

// CelebrationsActive tracks currently running phase sequences.
var CelebrationsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "accolade",
	Name:      "celebrations_active",
	Help:      "Number of celebration phase sequences currently running.",
})

// CelebrationsCompleted counts finished phase sequences.
var CelebrationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "accolade",
	Name:      "celebrations_completed_total",
	Help:      "Total completed celebration sequences.",
})

// CelebrationsEvicted counts queue evictions under rarity pressure.
var CelebrationsEvicted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "accolade",
	Name:      "celebrations_evicted_total",
	Help:      "Total celebration items evicted from the pending queue.",
})

// CelebrationsDropped counts items rejected at admission by reason.
var CelebrationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "accolade",
	Name:      "celebrations_dropped_total",
	Help:      "Total celebration items dropped at admission.",
}, []string{"reason"})

// ─── Health ─────────────────────────────────────────────────────────────────

// ServiceHealth tracks per-dependency health (1=healthy, 0=unhealthy).
var ServiceHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "accolade",
	Name:      "service_health",
	Help:      "Health per external service dependency (1=healthy, 0=unhealthy).",
}, []string{"service"})
