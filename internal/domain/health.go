package domain

import (
	"context"
	"time"
)

// ─── Service Health Types ───────────────────────────────────────────────────

// Collaborator is an external service dependency probed by the health
// monitor. Ready reports the dependency's own initialization state.
type Collaborator interface {
	Name() string
	Ready(ctx context.Context) error
}

// ServiceHealthSnapshot reports the state of the three external service
// dependencies. Available flags record whether each dependency was located
// at discovery and never change afterwards; healthy flags are refreshed
// from each dependency's own readiness on every periodic check. The snapshot is recomputed
// wholesale, so observers never see a mix of old and new flags.
type ServiceHealthSnapshot struct {
	TrackingAvailable bool `json:"tracking_available"`
	RewardAvailable   bool `json:"reward_available"`
	DisplayAvailable  bool `json:"display_available"`

	TrackingHealthy bool `json:"tracking_healthy"`
	RewardHealthy   bool `json:"reward_healthy"`
	DisplayHealthy  bool `json:"display_healthy"`

	AllHealthy bool      `json:"all_healthy"`
	CheckedAt  time.Time `json:"checked_at"`
}

// ─── External Service Contracts ─────────────────────────────────────────────

// RewardService computes and applies rewards for an unlock. The core calls
// it synchronously and only emits its unlock-completed notification when
// distribution succeeds.
type RewardService interface {
	Collaborator
	CalculateRewards(def AccomplishmentDef, playerID string) (RewardBundle, error)
	DistributeRewards(bundle RewardBundle) bool
}

// DisplayService renders unlock notifications. Fire-and-forget; the core
// consumes no return value.
type DisplayService interface {
	Collaborator
	ShowNotification(def AccomplishmentDef, bundle RewardBundle)
}

// EventSource delivers trigger events from the outside world. The channel
// closes when the source shuts down.
type EventSource interface {
	Events() <-chan TriggerEvent
}
