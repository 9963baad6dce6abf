package domain

import "time"

// ─── Celebration Types ──────────────────────────────────────────────────────

// CelebrationState is the per-item state machine:
// Pending → Active → Completed, or Pending → Evicted while still queued.
// Completed and Evicted are terminal.
type CelebrationState string

const (
	CelebrationPending   CelebrationState = "pending"
	CelebrationActive    CelebrationState = "active"
	CelebrationCompleted CelebrationState = "completed"
	CelebrationEvicted   CelebrationState = "evicted"
)

// CelebrationStyle names the presentation treatment for a rarity tier.
type CelebrationStyle string

const (
	StyleSubtle      CelebrationStyle = "subtle"
	StyleStandard    CelebrationStyle = "standard"
	StyleProminent   CelebrationStyle = "prominent"
	StyleSpectacular CelebrationStyle = "spectacular"
	StyleMonumental  CelebrationStyle = "monumental"
)

// CelebrationProfile is the resolved presentation recipe for one item:
// rarity-based lookup with secret/milestone adjustments applied.
type CelebrationProfile struct {
	Style           CelebrationStyle `json:"style"`
	Duration        time.Duration    `json:"duration"`
	DisplayDuration time.Duration    `json:"display_duration"`
	FadeDuration    time.Duration    `json:"fade_duration"`
	Intensity       float64          `json:"intensity"`
	EffectName      string           `json:"effect_name"`
	MessageTemplate string           `json:"message_template"`
	ScreenEmphasis  bool             `json:"screen_emphasis"`
}

// CelebrationItem wraps an unlocked accomplishment with its resolved
// profile. Created on enqueue, destroyed after its phase sequence
// completes or it is evicted.
type CelebrationItem struct {
	ID          string             `json:"id"`
	Def         AccomplishmentDef  `json:"def"`
	PlayerID    string             `json:"player_id"`
	Profile     CelebrationProfile `json:"profile"`
	State       CelebrationState   `json:"state"`
	EnqueuedAt  time.Time          `json:"enqueued_at"`
	StartedAt   time.Time          `json:"started_at,omitempty"`
	CompletedAt time.Time          `json:"completed_at,omitempty"`
}

// ─── Reward Contract (external collaborator) ────────────────────────────────

// RewardBundle is whatever the external reward service decided to grant.
// The core never computes reward values; it only carries the bundle.
type RewardBundle struct {
	AccomplishmentID string `json:"accomplishment_id"`
	PlayerID         string `json:"player_id"`
	Points           int    `json:"points"`
	Credits          int64  `json:"credits"`
	Description      string `json:"description"`
}
