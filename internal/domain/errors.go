package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Catalog errors
	ErrCatalogEmpty     = errors.New("catalog contains no accomplishment definitions")
	ErrDuplicateID      = errors.New("duplicate accomplishment id in catalog")
	ErrInvalidTarget    = errors.New("accomplishment target value must be positive")
	ErrUnknownRarity    = errors.New("unknown rarity in catalog")
	ErrUnknownCategory  = errors.New("unknown category in catalog")
	ErrUnknownCondition = errors.New("unknown meta-rule condition kind")
	ErrDuplicateRuleID  = errors.New("duplicate meta-rule id in catalog")

	// Progress errors
	ErrUnknownAccomplishment = errors.New("accomplishment not found in catalog")
	ErrUnknownPlayer         = errors.New("no state recorded for player")

	// Celebration errors
	ErrCelebrationsDisabled = errors.New("celebrations are disabled")
	ErrQueueFull            = errors.New("celebration queue full with no evictable item")
	ErrDuplicateCelebration = errors.New("celebration already pending or active for accomplishment")

	// Health errors
	ErrDependencyMissing = errors.New("dependency not located at discovery")
)
