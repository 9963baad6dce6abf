package progress

import (
	"time"

	"github.com/greenhouse-games/accolade/internal/domain"
)

// StreakTracker counts consecutive unlocks within a rolling time window.
// Each unlock, not each check, resets the clock: the last-unlock
// timestamp is always overwritten with the new one. Callers must deliver
// unlocks in timestamp-ascending order for correct streak semantics.
// Not safe for concurrent use; serialized by the Engine.
type StreakTracker struct {
	window    time.Duration
	threshold int
	states    map[string]*domain.StreakState
}

// NewStreakTracker creates a tracker. Window defaults to 24h and
// threshold to 3 when non-positive values are given.
func NewStreakTracker(window time.Duration, threshold int) *StreakTracker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if threshold <= 0 {
		threshold = 3
	}
	return &StreakTracker{
		window:    window,
		threshold: threshold,
		states:    make(map[string]*domain.StreakState),
	}
}

// RecordUnlock applies one unlock to the player's streak. Returns the new
// consecutive count and whether this unlock crossed the threshold. Counts
// past the threshold report false, so threshold-keyed side-effects fire
// once per streak run; a reset and re-climb crosses again. Unlocks with
// identical timestamps still count; a zero gap is within any window.
func (t *StreakTracker) RecordUnlock(playerID string, ts time.Time) (count int, reached bool) {
	state := t.states[playerID]
	if state == nil {
		state = &domain.StreakState{}
		t.states[playerID] = state
	}

	if state.ConsecutiveCount > 0 && ts.Sub(state.LastUnlock) <= t.window {
		state.ConsecutiveCount++
	} else {
		state.ConsecutiveCount = 1
	}
	state.LastUnlock = ts

	return state.ConsecutiveCount, state.ConsecutiveCount == t.threshold
}

// Current returns the player's consecutive count, 0 if no unlock yet.
func (t *StreakTracker) Current(playerID string) int {
	if s := t.states[playerID]; s != nil {
		return s.ConsecutiveCount
	}
	return 0
}

// State returns a copy of the player's streak state.
func (t *StreakTracker) State(playerID string) (domain.StreakState, bool) {
	if s := t.states[playerID]; s != nil {
		return *s, true
	}
	return domain.StreakState{}, false
}

// Reset clears the player's streak. Administrative operation.
func (t *StreakTracker) Reset(playerID string) {
	delete(t.states, playerID)
}

// Threshold returns the configured streak threshold.
func (t *StreakTracker) Threshold() int {
	return t.threshold
}
