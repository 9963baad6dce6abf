// Package celebration schedules the timed presentation sequences shown
// for unlocked accomplishments: a bounded, rarity-biased pending queue and
// a sequential consumer running phased celebrations up to a concurrency cap.
package celebration

import (
	"fmt"
	"time"

	"github.com/greenhouse-games/accolade/internal/domain"
)

// Multiplicative profile adjustments. Secret and milestone accomplishments
// stack when both flags are set.
const (
	secretBoost    = 1.25
	milestoneBoost = 1.5
)

// baseProfiles maps each rarity to its presentation recipe.
var baseProfiles = map[domain.Rarity]domain.CelebrationProfile{
	domain.RarityCommon: {
		Style:           domain.StyleSubtle,
		Duration:        2 * time.Second,
		DisplayDuration: 1500 * time.Millisecond,
		FadeDuration:    500 * time.Millisecond,
		Intensity:       0.3,
		MessageTemplate: "Accomplishment unlocked: %s",
	},
	domain.RarityUncommon: {
		Style:           domain.StyleStandard,
		Duration:        3 * time.Second,
		DisplayDuration: 2 * time.Second,
		FadeDuration:    750 * time.Millisecond,
		Intensity:       0.45,
		MessageTemplate: "Well earned! %s",
	},
	domain.RarityRare: {
		Style:           domain.StyleProminent,
		Duration:        4 * time.Second,
		DisplayDuration: 2500 * time.Millisecond,
		FadeDuration:    time.Second,
		Intensity:       0.6,
		MessageTemplate: "Impressive! %s",
		ScreenEmphasis:  true,
	},
	domain.RarityEpic: {
		Style:           domain.StyleSpectacular,
		Duration:        6 * time.Second,
		DisplayDuration: 3 * time.Second,
		FadeDuration:    1250 * time.Millisecond,
		Intensity:       0.8,
		MessageTemplate: "Extraordinary! %s",
		ScreenEmphasis:  true,
	},
	domain.RarityLegendary: {
		Style:           domain.StyleMonumental,
		Duration:        8 * time.Second,
		DisplayDuration: 4 * time.Second,
		FadeDuration:    1500 * time.Millisecond,
		Intensity:       1.0,
		MessageTemplate: "LEGENDARY! %s",
		ScreenEmphasis:  true,
	},
}

// categoryEffects specializes the visual effect name per category.
var categoryEffects = map[domain.Category]string{
	domain.CatCultivation: "leaf_burst",
	domain.CatCommerce:    "coin_shower",
	domain.CatGenetics:    "helix_spiral",
	domain.CatProgression: "starburst",
	domain.CatSpecial:     "aurora_wave",
}

// ResolveProfile builds the celebration profile for one accomplishment:
// rarity-based lookup, secret/milestone multiplicative adjustments to
// intensity and duration, and category-based effect-name specialization.
func ResolveProfile(def domain.AccomplishmentDef) domain.CelebrationProfile {
	p, ok := baseProfiles[def.Rarity]
	if !ok {
		p = baseProfiles[domain.RarityCommon]
	}

	boost := 1.0
	if def.IsSecret {
		boost *= secretBoost
		p.MessageTemplate = "Secret discovered: %s"
	}
	if def.IsMilestone {
		boost *= milestoneBoost
	}
	p.Intensity *= boost
	p.Duration = time.Duration(float64(p.Duration) * boost)
	p.DisplayDuration = time.Duration(float64(p.DisplayDuration) * boost)

	effect := categoryEffects[def.Category]
	if effect == "" {
		effect = "confetti_burst"
	}
	p.EffectName = fmt.Sprintf("%s_%s", effect, p.Style)

	return p
}

// RenderMessage fills the profile's message template with the
// accomplishment name.
func RenderMessage(p domain.CelebrationProfile, def domain.AccomplishmentDef) string {
	return fmt.Sprintf(p.MessageTemplate, def.Name)
}
