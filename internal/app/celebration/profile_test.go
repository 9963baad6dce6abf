package celebration

import (
	"testing"
	"time"

	"github.com/greenhouse-games/accolade/internal/domain"
)

func TestResolveProfile_RarityMapping(t *testing.T) {
	tests := []struct {
		rarity   domain.Rarity
		style    domain.CelebrationStyle
		emphasis bool
	}{
		{domain.RarityCommon, domain.StyleSubtle, false},
		{domain.RarityUncommon, domain.StyleStandard, false},
		{domain.RarityRare, domain.StyleProminent, true},
		{domain.RarityEpic, domain.StyleSpectacular, true},
		{domain.RarityLegendary, domain.StyleMonumental, true},
	}

	for _, tt := range tests {
		t.Run(tt.rarity.String(), func(t *testing.T) {
			p := ResolveProfile(domain.AccomplishmentDef{
				Rarity: tt.rarity, Category: domain.CatCultivation,
			})
			if p.Style != tt.style {
				t.Errorf("style = %q, want %q", p.Style, tt.style)
			}
			if p.ScreenEmphasis != tt.emphasis {
				t.Errorf("emphasis = %v, want %v", p.ScreenEmphasis, tt.emphasis)
			}
		})
	}
}

func TestResolveProfile_SecretAndMilestoneBoosts(t *testing.T) {
	base := ResolveProfile(domain.AccomplishmentDef{
		Rarity: domain.RarityCommon, Category: domain.CatCultivation,
	})

	secret := ResolveProfile(domain.AccomplishmentDef{
		Rarity: domain.RarityCommon, Category: domain.CatCultivation, IsSecret: true,
	})
	if secret.Intensity <= base.Intensity {
		t.Error("secret flag must raise intensity")
	}
	if secret.MessageTemplate != "Secret discovered: %s" {
		t.Errorf("secret template = %q", secret.MessageTemplate)
	}

	both := ResolveProfile(domain.AccomplishmentDef{
		Rarity: domain.RarityCommon, Category: domain.CatCultivation,
		IsSecret: true, IsMilestone: true,
	})
	// Boosts are multiplicative and stack.
	want := time.Duration(float64(base.Duration) * secretBoost * milestoneBoost)
	if both.Duration != want {
		t.Errorf("duration = %v, want %v", both.Duration, want)
	}
}

func TestResolveProfile_CategoryEffects(t *testing.T) {
	p := ResolveProfile(domain.AccomplishmentDef{
		Rarity: domain.RarityEpic, Category: domain.CatGenetics,
	})
	if p.EffectName != "helix_spiral_spectacular" {
		t.Errorf("effect = %q, want helix_spiral_spectacular", p.EffectName)
	}

	p = ResolveProfile(domain.AccomplishmentDef{
		Rarity: domain.RarityCommon, Category: domain.Category("modding"),
	})
	if p.EffectName != "confetti_burst_subtle" {
		t.Errorf("unknown category effect = %q, want confetti_burst_subtle", p.EffectName)
	}
}

func TestResolveProfile_UnknownRarityFallsBack(t *testing.T) {
	p := ResolveProfile(domain.AccomplishmentDef{
		Rarity: domain.Rarity(99), Category: domain.CatCultivation,
	})
	if p.Style != domain.StyleSubtle {
		t.Errorf("style = %q, want subtle fallback", p.Style)
	}
}

func TestRenderMessage(t *testing.T) {
	p := ResolveProfile(domain.AccomplishmentDef{
		Rarity: domain.RarityLegendary, Category: domain.CatSpecial,
	})
	got := RenderMessage(p, domain.AccomplishmentDef{Name: "Perfect Genome"})
	if got != "LEGENDARY! Perfect Genome" {
		t.Errorf("message = %q", got)
	}
}
