package daemon

import (
	"context"
	"log"

	"github.com/greenhouse-games/accolade/internal/domain"
)

// Reference collaborator implementations. Production games replace these
// with their own reward economy and UI bindings; the daemon ships with
// working stand-ins so the core runs end to end out of the box.

// ─── Reward Service ─────────────────────────────────────────────────────────

// pointsRewardService converts accomplishment points into a reward bundle
// with rarity-scaled credits.
type pointsRewardService struct{}

func (pointsRewardService) Name() string                    { return "rewards" }
func (pointsRewardService) Ready(ctx context.Context) error { return nil }

func (pointsRewardService) CalculateRewards(def domain.AccomplishmentDef, playerID string) (domain.RewardBundle, error) {
	return domain.RewardBundle{
		AccomplishmentID: def.ID,
		PlayerID:         playerID,
		Points:           def.Points,
		Credits:          int64(def.Points) * int64(int(def.Rarity)+1),
		Description:      "unlocked " + def.Name,
	}, nil
}

func (pointsRewardService) DistributeRewards(bundle domain.RewardBundle) bool {
	return true
}

// ─── Display Service ────────────────────────────────────────────────────────

// logDisplayService renders unlock notifications to the daemon log.
type logDisplayService struct{}

func (logDisplayService) Name() string                    { return "display" }
func (logDisplayService) Ready(ctx context.Context) error { return nil }

func (logDisplayService) ShowNotification(def domain.AccomplishmentDef, bundle domain.RewardBundle) {
	log.Printf("[display] %s unlocked %q (+%d points, +%d credits)",
		bundle.PlayerID, def.Name, bundle.Points, bundle.Credits)
}
