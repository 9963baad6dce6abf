package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenhouse-games/accolade/internal/daemon"
)

func init() {
	statsCmd.Flags().StringVar(&statsAddr, "addr", "", "Daemon address (overrides config)")
	rootCmd.AddCommand(statsCmd)
}

var statsAddr string

var statsCmd = &cobra.Command{
	Use:   "stats <player>",
	Short: "Show a player's accomplishment statistics from a running daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

type statsResponse struct {
	PlayerID        string             `json:"player_id"`
	UnlockedCount   int                `json:"unlocked_count"`
	TotalPoints     int                `json:"total_points"`
	CurrentStreak   int                `json:"current_streak"`
	CategoryMastery map[string]float64 `json:"category_mastery"`
	LastUnlockAt    time.Time          `json:"last_unlock_at"`
	TotalDefined    int                `json:"total_defined"`
}

func runStats(cmd *cobra.Command, args []string) error {
	addr := statsAddr
	if addr == "" {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		addr = fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	}

	url := fmt.Sprintf("http://%s/api/players/%s/stats", addr, args[0])
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return err
	}

	fmt.Printf("Player %s: %d/%d unlocked, %d points, streak %d\n",
		stats.PlayerID, stats.UnlockedCount, stats.TotalDefined,
		stats.TotalPoints, stats.CurrentStreak)

	if len(stats.CategoryMastery) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tMASTERY")
		for category, fraction := range stats.CategoryMastery {
			fmt.Fprintf(w, "%s\t%.0f%%\n", category, fraction*100)
		}
		return w.Flush()
	}
	return nil
}
