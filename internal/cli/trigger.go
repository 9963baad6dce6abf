package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/greenhouse-games/accolade/internal/daemon"
)

func init() {
	triggerCmd.Flags().StringVar(&triggerAddr, "addr", "", "Daemon address (overrides config)")
	triggerCmd.Flags().StringVar(&triggerPlayer, "player", "local", "Player id")
	rootCmd.AddCommand(triggerCmd)
}

var (
	triggerAddr   string
	triggerPlayer string
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <key> [value]",
	Short: "Send a trigger event to a running daemon",
	Long:  `Send a trigger event, e.g. "accolade trigger plant_harvested 3".`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTrigger,
}

func runTrigger(cmd *cobra.Command, args []string) error {
	value := 1.0
	if len(args) == 2 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("value must be numeric: %w", err)
		}
		value = v
	}

	addr := triggerAddr
	if addr == "" {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		addr = fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	}

	body, _ := json.Marshal(map[string]any{
		"key":       args[0],
		"value":     value,
		"player_id": triggerPlayer,
	})

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/triggers", addr),
		"application/json", bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	fmt.Printf("accepted %s=%g for %s\n", args[0], value, triggerPlayer)
	return nil
}
