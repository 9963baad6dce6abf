// Package cli implements the accolade command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "accolade",
	Short: "accolade: accomplishment tracking and celebration daemon",
	Long: `accolade tracks player accomplishments, evaluates meta-rules,
and orchestrates unlock celebrations. Game events arrive as trigger
events over the HTTP API; progress, streaks, and celebrations are
managed here.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
