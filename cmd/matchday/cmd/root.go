package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"matchday/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "matchday",
	Short: "Deterministic football match simulator",
	Long: `matchday simulates football matches tick by tick from a seed and
two team setups, producing bit-reproducible results, event streams, and
replays.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		telemetry.Init(telemetry.ParseLogLevel(os.Getenv("MATCHDAY_LOG_LEVEL")))
	},
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
