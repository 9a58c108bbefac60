package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-paper",
	Short: "Paper trading against Polymarket prediction markets",
	Long: `Paper trading service for prediction markets.

Market data comes either from a built-in simulator (APP_MODE=simulated) or
from the live Polymarket API (APP_MODE=live). The mode is chosen once at
startup. Portfolios are held by the caller and valued on request; nothing
about them is persisted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine; the environment may already be set.
		_ = godotenv.Load()

		mode, _ := cmd.Flags().GetString("mode")
		if mode != "" {
			err := os.Setenv("APP_MODE", mode)
			if err != nil {
				return fmt.Errorf("set mode: %w", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().String("mode", "", "Data source: simulated or live (overrides APP_MODE)")
}
