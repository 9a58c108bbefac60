package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API, which serves:
1. Market listings, details, history and statistics
2. A websocket stream of updates per market
3. Portfolio valuation and PnL for caller-supplied positions
4. /metrics, /health and /ready

Delivered updates are recorded to the sink chosen by STORAGE_MODE.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	application, logger, err := newApp(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
