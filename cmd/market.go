package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-paper/internal/app"
	"github.com/mselser95/polymarket-paper/internal/portfolio"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketCmd = &cobra.Command{
	Use:   "market <market-id>",
	Short: "Show details and statistics for one market",
	Long: `Displays a market's details together with high, low, average and
volatility over the chosen timeframe.

Example:
  polymarket-paper market 3 --timeframe 7d`,
	Args: cobra.ExactArgs(1),
	RunE: runMarket,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketCmd)
	marketCmd.Flags().StringP("timeframe", "t", types.DefaultTimeframe, "Stats timeframe: 24h, 7d, 30d, all")
}

func runMarket(cmd *cobra.Command, args []string) error {
	marketID := args[0]
	timeframe, _ := cmd.Flags().GetString("timeframe")

	application, logger, err := newApp(&app.Options{DisableStorage: true})
	if err != nil {
		return err
	}
	defer func() {
		application.Close()
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	market, err := application.Provider().GetMarketDetails(ctx, marketID)
	if err != nil {
		return fmt.Errorf("fetch market: %w", err)
	}

	history, err := application.Provider().GetMarketHistory(ctx, marketID, timeframe)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	stats := portfolio.CalculateMarketStats(portfolio.HistoryToPricePoints(history))

	fmt.Printf("Market:      %s\n", market.Title)
	fmt.Printf("ID:          %s\n", market.ID)
	fmt.Printf("Category:    %s\n", market.Category)
	fmt.Printf("Odds:        %.1f%% (%+.2f 24h)\n", market.Odds, market.Change24h)
	fmt.Printf("Volume:      %.0f\n", market.Volume)
	if !market.ResolveDate.IsZero() {
		fmt.Printf("Resolves:    %s\n", market.ResolveDate.Format("2006-01-02"))
	}
	if market.Description != "" {
		fmt.Printf("\n%s\n", market.Description)
	}

	fmt.Printf("\nStats (%s, %d points)\n", timeframe, len(history))
	fmt.Printf("  High:       %.1f%%\n", portfolio.ImpliedProbability(stats.High))
	fmt.Printf("  Low:        %.1f%%\n", portfolio.ImpliedProbability(stats.Low))
	fmt.Printf("  Average:    %.1f%%\n", portfolio.ImpliedProbability(stats.Average))
	fmt.Printf("  Volatility: %.2f pts\n", portfolio.ImpliedProbability(stats.Volatility))

	return nil
}
