package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-paper/internal/app"
	"github.com/mselser95/polymarket-paper/internal/portfolio"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var historyCmd = &cobra.Command{
	Use:   "history <market-id>",
	Short: "Print a market's odds history with a moving average",
	Long: `Prints one row per history point, oldest first, with a trailing moving
average once enough points are available.

Example:
  polymarket-paper history 1 --timeframe 30d --period 7`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("timeframe", "t", types.DefaultTimeframe, "Timeframe: 24h, 7d, 30d, all")
	historyCmd.Flags().IntP("period", "p", 7, "Moving average period")
}

func runHistory(cmd *cobra.Command, args []string) error {
	marketID := args[0]
	timeframe, _ := cmd.Flags().GetString("timeframe")
	period, _ := cmd.Flags().GetInt("period")

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

	history, err := application.Provider().GetMarketHistory(ctx, marketID, timeframe)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	writeHistoryTable(os.Stdout, history, period)
	return nil
}

func writeHistoryTable(out io.Writer, history []types.HistoryPoint, period int) {
	series := make([]float64, len(history))
	for i, p := range history {
		series[i] = p.Odds
	}
	ma := portfolio.CalculateMovingAverage(series, period)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DATE\tODDS\tMA(%d)\n", period)

	for i, p := range history {
		avg := "-"
		if ma[i] != nil {
			avg = fmt.Sprintf("%.2f%%", *ma[i])
		}
		fmt.Fprintf(w, "%s\t%.2f%%\t%s\n", p.Date.Format("2006-01-02"), p.Odds, avg)
	}

	w.Flush()
}
