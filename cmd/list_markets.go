package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-paper/internal/app"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List markets from the configured data source",
	Long: `Fetches and displays the current market snapshot from the simulator or
the live API, depending on APP_MODE.

Examples:
  polymarket-paper list-markets
  polymarket-paper list-markets --category Crypto --sort odds
  polymarket-paper list-markets --mode live --format json`,
	RunE: runListMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)
	listMarketsCmd.Flags().IntP("limit", "l", 20, "Maximum number of markets to show (0 for all)")
	listMarketsCmd.Flags().StringP("category", "c", "", "Only show markets in this category")
	listMarketsCmd.Flags().StringP("sort", "s", "volume", "Sort by: volume, odds, change, resolve")
	listMarketsCmd.Flags().StringP("format", "f", "table", "Output format: table, json")
}

func runListMarkets(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	category, _ := cmd.Flags().GetString("category")
	sortBy, _ := cmd.Flags().GetString("sort")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format: %s. Valid options: table, json", format)
	}

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

	list, err := application.Provider().GetMarkets(ctx)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	list, err = selectMarkets(list, category, sortBy, limit)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No markets found.")
		return nil
	}

	writeMarketTable(os.Stdout, list)
	fmt.Printf("\nTotal: %d markets (%s mode)\n", len(list), application.Provider().Mode())

	return nil
}

// selectMarkets filters by category (case-insensitive), sorts descending
// by the chosen key (ascending for resolve date) and truncates to limit.
func selectMarkets(list []types.Market, category, sortBy string, limit int) ([]types.Market, error) {
	var less func(a, b *types.Market) bool
	switch sortBy {
	case "volume":
		less = func(a, b *types.Market) bool { return a.Volume > b.Volume }
	case "odds":
		less = func(a, b *types.Market) bool { return a.Odds > b.Odds }
	case "change":
		less = func(a, b *types.Market) bool { return a.Change24h > b.Change24h }
	case "resolve":
		less = func(a, b *types.Market) bool { return a.ResolveDate.Before(b.ResolveDate) }
	default:
		return nil, fmt.Errorf("invalid sort option: %s. Valid options: volume, odds, change, resolve", sortBy)
	}

	out := make([]types.Market, 0, len(list))
	for i := range list {
		if category != "" && !strings.EqualFold(list[i].Category, category) {
			continue
		}
		out = append(out, list[i])
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func writeMarketTable(out io.Writer, list []types.Market) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tCATEGORY\tODDS\t24H\tVOLUME\tRESOLVES\n")
	fmt.Fprintf(w, "--\t-----\t--------\t----\t---\t------\t--------\n")

	for i := range list {
		m := &list[i]
		resolves := "-"
		if !m.ResolveDate.IsZero() {
			resolves = m.ResolveDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%+.2f\t%.0f\t%s\n",
			m.ID, truncate(m.Title, 50), m.Category, m.Odds, m.Change24h, m.Volume, resolves)
	}

	w.Flush()
}
