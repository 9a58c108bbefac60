package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-paper/internal/app"
	"github.com/mselser95/polymarket-paper/internal/portfolio"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Value a paper portfolio against current market odds",
	Long: `Reads a portfolio as JSON and values every open position against the
current market snapshot. Positions whose market can no longer be found
are listed but contribute no value.

Portfolio JSON shape:
  {"balance": 8000, "positions": [{"id": "p1", "marketId": "1",
    "type": "YES", "entryPrice": 0.5, "shares": 200, "amount": 100,
    "status": "open"}]}

Examples:
  polymarket-paper pnl --file portfolio.json
  cat portfolio.json | polymarket-paper pnl --format json`,
	RunE: runPnL,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(pnlCmd)
	pnlCmd.Flags().StringP("file", "f", "-", "Portfolio JSON file (- for stdin)")
	pnlCmd.Flags().String("format", "table", "Output format: table, json")
}

// PositionReport is one open position valued at the current price.
type PositionReport struct {
	Position     types.Position `json:"position"`
	MarketTitle  string         `json:"marketTitle,omitempty"`
	CurrentPrice *float64       `json:"currentPrice,omitempty"`
	PnL          *types.PnL     `json:"pnl,omitempty"`
}

// PnLReport is the full valuation printed by the pnl command.
type PnLReport struct {
	Positions []PositionReport       `json:"positions"`
	Metrics   types.PortfolioMetrics `json:"metrics"`
}

func runPnL(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format: %s. Valid options: table, json", format)
	}

	p, err := readPortfolio(file)
	if err != nil {
		return err
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

	snapshot, err := application.Provider().GetMarkets(ctx)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	report := buildPnLReport(p, snapshot)

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	writePnLReport(os.Stdout, report)
	return nil
}

func readPortfolio(file string) (types.Portfolio, error) {
	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return types.Portfolio{}, fmt.Errorf("open portfolio: %w", err)
		}
		defer f.Close()
		r = f
	}

	var p types.Portfolio
	err := json.NewDecoder(r).Decode(&p)
	if err != nil {
		return types.Portfolio{}, fmt.Errorf("decode portfolio: %w", err)
	}
	return p, nil
}

func buildPnLReport(p types.Portfolio, snapshot []types.Market) PnLReport {
	report := PnLReport{
		Positions: make([]PositionReport, 0, len(p.Positions)),
		Metrics:   portfolio.CalculatePortfolioMetrics(p, snapshot),
	}

	for i := range p.Positions {
		position := p.Positions[i]
		if !position.IsOpen() {
			continue
		}

		entry := PositionReport{Position: position}
		market := types.FindMarket(snapshot, position.MarketID)
		if market != nil {
			price := market.Odds / 100
			pnl := portfolio.CalculatePnL(position, price)
			entry.MarketTitle = market.Title
			entry.CurrentPrice = &price
			entry.PnL = &pnl
		}
		report.Positions = append(report.Positions, entry)
	}

	return report
}

func writePnLReport(out io.Writer, report PnLReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "POSITION\tMARKET\tSIDE\tENTRY\tNOW\tAMOUNT\tVALUE\tPNL\n")
	fmt.Fprintf(w, "--------\t------\t----\t-----\t---\t------\t-----\t---\n")

	for _, pr := range report.Positions {
		title := pr.Position.MarketID
		if pr.MarketTitle != "" {
			title = truncate(pr.MarketTitle, 40)
		}

		if pr.PnL == nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\tn/a\t%.2f\tn/a\tn/a\n",
				pr.Position.ID, title, pr.Position.Type, pr.Position.EntryPrice, pr.Position.Amount)
			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%+.2f (%+.1f%%)\n",
			pr.Position.ID, title, pr.Position.Type, pr.Position.EntryPrice, *pr.CurrentPrice,
			pr.Position.Amount, pr.PnL.CurrentValue, pr.PnL.PnL, pr.PnL.PnLPercent)
	}
	w.Flush()

	m := report.Metrics
	fmt.Fprintf(out, "\nOpen positions:    %d\n", m.OpenPositions)
	fmt.Fprintf(out, "Available balance: $%.2f\n", m.AvailableBalance)
	fmt.Fprintf(out, "Total value:       $%.2f\n", m.TotalValue)
	fmt.Fprintf(out, "Total PnL:         $%+.2f\n", m.TotalPnL)
	fmt.Fprintf(out, "Total return:      %+.2f%%\n", m.TotalReturn)
}
