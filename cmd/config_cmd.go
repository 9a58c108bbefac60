package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-paper/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Loads configuration from the environment (and .env) and prints the mode,
which integrations have credentials and which features are enabled.
Secrets are never printed.`,
	RunE: runConfig,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolP("json", "j", false, "Print as JSON")
}

func runConfig(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	status := cfg.Status()

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Mode\t%s\n", status.Mode)
	fmt.Fprintf(w, "Polymarket API key\t%v\n", status.PolymarketEnabled)
	fmt.Fprintf(w, "News API key\t%v\n", status.NewsEnabled)
	fmt.Fprintf(w, "Storage\t%s\n", cfg.StorageMode)
	fmt.Fprintf(w, "Rate limit\t%d calls / %s\n", cfg.RateLimitMaxCalls, cfg.RateLimitWindow)
	fmt.Fprintf(w, "Sim interval\t%s\n", cfg.SimUpdateInterval)
	for _, name := range sortedFeatureNames(status.Features) {
		fmt.Fprintf(w, "Feature %s\t%v\n", name, status.Features[name])
	}
	w.Flush()

	return nil
}

func sortedFeatureNames(features map[string]bool) []string {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
