package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-paper/internal/app"
	"github.com/mselser95/polymarket-paper/internal/subscription"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchCmd = &cobra.Command{
	Use:   "watch <market-id> [market-id...]",
	Short: "Stream updates for one or more markets",
	Long: `Subscribes to each market and prints every update as it arrives.
In simulated mode updates are generated every SIM_UPDATE_INTERVAL; in live
mode they come from the market stream.

Examples:
  polymarket-paper watch 1 3
  polymarket-paper watch 1 --count 10 --json
  polymarket-paper watch 1 --record`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().IntP("count", "n", 0, "Stop after this many updates (0 for no limit)")
	watchCmd.Flags().DurationP("duration", "d", 0, "Stop after this long (0 for no limit)")
	watchCmd.Flags().BoolP("json", "j", false, "Print updates as JSON lines")
	watchCmd.Flags().Bool("record", false, "Also record updates to STORAGE_MODE")
}

func runWatch(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	duration, _ := cmd.Flags().GetDuration("duration")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	record, _ := cmd.Flags().GetBool("record")

	application, logger, err := newApp(&app.Options{DisableStorage: !record})
	if err != nil {
		return err
	}
	defer func() {
		application.Close()
		_ = logger.Sync()
	}()

	done := make(chan struct{})
	var (
		received atomic.Int64
		stopOnce atomic.Bool
	)
	stop := func() {
		if stopOnce.CompareAndSwap(false, true) {
			close(done)
		}
	}

	// Updates from different markets arrive on different goroutines.
	printCh := make(chan types.MarketUpdate, 64)

	subs := make([]*subscription.Subscription, 0, len(args))
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
	}()

	for _, marketID := range args {
		sub, err := application.Dispatcher().Subscribe(marketID, func(u types.MarketUpdate) {
			select {
			case printCh <- u:
			case <-done:
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", marketID, err)
		}
		subs = append(subs, sub)
	}

	fmt.Fprintf(os.Stderr, "Watching %d market(s) in %s mode. Press Ctrl+C to stop.\n",
		len(args), application.Provider().Mode())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-sigChan:
			stop()
			return nil
		case <-timeout:
			stop()
			return nil
		case u := <-printCh:
			err = printUpdate(u, jsonOutput)
			if err != nil {
				stop()
				return err
			}
			if count > 0 && received.Add(1) >= int64(count) {
				stop()
				return nil
			}
		}
	}
}

func printUpdate(u types.MarketUpdate, jsonOutput bool) error {
	if jsonOutput {
		payload, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal update: %w", err)
		}
		fmt.Println(string(payload))
		return nil
	}

	fmt.Printf("%s  %-10s  %6.2f%%  %+.2f\n",
		u.Timestamp.Format("15:04:05"), u.MarketID, u.Odds, u.Change24h)
	return nil
}
