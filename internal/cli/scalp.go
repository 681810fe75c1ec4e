package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/trogers1052/paper-trader/internal/agent"
	"github.com/trogers1052/paper-trader/internal/config"
	"github.com/trogers1052/paper-trader/internal/ledger"
)

// cycle length per bar interval
var checkIntervals = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
}

func newScalpCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scalp",
		Short: "Trade a set of symbols in a loop",
		Long: `Evaluate every symbol once per cycle, record portfolio performance and wait
for the next cycle. Stops after --rounds cycles, or on Ctrl+C when --rounds is 0,
then saves the agent's ledger.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, _ := cmd.Flags().GetStringSlice("symbols")
			interval, _ := cmd.Flags().GetString("interval")
			rounds, _ := cmd.Flags().GetInt("rounds")
			name, _ := cmd.Flags().GetString("agent")

			wait, ok := checkIntervals[interval]
			if !ok {
				return fmt.Errorf("interval must be one of 1m, 5m, 15m, got %q", interval)
			}
			if len(symbols) == 0 {
				return fmt.Errorf("at least one symbol is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ag, err := a.defaultAgent(ctx, name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scalping %s every %s with $%s cash\n", strings.Join(symbols, ", "), wait, ag.Ledger.Cash().StringFixed(2))

			runScalp(ctx, out, ag, a.registry.PriceLookup, scalpOptions{
				Symbols:  symbols,
				Interval: interval,
				Rounds:   rounds,
				Wait:     wait,
			})

			// the signal context may be done; saving gets its own deadline
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return a.registry.Save(saveCtx, ag.Name)
		},
	}

	cmd.Flags().StringSlice("symbols", []string{"AAPL", "GOOGL", "TSLA"}, "Symbols to trade")
	cmd.Flags().String("interval", "1m", "Trading interval: 1m, 5m or 15m")
	cmd.Flags().Int("rounds", 0, "Number of cycles to run, 0 runs until interrupted")
	cmd.Flags().String("agent", "scalping-bot", "Agent name")

	return cmd
}

type scalpOptions struct {
	Symbols  []string
	Interval string
	Rounds   int
	Wait     time.Duration
}

// runScalp evaluates each symbol per cycle and records performance after
// every cycle. It returns the number of completed cycles.
func runScalp(ctx context.Context, out io.Writer, ag *agent.Agent, lookup func(context.Context) ledger.PriceLookup, opts scalpOptions) int {
	cycles := 0
	for opts.Rounds <= 0 || cycles < opts.Rounds {
		if ctx.Err() != nil {
			break
		}
		cycles++
		fmt.Fprintf(out, "\nCycle #%d - %s\n", cycles, time.Now().Format("2006-01-02 15:04:05"))

		bar := newCycleBar(out, len(opts.Symbols), cycles)
		for _, symbol := range opts.Symbols {
			eval, err := ag.Engine.EvaluateWith(ctx, symbol, "1d", opts.Interval)
			bar.Add(1)
			if err != nil {
				fmt.Fprintf(out, "\n  %s: could not evaluate: %v\n", symbol, err)
				continue
			}
			fmt.Fprintln(out)
			printEvaluation(out, eval)
		}
		bar.Finish()

		ag.Ledger.RecordPerformance(lookup(ctx))
		printPerformance(out, ag.Ledger.PerformanceSnapshot(lookup(ctx)))

		if opts.Rounds > 0 && cycles >= opts.Rounds {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(opts.Wait):
		}
	}

	fmt.Fprintf(out, "\nStopped after %d cycles\n", cycles)
	printPerformance(out, ag.Ledger.PerformanceSnapshot(lookup(context.Background())))
	return cycles
}

func newCycleBar(out io.Writer, symbols, cycle int) *progressbar.ProgressBar {
	return progressbar.NewOptions(symbols,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription(fmt.Sprintf("Cycle %d", cycle)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
