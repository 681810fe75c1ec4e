package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/trogers1052/paper-trader/internal/config"
	"github.com/trogers1052/paper-trader/internal/models"
)

func newDecideCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide [SYMBOL]",
		Short: "Run one decision cycle for a symbol",
		Long: `Fetch market data for SYMBOL, ask for a recommendation and let the agent act
on it. The agent's ledger is loaded before and saved after.
Example: paper-trader decide AAPL --agent demo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("agent")
			if name == "" {
				name = cfg.Agent.Name
			}
			return runDecide(cmd.Context(), cmd.OutOrStdout(), cfg, name, args[0])
		},
	}

	cmd.Flags().String("agent", "", "Agent name (configured default if empty)")

	return cmd
}

func runDecide(ctx context.Context, out io.Writer, cfg *config.Config, name, symbol string) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ag, err := a.defaultAgent(ctx, name)
	if err != nil {
		return err
	}

	eval, err := ag.Engine.Evaluate(ctx, symbol)
	if err != nil {
		return fmt.Errorf("could not evaluate %s: %w", symbol, err)
	}
	printEvaluation(out, eval)

	if err := a.registry.Save(ctx, name); err != nil {
		return err
	}
	printPerformance(out, ag.Ledger.PerformanceSnapshot(a.registry.PriceLookup(ctx)))
	return nil
}

func printEvaluation(out io.Writer, eval *models.Evaluation) {
	rec := eval.Recommendation
	fmt.Fprintf(out, "%s @ $%s: %s (confidence %.0f%%, %s)\n", eval.Symbol, eval.Price.StringFixed(2), rec.Action, rec.Confidence*100, rec.Source)
	fmt.Fprintf(out, "  %s\n", rec.Reasoning)
	if eval.Executed && eval.Trade != nil {
		fmt.Fprintf(out, "  executed %s %d @ $%s, balance $%s\n", eval.Trade.Action, eval.Trade.Quantity, eval.Trade.Price.StringFixed(2), eval.Trade.BalanceAfter.StringFixed(2))
		return
	}
	if eval.Detail != "" {
		fmt.Fprintf(out, "  skipped: %s (%s)\n", eval.SkipReason, eval.Detail)
		return
	}
	fmt.Fprintf(out, "  skipped: %s\n", eval.SkipReason)
}

func printPerformance(out io.Writer, stats models.PerformanceStats) {
	fmt.Fprintf(out, "Portfolio value $%s (cash $%s, holdings $%s)\n",
		stats.TotalPortfolioValue.StringFixed(2), stats.CurrentBalance.StringFixed(2), stats.HoldingsValue.StringFixed(2))
	fmt.Fprintf(out, "Total return $%s (%s%%), %d trades\n",
		stats.TotalReturn.StringFixed(2), stats.ReturnPercentage.StringFixed(2), stats.TotalTrades)
	for _, h := range stats.Holdings {
		fmt.Fprintf(out, "  %s: %d shares @ $%s, P/L $%s (%s%%)\n",
			h.Symbol, h.Quantity, h.CurrentPrice.StringFixed(2), h.Pnl.StringFixed(2), h.PnlPercentage.StringFixed(2))
	}
	if len(stats.Unpriced) > 0 {
		fmt.Fprintf(out, "  unpriced: %v\n", stats.Unpriced)
	}
}
