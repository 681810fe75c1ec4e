// Package cli implements the paper-trader command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/trogers1052/paper-trader/internal/config"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "paper-trader",
		Short: "Simulated paper-trading agents",
		Long: `paper-trader runs simulated trading agents. Each agent holds a cash ledger
and trades on recommendations from a language model, falling back to a simple
momentum rule when no model is available. No real orders are ever placed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				os.Setenv("CONFIG_FILE", path)
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newDecideCmd(cfg))
	rootCmd.AddCommand(newScalpCmd(cfg))

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")

	return rootCmd
}
