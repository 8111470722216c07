package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "polecompare",
	Short: "Reconcile SPIDAcalc and Katapult Pro pole data",
	Long:  "Normalizes SPIDAcalc exchange and Katapult Pro job exports into common pole records, matches them by pole number, SCID, or location, reports field-level discrepancies, and writes accepted corrections back into the SPIDA document.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
