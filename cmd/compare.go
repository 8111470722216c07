package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/engine"
	"github.com/jointuse/polecompare/internal/report"
)

var (
	compareSpidaPath    string
	compareKatapultPath string
	compareOutPath      string
	compareXLSXPath     string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a SPIDA exchange file against a Katapult job file",
	RunE: func(cmd *cobra.Command, args []string) error {
		spidaDoc, err := os.ReadFile(compareSpidaPath)
		if err != nil {
			return eris.Wrapf(err, "read %s", compareSpidaPath)
		}
		katapultDoc, err := os.ReadFile(compareKatapultPath)
		if err != nil {
			return eris.Wrapf(err, "read %s", compareKatapultPath)
		}

		eng, err := engine.New(cfg)
		if err != nil {
			return err
		}
		result, err := eng.Run(cmd.Context(), spidaDoc, katapultDoc)
		if err != nil {
			return err
		}

		if compareXLSXPath != "" {
			if err := report.WriteXLSX(result.Report, compareXLSXPath); err != nil {
				return err
			}
			zap.L().Info("wrote spreadsheet", zap.String("path", compareXLSXPath))
		}

		out := os.Stdout
		if compareOutPath != "" {
			f, err := os.Create(compareOutPath)
			if err != nil {
				return eris.Wrapf(err, "create %s", compareOutPath)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Report); err != nil {
			return eris.Wrap(err, "encode report")
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareSpidaPath, "spida", "", "SPIDA exchange JSON file")
	compareCmd.Flags().StringVar(&compareKatapultPath, "katapult", "", "Katapult job JSON file")
	compareCmd.Flags().StringVar(&compareOutPath, "out", "", "report JSON output path (default stdout)")
	compareCmd.Flags().StringVar(&compareXLSXPath, "xlsx", "", "also write an XLSX report")
	_ = compareCmd.MarkFlagRequired("spida")
	_ = compareCmd.MarkFlagRequired("katapult")
	rootCmd.AddCommand(compareCmd)
}
