package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wearlab/sensorsync/internal/report"
	"github.com/wearlab/sensorsync/internal/signals"
)

var (
	analyzeInput   string
	analyzeSubject string
	analyzeXLSX    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report measured sampling rates over a downloaded parsed tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := signals.Defaults()
		if cfg.Signals.File != "" {
			r, err := signals.Load(cfg.Signals.File)
			if err != nil {
				return err
			}
			reg = r
		}

		rep, err := report.Analyze(analyzeInput, analyzeSubject, reg)
		if err != nil {
			return err
		}
		if rep.Empty() {
			fmt.Fprintln(os.Stderr, "No parsed files found.")
			return nil
		}

		fmt.Print(rep.Table())

		if analyzeXLSX != "" {
			if err := rep.WriteXLSX(analyzeXLSX); err != nil {
				return err
			}
			zap.L().Info("wrote sampling report", zap.String("path", analyzeXLSX))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "./downloads/parsed", "root of the downloaded parsed tree")
	analyzeCmd.Flags().StringVar(&analyzeSubject, "subject", "", "only analyze files of this subject")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "also write the report to an XLSX workbook")
	rootCmd.AddCommand(analyzeCmd)
}
