package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/montecarlo"
	"dcf_builder/pkg/core/report"
	"dcf_builder/pkg/core/sensitivity"
	"dcf_builder/pkg/core/valuation"
)

var (
	reportOut         string
	reportSensitivity bool
	reportMonteCarlo  bool
)

var reportCmd = &cobra.Command{
	Use:   "report <case-file>",
	Short: "Render a valuation report",
	Long: `Writes a Markdown or HTML report (chosen by the --out extension; Markdown
to stdout when --out is not given).`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (.md or .html)")
	reportCmd.Flags().BoolVar(&reportSensitivity, "sensitivity", false, "include the WACC x growth grid")
	reportCmd.Flags().BoolVar(&reportMonteCarlo, "montecarlo", false, "include the Monte Carlo summary")
	reportCmd.Flags().StringVar(&scenarioID, "scenario", "", "scenario id (default: active scenario)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	state, err := loadCase(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	out, _ := valuation.Evaluate(state, scenarioID, valuation.ComputeOptions{})
	in := report.Input{Metadata: state.Context.Metadata, Valuation: out}

	if reportSensitivity {
		results, err := sensitivity.Run(ctx, state.Forecast, state.Context)
		if err != nil {
			return err
		}
		if grid, ok := sensitivity.BuildGrid(results, state.Context, sensitivity.DefaultGridOptions(model.AxisGrowth)); ok {
			in.Grid = &grid
		}
	}
	if reportMonteCarlo {
		mc, err := montecarlo.Run(ctx, state.Forecast, state.Context, montecarlo.Options{Workers: cfg.MonteCarlo.Workers})
		if err != nil {
			return err
		}
		in.MonteCarlo = &mc
	}

	rep, err := report.Build(in)
	if err != nil {
		return err
	}

	if reportOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), rep.Markdown)
		return nil
	}
	body := rep.Markdown
	switch strings.ToLower(filepath.Ext(reportOut)) {
	case ".html", ".htm":
		body = rep.HTML
	case ".md", ".markdown":
	default:
		return fmt.Errorf("unsupported report extension %q", filepath.Ext(reportOut))
	}
	if err := os.WriteFile(reportOut, []byte(body), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", reportOut)
	return nil
}
