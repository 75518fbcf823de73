package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/money"
	"dcf_builder/pkg/core/sensitivity"
)

var (
	gridAxis string
	keepBase bool
	rawSweep bool
)

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity <case-file>",
	Short: "Sweep WACC against terminal growth or exit multiple",
	Long: `Runs the sensitivity sweep configured in the case and prints a grid of
enterprise values. Rows are WACC values; columns are terminal growth rates
(--axis growth) or exit multiples (--axis exitMultiple).

The column holding the configured base value is dropped unless --keep-base
is given. --raw prints every sweep point instead of a grid.`,
	Args: cobra.ExactArgs(1),
	RunE: runSensitivity,
}

func init() {
	sensitivityCmd.Flags().StringVar(&gridAxis, "axis", string(model.AxisGrowth), "grid columns: growth or exitMultiple")
	sensitivityCmd.Flags().BoolVar(&keepBase, "keep-base", false, "keep the base-case column")
	sensitivityCmd.Flags().BoolVar(&rawSweep, "raw", false, "print raw sweep points")
	rootCmd.AddCommand(sensitivityCmd)
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	axis := model.SweepAxis(gridAxis)
	if axis != model.AxisGrowth && axis != model.AxisExitMultiple {
		return fmt.Errorf("unknown axis %q", gridAxis)
	}
	state, err := loadCase(args[0])
	if err != nil {
		return err
	}
	results, err := sensitivity.Run(cmd.Context(), state.Forecast, state.Context)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if rawSweep {
		if asJSON {
			return printJSON(w, results)
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Axis\tWACC\tGrowth\tMultiple\tEV\t")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.1f\t%.1f\t\n", r.Axis, r.WACC, r.TerminalGrowth, r.ExitMultiple, r.EnterpriseValue)
		}
		return tw.Flush()
	}

	opts := sensitivity.DefaultGridOptions(axis)
	opts.DropBaseCase = !keepBase
	grid, ok := sensitivity.BuildGrid(results, state.Context, opts)
	if asJSON {
		return printJSON(w, grid)
	}
	if !ok {
		fmt.Fprintf(w, "no sensitivity points for axis %s\n", axis)
		return nil
	}

	sym := currencySymbol(state)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "WACC\t")
	for _, c := range grid.Columns {
		fmt.Fprintf(tw, "%s\t", grid.ColumnLabel(c))
	}
	fmt.Fprintln(tw)
	for i, row := range grid.Rows {
		fmt.Fprintf(tw, "%s\t", grid.RowLabel(row))
		for _, cell := range grid.Cells[i] {
			if cell.OK {
				fmt.Fprintf(tw, "%s\t", money.FormatMillions(cell.Value, sym))
			} else {
				fmt.Fprint(tw, "-\t")
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
