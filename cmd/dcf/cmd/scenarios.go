package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dcf_builder/pkg/core/money"
	"dcf_builder/pkg/core/valuation"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios <case-file>",
	Short: "Value the case under every scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	state, err := loadCase(args[0])
	if err != nil {
		return err
	}
	items := valuation.RunScenarios(state, valuation.ComputeOptions{})
	w := cmd.OutOrStdout()
	if asJSON {
		return printJSON(w, items)
	}

	sym := currencySymbol(state)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Scenario\tRate\tEV\tEquity\tPer share\tWarnings\t")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%.2f%%\t%s\t%s\t%.2f\t%d\t\n",
			it.Label, it.DiscountRate,
			money.FormatMillions(it.EnterpriseValue, sym),
			money.FormatMillions(it.EquityValue, sym),
			it.PerShare, it.Warnings)
	}
	return tw.Flush()
}
