package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dcf_builder/pkg/core/money"
	"dcf_builder/pkg/core/valuation"
)

var (
	scenarioID   string
	discountRate float64
	exitMultiple float64
	engineCheck  bool
)

var valueCmd = &cobra.Command{
	Use:   "value <case-file>",
	Short: "Value a case",
	Long: `Runs the full valuation for a case: cash flows, WACC, terminal values,
discounting, EV bridge, comps check, SOTP and validation warnings.

The active scenario is applied unless --scenario names another one.`,
	Args: cobra.ExactArgs(1),
	RunE: runValue,
}

func init() {
	valueCmd.Flags().StringVar(&scenarioID, "scenario", "", "scenario id (default: active scenario)")
	valueCmd.Flags().Float64Var(&discountRate, "discount-rate", 0, "override discount rate in percent")
	valueCmd.Flags().Float64Var(&exitMultiple, "exit-multiple", 0, "override exit multiple")
	valueCmd.Flags().BoolVar(&engineCheck, "engine-check", false, "also price the cash flows with the NPV/IRR kernel")
	rootCmd.AddCommand(valueCmd)
}

func computeOptions(cmd *cobra.Command) valuation.ComputeOptions {
	var opts valuation.ComputeOptions
	if cmd.Flags().Changed("discount-rate") {
		r := discountRate
		opts.DiscountRate = &r
	}
	if cmd.Flags().Changed("exit-multiple") {
		m := exitMultiple
		opts.ExitMultiple = &m
	}
	return opts
}

func runValue(cmd *cobra.Command, args []string) error {
	state, err := loadCase(args[0])
	if err != nil {
		return err
	}
	if scenarioID != "" {
		if _, ok := state.ResolveScenario(scenarioID); !ok {
			return fmt.Errorf("unknown scenario %q", scenarioID)
		}
	}

	payload, err := valuation.BuildEnginePayload(state, scenarioID, computeOptions(cmd))
	if err != nil {
		return err
	}
	out := payload.Valuation
	w := cmd.OutOrStdout()

	var kernel string
	if engineCheck {
		eng, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		res, err := eng.NPV(cmd.Context(), payload.Input)
		if err != nil {
			return err
		}
		npv, err := res.NPV.Money()
		if err != nil {
			return err
		}
		kernel = fmt.Sprintf("%s (%s)", npv.Format(currencySymbol(state)), eng.Name())
		if res.IRRBps != nil {
			kernel += fmt.Sprintf(", IRR %.2f%%", float64(*res.IRRBps)/100)
		}
	}

	if asJSON {
		return printJSON(w, payload)
	}

	sym := currencySymbol(state)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if payload.Scenario != nil {
		fmt.Fprintf(tw, "Scenario\t%s\n", payload.Scenario.Label)
	}
	fmt.Fprintf(tw, "Discount rate\t%.2f%%\n", out.DiscountRate)
	fmt.Fprintf(tw, "WACC\t%.2f%%\n", out.WACCBreakdown.WACC)
	fmt.Fprintf(tw, "PV of forecast\t%s\n", money.FormatMillions(out.PresentValue, sym))
	fmt.Fprintf(tw, "PV of terminal value\t%s\n", money.FormatMillions(out.TerminalPresentValue, sym))
	fmt.Fprintf(tw, "Enterprise value\t%s\n", money.FormatMillions(out.EnterpriseValue, sym))
	fmt.Fprintf(tw, "Equity value\t%s\n", money.FormatMillions(out.EquityValue, sym))
	fmt.Fprintf(tw, "Per share\t%s%.2f\n", sym, out.PerShare)
	if out.SOTP != nil {
		fmt.Fprintf(tw, "SOTP\t%s\n", money.FormatMillions(out.SOTP.TotalValue, sym))
	}
	if kernel != "" {
		fmt.Fprintf(tw, "Kernel NPV\t%s\n", kernel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warning := range out.Validations {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}
