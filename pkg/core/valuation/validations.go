package valuation

import (
	"dcf_builder/pkg/core/model"
)

// Validation messages. They never stop a valuation.
const (
	ValNoCashflows          = "No cashflows generated."
	ValAllNegative          = "All forecast free cash flows are negative."
	ValNoTerminalValue      = "Terminal value not computed."
	ValNonMonotonicOffsets  = "Forecast period offsets are not strictly increasing."
	ValNonFinite            = "Non-finite values encountered in cashflow projection."
	ValGrowthAboveDiscount  = "Terminal growth >= discount rate."
	ValWorkingCapitalSwings = "Working capital swings between sources and uses frequently."
	ValNOLZeroCap           = "NOL balance persists due to zero usage cap."
	ValMidYearCompounding   = "Mid-year convention currently assumes annual periods; review compounding setting."
)

// CollectValidations returns the warnings for a finished run, in a fixed order.
func CollectValidations(cashflows []model.DerivedCashflow, terminal []model.TerminalValueOutput, ctx model.ValuationContext, discountRatePct float64) []string {
	warnings := []string{}

	if len(cashflows) == 0 {
		warnings = append(warnings, ValNoCashflows)
	}

	negatives := 0
	for _, cf := range cashflows {
		if cf.FreeCashFlow < 0 {
			negatives++
		}
	}
	if len(cashflows) > 0 && negatives == len(cashflows) {
		warnings = append(warnings, ValAllNegative)
	}

	if len(terminal) == 0 {
		warnings = append(warnings, ValNoTerminalValue)
	}

	for i := 1; i < len(cashflows); i++ {
		if cashflows[i].Period.YearOffset <= cashflows[i-1].Period.YearOffset {
			warnings = append(warnings, ValNonMonotonicOffsets)
			break
		}
	}

	for _, cf := range cashflows {
		if !isFinite(cf.FreeCashFlow) {
			warnings = append(warnings, ValNonFinite)
			break
		}
	}

	if ctx.TerminalValue.Gordon.Enabled && ctx.TerminalValue.Gordon.GrowthRate >= discountRatePct {
		warnings = append(warnings, ValGrowthAboveDiscount)
	}

	flips := 0
	for i := 1; i < len(cashflows); i++ {
		if sign(cashflows[i].ChangeInNetWorkingCapital) != sign(cashflows[i-1].ChangeInNetWorkingCapital) {
			flips++
		}
	}
	if float64(flips) > float64(len(cashflows))/2 {
		warnings = append(warnings, ValWorkingCapitalSwings)
	}

	if usageCap := ctx.Tax.NOLAnnualUsageCap; usageCap != nil && *usageCap == 0 {
		for _, cf := range cashflows {
			if cf.NOLBalance > 0 {
				warnings = append(warnings, ValNOLZeroCap)
				break
			}
		}
	}

	if ctx.MidYearConvention && ctx.Compounding.Frequency() != 1 {
		warnings = append(warnings, ValMidYearCompounding)
	}

	return warnings
}

// FlagNonFiniteTotals adds the non-finite warning when any aggregate (present
// value, terminal value, enterprise value) is NaN or infinite and the cash flow
// scan has not already flagged it.
func FlagNonFiniteTotals(warnings []string, totals ...float64) []string {
	for _, w := range warnings {
		if w == ValNonFinite {
			return warnings
		}
	}
	for _, v := range totals {
		if !isFinite(v) {
			return append(warnings, ValNonFinite)
		}
	}
	return warnings
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
