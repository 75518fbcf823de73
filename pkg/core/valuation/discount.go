package valuation

import (
	"math"

	"dcf_builder/pkg/core/model"
)

// DiscountCashflows returns the present value of the forecast cash flows and,
// separately, of the terminal values. Rates are in percent.
//
// Under the mid-year convention each flow is discounted half a year earlier
// (never before the as-of date) and terminal values sit half a year after the
// last flow's effective date.
func DiscountCashflows(cashflows []model.DerivedCashflow, terminal []model.TerminalValueOutput, ctx model.ValuationContext, discountRatePct float64) (presentValue, terminalPresentValue float64) {
	freq := ctx.Compounding.Frequency()
	perPeriod := 1 + discountRatePct/100/freq

	lastOffset := 0.0
	for _, cf := range cashflows {
		offset := effectiveYearOffset(cf.Period.YearOffset, ctx.MidYearConvention)
		presentValue += cf.FreeCashFlow / math.Pow(perPeriod, offset*freq)
		lastOffset = offset
	}

	exponent := lastOffset * freq
	if ctx.MidYearConvention {
		exponent = (lastOffset + 0.5) * freq
	}
	factor := math.Pow(perPeriod, exponent)
	for _, tv := range terminal {
		terminalPresentValue += tv.Value / factor
	}
	return presentValue, terminalPresentValue
}

func effectiveYearOffset(yearOffset float64, midYear bool) float64 {
	if midYear {
		yearOffset -= 0.5
	}
	return math.Max(yearOffset, 0)
}
