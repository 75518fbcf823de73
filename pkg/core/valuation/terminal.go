package valuation

import (
	"dcf_builder/pkg/core/model"
)

// Warning texts attached to terminal values.
const (
	WarnGrowthAtOrAboveDiscount = "Terminal growth >= discount rate; check assumptions."
	WarnGrowthAboveSanityCap    = "Growth exceeds sanity cap."
	WarnExitMetricNonPositive   = "Exit metric non-positive; check margins."
)

// ComputeTerminalValues values the business beyond the forecast. Gordon growth
// uses the last free cash flow; the exit multiple uses the reference period's
// metric. With ApplyBoth both are returned, otherwise Gordon wins when enabled.
// exitOverride, when set, replaces the configured multiple.
func ComputeTerminalValues(cashflows []model.DerivedCashflow, ctx model.ValuationContext, discountRatePct float64, exitOverride *float64) []model.TerminalValueOutput {
	if len(cashflows) == 0 {
		return nil
	}
	settings := ctx.TerminalValue
	last := cashflows[len(cashflows)-1]

	var gordon, exit []model.TerminalValueOutput

	if settings.Gordon.Enabled {
		gordon = append(gordon, gordonValue(last, settings.Gordon, discountRatePct))
	}

	if settings.ExitMultiple.Enabled {
		multiple := settings.ExitMultiple.Multiple
		if exitOverride != nil {
			multiple = *exitOverride
		}
		idx := len(cashflows) - 1
		if settings.ExitMultiple.ReferenceYear != nil {
			idx = clampIndex(*settings.ExitMultiple.ReferenceYear, len(cashflows))
		}
		metric := exitMetric(cashflows[idx], settings.ExitMultiple.Metric)

		out := model.TerminalValueOutput{
			Method:          model.TerminalExit,
			Value:           metric * multiple,
			ImpliedMultiple: model.Float(multiple),
		}
		if metric <= 0 {
			out.Warning = WarnExitMetricNonPositive
		}
		exit = append(exit, out)
	}

	if settings.ApplyBoth {
		return append(gordon, exit...)
	}
	if len(gordon) > 0 {
		return gordon
	}
	return exit
}

// gordonValue is FCF × (1+g) / (r−g). When r equals g the perpetuity is
// undefined and the value is reported as zero alongside the warning.
func gordonValue(last model.DerivedCashflow, g model.GordonSettings, r float64) model.TerminalValueOutput {
	growth := g.GrowthRate
	out := model.TerminalValueOutput{Method: model.TerminalGordon}

	switch {
	case growth >= r:
		out.Warning = WarnGrowthAtOrAboveDiscount
	case g.SanityCap != nil && growth > *g.SanityCap:
		out.Warning = WarnGrowthAboveSanityCap
	}

	spread := (r - growth) / 100
	if spread != 0 {
		out.Value = last.FreeCashFlow * (1 + growth/100) / spread
	}
	return out
}

func exitMetric(cf model.DerivedCashflow, metric model.ExitMetric) float64 {
	switch metric {
	case model.MetricEBITDA:
		return cf.EBIT + cf.Depreciation
	case model.MetricEBIT:
		return cf.EBIT
	default:
		return cf.Period.Revenue
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
