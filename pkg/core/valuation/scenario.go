package valuation

import (
	"math"

	"dcf_builder/pkg/core/model"
)

// ApplyScenario overlays a scenario on copies of the forecast and context.
// Revenue growth is re-derived against the previous original period and the
// growth delta added to it; margin, exit-multiple and discount-rate deltas
// are additive. A nil scenario returns unmodified copies.
func ApplyScenario(forecast []model.ForecastPeriod, ctx model.ValuationContext, scenario *model.ScenarioDefinition) ([]model.ForecastPeriod, model.ValuationContext) {
	adjusted := model.CloneForecast(forecast)
	out := ctx.Clone()
	if scenario == nil {
		return adjusted, out
	}
	adj := scenario.Adjustments

	for i := range adjusted {
		if i > 0 {
			previous := forecast[i-1]
			growth := percentageChange(previous.Revenue, forecast[i].Revenue) + adj.RevenueGrowthDeltaPct
			revenue := previous.Revenue * (1 + growth/100)
			if !math.IsNaN(revenue) && !math.IsInf(revenue, 0) {
				adjusted[i].Revenue = revenue
			}
		}
		adjusted[i].EBITMargin += adj.MarginDeltaPct
	}

	if adj.DiscountRateDeltaPct != 0 {
		out.DiscountRate = model.Float(BaseDiscountRate(ctx) + adj.DiscountRateDeltaPct)
	}
	out.TerminalValue.ExitMultiple.Multiple += adj.ExitMultipleDelta
	return adjusted, out
}

// BaseDiscountRate is the context's explicit rate, or its WACC when unset.
func BaseDiscountRate(ctx model.ValuationContext) float64 {
	if ctx.DiscountRate != nil {
		return *ctx.DiscountRate
	}
	return CalculateWACC(ctx.WACC).WACC
}

func percentageChange(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / math.Abs(previous) * 100
}
