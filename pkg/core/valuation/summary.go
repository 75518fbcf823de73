package valuation

import "dcf_builder/pkg/core/model"

// ValuationLineItem is one row of the scenario summary table.
type ValuationLineItem struct {
	ScenarioID      string  `json:"scenarioId,omitempty"`
	Label           string  `json:"label"`
	EnterpriseValue float64 `json:"enterpriseValue"`
	EquityValue     float64 `json:"equityValue"`
	PerShare        float64 `json:"perShare"`
	DiscountRate    float64 `json:"discountRate"`
	Warnings        int     `json:"warnings"`
}

// RunScenarios values the case as configured and then under every scenario,
// in definition order.
func RunScenarios(state model.BuilderState, opts ComputeOptions) []ValuationLineItem {
	results := make([]ValuationLineItem, 0, len(state.Context.Scenarios)+1)

	opts.Scenario = nil
	base := ComputeValuation(state.Forecast, state.Context, opts)
	results = append(results, lineItem("As configured", "", base))

	for i := range state.Context.Scenarios {
		sc := state.Context.Scenarios[i]
		opts.Scenario = &sc
		out := ComputeValuation(state.Forecast, state.Context, opts)
		results = append(results, lineItem(sc.Label, sc.ID, out))
	}
	return results
}

func lineItem(label, id string, out model.ValuationOutputs) ValuationLineItem {
	return ValuationLineItem{
		ScenarioID:      id,
		Label:           label,
		EnterpriseValue: out.EnterpriseValue,
		EquityValue:     out.EquityValue,
		PerShare:        out.PerShare,
		DiscountRate:    out.DiscountRate,
		Warnings:        len(out.Validations),
	}
}
