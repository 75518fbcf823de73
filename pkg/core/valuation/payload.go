package valuation

import (
	"fmt"
	"math"

	"dcf_builder/pkg/core/engine"
	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/money"
)

// EnginePayload is a valuation together with the kernel input that
// reproduces its cash flows.
type EnginePayload struct {
	Input     engine.Input              `json:"input"`
	Valuation model.ValuationOutputs    `json:"valuation"`
	Scenario  *model.ScenarioDefinition `json:"scenario,omitempty"`
}

// Evaluate values a case under scenarioID, or under its active scenario when
// scenarioID is empty. The returned scenario is nil if none resolved.
func Evaluate(state model.BuilderState, scenarioID string, opts ComputeOptions) (model.ValuationOutputs, *model.ScenarioDefinition) {
	var scenario *model.ScenarioDefinition
	if sc, ok := state.ResolveScenario(scenarioID); ok {
		scenario = &sc
	}
	opts.Scenario = scenario
	return ComputeValuation(state.Forecast, state.Context, opts), scenario
}

// BuildEnginePayload converts a valuation into kernel input. Each free cash
// flow is dated at the as-of date plus its effective year offset; the first
// terminal value is folded into the last cash flow. Amounts are in currency
// units, converted from millions.
func BuildEnginePayload(state model.BuilderState, scenarioID string, opts ComputeOptions) (EnginePayload, error) {
	valuation, scenario := Evaluate(state, scenarioID, opts)

	asOf, err := state.Context.AsOfEpochDays()
	if err != nil {
		return EnginePayload{}, err
	}

	cashflows := make([]engine.Cashflow, 0, len(valuation.Cashflows))
	amounts := make([]money.Money, 0, len(valuation.Cashflows))
	for _, cf := range valuation.Cashflows {
		offset := effectiveYearOffset(cf.Period.YearOffset, state.Context.MidYearConvention)
		day := asOf + int64(roundHalfUp(offset*engine.DaysPerYear))
		cashflows = append(cashflows, engine.Cashflow{DateEpochDays: float64(day)})
		amounts = append(amounts, money.FromMillions(cf.FreeCashFlow))
	}
	if len(amounts) > 0 && len(valuation.TerminalValues) > 0 {
		last := len(amounts) - 1
		amounts[last] = amounts[last].Add(money.FromMillions(valuation.TerminalValues[0].Value))
	}
	for i := range cashflows {
		cashflows[i].Amount = amounts[i].Wire()
	}

	input := engine.Input{
		Cashflows:       cashflows,
		DiscountRateBps: roundHalfUp(valuation.DiscountRate * 100),
		Compounding:     engine.Compounding(state.Context.Compounding),
		AsOfEpochDays:   float64(asOf),
	}
	if err := engine.Validate(input); err != nil {
		return EnginePayload{}, fmt.Errorf("engine payload: %w", err)
	}
	return EnginePayload{Input: input, Valuation: valuation, Scenario: scenario}, nil
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
