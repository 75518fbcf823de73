package model

import (
	"fmt"
	"time"
)

// DateLayout is the as-of date format.
const DateLayout = "2006-01-02"

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// CloneForecast returns a copy of the forecast that shares no backing array
// with the input.
func CloneForecast(forecast []ForecastPeriod) []ForecastPeriod {
	if forecast == nil {
		return nil
	}
	out := make([]ForecastPeriod, len(forecast))
	copy(out, forecast)
	return out
}

// Clone returns a copy of the context with every slice reallocated.
func (c ValuationContext) Clone() ValuationContext {
	out := c
	out.Sensitivity = SensitivityConfig{
		WACCValues:          cloneSlice(c.Sensitivity.WACCValues),
		TerminalGrowthRates: cloneSlice(c.Sensitivity.TerminalGrowthRates),
		ExitMultiples:       cloneSlice(c.Sensitivity.ExitMultiples),
	}
	out.MonteCarlo.Drivers = cloneSlice(c.MonteCarlo.Drivers)
	out.Scenarios = cloneSlice(c.Scenarios)
	out.Segments = cloneSlice(c.Segments)
	out.Peers = cloneSlice(c.Peers)
	out.EquityAdjustments = cloneSlice(c.EquityAdjustments)
	return out
}

func cloneSlice[T any](v []T) []T {
	if v == nil {
		return nil
	}
	out := make([]T, len(v))
	copy(out, v)
	return out
}

// WithDiscountRate returns a copy with an explicit discount rate (percent).
func (c ValuationContext) WithDiscountRate(rate float64) ValuationContext {
	out := c.Clone()
	out.DiscountRate = Float(rate)
	return out
}

// WithGordonGrowth returns a copy with a different terminal growth rate.
func (c ValuationContext) WithGordonGrowth(growth float64) ValuationContext {
	out := c.Clone()
	out.TerminalValue.Gordon.GrowthRate = growth
	return out
}

// WithExitMultiple returns a copy with a different exit multiple.
func (c ValuationContext) WithExitMultiple(multiple float64) ValuationContext {
	out := c.Clone()
	out.TerminalValue.ExitMultiple.Multiple = multiple
	return out
}

// AsOfEpochDays parses AsOf as a UTC date and returns whole days since the
// Unix epoch.
func (c ValuationContext) AsOfEpochDays() (int64, error) {
	t, err := time.Parse(DateLayout, c.AsOf)
	if err != nil {
		return 0, fmt.Errorf("invalid asOf date %q: %w", c.AsOf, err)
	}
	return t.Unix() / 86_400, nil
}

// EpochDaysToDate formats an epoch-day count as YYYY-MM-DD.
func EpochDaysToDate(days int64) string {
	return time.Unix(days*86_400, 0).UTC().Format(DateLayout)
}

// BuilderState is a saved valuation case: forecast, context and the scenario
// currently selected.
type BuilderState struct {
	Forecast         []ForecastPeriod `json:"forecast" yaml:"forecast"`
	Context          ValuationContext `json:"context" yaml:"context"`
	ActiveScenarioID string           `json:"activeScenarioId,omitempty" yaml:"activeScenarioId,omitempty"`
}

// Clone returns a deep copy of the state.
func (s BuilderState) Clone() BuilderState {
	return BuilderState{
		Forecast:         CloneForecast(s.Forecast),
		Context:          s.Context.Clone(),
		ActiveScenarioID: s.ActiveScenarioID,
	}
}

// ResolveScenario looks up id, or the active scenario when id is empty.
func (s BuilderState) ResolveScenario(id string) (ScenarioDefinition, bool) {
	if id == "" {
		id = s.ActiveScenarioID
	}
	if id == "" {
		return ScenarioDefinition{}, false
	}
	for _, sc := range s.Context.Scenarios {
		if sc.ID == id {
			return sc, true
		}
	}
	return ScenarioDefinition{}, false
}

// Check reports structural problems that would make a state unusable as a
// case file. Numeric sanity is left to the valuation warnings.
func (s BuilderState) Check() error {
	if len(s.Forecast) == 0 {
		return fmt.Errorf("forecast is empty")
	}
	if _, err := s.Context.AsOfEpochDays(); err != nil {
		return err
	}
	switch s.Context.Compounding {
	case CompoundingAnnual, CompoundingMonthly:
	default:
		return fmt.Errorf("unknown compounding %q", s.Context.Compounding)
	}
	if s.ActiveScenarioID != "" {
		if _, ok := s.ResolveScenario(s.ActiveScenarioID); !ok {
			return fmt.Errorf("active scenario %q not defined", s.ActiveScenarioID)
		}
	}
	return nil
}
