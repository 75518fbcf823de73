package valuation

import (
	"time"

	"github.com/google/uuid"

	"dcf_builder/pkg/core/model"
)

// ComputeOptions tunes a single valuation run.
type ComputeOptions struct {
	// Scenario is overlaid on the forecast and context before derivation.
	Scenario *model.ScenarioDefinition
	// DiscountRate (percent) takes precedence over the context rate and WACC.
	DiscountRate *float64
	// ExitMultiple replaces the configured exit multiple.
	ExitMultiple *float64
	// Now stamps the run metadata; defaults to time.Now.
	Now func() time.Time
}

// ComputeValuation runs a full DCF: scenario overlay, cash flow derivation,
// WACC, terminal value and discounting, then the EV bridge, comps check, SOTP
// and validation warnings. Inputs are not modified.
func ComputeValuation(forecast []model.ForecastPeriod, base model.ValuationContext, opts ComputeOptions) model.ValuationOutputs {
	// 1. Scenario overlay (on copies)
	periods, ctx := ApplyScenario(forecast, base, opts.Scenario)

	// 2. Derive free cash flows
	cashflows := DeriveCashflows(periods, ctx)

	// 3. Discount rate: override, then context, then WACC
	wacc := CalculateWACC(ctx.WACC)
	discountRate := wacc.WACC
	switch {
	case opts.DiscountRate != nil:
		discountRate = *opts.DiscountRate
	case ctx.DiscountRate != nil:
		discountRate = *ctx.DiscountRate
	}

	// 4. Terminal value and discounting
	terminal := ComputeTerminalValues(cashflows, ctx, discountRate, opts.ExitMultiple)
	pv, tvPV := DiscountCashflows(cashflows, terminal, ctx, discountRate)

	// 5. Aggregation
	ev := pv + tvPV
	adjustments := 0.0
	for _, a := range ctx.EquityAdjustments {
		adjustments += a.Amount
	}
	equity := ev - ctx.NetDebt + adjustments
	shares := ctx.SharesOutstanding
	if shares < 1 {
		shares = 1
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	validations := CollectValidations(cashflows, terminal, ctx, discountRate)
	totals := []float64{pv, tvPV, ev}
	for _, tv := range terminal {
		totals = append(totals, tv.Value)
	}
	validations = FlagNonFiniteTotals(validations, totals...)

	meta := model.RunMetadata{
		RunID:        uuid.NewString(),
		TimestampISO: now().UTC().Format(time.RFC3339Nano),
		GitCommit:    ctx.Metadata.GitCommit,
		ConfigPath:   ctx.Metadata.ConfigPath,
	}
	if opts.Scenario != nil {
		meta.ScenarioID = opts.Scenario.ID
	}

	return model.ValuationOutputs{
		Cashflows:            cashflows,
		PresentValue:         pv,
		TerminalValues:       terminal,
		TerminalPresentValue: tvPV,
		EnterpriseValue:      ev,
		EquityValue:          equity,
		PerShare:             equity / shares,
		DiscountRate:         discountRate,
		WACCBreakdown:        wacc,
		Validations:          validations,
		EVBridge:             BuildEVBridge(pv, tvPV, ev, ctx.NetDebt),
		CompsCheck:           ComputeCompsCheck(ctx.Peers, ev),
		SOTP:                 ComputeSOTP(ctx),
		RunMetadata:          meta,
	}
}

// EnterpriseValue is a shortcut for sweeps that only need EV.
func EnterpriseValue(forecast []model.ForecastPeriod, ctx model.ValuationContext, opts ComputeOptions) float64 {
	return ComputeValuation(forecast, ctx, opts).EnterpriseValue
}
