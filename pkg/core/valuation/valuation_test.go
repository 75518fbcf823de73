package valuation

import (
	"math"
	"testing"
	"time"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/money"
)

func fixedClock() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

// simpleContext has no leases, no NOL and working capital that stays flat at
// 10 for revenue of 100.
func simpleContext() model.ValuationContext {
	return model.ValuationContext{
		AsOf:        "2025-01-01",
		Compounding: model.CompoundingAnnual,
		TerminalValue: model.TerminalValueSettings{
			Gordon: model.GordonSettings{Enabled: true, GrowthRate: 2},
		},
		WorkingCapital: model.WorkingCapitalSettings{OpeningNetWorkingCapital: 10, ARDays: 36.5},
		Capex: model.CapexSettings{
			MaintenanceCapexPctRevenue: 3,
			GrowthCapexPctRevenue:      2,
			DepreciationPctRevenue:     5,
		},
		Tax:               model.TaxSettings{StatutoryRate: 25, CashTaxRate: 20},
		DiscountRate:      model.Float(10),
		SharesOutstanding: 10,
	}
}

func TestCalculateWACC(t *testing.T) {
	res := CalculateWACC(model.DefaultState(2025).Context.WACC)

	// Ke = 3.5 + 1.1 × (5 + 0.5) + 1 = 10.55
	if math.Abs(res.CostOfEquity-10.55) > 1e-9 {
		t.Errorf("Expected Ke 10.55, got %f", res.CostOfEquity)
	}
	// Kd = 5.2 × 0.76 = 3.952
	if math.Abs(res.CostOfDebtAfterTax-3.952) > 1e-9 {
		t.Errorf("Expected Kd 3.952, got %f", res.CostOfDebtAfterTax)
	}
	if math.Abs(res.WeightOfDebt-0.375) > 1e-9 || math.Abs(res.WeightOfEquity-0.625) > 1e-9 {
		t.Errorf("Expected weights 0.375/0.625, got %f/%f", res.WeightOfDebt, res.WeightOfEquity)
	}
	if math.Abs(res.WACC-8.07575) > 1e-9 {
		t.Errorf("Expected WACC 8.07575, got %f", res.WACC)
	}
}

func TestBetaReleverRoundTrip(t *testing.T) {
	levered := ReleverBeta(0.8, 0.5, 25)
	// 0.8 × (1 + 0.75 × 0.5) = 1.1
	if math.Abs(levered-1.1) > 1e-12 {
		t.Errorf("Expected levered beta 1.1, got %f", levered)
	}
	if back := UnleverBeta(levered, 0.5, 25); math.Abs(back-0.8) > 1e-12 {
		t.Errorf("Expected unlevered beta 0.8, got %f", back)
	}

	in := model.DefaultState(2025).Context.WACC
	in.BetaUnlevered = model.Float(0.8)
	if res := CalculateWACC(in); math.Abs(res.LeveredBeta-ReleverBeta(0.8, 0.6, 24)) > 1e-12 {
		t.Errorf("Expected re-levered beta, got %f", res.LeveredBeta)
	}
}

func TestDeriveCashflowsSimplePeriod(t *testing.T) {
	forecast := []model.ForecastPeriod{{Label: "FY1", YearOffset: 1, Revenue: 100, EBITMargin: 20}}
	cfs := DeriveCashflows(forecast, simpleContext())

	if len(cfs) != 1 {
		t.Fatalf("Expected 1 cashflow, got %d", len(cfs))
	}
	cf := cfs[0]
	// EBIT 20, tax 5, NOPAT 15, D&A 5, capex 5, ΔNWC 0
	checks := []struct {
		name      string
		got, want float64
	}{
		{"EBIT", cf.EBIT, 20},
		{"NOPAT", cf.NOPAT, 15},
		{"Depreciation", cf.Depreciation, 5},
		{"Capex", cf.Capex, 5},
		{"ΔNWC", cf.ChangeInNetWorkingCapital, 0},
		{"FCF", cf.FreeCashFlow, 15},
		{"TaxPaid", cf.TaxPaid, 4},
		{"EndingNWC", cf.EndingNetWorkingCapital, 10},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("Expected %s %f, got %f", c.name, c.want, c.got)
		}
	}
}

func TestDeriveCashflowsLengthMatchesForecast(t *testing.T) {
	state := model.DefaultState(2025)
	for n := 0; n <= len(state.Forecast); n++ {
		cfs := DeriveCashflows(state.Forecast[:n], state.Context)
		if len(cfs) != n {
			t.Errorf("Expected %d cashflows, got %d", n, len(cfs))
		}
		for i := range cfs {
			if cfs[i].Period.Label != state.Forecast[i].Label {
				t.Errorf("Expected period %s at %d, got %s", state.Forecast[i].Label, i, cfs[i].Period.Label)
			}
		}
	}
}

func TestLeaseBalancesCarryForward(t *testing.T) {
	ctx := simpleContext()
	ctx.Leases = model.LeaseSettings{OperatingLeaseLiability: 90, DiscountRate: 5, AnnualLeaseExpense: 18}
	forecast := []model.ForecastPeriod{
		{YearOffset: 1, Revenue: 100, EBITMargin: 20},
		{YearOffset: 2, Revenue: 100, EBITMargin: 20},
	}
	cfs := DeriveCashflows(forecast, ctx)

	// Year 1: interest 4.5, amortization 13.5, liability 76.5
	if math.Abs(cfs[0].LeaseInterest-4.5) > 1e-9 || math.Abs(cfs[0].LeaseAmortization-13.5) > 1e-9 {
		t.Errorf("Expected 4.5/13.5, got %f/%f", cfs[0].LeaseInterest, cfs[0].LeaseAmortization)
	}
	// Year 2: interest 3.825 on the reduced liability
	if math.Abs(cfs[1].LeaseInterest-3.825) > 1e-9 {
		t.Errorf("Expected year 2 interest 3.825, got %f", cfs[1].LeaseInterest)
	}
}

func TestOverridesReplaceFormulas(t *testing.T) {
	ctx := simpleContext()
	ctx.WorkingCapital.OtherCurrentAssets = 4
	ctx.WorkingCapital.OtherCurrentLiabilities = 1
	forecast := []model.ForecastPeriod{{
		YearOffset:             1,
		Revenue:                100,
		EBITMargin:             20,
		OtherOperatingIncome:   model.Float(2),
		WorkingCapitalOverride: model.Float(20),
		CapexOverride:          model.Float(12),
		DepreciationOverride:   model.Float(7),
	}}
	cf := DeriveCashflows(forecast, ctx)[0]

	if cf.EBIT != 22 {
		t.Errorf("Expected EBIT 22, got %f", cf.EBIT)
	}
	if cf.Capex != 12 || cf.Depreciation != 7 {
		t.Errorf("Expected overrides 12/7, got %f/%f", cf.Capex, cf.Depreciation)
	}
	// 20 + 4 - 1 = 23 against an opening 10
	if cf.ChangeInNetWorkingCapital != 13 {
		t.Errorf("Expected ΔNWC 13, got %f", cf.ChangeInNetWorkingCapital)
	}
}

func TestApplyTaxRulesNOL(t *testing.T) {
	tax := model.TaxSettings{
		StatutoryRate:     25,
		CashTaxRate:       20,
		NOLAnnualUsageCap: model.Float(10),
		DeferredTaxRate:   model.Float(10),
	}

	// Capped usage: 10 of the 30 balance offsets income of 20
	res := applyTaxRules(20, tax, 30)
	if res.updatedNOL != 20 {
		t.Errorf("Expected NOL 20, got %f", res.updatedNOL)
	}
	if math.Abs(res.bookTaxes-2.5) > 1e-12 {
		t.Errorf("Expected book tax 2.5, got %f", res.bookTaxes)
	}
	// (10 + 10 × 0.1) × 0.2
	if math.Abs(res.cashTaxes-2.2) > 1e-12 {
		t.Errorf("Expected cash tax 2.2, got %f", res.cashTaxes)
	}

	// A loss adds to the balance and pays no tax
	res = applyTaxRules(-15, tax, 5)
	if res.updatedNOL != 20 || res.bookTaxes != 0 || res.cashTaxes != 0 {
		t.Errorf("Expected NOL 20 and no tax, got %+v", res)
	}

	// Without a cap the whole balance is available
	tax.NOLAnnualUsageCap = nil
	res = applyTaxRules(20, tax, 30)
	if res.updatedNOL != 10 || res.bookTaxes != 0 {
		t.Errorf("Expected NOL 10 and no book tax, got %+v", res)
	}
}

func TestMidYearIncreasesEnterpriseValue(t *testing.T) {
	state := model.DefaultState(2025)
	ctx := state.Context
	ctx.MidYearConvention = false
	endYear := ComputeValuation(state.Forecast, ctx, ComputeOptions{Now: fixedClock})
	ctx.MidYearConvention = true
	midYear := ComputeValuation(state.Forecast, ctx, ComputeOptions{Now: fixedClock})

	for _, cf := range midYear.Cashflows {
		if cf.FreeCashFlow <= 0 {
			t.Fatalf("fixture expects positive cash flows, got %f", cf.FreeCashFlow)
		}
	}
	if midYear.EnterpriseValue <= endYear.EnterpriseValue {
		t.Errorf("Expected mid-year EV > end-year EV, got %f <= %f", midYear.EnterpriseValue, endYear.EnterpriseValue)
	}
}

func TestGordonGrowthWarning(t *testing.T) {
	state := model.DefaultState(2025)
	ctx := state.Context
	ctx.TerminalValue.ApplyBoth = false
	ctx.TerminalValue.ExitMultiple.Enabled = false
	ctx.TerminalValue.Gordon.SanityCap = nil
	cfs := DeriveCashflows(state.Forecast, ctx)

	tv := ComputeTerminalValues(cfs, ctx.WithGordonGrowth(2.5), 9, nil)
	if len(tv) != 1 || tv[0].Warning != "" {
		t.Errorf("Expected no warning at 2.5%%, got %+v", tv)
	}

	tv = ComputeTerminalValues(cfs, ctx.WithGordonGrowth(9.5), 9, nil)
	if len(tv) != 1 || tv[0].Warning != WarnGrowthAtOrAboveDiscount {
		t.Fatalf("Expected growth warning at 9.5%%, got %+v", tv)
	}
	if math.IsNaN(tv[0].Value) || math.IsInf(tv[0].Value, 0) {
		t.Errorf("Expected finite value, got %f", tv[0].Value)
	}

	out := ComputeValuation(state.Forecast, ctx.WithGordonGrowth(9.5), ComputeOptions{Now: fixedClock})
	if !contains(out.Validations, ValGrowthAboveDiscount) {
		t.Errorf("Expected validation %q, got %v", ValGrowthAboveDiscount, out.Validations)
	}
}

func TestGordonSanityCap(t *testing.T) {
	state := model.DefaultState(2025)
	cfs := DeriveCashflows(state.Forecast, state.Context)
	tv := ComputeTerminalValues(cfs, state.Context.WithGordonGrowth(5), 9, nil)
	if tv[0].Method != model.TerminalGordon || tv[0].Warning != WarnGrowthAboveSanityCap {
		t.Errorf("Expected sanity cap warning, got %+v", tv[0])
	}
}

func TestTerminalValueSelection(t *testing.T) {
	state := model.DefaultState(2025)
	cfs := DeriveCashflows(state.Forecast, state.Context)

	both := ComputeTerminalValues(cfs, state.Context, 9, nil)
	if len(both) != 2 || both[0].Method != model.TerminalGordon || both[1].Method != model.TerminalExit {
		t.Fatalf("Expected gordon then exit, got %+v", both)
	}
	last := cfs[len(cfs)-1]
	if want := (last.EBIT + last.Depreciation) * 11; math.Abs(both[1].Value-want) > 1e-9 {
		t.Errorf("Expected exit value %f, got %f", want, both[1].Value)
	}

	ctx := state.Context
	ctx.TerminalValue.ApplyBoth = false
	only := ComputeTerminalValues(cfs, ctx, 9, nil)
	if len(only) != 1 || only[0].Method != model.TerminalGordon {
		t.Errorf("Expected gordon only, got %+v", only)
	}

	ctx.TerminalValue.Gordon.Enabled = false
	ctx.TerminalValue.ExitMultiple.Metric = model.MetricRevenue
	ctx.TerminalValue.ExitMultiple.ReferenceYear = model.Int(99)
	exit := ComputeTerminalValues(cfs, ctx, 9, model.Float(2))
	if len(exit) != 1 || exit[0].Value != last.Period.Revenue*2 || *exit[0].ImpliedMultiple != 2 {
		t.Errorf("Expected revenue × override on clamped period, got %+v", exit)
	}
}

func TestExitMetricNonPositiveWarning(t *testing.T) {
	ctx := simpleContext()
	ctx.TerminalValue = model.TerminalValueSettings{
		ExitMultiple: model.ExitMultipleSettings{Enabled: true, Metric: model.MetricEBIT, Multiple: 8},
	}
	forecast := []model.ForecastPeriod{{YearOffset: 1, Revenue: 100, EBITMargin: -5}}
	tv := ComputeTerminalValues(DeriveCashflows(forecast, ctx), ctx, 10, nil)
	if tv[0].Warning != WarnExitMetricNonPositive {
		t.Errorf("Expected non-positive metric warning, got %+v", tv[0])
	}
}

func TestDiscountRatePrecedence(t *testing.T) {
	state := model.DefaultState(2025)
	ctx := state.Context

	out := ComputeValuation(state.Forecast, ctx, ComputeOptions{DiscountRate: model.Float(7), Now: fixedClock})
	if out.DiscountRate != 7 {
		t.Errorf("Expected override 7, got %f", out.DiscountRate)
	}
	out = ComputeValuation(state.Forecast, ctx, ComputeOptions{Now: fixedClock})
	if out.DiscountRate != 9 {
		t.Errorf("Expected context rate 9, got %f", out.DiscountRate)
	}
	ctx.DiscountRate = nil
	out = ComputeValuation(state.Forecast, ctx, ComputeOptions{Now: fixedClock})
	if math.Abs(out.DiscountRate-out.WACCBreakdown.WACC) > 1e-12 {
		t.Errorf("Expected WACC %f, got %f", out.WACCBreakdown.WACC, out.DiscountRate)
	}
}

func TestEquityBridgeAndPerShare(t *testing.T) {
	state := model.DefaultState(2025)
	out := ComputeValuation(state.Forecast, state.Context, ComputeOptions{Now: fixedClock})

	if math.Abs(out.EnterpriseValue-(out.PresentValue+out.TerminalPresentValue)) > 1e-9 {
		t.Errorf("Expected EV = PV + TV PV")
	}
	// EV - 260 + 45 - 25
	if want := out.EnterpriseValue - 240; math.Abs(out.EquityValue-want) > 1e-9 {
		t.Errorf("Expected equity %f, got %f", want, out.EquityValue)
	}
	if math.Abs(out.PerShare-out.EquityValue/145) > 1e-12 {
		t.Errorf("Expected per share %f, got %f", out.EquityValue/145, out.PerShare)
	}

	if len(out.EVBridge) != 3 || out.EVBridge[2].Value != -260 {
		t.Fatalf("Expected net debt line -260, got %+v", out.EVBridge)
	}
	if math.Abs(out.EVBridge[0].Impact+out.EVBridge[1].Impact-1) > 1e-9 {
		t.Errorf("Expected forecast and terminal impacts to sum to 1")
	}
	if out.RunMetadata.TimestampISO != "2025-03-01T12:00:00Z" || out.RunMetadata.RunID == "" {
		t.Errorf("Unexpected run metadata %+v", out.RunMetadata)
	}
}

func TestEVBridgeZeroEnterpriseValue(t *testing.T) {
	for _, item := range BuildEVBridge(0, 0, 0, 50) {
		if item.Impact != 0 {
			t.Errorf("Expected zero impact for %s, got %f", item.Label, item.Impact)
		}
	}
}

func TestSharesFlooredAtOne(t *testing.T) {
	ctx := simpleContext()
	ctx.SharesOutstanding = 0
	forecast := []model.ForecastPeriod{{YearOffset: 1, Revenue: 100, EBITMargin: 20}}
	out := ComputeValuation(forecast, ctx, ComputeOptions{Now: fixedClock})
	if out.PerShare != out.EquityValue {
		t.Errorf("Expected per share to equal equity value, got %f vs %f", out.PerShare, out.EquityValue)
	}
}

func TestCompsCheck(t *testing.T) {
	peers := []model.CompsPeer{
		{Ticker: "AAA", EnterpriseValue: 1000, EBITDA: 100, Revenue: 400},
		{Ticker: "BBB", EnterpriseValue: 1200, EBITDA: 100, Revenue: 600},
		{Ticker: "CCC", EnterpriseValue: 800, EBITDA: 0.5, Revenue: 200},
	}
	// EV/EBITDA: 10, 12, 800 (floored denominator) -> median 12
	check := ComputeCompsCheck(peers, 24)
	if check == nil || check.MedianEVEBITDA == nil || *check.MedianEVEBITDA != 12 {
		t.Fatalf("Expected median EV/EBITDA 12, got %+v", check)
	}
	// EV/Sales: 2.5, 2, 4 -> 2.5
	if *check.MedianEVSales != 2.5 {
		t.Errorf("Expected median EV/Sales 2.5, got %f", *check.MedianEVSales)
	}
	if math.Abs(*check.ImpliedPremiumVsMedian-1) > 1e-12 {
		t.Errorf("Expected premium 1.0, got %f", *check.ImpliedPremiumVsMedian)
	}

	if ComputeCompsCheck(nil, 100) != nil {
		t.Error("Expected nil comps check without peers")
	}
}

func TestSOTP(t *testing.T) {
	ctx := model.DefaultState(2025).Context
	sotp := ComputeSOTP(ctx)
	if sotp == nil {
		t.Fatal("Expected SOTP output")
	}
	// 420 × 32% × 14 + 180 × 25% × 11
	if math.Abs(sotp.TotalValue-2376.6) > 1e-9 {
		t.Errorf("Expected total 2376.6, got %f", sotp.TotalValue)
	}
	if math.Abs(sotp.Segments[0].Weight+sotp.Segments[1].Weight-1) > 1e-12 {
		t.Errorf("Expected weights to sum to 1")
	}

	ctx.Segments = []model.SegmentInput{{Label: "Loss", Revenue: 100, EBITDAMargin: -10}}
	sotp = ComputeSOTP(ctx)
	if sotp.TotalValue != 0 || sotp.Segments[0].Weight != 0 {
		t.Errorf("Expected zero total for negative segments, got %+v", sotp)
	}
}

func TestValidations(t *testing.T) {
	ctx := simpleContext()

	warnings := CollectValidations(nil, nil, ctx, 10)
	if !contains(warnings, ValNoCashflows) || !contains(warnings, ValNoTerminalValue) {
		t.Errorf("Expected empty-forecast warnings, got %v", warnings)
	}
	if contains(warnings, ValAllNegative) {
		t.Errorf("Did not expect all-negative warning for an empty forecast")
	}

	ctx.Tax.NOLOpening = 100
	ctx.Tax.NOLAnnualUsageCap = model.Float(0)
	ctx.MidYearConvention = true
	ctx.Compounding = model.CompoundingMonthly
	forecast := []model.ForecastPeriod{
		{YearOffset: 2, Revenue: 100, EBITMargin: -50},
		{YearOffset: 1, Revenue: 100, EBITMargin: -50},
	}
	cfs := DeriveCashflows(forecast, ctx)
	warnings = CollectValidations(cfs, nil, ctx, 10)
	for _, want := range []string{ValAllNegative, ValNonMonotonicOffsets, ValNOLZeroCap, ValMidYearCompounding} {
		if !contains(warnings, want) {
			t.Errorf("Expected %q in %v", want, warnings)
		}
	}
}

func TestValidationWorkingCapitalSwings(t *testing.T) {
	ctx := simpleContext()
	// AR is 10% of revenue, so alternating revenue flips the NWC change each period
	var forecast []model.ForecastPeriod
	for i, rev := range []float64{100, 300, 100, 300, 100} {
		forecast = append(forecast, model.ForecastPeriod{YearOffset: float64(i + 1), Revenue: rev, EBITMargin: 20})
	}
	cfs := DeriveCashflows(forecast, ctx)
	if cfs[1].ChangeInNetWorkingCapital <= 0 || cfs[2].ChangeInNetWorkingCapital >= 0 {
		t.Fatalf("Expected alternating NWC changes, got %f / %f", cfs[1].ChangeInNetWorkingCapital, cfs[2].ChangeInNetWorkingCapital)
	}
	warnings := CollectValidations(cfs, nil, ctx, 10)
	if !contains(warnings, ValWorkingCapitalSwings) {
		t.Errorf("Expected %q in %v", ValWorkingCapitalSwings, warnings)
	}

	steady := []model.ForecastPeriod{
		{YearOffset: 1, Revenue: 100, EBITMargin: 20},
		{YearOffset: 2, Revenue: 110, EBITMargin: 20},
		{YearOffset: 3, Revenue: 120, EBITMargin: 20},
	}
	warnings = CollectValidations(DeriveCashflows(steady, ctx), nil, ctx, 10)
	if contains(warnings, ValWorkingCapitalSwings) {
		t.Errorf("Did not expect swing warning for steady growth, got %v", warnings)
	}
}

func TestValidationNonFinite(t *testing.T) {
	ctx := simpleContext()
	forecast := []model.ForecastPeriod{
		{YearOffset: 1, Revenue: 100, EBITMargin: 20},
		{YearOffset: 2, Revenue: math.Inf(1), EBITMargin: 20},
	}
	warnings := CollectValidations(DeriveCashflows(forecast, ctx), nil, ctx, 10)
	if !contains(warnings, ValNonFinite) {
		t.Errorf("Expected %q in %v", ValNonFinite, warnings)
	}
}

func TestNonFiniteTotalsFlagged(t *testing.T) {
	state := model.DefaultState(2025)
	out := ComputeValuation(state.Forecast, state.Context, ComputeOptions{DiscountRate: model.Float(-100)})
	if isFinite(out.EnterpriseValue) {
		t.Fatalf("Expected non-finite EV at -100%%, got %f", out.EnterpriseValue)
	}
	if !contains(out.Validations, ValNonFinite) {
		t.Errorf("Expected %q in %v", ValNonFinite, out.Validations)
	}

	warnings := FlagNonFiniteTotals([]string{ValNonFinite}, math.NaN())
	if len(warnings) != 1 {
		t.Errorf("Expected the warning once, got %v", warnings)
	}
	if got := FlagNonFiniteTotals(nil, 1, 2); len(got) != 0 {
		t.Errorf("Expected no warnings for finite totals, got %v", got)
	}
}

func TestScenarioOverlay(t *testing.T) {
	state := model.DefaultState(2025)
	bull := state.Context.Scenarios[1]

	forecast, ctx := ApplyScenario(state.Forecast, state.Context, &bull)
	// Base growth 12% + 2% on the previous original revenue
	if math.Abs(forecast[1].Revenue-570) > 1e-9 {
		t.Errorf("Expected revenue 570, got %f", forecast[1].Revenue)
	}
	if forecast[0].Revenue != 500 || forecast[0].EBITMargin != 19 {
		t.Errorf("Expected first period 500 @ 19%%, got %+v", forecast[0])
	}
	if *ctx.DiscountRate != 8.5 || ctx.TerminalValue.ExitMultiple.Multiple != 12 {
		t.Errorf("Expected rate 8.5 and multiple 12, got %f / %f", *ctx.DiscountRate, ctx.TerminalValue.ExitMultiple.Multiple)
	}

	// Inputs are untouched
	if state.Forecast[1].Revenue != 560 || *state.Context.DiscountRate != 9 || state.Context.TerminalValue.ExitMultiple.Multiple != 11 {
		t.Error("ApplyScenario modified its inputs")
	}
}

func TestScenarioDiscountDeltaWithoutContextRate(t *testing.T) {
	state := model.DefaultState(2025)
	state.Context.DiscountRate = nil
	bear := state.Context.Scenarios[2]
	_, ctx := ApplyScenario(state.Forecast, state.Context, &bear)
	want := CalculateWACC(state.Context.WACC).WACC + 0.75
	if ctx.DiscountRate == nil || math.Abs(*ctx.DiscountRate-want) > 1e-12 {
		t.Errorf("Expected WACC + 0.75 = %f, got %v", want, ctx.DiscountRate)
	}
}

func TestRunScenarios(t *testing.T) {
	state := model.DefaultState(2025)
	rows := RunScenarios(state, ComputeOptions{Now: fixedClock})
	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(rows))
	}
	if rows[0].ScenarioID != "" || rows[1].Label != "Base" {
		t.Errorf("Unexpected row order %+v", rows)
	}
	// Base scenario has no adjustments
	if math.Abs(rows[0].EnterpriseValue-rows[1].EnterpriseValue) > 1e-9 {
		t.Errorf("Expected base scenario to match configured case")
	}
	if rows[2].EnterpriseValue <= rows[3].EnterpriseValue {
		t.Errorf("Expected bull EV > bear EV, got %f <= %f", rows[2].EnterpriseValue, rows[3].EnterpriseValue)
	}
}

func TestBuildEnginePayload(t *testing.T) {
	state := model.DefaultState(2020)
	payload, err := BuildEnginePayload(state, "", ComputeOptions{Now: fixedClock})
	if err != nil {
		t.Fatalf("BuildEnginePayload: %v", err)
	}
	in := payload.Input

	if in.AsOfEpochDays != 18262 {
		t.Errorf("Expected as-of 18262, got %f", in.AsOfEpochDays)
	}
	if in.DiscountRateBps != 900 {
		t.Errorf("Expected 900 bps, got %f", in.DiscountRateBps)
	}
	if len(in.Cashflows) != 6 {
		t.Fatalf("Expected 6 cashflows, got %d", len(in.Cashflows))
	}
	// Mid-year: offset 0.5 -> round(182.5) = 183 days
	if in.Cashflows[0].DateEpochDays != 18262+183 {
		t.Errorf("Expected first date %d, got %f", 18262+183, in.Cashflows[0].DateEpochDays)
	}

	val := payload.Valuation
	want := money.FromMillions(val.Cashflows[5].FreeCashFlow).Add(money.FromMillions(val.TerminalValues[0].Value))
	got, err := in.Cashflows[5].Amount.Money()
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	if got != want {
		t.Errorf("Expected last amount %s, got %s", want, got)
	}
	if payload.Scenario == nil || payload.Scenario.Label != "Base" {
		t.Errorf("Expected active Base scenario, got %+v", payload.Scenario)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
