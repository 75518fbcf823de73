package valuation

import (
	"math"

	"dcf_builder/pkg/core/model"
)

const daysPerYear = 365

// balances are the running values carried from one period to the next.
type balances struct {
	netWorkingCapital float64
	netPPE            float64
	leaseLiability    float64
	nolBalance        float64
}

func openingBalances(ctx model.ValuationContext) balances {
	return balances{
		netWorkingCapital: ctx.WorkingCapital.OpeningNetWorkingCapital,
		netPPE:            ctx.Capex.OpeningNetPPE,
		leaseLiability:    ctx.Leases.OperatingLeaseLiability,
		nolBalance:        ctx.Tax.NOLOpening,
	}
}

// DeriveCashflows turns a forecast into one free cash flow per period, in
// forecast order, threading working capital, PP&E, lease and NOL balances
// through a single forward pass.
func DeriveCashflows(forecast []model.ForecastPeriod, ctx model.ValuationContext) []model.DerivedCashflow {
	out := make([]model.DerivedCashflow, 0, len(forecast))
	state := openingBalances(ctx)
	for _, period := range forecast {
		var cf model.DerivedCashflow
		cf, state = state.step(period, ctx)
		out = append(out, cf)
	}
	return out
}

// step derives one period and returns the balances after it.
func (b balances) step(period model.ForecastPeriod, ctx model.ValuationContext) (model.DerivedCashflow, balances) {
	ebit := computeEBIT(period)
	depreciation := resolveDepreciation(period, ctx.Capex)
	capex := resolveCapex(period, ctx.Capex)

	workingCapital := resolveWorkingCapital(period, ctx.WorkingCapital)
	changeInNWC := workingCapital - b.netWorkingCapital

	leaseInterest := b.leaseLiability * (ctx.Leases.DiscountRate / 100)
	leaseAmortization := math.Min(math.Max(ctx.Leases.AnnualLeaseExpense-leaseInterest, 0), b.leaseLiability)

	tax := applyTaxRules(ebit-leaseInterest, ctx.Tax, b.nolBalance)

	nopat := ebit - tax.bookTaxes
	fcf := nopat + depreciation - capex - changeInNWC - leaseAmortization

	next := balances{
		netWorkingCapital: workingCapital,
		netPPE:            math.Max(b.netPPE+capex-depreciation, 0),
		leaseLiability:    math.Max(b.leaseLiability-leaseAmortization, 0),
		nolBalance:        tax.updatedNOL,
	}

	return model.DerivedCashflow{
		Period:                    period,
		FreeCashFlow:              fcf,
		EBIT:                      ebit,
		NOPAT:                     nopat,
		ChangeInNetWorkingCapital: changeInNWC,
		Depreciation:              depreciation,
		Capex:                     capex,
		LeaseInterest:             leaseInterest,
		LeaseAmortization:         leaseAmortization,
		TaxPaid:                   tax.cashTaxes,
		EndingNetWorkingCapital:   next.netWorkingCapital,
		EndingNetPPE:              next.netPPE,
		NOLBalance:                next.nolBalance,
	}, next
}

func computeEBIT(p model.ForecastPeriod) float64 {
	ebit := p.Revenue * (p.EBITMargin / 100)
	if p.OtherOperatingIncome != nil {
		ebit += *p.OtherOperatingIncome
	}
	return ebit
}

func resolveDepreciation(p model.ForecastPeriod, capex model.CapexSettings) float64 {
	if p.DepreciationOverride != nil {
		return *p.DepreciationOverride
	}
	return p.Revenue * (capex.DepreciationPctRevenue / 100)
}

func resolveCapex(p model.ForecastPeriod, capex model.CapexSettings) float64 {
	if p.CapexOverride != nil {
		return *p.CapexOverride
	}
	maintenance := p.Revenue * (capex.MaintenanceCapexPctRevenue / 100)
	growth := p.Revenue * (capex.GrowthCapexPctRevenue / 100)
	return maintenance + growth
}

// resolveWorkingCapital returns the period's net working capital level.
// An override is a net level before other current items.
func resolveWorkingCapital(p model.ForecastPeriod, wc model.WorkingCapitalSettings) float64 {
	if p.WorkingCapitalOverride != nil {
		return *p.WorkingCapitalOverride + wc.OtherCurrentAssets - wc.OtherCurrentLiabilities
	}

	revenue := math.Max(p.Revenue, 0)
	cogs := revenue * (1 - p.EBITMargin/100)
	dailyRevenue := revenue / daysPerYear
	dailyCOGS := cogs / daysPerYear

	ar := dailyRevenue * wc.ARDays
	inventory := dailyCOGS * wc.InventoryDays
	ap := dailyCOGS * wc.APDays

	return ar + inventory + wc.OtherCurrentAssets - ap - wc.OtherCurrentLiabilities
}
