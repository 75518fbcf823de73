package valuation

import "dcf_builder/pkg/core/model"

// ReleverBeta applies the Hamada equation: βL = βU × (1 + (1−t) × D/E).
// taxRatePct is in percent.
func ReleverBeta(unlevered, debtToEquity, taxRatePct float64) float64 {
	return unlevered * (1 + (1-taxRatePct/100)*debtToEquity)
}

// UnleverBeta is the inverse of ReleverBeta.
func UnleverBeta(levered, debtToEquity, taxRatePct float64) float64 {
	return levered / (1 + (1-taxRatePct/100)*debtToEquity)
}

// CalculateWACC computes the Weighted Average Cost of Capital using CAPM with
// size and country premia. All rates are in percent.
func CalculateWACC(in model.WACCInputs) model.WACCBreakdown {
	// 1. Beta: re-lever when an unlevered beta is supplied
	beta := in.BetaLevered
	if in.BetaUnlevered != nil {
		beta = ReleverBeta(*in.BetaUnlevered, in.TargetDebtToEquity, in.TaxRate)
	}

	// 2. Cost of Equity
	// Ke = Rf + β × (ERP + CRP) + size
	ke := in.RiskFreeRate + beta*(in.MarketRiskPremium+in.CountryRiskPremium) + in.SizePremium

	// 3. Cost of Debt (after tax)
	kd := in.CostOfDebtPreTax * (1 - in.TaxRate/100)

	// 4. Weights from target D/E
	// Wd = x / (1+x), We = 1 - Wd
	wd := in.TargetDebtToEquity / (1 + in.TargetDebtToEquity)
	we := 1 - wd

	return model.WACCBreakdown{
		LeveredBeta:        beta,
		CostOfEquity:       ke,
		CostOfDebtAfterTax: kd,
		WeightOfEquity:     we,
		WeightOfDebt:       wd,
		WACC:               ke*we + kd*wd,
	}
}
