package valuation

import (
	"math"

	"dcf_builder/pkg/core/model"
)

type taxOutcome struct {
	bookTaxes  float64
	cashTaxes  float64
	updatedNOL float64
}

// applyTaxRules offsets taxable income with the NOL balance (subject to the
// annual usage cap) and adds any loss to it.
func applyTaxRules(taxableIncome float64, tax model.TaxSettings, nolBalance float64) taxOutcome {
	statutory := tax.StatutoryRate / 100
	cashRate := tax.CashTaxRate / 100
	remaining := taxableIncome
	nol := nolBalance
	nolUsed := 0.0

	if remaining > 0 && nol > 0 {
		limit := nol
		if tax.NOLAnnualUsageCap != nil {
			limit = math.Min(*tax.NOLAnnualUsageCap, nol)
		}
		offset := math.Min(limit, remaining)
		remaining -= offset
		nol -= offset
		nolUsed = offset
	}

	if remaining < 0 {
		nol += math.Abs(remaining)
		remaining = 0
	}

	deferred := 0.0
	if tax.DeferredTaxRate != nil {
		deferred = *tax.DeferredTaxRate / 100
	}

	return taxOutcome{
		bookTaxes:  math.Max(remaining*statutory, 0),
		cashTaxes:  math.Max((remaining+nolUsed*deferred)*cashRate, 0),
		updatedNOL: nol,
	}
}
