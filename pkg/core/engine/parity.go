package engine

import (
	"context"
	"errors"
	"fmt"

	"dcf_builder/pkg/core/money"
)

// Parity tolerances between any two backends for identical input.
const (
	ParityNPVToleranceMicros = money.MicrosPerUnit / 100 // one cent-equivalent
	ParityIRRToleranceBps    = 5
)

// ParityReport compares two engines on one input.
type ParityReport struct {
	Index       int         `json:"index"`
	NPVA        money.Money `json:"npvA"`
	NPVB        money.Money `json:"npvB"`
	NPVDelta    money.Money `json:"npvDelta"`
	IRRA        *int        `json:"irrA,omitempty"`
	IRRB        *int        `json:"irrB,omitempty"`
	IRRDeltaBps int         `json:"irrDeltaBps"`
	NPVAgrees   bool        `json:"npvAgrees"`
	IRRAgrees   bool        `json:"irrAgrees"`
}

// OK reports whether both NPV and IRR are within tolerance.
func (r ParityReport) OK() bool {
	return r.NPVAgrees && r.IRRAgrees
}

// CheckParity runs a and b on every input and reports how far apart they are.
// Errors other than ErrRootNotBracketed abort the check.
func CheckParity(ctx context.Context, a, b Engine, inputs []Input) ([]ParityReport, error) {
	reports := make([]ParityReport, 0, len(inputs))
	for i, input := range inputs {
		outA, err := a.NPV(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("%s npv on input %d: %w", a.Name(), i, err)
		}
		outB, err := b.NPV(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("%s npv on input %d: %w", b.Name(), i, err)
		}
		npvA, err := outA.NPV.Money()
		if err != nil {
			return nil, fmt.Errorf("%s npv on input %d: %w", a.Name(), i, err)
		}
		npvB, err := outB.NPV.Money()
		if err != nil {
			return nil, fmt.Errorf("%s npv on input %d: %w", b.Name(), i, err)
		}

		irrA, err := irrOrNil(ctx, a, input)
		if err != nil {
			return nil, fmt.Errorf("%s irr on input %d: %w", a.Name(), i, err)
		}
		irrB, err := irrOrNil(ctx, b, input)
		if err != nil {
			return nil, fmt.Errorf("%s irr on input %d: %w", b.Name(), i, err)
		}

		delta := npvA.Sub(npvB)
		if delta < 0 {
			delta = -delta
		}
		report := ParityReport{
			Index:     i,
			NPVA:      npvA,
			NPVB:      npvB,
			NPVDelta:  delta,
			IRRA:      irrA,
			IRRB:      irrB,
			NPVAgrees: delta.Micros() < ParityNPVToleranceMicros,
		}
		switch {
		case irrA == nil && irrB == nil:
			report.IRRAgrees = true
		case irrA != nil && irrB != nil:
			report.IRRDeltaBps = abs(*irrA - *irrB)
			report.IRRAgrees = report.IRRDeltaBps < ParityIRRToleranceBps
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func irrOrNil(ctx context.Context, e Engine, input Input) (*int, error) {
	bps, err := e.IRR(ctx, input)
	if errors.Is(err, ErrRootNotBracketed) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bps, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SampleInputs is a small fixed set of representative inputs: an annual
// project and a monthly one. Used for parity checks and backend self-tests.
func SampleInputs() []Input {
	units := func(v float64) money.Wire { return money.FromNumber(v).Wire() }
	return []Input{
		{
			AsOfEpochDays:   18_250,
			Compounding:     CompoundingAnnual,
			DiscountRateBps: 750,
			Cashflows: []Cashflow{
				{DateEpochDays: 18_250, Amount: units(-120)},
				{DateEpochDays: 18_615, Amount: units(80)},
				{DateEpochDays: 18_980, Amount: units(80)},
			},
		},
		{
			AsOfEpochDays:   19_000,
			Compounding:     CompoundingMonthly,
			DiscountRateBps: 400,
			Cashflows: []Cashflow{
				{DateEpochDays: 19_000, Amount: units(-500)},
				{DateEpochDays: 19_031, Amount: units(60)},
				{DateEpochDays: 19_061, Amount: units(60)},
				{DateEpochDays: 19_092, Amount: units(60)},
				{DateEpochDays: 19_122, Amount: units(60)},
				{DateEpochDays: 19_153, Amount: units(60)},
				{DateEpochDays: 19_184, Amount: units(260)},
			},
		},
	}
}
