// Package fast is the accelerated NPV/IRR backend. Period counts and discount
// factors are computed in float64; amounts are divided and accumulated in
// decimal so the money result keeps its micro precision.
package fast

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"dcf_builder/pkg/core/engine"
	"dcf_builder/pkg/core/money"
)

const divPrecision int32 = 28

var tolerance = decimal.NewFromFloat(engine.Tolerance)

// Engine is the float-accelerated backend.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string { return "fast" }

// schedule is a prepared input: periods per cashflow and exact amounts.
type schedule struct {
	periods   []float64
	amounts   []decimal.Decimal
	frequency float64
}

func newSchedule(n engine.Normalized) schedule {
	s := schedule{
		periods:   make([]float64, len(n.Cashflows)),
		amounts:   make([]decimal.Decimal, len(n.Cashflows)),
		frequency: float64(n.Frequency),
	}
	for i, cf := range n.Cashflows {
		delta := float64(cf.EpochDays - n.AsOfEpochDays)
		s.periods[i] = delta * s.frequency / engine.DaysPerYear
		s.amounts[i] = cf.Amount.Decimal()
	}
	return s
}

func (s schedule) npvAt(rate float64) (decimal.Decimal, error) {
	base := 1 + rate/s.frequency
	if !(base > 0) {
		return decimal.Zero, &engine.ValidationError{
			Field:  "discountRateBps",
			Reason: fmt.Sprintf("rate %g leaves no positive compounding base", rate),
		}
	}
	total := decimal.Zero
	for i, p := range s.periods {
		factor := math.Pow(base, p)
		if math.IsInf(factor, 0) || math.IsNaN(factor) || factor == 0 {
			return decimal.Zero, fmt.Errorf("discount factor overflow at period %g", p)
		}
		total = total.Add(s.amounts[i].DivRound(decimal.NewFromFloat(factor), divPrecision))
	}
	return total, nil
}

func (e *Engine) NPV(ctx context.Context, input engine.Input) (engine.Output, error) {
	n, err := engine.Prepare(input)
	if err != nil {
		return engine.Output{}, err
	}
	if err := ctx.Err(); err != nil {
		return engine.Output{}, err
	}
	s := newSchedule(n)

	total, err := s.npvAt(n.DiscountRateBps / engine.BpsDenominator)
	if err != nil {
		return engine.Output{}, err
	}
	m, err := money.FromDecimal(total)
	if err != nil {
		return engine.Output{}, err
	}

	out := engine.Output{NPV: m.Wire()}
	irr, err := s.solve(ctx)
	switch {
	case err == nil:
		out.IRRBps = &irr
	case errors.Is(err, engine.ErrRootNotBracketed):
	default:
		return engine.Output{}, err
	}
	return out, nil
}

func (e *Engine) IRR(ctx context.Context, input engine.Input) (int, error) {
	n, err := engine.Prepare(input)
	if err != nil {
		return 0, err
	}
	return newSchedule(n).solve(ctx)
}

func (s schedule) solve(ctx context.Context) (int, error) {
	low := float64(engine.MinRateBps) / engine.BpsDenominator
	high := float64(engine.MaxRateBps) / engine.BpsDenominator

	npvLow, err := s.npvAt(low)
	if err != nil {
		return 0, err
	}
	npvHigh, err := s.npvAt(high)
	if err != nil {
		return 0, err
	}
	if npvLow.IsZero() {
		return toBps(low), nil
	}
	if npvHigh.IsZero() {
		return toBps(high), nil
	}
	if npvLow.IsPositive() == npvHigh.IsPositive() {
		return 0, engine.ErrRootNotBracketed
	}

	for i := 0; i < engine.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		mid := (low + high) / 2
		npvMid, err := s.npvAt(mid)
		if err != nil {
			return 0, err
		}
		if npvMid.Abs().LessThan(tolerance) {
			return toBps(mid), nil
		}
		if npvMid.IsPositive() == npvLow.IsPositive() {
			low, npvLow = mid, npvMid
		} else {
			high = mid
		}
	}
	return toBps((low + high) / 2), nil
}

func toBps(rate float64) int {
	return engine.RateToBps(decimal.NewFromFloat(rate))
}
