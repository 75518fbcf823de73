// Package exact is the reference NPV/IRR backend. Every step, including the
// fractional powers behind discount factors and the bisection midpoints, runs
// on shopspring/decimal.
package exact

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"dcf_builder/pkg/core/engine"
	"dcf_builder/pkg/core/money"
)

const (
	// digits kept after the decimal point for quotients and powers
	divPrecision int32 = 28
	powPrecision int32 = 30
	ratePlaces   int32 = 30
)

var (
	one       = decimal.NewFromInt(1)
	half      = decimal.New(5, -1)
	tolerance = decimal.NewFromFloat(engine.Tolerance)
	minRate   = decimal.New(engine.MinRateBps, -4)
	maxRate   = decimal.New(engine.MaxRateBps, -4)
)

// Engine is the portable reference implementation.
type Engine struct{}

// New returns the reference engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string { return "exact" }

// NPV discounts every cashflow at the input rate and also reports the IRR
// when one is bracketed.
func (e *Engine) NPV(ctx context.Context, input engine.Input) (engine.Output, error) {
	n, err := engine.Prepare(input)
	if err != nil {
		return engine.Output{}, err
	}
	if err := ctx.Err(); err != nil {
		return engine.Output{}, err
	}

	total, err := npvAt(n, n.Rate())
	if err != nil {
		return engine.Output{}, err
	}
	m, err := money.FromDecimal(total)
	if err != nil {
		return engine.Output{}, err
	}

	out := engine.Output{NPV: m.Wire()}
	irr, err := solveIRR(ctx, n)
	switch {
	case err == nil:
		out.IRRBps = &irr
	case errors.Is(err, engine.ErrRootNotBracketed):
	default:
		return engine.Output{}, err
	}
	return out, nil
}

// IRR solves for the rate at which NPV is zero.
func (e *Engine) IRR(ctx context.Context, input engine.Input) (int, error) {
	n, err := engine.Prepare(input)
	if err != nil {
		return 0, err
	}
	return solveIRR(ctx, n)
}

func npvAt(n engine.Normalized, rate decimal.Decimal) (decimal.Decimal, error) {
	freq := decimal.NewFromInt(int64(n.Frequency))
	base := one.Add(rate.DivRound(freq, divPrecision))
	if !base.IsPositive() {
		return decimal.Zero, &engine.ValidationError{
			Field:  "discountRateBps",
			Reason: fmt.Sprintf("rate %s leaves no positive compounding base", rate.String()),
		}
	}

	total := decimal.Zero
	for _, cf := range n.Cashflows {
		factor, err := base.PowWithPrecision(n.Periods(cf), powPrecision)
		if err != nil {
			return decimal.Zero, fmt.Errorf("discount factor: %w", err)
		}
		if factor.IsZero() {
			return decimal.Zero, fmt.Errorf("discount factor underflow at day %d", cf.EpochDays)
		}
		total = total.Add(cf.Amount.Decimal().DivRound(factor, divPrecision))
	}
	return total, nil
}

func solveIRR(ctx context.Context, n engine.Normalized) (int, error) {
	low, high := minRate, maxRate
	npvLow, err := npvAt(n, low)
	if err != nil {
		return 0, err
	}
	npvHigh, err := npvAt(n, high)
	if err != nil {
		return 0, err
	}

	if npvLow.IsZero() {
		return engine.RateToBps(low), nil
	}
	if npvHigh.IsZero() {
		return engine.RateToBps(high), nil
	}
	if npvLow.IsPositive() == npvHigh.IsPositive() {
		return 0, engine.ErrRootNotBracketed
	}

	for i := 0; i < engine.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		mid := low.Add(high).Mul(half).Round(ratePlaces)
		npvMid, err := npvAt(n, mid)
		if err != nil {
			return 0, err
		}
		if npvMid.Abs().LessThan(tolerance) {
			return engine.RateToBps(mid), nil
		}
		if npvMid.IsPositive() == npvLow.IsPositive() {
			low, npvLow = mid, npvMid
		} else {
			high = mid
		}
	}
	return engine.RateToBps(low.Add(high).Mul(half)), nil
}
