package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"dcf_builder/pkg/core/money"
)

// maxEpochDays bounds accepted day counts well inside int64 and far beyond
// any realistic forecast horizon.
const maxEpochDays = 10_000_000

// Dated is a validated cashflow.
type Dated struct {
	EpochDays int64
	Amount    money.Money
}

// Normalized is validated input ready for arithmetic: cashflows sorted by date
// (stable for equal dates), integer day counts and parsed money.
type Normalized struct {
	Cashflows       []Dated
	DiscountRateBps float64
	Frequency       int
	AsOfEpochDays   int64
}

// Validate checks input against the kernel contract without computing
// anything. The first violation is returned as a *ValidationError.
func Validate(input Input) error {
	_, err := Prepare(input)
	return err
}

// Prepare validates and normalizes input. Engines call it before doing any
// arithmetic.
func Prepare(input Input) (Normalized, error) {
	if len(input.Cashflows) == 0 {
		return Normalized{}, invalid("cashflows", "must contain at least one entry")
	}
	if math.IsNaN(input.DiscountRateBps) || math.IsInf(input.DiscountRateBps, 0) {
		return Normalized{}, invalid("discountRateBps", "must be finite")
	}
	asOf, ok := epochDay(input.AsOfEpochDays)
	if !ok {
		return Normalized{}, invalid("asOfEpochDays", "must be an integer epoch-day")
	}

	flows := make([]Dated, 0, len(input.Cashflows))
	for i, cf := range input.Cashflows {
		day, ok := epochDay(cf.DateEpochDays)
		if !ok {
			return Normalized{}, invalid(fmt.Sprintf("cashflows[%d].dateEpochDays", i), "must be an integer epoch-day")
		}
		amount, err := cf.Amount.Money()
		if err != nil {
			return Normalized{}, &ValidationError{
				Field:  fmt.Sprintf("cashflows[%d].amount", i),
				Reason: "invalid cashflow amount",
				Err:    err,
			}
		}
		flows = append(flows, Dated{EpochDays: day, Amount: amount})
	}
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].EpochDays < flows[j].EpochDays
	})

	return Normalized{
		Cashflows:       flows,
		DiscountRateBps: input.DiscountRateBps,
		Frequency:       input.Compounding.Frequency(),
		AsOfEpochDays:   asOf,
	}, nil
}

func epochDay(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
		return 0, false
	}
	if math.Abs(v) > maxEpochDays {
		return 0, false
	}
	return int64(v), true
}

// Periods returns the exact number of compounding periods between the as-of
// date and the cashflow date: Δdays ÷ (365 ÷ frequency).
func (n Normalized) Periods(cf Dated) decimal.Decimal {
	delta := decimal.NewFromInt(cf.EpochDays - n.AsOfEpochDays)
	return delta.Mul(decimal.NewFromInt(int64(n.Frequency))).DivRound(decimal.NewFromInt(DaysPerYear), 24)
}

// Rate returns the annual discount rate as an exact fraction.
func (n Normalized) Rate() decimal.Decimal {
	return decimal.NewFromFloat(n.DiscountRateBps).Div(decimal.NewFromInt(BpsDenominator))
}

// RateToBps converts a fractional rate to whole basis points, rounding
// half-to-even.
func RateToBps(rate decimal.Decimal) int {
	return int(rate.Shift(4).RoundBank(0).IntPart())
}
