// Package engine defines the NPV/IRR kernel contract shared by every numeric
// backend, together with the validation and normalization that each backend
// must run before doing any arithmetic.
//
// Backends live in sub-packages (exact, fast). Choosing between them is the
// loader's job; nothing in the valuation pipeline depends on which one answers.
package engine

import (
	"context"

	"dcf_builder/pkg/core/money"
)

// Compounding selects how often the discount rate compounds per year.
type Compounding string

const (
	CompoundingAnnual  Compounding = "annual"
	CompoundingMonthly Compounding = "monthly"
)

// Frequency returns periods per year. Unknown values compound annually.
func (c Compounding) Frequency() int {
	if c == CompoundingMonthly {
		return 12
	}
	return 1
}

const (
	// BpsDenominator converts basis points to a fraction.
	BpsDenominator = 10_000
	// DaysPerYear is the day-count basis for period fractions.
	DaysPerYear = 365

	// IRR search bracket, in basis points: -99.99% .. +1000%.
	MinRateBps = -9_999
	MaxRateBps = 100_000
	// MaxIterations caps the bisection loop.
	MaxIterations = 128
	// Tolerance is the |NPV| (currency units) accepted as a root.
	Tolerance = 1e-7
)

// Cashflow is one dated amount. Dates are whole days since the Unix epoch;
// they are carried as float64 so non-integer input can be rejected by
// validation rather than by the decoder.
type Cashflow struct {
	DateEpochDays float64    `json:"dateEpochDays"`
	Amount        money.Wire `json:"amount"`
}

// Input is the normalized request shape accepted by every engine.
type Input struct {
	Cashflows       []Cashflow  `json:"cashflows"`
	DiscountRateBps float64     `json:"discountRateBps"`
	Compounding     Compounding `json:"compounding"`
	AsOfEpochDays   float64     `json:"asOfEpochDays"`
}

// Output is the NPV result. IRRBps is nil when no root is bracketed.
type Output struct {
	NPV    money.Wire `json:"npv"`
	IRRBps *int       `json:"irrBps,omitempty"`
}

// Engine is the capability every numeric backend exposes. Implementations are
// stateless and safe for concurrent use. Both methods validate the input
// before computing and return a *ValidationError on malformed input.
type Engine interface {
	Name() string
	NPV(ctx context.Context, input Input) (Output, error)
	IRR(ctx context.Context, input Input) (int, error)
}
