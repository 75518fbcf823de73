// Package money implements the exact currency representation used at every
// valuation boundary: a signed integer count of micro-units.
//
// Arithmetic that stays within whole micro-units is done on the integer
// directly. Anything fractional goes through shopspring/decimal and is rounded
// half-to-even exactly once, when it is converted back into Money.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

// MicrosPerUnit is the number of micro-units in one currency unit.
const MicrosPerUnit = 1_000_000

const microScale = 6

var (
	ErrInvalidMoney = errors.New("invalid money amount")
	ErrOverflow     = errors.New("money amount overflows micro-unit range")
)

// Money is a currency amount expressed in micro-units.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// FromMicros wraps a raw micro-unit count.
func FromMicros(micros int64) Money {
	return Money(micros)
}

// Micros returns the raw micro-unit count.
func (m Money) Micros() int64 {
	return int64(m)
}

// FromMicroString parses the lossless wire form: a base-10 integer count of
// micro-units. Fractions, exponents and empty strings are rejected.
func FromMicroString(s string) (Money, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty micro string", ErrInvalidMoney)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
		}
		return 0, fmt.Errorf("%w: %q is not an integer micro count", ErrInvalidMoney, s)
	}
	return Money(n), nil
}

// MicroString returns the lossless wire form.
func (m Money) MicroString() string {
	return strconv.FormatInt(int64(m), 10)
}

// FromDecimal converts an exact decimal amount in currency units to Money,
// rounding half-to-even to the nearest micro-unit.
func FromDecimal(d decimal.Decimal) (Money, error) {
	micros := d.Shift(microScale).RoundBank(0).BigInt()
	if !micros.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, d.String())
	}
	return Money(micros.Int64()), nil
}

// Decimal returns the exact amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -microScale)
}

// FromNumber converts a floating display value to Money. It is lossy by
// nature; non-finite input maps to zero and out-of-range input saturates.
func FromNumber(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	m, err := FromDecimal(decimal.NewFromFloat(v))
	if err != nil {
		if v < 0 {
			return Money(math.MinInt64)
		}
		return Money(math.MaxInt64)
	}
	return m
}

// Number returns the amount as a float64 in currency units. Display only.
func (m Money) Number() float64 {
	return float64(m) / MicrosPerUnit
}

// FromMillions converts a value expressed in millions of currency units, the
// unit used by forecasts, into Money.
func FromMillions(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	m, err := FromDecimal(decimal.NewFromFloat(v).Shift(6))
	if err != nil {
		if v < 0 {
			return Money(math.MinInt64)
		}
		return Money(math.MaxInt64)
	}
	return m
}

// Millions returns the amount in millions of currency units. Display only.
func (m Money) Millions() float64 {
	return m.Decimal().Shift(-6).InexactFloat64()
}

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }

// Sum adds amounts in micro-units.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// String renders the amount in currency units with full micro precision.
func (m Money) String() string {
	return m.Decimal().StringFixed(microScale)
}

// Format renders the amount for display, e.g. "$1,234.57".
func (m Money) Format(symbol string) string {
	ac := accounting.Accounting{Symbol: symbol, Precision: 2}
	return ac.FormatMoney(m.Number())
}

// FormatMillions renders a value held in millions, e.g. "$1,234.5M".
func FormatMillions(v float64, symbol string) string {
	ac := accounting.Accounting{Symbol: symbol, Precision: 1}
	return ac.FormatMoney(v) + "M"
}

// Wire is the transport shape of Money: a decimal string of integer
// micro-units, never a native floating value.
type Wire struct {
	Micro string `json:"micro" yaml:"micro"`
}

// Wire returns the transport form of m.
func (m Money) Wire() Wire {
	return Wire{Micro: m.MicroString()}
}

// Money parses the transport form.
func (w Wire) Money() (Money, error) {
	return FromMicroString(w.Micro)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Wire())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMoney, err)
	}
	parsed, err := w.Money()
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
