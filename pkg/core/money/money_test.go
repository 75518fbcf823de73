package money

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromNumberRoundTrip(t *testing.T) {
	values := []float64{123.456789, -120, 0, 0.000001, 987654321.123456}
	for _, v := range values {
		got := FromNumber(v).Number()
		if math.Abs(got-v) > 1e-6 {
			t.Errorf("round trip %v: got %v", v, got)
		}
	}
}

func TestFromMicroString(t *testing.T) {
	m, err := FromMicroString("-120000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != -120*MicrosPerUnit {
		t.Errorf("expected -120 units, got %s", m)
	}
	if m.MicroString() != "-120000000" {
		t.Errorf("micro string mismatch: %s", m.MicroString())
	}
}

func TestFromMicroStringRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "1.5", "1e6", "12 ", "0x10"} {
		if _, err := FromMicroString(s); !errors.Is(err, ErrInvalidMoney) {
			t.Errorf("%q: expected ErrInvalidMoney, got %v", s, err)
		}
	}
	if _, err := FromMicroString("99999999999999999999999"); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestFromDecimalRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0.0000005", 0},
		{"0.0000015", 2},
		{"0.0000025", 2},
		{"-0.0000015", -2},
		{"1.2345674", 1234567},
	}
	for _, c := range cases {
		got, err := FromDecimal(decimal.RequireFromString(c.in))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.in, err)
		}
		if got.Micros() != c.want {
			t.Errorf("%s: got %d micros, want %d", c.in, got.Micros(), c.want)
		}
	}
}

func TestFromMillions(t *testing.T) {
	m := FromMillions(1.25)
	if m.Micros() != 1_250_000*MicrosPerUnit {
		t.Errorf("got %d micros", m.Micros())
	}
	if m.Millions() != 1.25 {
		t.Errorf("millions mismatch: %v", m.Millions())
	}
}

func TestFromNumberNonFinite(t *testing.T) {
	if FromNumber(math.NaN()) != 0 {
		t.Error("NaN should map to zero")
	}
	if FromNumber(math.Inf(1)) != 0 {
		t.Error("+Inf should map to zero")
	}
}

func TestJSONWireShape(t *testing.T) {
	data, err := json.Marshal(FromMicros(80_000_000))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"micro":"80000000"}` {
		t.Errorf("unexpected wire form %s", data)
	}

	var m Money
	if err := json.Unmarshal([]byte(`{"micro":"not-a-number"}`), &m); !errors.Is(err, ErrInvalidMoney) {
		t.Errorf("expected ErrInvalidMoney, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	if got := FromNumber(1234.567).Format("$"); got != "$1,234.57" {
		t.Errorf("Format: got %q", got)
	}
	if got := FormatMillions(1234.56, "$"); got != "$1,234.6M" {
		t.Errorf("FormatMillions: got %q", got)
	}
}
