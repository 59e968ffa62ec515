package costbasis

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewMoney_Rescale(t *testing.T) {
	tests := []struct {
		value    string
		currency string
		want     string
	}{
		{"1.005", "USD", "1"},
		{"1.015", "USD", "1.02"},
		{"1.025", "USD", "1.02"},
		{"-1.025", "USD", "-1.02"},
		{"100.5", "JPY", "100"},
		{"101.5", "JPY", "102"},
		{"1.0005", "BHD", "1"},
		{"12.3", "EUR", "12.3"},
	}
	for _, tt := range tests {
		t.Run(tt.value+" "+tt.currency, func(t *testing.T) {
			m, err := NewMoney(decimal.RequireFromString(tt.value), tt.currency)
			if err != nil {
				t.Fatalf("NewMoney() unexpected error: %v", err)
			}
			if want := decimal.RequireFromString(tt.want); !m.Decimal().Equal(want) {
				t.Errorf("NewMoney(%s, %s) = %s, want %s", tt.value, tt.currency, m.Decimal(), want)
			}
		})
	}
}

func TestNewMoney_InvalidCurrency(t *testing.T) {
	if _, err := NewMoney(decimal.NewFromInt(1), "XXQ"); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("NewMoney() error = %v, want %v", err, ErrInvalidCurrency)
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	sum, err := USD(1.10).Add(USD(2.25))
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if !sum.Equal(USD(3.35)) {
		t.Errorf("Add() = %v, want %v", sum, USD(3.35))
	}

	diff, err := USD(1.10).Sub(USD(2.25))
	if err != nil {
		t.Fatalf("Sub() unexpected error: %v", err)
	}
	if !diff.Equal(USD(-1.15)) {
		t.Errorf("Sub() = %v, want %v", diff, USD(-1.15))
	}

	if got := USD(10).Mul(decimal.RequireFromString("0.3333")); !got.Equal(USD(3.33)) {
		t.Errorf("Mul() = %v, want %v", got, USD(3.33))
	}

	if _, err := USD(1).Add(EUR(1)); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Add() error = %v, want %v", err, ErrCurrencyMismatch)
	}
	if _, err := USD(1).Sub(EUR(1)); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Sub() error = %v, want %v", err, ErrCurrencyMismatch)
	}
	if _, err := USD(1).Cmp(EUR(1)); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Cmp() error = %v, want %v", err, ErrCurrencyMismatch)
	}

	if c, err := USD(1).Cmp(USD(2)); err != nil || c != -1 {
		t.Errorf("Cmp() = %d, %v, want -1, nil", c, err)
	}

	if got := USD(-3.5).Abs(); !got.Equal(USD(3.5)) {
		t.Errorf("Abs() = %v, want %v", got, USD(3.5))
	}
}

func TestMoney_Div(t *testing.T) {
	tests := []struct {
		name    string
		m       Money
		divisor int64
		want    Money
	}{
		{"thirds", USD(10), 3, USD(3.33)},
		{"half to even down", USD(0.05), 2, USD(0.02)},
		{"half to even up", USD(0.07), 2, USD(0.04)},
		{"negative half to even", USD(-0.07), 2, USD(-0.04)},
		{"exact", EUR(1000), 10, EUR(100)},
		{"above half", USD(2), 3, USD(0.67)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.m.Div(decimal.NewFromInt(tt.divisor))
			if err != nil {
				t.Fatalf("Div() unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("%v.Div(%d) = %v, want %v", tt.m, tt.divisor, got.Decimal(), tt.want.Decimal())
			}
		})
	}

	if _, err := USD(1).Div(decimal.Zero); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("Div(0) error = %v, want %v", err, ErrDivisionByZero)
	}
}

func TestParseMoney(t *testing.T) {
	got, err := ParseMoney("12.345 eur")
	if err != nil {
		t.Fatalf("ParseMoney() unexpected error: %v", err)
	}
	if !got.Equal(EUR(12.34)) {
		t.Errorf("ParseMoney() = %v, want %v", got.Decimal(), EUR(12.34).Decimal())
	}
	for _, s := range []string{"12.3", "abc EUR", "12 XXQ"} {
		if _, err := ParseMoney(s); err == nil {
			t.Errorf("ParseMoney(%q) expected an error", s)
		}
	}
}

func TestMoney_String(t *testing.T) {
	if got := USD(1234.5).String(); !strings.Contains(got, "1,234.50") {
		t.Errorf("String() = %q, want it to contain %q", got, "1,234.50")
	}
	if got := USD(0).SignedString(); got != "-" {
		t.Errorf("SignedString() = %q, want %q", got, "-")
	}
	if got := USD(2).SignedString(); !strings.HasPrefix(got, "+") {
		t.Errorf("SignedString() = %q, want a leading '+'", got)
	}
}

func TestMoney_JSON(t *testing.T) {
	data, err := EUR(12.3).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() unexpected error: %v", err)
	}
	if want := `{"amount":12.30,"currency":"EUR"}`; string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}

	var m Money
	if err := m.UnmarshalJSON([]byte(`{"amount":1.005,"currency":"USD"}`)); err != nil {
		t.Fatalf("UnmarshalJSON() unexpected error: %v", err)
	}
	if !m.Equal(USD(1)) {
		t.Errorf("UnmarshalJSON() = %v, want %v", m.Decimal(), USD(1).Decimal())
	}
}

func TestPrice_Total(t *testing.T) {
	p := P(35.32, "USD")
	if got := p.Total(Q(100)); !got.Equal(USD(3532)) {
		t.Errorf("Total() = %v, want %v", got, USD(3532))
	}
	// prices keep their digits, only the total is rounded.
	p = P(decimal.RequireFromString("0.125"), "USD")
	if got := p.Total(Q(3)); !got.Equal(USD(0.38)) {
		t.Errorf("Total() = %v, want %v", got.Decimal(), USD(0.38).Decimal())
	}
	if got := p.Total(Q(1)); !got.Equal(USD(0.12)) {
		t.Errorf("Total() = %v, want %v", got.Decimal(), USD(0.12).Decimal())
	}
}
