package costbasis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents an exact monetary value in a given currency.
//
// The value is always held at the currency's canonical number of fractional
// digits, every operation rounds half-to-even back to that scale.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// currencyInfo returns the go-money definition of an ISO-4217 code.
func currencyInfo(code string) (*money.Currency, error) {
	c := money.GetCurrency(code)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}

// ValidateCurrency checks that code is a known ISO-4217 currency.
func ValidateCurrency(code string) error {
	_, err := currencyInfo(code)
	return err
}

// fraction returns the number of fractional digits of a currency.
func fraction(code string) int32 {
	c := money.GetCurrency(code)
	if c == nil {
		return 0
	}
	return int32(c.Fraction)
}

// NewMoney returns value in currency, rescaled half-to-even to the currency's
// fractional digits.
func NewMoney(value decimal.Decimal, currency string) (Money, error) {
	c, err := currencyInfo(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{value: value.RoundBank(int32(c.Fraction)), cur: c.Code}, nil
}

// M is like NewMoney for any numeric value but panics on an unknown currency.
func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	m, err := NewMoney(newDecimal(value), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney parses "<amount> <currency>", for instance "12.30 EUR".
func ParseMoney(s string) (Money, error) {
	amount, cur, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Money{}, fmt.Errorf("invalid money %q want format \"<amount> <currency>\"", s)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", amount, err)
	}
	return NewMoney(d, strings.ToUpper(strings.TrimSpace(cur)))
}

// rescale rounds v half-to-even at the currency scale of m.
func (m Money) rescale(v decimal.Decimal) Money {
	return Money{value: v.RoundBank(fraction(m.cur)), cur: m.cur}
}

func (m Money) Currency() string         { return m.cur }
func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) Neg() Money               { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Abs() Money               { return Money{value: m.value.Abs(), cur: m.cur} }

// Equal reports whether m and n have the same currency and value.
func (m Money) Equal(n Money) bool { return m.cur == n.cur && m.value.Equal(n.value) }

func (m Money) sameCurrency(n Money) error {
	if m.cur != n.cur {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.cur, n.cur)
	}
	return nil
}

// Add returns m+n.
func (m Money) Add(n Money) (Money, error) {
	if err := m.sameCurrency(n); err != nil {
		return Money{}, err
	}
	return m.rescale(m.value.Add(n.value)), nil
}

// Sub returns m-n.
func (m Money) Sub(n Money) (Money, error) {
	if err := m.sameCurrency(n); err != nil {
		return Money{}, err
	}
	return m.rescale(m.value.Sub(n.value)), nil
}

// Cmp compares m and n like decimal.Decimal.Cmp.
func (m Money) Cmp(n Money) (int, error) {
	if err := m.sameCurrency(n); err != nil {
		return 0, err
	}
	return m.value.Cmp(n.value), nil
}

// Mul multiplies by a dimensionless factor.
func (m Money) Mul(factor decimal.Decimal) Money { return m.rescale(m.value.Mul(factor)) }

// Div divides by a dimensionless divisor.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, m)
	}
	return Money{value: divRoundBank(m.value, divisor, fraction(m.cur)), cur: m.cur}, nil
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := money.GetCurrency(m.cur)
	if cur == nil {
		return m.value.String()
	}
	minor := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	w.Append("amount", json.RawMessage(m.value.StringFixed(fraction(m.cur))))
	w.Append("currency", m.cur)
	return w.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n, err := NewMoney(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = n
	return nil
}
