package costbasis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is an amount of money per unit of an asset.
//
// Unlike Money it is not rescaled: quotes and dividends per share routinely
// carry more digits than the currency.
type Price struct {
	value decimal.Decimal
	cur   string
}

// NewPrice returns a per-unit price in a known currency.
func NewPrice(value decimal.Decimal, currency string) (Price, error) {
	c, err := currencyInfo(currency)
	if err != nil {
		return Price{}, err
	}
	return Price{value: value, cur: c.Code}, nil
}

// P is like NewPrice for any numeric value but panics on an unknown currency.
func P[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Price {
	p, err := NewPrice(newDecimal(value), currency)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrice parses "<amount> <currency>".
func ParsePrice(s string) (Price, error) {
	amount, cur, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Price{}, fmt.Errorf("invalid price %q want format \"<amount> <currency>\"", s)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price amount %q: %w", amount, err)
	}
	return NewPrice(d, strings.ToUpper(strings.TrimSpace(cur)))
}

func (p Price) Currency() string         { return p.cur }
func (p Price) Decimal() decimal.Decimal { return p.value }
func (p Price) IsPositive() bool         { return p.value.IsPositive() }
func (p Price) IsZero() bool             { return p.value.IsZero() }
func (p Price) Equal(o Price) bool       { return p.cur == o.cur && p.value.Equal(o.value) }
func (p Price) String() string           { return p.value.String() + " " + p.cur }

// Total returns the money value of q units at this price.
func (p Price) Total(q Quantity) Money {
	return Money{cur: p.cur}.rescale(p.value.Mul(q.value))
}

// Sub returns the per-unit difference p-o.
func (p Price) Sub(o Price) (Price, error) {
	if p.cur != o.cur {
		return Price{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, p.cur, o.cur)
	}
	return Price{value: p.value.Sub(o.value), cur: p.cur}, nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	w.Append("amount", json.RawMessage(p.value.String()))
	w.Append("currency", p.cur)
	return w.MarshalJSON()
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n, err := NewPrice(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*p = n
	return nil
}
