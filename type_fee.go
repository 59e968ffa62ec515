package costbasis

import (
	"encoding/json"
	"fmt"
	"maps"
)

// FeeType categorises a fee.
type FeeType string

// Fee types.
const (
	Commission  FeeType = "commission"
	ExchangeFee FeeType = "exchange"
	Regulatory  FeeType = "regulatory"
	Tax         FeeType = "tax"
	OtherFee    FeeType = "other"
)

// ParseFeeType parses a fee category, the empty string being OtherFee.
func ParseFeeType(s string) (FeeType, error) {
	switch t := FeeType(s); t {
	case Commission, ExchangeFee, Regulatory, Tax, OtherFee:
		return t, nil
	case "":
		return OtherFee, nil
	default:
		return "", fmt.Errorf("unknown fee type: %q", s)
	}
}

// Fee is a charge denominated in its own native currency.
//
// When the fee is applied against an amount in another currency it needs a
// rate converting its native currency into that currency.
type Fee struct {
	kind   FeeType
	native Money
	rate   *ExchangeRate
	meta   map[string]string
}

// NewFee returns a fee of a non negative native amount. rate may be nil.
func NewFee(kind FeeType, native Money, rate *ExchangeRate, meta map[string]string) (Fee, error) {
	if native.IsNegative() {
		return Fee{}, fmt.Errorf("%w: negative amount %s", ErrInvalidFee, native)
	}
	if err := ValidateCurrency(native.Currency()); err != nil {
		return Fee{}, fmt.Errorf("%w: %w", ErrInvalidFee, err)
	}
	if rate != nil {
		r := *rate
		rate = &r
	}
	return Fee{kind: kind, native: native, rate: rate, meta: maps.Clone(meta)}, nil
}

// F returns a commission without rate, it panics on a negative amount.
func F(native Money) Fee {
	f, err := NewFee(Commission, native, nil, nil)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Fee) Type() FeeType           { return f.kind }
func (f Fee) Native() Money           { return f.native }
func (f Fee) Meta() map[string]string { return maps.Clone(f.meta) }

// Rate returns the conversion rate of the fee, if any.
func (f Fee) Rate() (ExchangeRate, bool) {
	if f.rate == nil {
		return ExchangeRate{}, false
	}
	return *f.rate, true
}

// In returns the fee expressed in currency.
func (f Fee) In(currency string) (Money, error) {
	if f.native.cur == currency {
		return f.native, nil
	}
	if f.rate == nil {
		return Money{}, fmt.Errorf("%w: %s fee of %s applied in %s", ErrMissingExchangeRate, f.kind, f.native, currency)
	}
	if f.rate.from != f.native.cur || f.rate.to != currency {
		return Money{}, fmt.Errorf("%w: %s fee of %s applied in %s has rate %s", ErrMissingExchangeRate, f.kind, f.native, currency, f.rate.Pair())
	}
	return f.rate.ConvertForward(f.native)
}

// ApplyAgainst subtracts the fee from base.
func (f Fee) ApplyAgainst(base Money) (Money, error) {
	amount, err := f.In(base.cur)
	if err != nil {
		return Money{}, err
	}
	return base.Sub(amount)
}

func (f Fee) Equal(o Fee) bool {
	if f.kind != o.kind || !f.native.Equal(o.native) || !maps.Equal(f.meta, o.meta) {
		return false
	}
	if f.rate == nil || o.rate == nil {
		return f.rate == nil && o.rate == nil
	}
	return f.rate.Equal(*o.rate)
}

func (f Fee) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	w.Append("type", f.kind)
	w.Append("amount", f.native)
	if f.rate != nil {
		w.Append("rate", *f.rate)
	}
	w.Optional("meta", f.meta)
	return w.MarshalJSON()
}

func (f *Fee) UnmarshalJSON(data []byte) error {
	var v struct {
		Type   string            `json:"type"`
		Amount Money             `json:"amount"`
		Rate   *ExchangeRate     `json:"rate"`
		Meta   map[string]string `json:"meta"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	kind, err := ParseFeeType(v.Type)
	if err != nil {
		return err
	}
	n, err := NewFee(kind, v.Amount, v.Rate, v.Meta)
	if err != nil {
		return err
	}
	*f = n
	return nil
}

// Fees is a collection of fees charged together.
type Fees []Fee

// ApplyAgainst subtracts every fee from base, in order.
func (fs Fees) ApplyAgainst(base Money) (Money, error) {
	var err error
	for _, f := range fs {
		if base, err = f.ApplyAgainst(base); err != nil {
			return Money{}, err
		}
	}
	return base, nil
}

// Total returns the sum of the fees in currency.
func (fs Fees) Total(currency string) (Money, error) {
	if err := ValidateCurrency(currency); err != nil {
		return Money{}, err
	}
	rest, err := fs.ApplyAgainst(Money{cur: currency})
	if err != nil {
		return Money{}, err
	}
	return rest.Neg(), nil
}

func (fs Fees) Equal(o Fees) bool {
	if len(fs) != len(o) {
		return false
	}
	for i := range fs {
		if !fs[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
