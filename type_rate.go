package costbasis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// timeFormat is the format used to persist and display instants.
const timeFormat = time.RFC3339

// ExchangeRate converts money from one currency into another, as observed at
// a given instant.
//
// It is directional: ConvertForward multiplies an amount in From by the rate,
// ConvertBackward divides an amount in To by the rate. There is no rate
// between a currency and itself, same currency amounts must bypass
// conversion altogether.
type ExchangeRate struct {
	from, to string
	rate     decimal.Decimal
	asOf     time.Time
}

// NewExchangeRate returns the rate such that 1 unit of from is worth rate units of to.
func NewExchangeRate(from, to string, rate decimal.Decimal, asOf time.Time) (ExchangeRate, error) {
	if err := ValidateCurrency(from); err != nil {
		return ExchangeRate{}, fmt.Errorf("invalid 'from' currency: %w", err)
	}
	if err := ValidateCurrency(to); err != nil {
		return ExchangeRate{}, fmt.Errorf("invalid 'to' currency: %w", err)
	}
	if from == to {
		return ExchangeRate{}, fmt.Errorf("%w: %s", ErrSameCurrencyRate, from)
	}
	if !rate.IsPositive() {
		return ExchangeRate{}, fmt.Errorf("%w: %s%s rate must be positive, got %s", ErrInvalidRate, from, to, rate)
	}
	return ExchangeRate{from: from, to: to, rate: rate, asOf: asOf}, nil
}

// MustRate is like NewExchangeRate but panics on error.
func MustRate(from, to string, rate float64, asOf time.Time) ExchangeRate {
	r, err := NewExchangeRate(from, to, decimal.NewFromFloat(rate), asOf)
	if err != nil {
		panic(err)
	}
	return r
}

func (r ExchangeRate) From() string          { return r.from }
func (r ExchangeRate) To() string            { return r.to }
func (r ExchangeRate) Rate() decimal.Decimal { return r.rate }
func (r ExchangeRate) AsOf() time.Time       { return r.asOf }

// Pair returns the market notation of the rate, e.g. "USDEUR".
func (r ExchangeRate) Pair() string { return r.from + r.to }

func (r ExchangeRate) String() string {
	return fmt.Sprintf("%s %s as of %s", r.Pair(), r.rate, r.asOf.Format(timeFormat))
}

func (r ExchangeRate) Equal(o ExchangeRate) bool {
	return r.from == o.from && r.to == o.to && r.rate.Equal(o.rate) && r.asOf.Equal(o.asOf)
}

// ConvertForward converts an amount in From into To.
func (r ExchangeRate) ConvertForward(m Money) (Money, error) {
	if m.cur != r.from {
		return Money{}, fmt.Errorf("%w: cannot convert %s with %s", ErrCurrencyMismatch, m.cur, r.Pair())
	}
	return Money{cur: r.to}.rescale(m.value.Mul(r.rate)), nil
}

// ConvertBackward converts an amount in To back into From.
func (r ExchangeRate) ConvertBackward(m Money) (Money, error) {
	if m.cur != r.to {
		return Money{}, fmt.Errorf("%w: cannot convert %s back with %s", ErrCurrencyMismatch, m.cur, r.Pair())
	}
	return Money{value: divRoundBank(m.value, r.rate, fraction(r.from)), cur: r.from}, nil
}

// convertPrice converts a per unit price in From into To, keeping every digit.
func (r ExchangeRate) convertPrice(p Price) (Price, error) {
	if p.cur != r.from {
		return Price{}, fmt.Errorf("%w: cannot convert %s with %s", ErrCurrencyMismatch, p.cur, r.Pair())
	}
	return Price{value: p.value.Mul(r.rate), cur: r.to}, nil
}

type rateJSON struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"asOf"`
}

func (r ExchangeRate) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	w.Append("from", r.from)
	w.Append("to", r.to)
	w.Append("rate", json.RawMessage(r.rate.String()))
	w.Append("asOf", r.asOf.UTC().Format(time.RFC3339Nano))
	return w.MarshalJSON()
}

func (r *ExchangeRate) UnmarshalJSON(data []byte) error {
	var v rateJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n, err := NewExchangeRate(v.From, v.To, v.Rate, v.AsOf)
	if err != nil {
		return err
	}
	*r = n
	return nil
}
