package costbasis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// RateResolver supplies the exchange rate valid at an instant.
//
// Implementations return an error wrapping ErrMissingExchangeRate when they
// know no such rate.
type RateResolver interface {
	Rate(ctx context.Context, from, to string, at time.Time) (ExchangeRate, error)
}

type pair struct{ from, to string }

// RateBook is an in-memory RateResolver over observed rates.
//
// The rate valid at an instant is the latest one observed at or before it.
// It is safe for concurrent use.
type RateBook struct {
	mu    sync.RWMutex
	rates map[pair][]ExchangeRate // sorted by AsOf
}

// NewRateBook returns a RateBook holding rates.
func NewRateBook(rates ...ExchangeRate) *RateBook {
	b := &RateBook{rates: make(map[pair][]ExchangeRate)}
	for _, r := range rates {
		b.Add(r)
	}
	return b
}

// Add records r, replacing any rate of the same pair observed at the same instant.
func (b *RateBook) Add(r ExchangeRate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := pair{r.from, r.to}
	list := b.rates[k]
	i, found := slices.BinarySearchFunc(list, r.asOf, func(e ExchangeRate, t time.Time) int { return e.asOf.Compare(t) })
	if found {
		list[i] = r
		return
	}
	b.rates[k] = slices.Insert(list, i, r)
}

// Len returns the number of recorded rates.
func (b *RateBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, list := range b.rates {
		n += len(list)
	}
	return n
}

// Pairs returns the sorted pairs of recorded rates, e.g. "EURUSD".
func (b *RateBook) Pairs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pairs := make([]string, 0, len(b.rates))
	for k := range b.rates {
		pairs = append(pairs, k.from+k.to)
	}
	slices.Sort(pairs)
	return pairs
}

// Rate returns the latest rate from->to observed at or before at.
func (b *RateBook) Rate(ctx context.Context, from, to string, at time.Time) (ExchangeRate, error) {
	if err := ctx.Err(); err != nil {
		return ExchangeRate{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := b.rates[pair{from, to}]
	// first rate observed strictly after at.
	i, _ := slices.BinarySearchFunc(list, at, func(e ExchangeRate, t time.Time) int {
		if e.asOf.After(t) {
			return 1
		}
		return -1
	})
	if i == 0 {
		return ExchangeRate{}, fmt.Errorf("%w: no %s%s rate on or before %s", ErrMissingExchangeRate, from, to, at.Format(timeFormat))
	}
	return list[i-1], nil
}

// Convert returns m in currency to, at the instant at.
//
// Same currency amounts are returned as is. Otherwise a from->to rate is
// applied forward, or else a to->from rate backward.
func Convert(ctx context.Context, res RateResolver, m Money, to string, at time.Time) (Money, error) {
	if m.cur == to {
		return m, nil
	}
	r, err := res.Rate(ctx, m.cur, to, at)
	if err == nil {
		return r.ConvertForward(m)
	}
	if !errors.Is(err, ErrMissingExchangeRate) {
		return Money{}, err
	}
	inv, ierr := res.Rate(ctx, to, m.cur, at)
	if ierr != nil {
		if errors.Is(ierr, ErrMissingExchangeRate) {
			return Money{}, err
		}
		return Money{}, ierr
	}
	return inv.ConvertBackward(m)
}

// Valuation is a holding valued in a reporting currency.
type Valuation struct {
	Asset          AssetID
	At             time.Time
	Quantity       Quantity
	Price          Price
	Currency       string // Currency is the reporting currency of every amount below.
	MarketValue    Money
	CostBasis      Money
	UnrealizedGain Money
	Realized       Money
	Income         Money
}

// Valuate values h at price in currency, converting amounts with the rates
// valid at the instant at.
func Valuate(ctx context.Context, h Holding, price Price, currency string, at time.Time, res RateResolver) (Valuation, error) {
	if err := h.noPosition(); err != nil {
		return Valuation{}, err
	}
	if err := ValidateCurrency(currency); err != nil {
		return Valuation{}, err
	}
	v := Valuation{Asset: h.asset, At: at, Quantity: h.quantity, Price: price, Currency: currency}
	var err error
	for _, c := range []struct {
		dst *Money
		src Money
	}{
		{&v.MarketValue, price.Total(h.quantity)},
		{&v.CostBasis, h.basis},
		{&v.Realized, h.realized},
		{&v.Income, h.income},
	} {
		if *c.dst, err = Convert(ctx, res, c.src, currency, at); err != nil {
			return Valuation{}, fmt.Errorf("cannot value %s in %s: %w", h.asset, currency, err)
		}
	}
	if v.UnrealizedGain, err = v.MarketValue.Sub(v.CostBasis); err != nil {
		return Valuation{}, err
	}
	return v, nil
}

func (v Valuation) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	w.Append("asset", v.Asset)
	w.Append("at", v.At.UTC().Format(time.RFC3339Nano))
	w.Append("quantity", v.Quantity)
	w.Append("price", v.Price)
	w.Append("currency", v.Currency)
	w.Append("marketValue", v.MarketValue)
	w.Append("costBasis", v.CostBasis)
	w.Append("unrealizedGain", v.UnrealizedGain)
	w.Append("realized", v.Realized)
	w.Append("income", v.Income)
	return w.MarshalJSON()
}
