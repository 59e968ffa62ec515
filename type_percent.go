package costbasis

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// percentScale is the number of fractional digits kept on a ratio.
const percentScale = 6

var hundred = decimal.NewFromInt(100)

// Percent is a non-negative ratio held as a decimal fraction: 0.25 is 25%.
//
// Ratios are rounded half-up at six fractional digits.
type Percent struct {
	ratio decimal.Decimal
}

// FromRatio returns the Percent for a decimal fraction.
func FromRatio(ratio decimal.Decimal) (Percent, error) {
	if ratio.IsNegative() {
		return Percent{}, fmt.Errorf("%w: negative ratio %s", ErrInvalidPercentage, ratio)
	}
	// decimal.Round rounds half away from zero, which is half-up on non negative values.
	return Percent{ratio: ratio.Round(percentScale)}, nil
}

// FromPercentOf100 returns the Percent for a value expressed out of 100: 25 is 25%.
func FromPercentOf100(p decimal.Decimal) (Percent, error) {
	if p.IsNegative() {
		return Percent{}, fmt.Errorf("%w: negative percentage %s", ErrInvalidPercentage, p)
	}
	// dividing by 100 is exact, shifting keeps every digit before rounding.
	return FromRatio(p.Shift(-2))
}

// Ratio returns the decimal fraction.
func (p Percent) Ratio() decimal.Decimal { return p.ratio }

// PercentOf100 returns the value expressed out of 100.
func (p Percent) PercentOf100() decimal.Decimal { return p.ratio.Mul(hundred) }

func (p Percent) Cmp(o Percent) int    { return p.ratio.Cmp(o.ratio) }
func (p Percent) Equal(o Percent) bool { return p.ratio.Equal(o.ratio) }
func (p Percent) IsZero() bool         { return p.ratio.IsZero() }
func (p Percent) String() string       { return p.PercentOf100().StringFixed(2) + "%" }

// Of returns the share of m this percentage represents.
func (p Percent) Of(m Money) Money { return m.Mul(p.ratio) }

func (p Percent) MarshalJSON() ([]byte, error) { return []byte(p.ratio.String()), nil }

func (p *Percent) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	n, err := FromRatio(d)
	if err != nil {
		return err
	}
	*p = n
	return nil
}
