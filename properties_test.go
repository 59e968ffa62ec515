package costbasis

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var propertyCurrencies = []string{"USD", "EUR", "JPY", "BHD", "CAD"}

// TestMoneyNegation verifies a + (-a) is zero.
func TestMoneyNegation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a.Add(a.Neg()) is zero", prop.ForAll(
		func(milli int64, cur int) bool {
			a := M(decimal.New(milli, -3), propertyCurrencies[cur])
			sum, err := a.Add(a.Neg())
			return err == nil && sum.IsZero() && sum.Currency() == a.Currency()
		},
		gen.Int64Range(-1_000_000_000_000, 1_000_000_000_000),
		gen.IntRange(0, len(propertyCurrencies)-1),
	))

	properties.TestingRun(t)
}

// TestRateRoundTrip verifies a forward then backward conversion stays within
// the rounding of both steps.
func TestRateRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	unit := decimal.New(1, -2)
	properties.Property("backward(forward(m)) ~ m", prop.ForAll(
		func(cents, tenThousandths int64) bool {
			rate := decimal.New(tenThousandths, -4)
			r, err := NewExchangeRate("USD", "EUR", rate, day0)
			if err != nil {
				return false
			}
			m := M(decimal.New(cents, -2), "USD")
			f, err := r.ConvertForward(m)
			if err != nil {
				return false
			}
			b, err := r.ConvertBackward(f)
			if err != nil {
				return false
			}
			// |b-m| <= u/2 + u/(2r)
			diff := b.Decimal().Sub(m.Decimal()).Abs()
			return diff.Mul(two).Mul(rate).LessThanOrEqual(unit.Mul(rate.Add(decimal.NewFromInt(1))))
		},
		gen.Int64Range(-1_000_000_000, 1_000_000_000),
		gen.Int64Range(1, 1_000_000),
	))

	properties.Property("rates of at least 1 round trip within one unit", prop.ForAll(
		func(cents, tenThousandths int64) bool {
			r, err := NewExchangeRate("EUR", "USD", decimal.New(tenThousandths, -4), day0)
			if err != nil {
				return false
			}
			m := M(decimal.New(cents, -2), "EUR")
			f, _ := r.ConvertForward(m)
			b, _ := r.ConvertBackward(f)
			return b.Decimal().Sub(m.Decimal()).Abs().LessThanOrEqual(unit)
		},
		gen.Int64Range(0, 1_000_000_000),
		gen.Int64Range(10_000, 10_000_000),
	))

	properties.TestingRun(t)
}

// TestLedgerInvariants verifies quantity and basis never go negative, and a
// refused event leaves the holding unchanged.
func TestLedgerInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("quantity >= 0 and basis >= 0", prop.ForAll(
		func(sells []bool, quantities []int64, cents []int64) bool {
			h, err := NewHolding(SHOP, "CAD")
			if err != nil {
				return false
			}
			n := min(len(sells), len(quantities), len(cents))
			for i := 0; i < n; i++ {
				b := NewBase(SHOP, on(i), 0)
				q, p := Q(quantities[i]), P(decimal.New(cents[i], -2), "CAD")
				var e Event = NewAcquisition(b, q, p, F(CAD(0.99)))
				if sells[i] {
					e = NewDisposal(b, q, p, F(CAD(0.99)))
				}
				next, err := ApplyEvent(h, e)
				if err != nil && !next.Equal(h) {
					return false
				}
				if next.Quantity().IsNegative() || next.CostBasis().IsNegative() {
					return false
				}
				h = next
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
		gen.SliceOf(gen.Int64Range(1, 50)),
		gen.SliceOf(gen.Int64Range(1, 100_000)),
	))

	properties.TestingRun(t)
}

// TestReplayDeterminism verifies the replay result does not depend on the
// order of its input.
func TestReplayDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("replay of a permutation is identical", prop.ForAll(
		func(quantities []int64, seed int64) bool {
			var events []Event
			for i, q := range quantities {
				// several events share an instant, the sequence number orders them.
				b := NewBase(SHOP, on(i/3), int64(i))
				switch i % 4 {
				case 3:
					events = append(events, NewDisposal(b, Q(q), P(90, "CAD")))
				default:
					events = append(events, NewAcquisition(b, Q(q), P(100, "CAD"), F(CAD(1.5))))
				}
			}
			shuffled := append([]Event(nil), events...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			want, wantErr := ReplayNew(SHOP, "CAD", events)
			got, gotErr := ReplayNew(SHOP, "CAD", shuffled)
			return (wantErr == nil) == (gotErr == nil) && got.Equal(want)
		},
		gen.SliceOf(gen.Int64Range(1, 20)),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
