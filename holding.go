package costbasis

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// averageCostScale is the number of fractional digits of an average cost per unit.
const averageCostScale = 10

// Effect is the change an applied event made to a holding.
//
// The journal of effects is what makes reversals exact: a Reversal subtracts
// the recorded deltas rather than recomputing them from the event.
type Effect struct {
	Event    uuid.UUID // Event is the ID of the applied event.
	Type     EventType
	At       time.Time
	Quantity Quantity  // Quantity is the change in units held.
	Basis    Money     // Basis is the change in cost basis.
	Realized Money     // Realized is the gain (or loss) realized by the event.
	Income   Money     // Income is the dividend income received.
	Ref      uuid.UUID // Ref is the reversed event, for a reversal only.
	Reversed bool      // Reversed is set once a later Reversal cancelled this effect.
}

func (e Effect) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	w.Append("event", e.Event)
	w.Append("type", e.Type)
	w.Append("at", e.At.UTC().Format(time.RFC3339Nano))
	w.Append("quantity", e.Quantity)
	w.Append("basis", e.Basis)
	w.Append("realized", e.Realized)
	w.Append("income", e.Income)
	if e.Ref != uuid.Nil {
		w.Append("ref", e.Ref)
	}
	w.Optional("reversed", e.Reversed)
	return w.MarshalJSON()
}

// Holding is the state of one asset under the average cost method.
//
// A Holding is a value: ApplyEvent returns a new one and never modifies its
// input. A fully disposed holding keeps its identity, history and realized
// gain with a zero quantity and a zero basis.
type Holding struct {
	asset    AssetID
	quantity Quantity
	basis    Money
	realized Money
	income   Money
	last     time.Time
	journal  []Effect
}

// NewHolding returns an empty holding whose cost basis is tracked in currency.
func NewHolding(asset AssetID, currency string) (Holding, error) {
	if asset == "" {
		return Holding{}, fmt.Errorf("%w: missing asset", ErrInvalidEvent)
	}
	if err := ValidateCurrency(currency); err != nil {
		return Holding{}, err
	}
	zero := Money{cur: currency}
	return Holding{asset: asset, basis: zero, realized: zero, income: zero}, nil
}

func (h Holding) Asset() AssetID       { return h.asset }
func (h Holding) Currency() string     { return h.basis.cur }
func (h Holding) Quantity() Quantity   { return h.quantity }
func (h Holding) CostBasis() Money     { return h.basis }
func (h Holding) Realized() Money      { return h.realized }
func (h Holding) Income() Money        { return h.income }
func (h Holding) LastEvent() time.Time { return h.last }

// Journal returns the effects of every applied event, in application order.
func (h Holding) Journal() []Effect { return slices.Clone(h.journal) }

// Len returns the number of applied events.
func (h Holding) Len() int { return len(h.journal) }

// Effect returns the effect of the event id.
func (h Holding) Effect(id uuid.UUID) (Effect, bool) {
	i := h.indexOf(id)
	if i < 0 {
		return Effect{}, false
	}
	return h.journal[i], true
}

// LastEffect returns the effect of the most recent event.
func (h Holding) LastEffect() (Effect, bool) {
	if len(h.journal) == 0 {
		return Effect{}, false
	}
	return h.journal[len(h.journal)-1], true
}

func (h Holding) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(h.journal, func(e Effect) bool { return e.Event == id })
}

// Equal reports whether h and o hold the same state and history.
func (h Holding) Equal(o Holding) bool {
	return h.asset == o.asset && h.quantity.Equal(o.quantity) && h.basis.Equal(o.basis) &&
		h.realized.Equal(o.realized) && h.income.Equal(o.income) && h.last.Equal(o.last) &&
		slices.EqualFunc(h.journal, o.journal, func(a, b Effect) bool {
			return a.Event == b.Event && a.Reversed == b.Reversed
		})
}

func (h Holding) noPosition() error {
	if h.quantity.IsZero() {
		return fmt.Errorf("%w in %s", ErrNoPosition, h.asset)
	}
	return nil
}

// AverageCost returns the cost basis per unit held.
func (h Holding) AverageCost() (Price, error) {
	if err := h.noPosition(); err != nil {
		return Price{}, err
	}
	return Price{value: divRoundBank(h.basis.value, h.quantity.value, averageCostScale), cur: h.basis.cur}, nil
}

// MarketValue returns the value of the units held at price. The price must be
// in the basis currency, see Valuate for other currencies.
func (h Holding) MarketValue(price Price) (Money, error) {
	if err := h.noPosition(); err != nil {
		return Money{}, err
	}
	if price.cur != h.basis.cur {
		return Money{}, fmt.Errorf("%w: %s priced in %s, basis in %s", ErrCurrencyMismatch, h.asset, price.cur, h.basis.cur)
	}
	return price.Total(h.quantity), nil
}

// UnrealizedGain returns the market value at price minus the cost basis.
func (h Holding) UnrealizedGain(price Price) (Money, error) {
	value, err := h.MarketValue(price)
	if err != nil {
		return Money{}, err
	}
	return value.Sub(h.basis)
}

// Snapshot is a read-only summary of a holding.
type Snapshot struct {
	Asset       AssetID
	Quantity    Quantity
	CostBasis   Money
	AverageCost *Price // AverageCost is nil when nothing is held.
	Realized    Money
	Income      Money
	LastEvent   time.Time
	Events      int
}

// Snapshot returns the current summary of h.
func (h Holding) Snapshot() Snapshot {
	s := Snapshot{
		Asset:     h.asset,
		Quantity:  h.quantity,
		CostBasis: h.basis,
		Realized:  h.realized,
		Income:    h.income,
		LastEvent: h.last,
		Events:    len(h.journal),
	}
	if avg, err := h.AverageCost(); err == nil {
		s.AverageCost = &avg
	}
	return s
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	var w jsonWriter
	w.Append("asset", s.Asset)
	w.Append("quantity", s.Quantity)
	w.Append("costBasis", s.CostBasis)
	w.Optional("averageCost", s.AverageCost)
	w.Append("realized", s.Realized)
	w.Append("income", s.Income)
	if !s.LastEvent.IsZero() {
		w.Append("lastEvent", s.LastEvent.UTC().Format(time.RFC3339Nano))
	}
	w.Append("events", s.Events)
	return w.MarshalJSON()
}
