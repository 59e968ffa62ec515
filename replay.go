package costbasis

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// compareEvents orders events by instant, then by caller sequence number.
// Events of different assets that would otherwise tie are ordered by asset.
func compareEvents(a, b Event) int {
	ma, mb := a.Meta(), b.Meta()
	if c := ma.At.Compare(mb.At); c != 0 {
		return c
	}
	if c := cmp.Compare(ma.Seq, mb.Seq); c != 0 {
		return c
	}
	return cmp.Compare(ma.Asset, mb.Asset)
}

// Order returns a sorted copy of events, by instant then sequence number.
//
// The order never depends on the order of the input: two events of the same
// asset sharing both instant and sequence number are rejected with
// ErrAmbiguousOrder. A Reversal ordered before the event it reverses fails
// with ErrOutOfOrderReversal.
func Order(events []Event) ([]Event, error) {
	for _, e := range events {
		if e == nil {
			return nil, fmt.Errorf("%w: nil event", ErrUnknownEvent)
		}
	}
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, compareEvents)

	pos := make(map[uuid.UUID]int, len(ordered))
	for i, e := range ordered {
		if i > 0 && compareEvents(ordered[i-1], e) == 0 {
			return nil, &EventError{Event: e, Err: fmt.Errorf("%w with %s", ErrAmbiguousOrder, ordered[i-1].Meta().ID)}
		}
		pos[e.Meta().ID] = i
	}
	for i, e := range ordered {
		r, ok := e.(Reversal)
		if !ok {
			continue
		}
		if j, found := pos[r.Ref]; found && j > i {
			return nil, &EventError{Event: e, Err: fmt.Errorf("%w: %s on %s", ErrOutOfOrderReversal, ordered[j].What(), ordered[j].When().Format(timeFormat))}
		}
	}
	return ordered, nil
}

// Replay orders events and applies them one at a time to start.
//
// It stops at the first event that cannot be applied and returns a
// *ReplayError with the state reached so far, which is also the returned
// holding.
func Replay(start Holding, events []Event) (Holding, error) {
	ordered, err := Order(events)
	if err != nil {
		return start, &ReplayError{Index: -1, Applied: start, Err: err}
	}
	h := start
	for i, e := range ordered {
		next, err := ApplyEvent(h, e)
		if err != nil {
			return h, &ReplayError{Index: i, Event: e, Applied: h, Err: err}
		}
		h = next
	}
	return h, nil
}

// ReplayNew replays events into a new holding of asset with a basis in currency.
func ReplayNew(asset AssetID, currency string, events []Event) (Holding, error) {
	h, err := NewHolding(asset, currency)
	if err != nil {
		return Holding{}, err
	}
	return Replay(h, events)
}

// InferCurrency returns the currency of the first acquisition in events, once
// converted by its rate if any.
func InferCurrency(events []Event) (string, error) {
	first := slices.DeleteFunc(slices.Clone(events), func(e Event) bool { return e == nil })
	slices.SortStableFunc(first, compareEvents)
	for _, e := range first {
		var (
			p Price
			r *ExchangeRate
		)
		switch v := e.(type) {
		case Acquisition:
			p, r = v.Price, v.Rate
		case DividendReinvestment:
			p, r = v.Price, v.Rate
		default:
			continue
		}
		if r != nil {
			return r.to, nil
		}
		return p.cur, nil
	}
	return "", fmt.Errorf("%w: no acquisition to infer a currency from", ErrNoPosition)
}

// GroupByAsset splits events by asset, keeping their relative order.
func GroupByAsset(events []Event) map[AssetID][]Event {
	groups := make(map[AssetID][]Event)
	for _, e := range events {
		a := e.Meta().Asset
		groups[a] = append(groups[a], e)
	}
	return groups
}

// Assets returns the sorted assets of a grouping.
func Assets(groups map[AssetID][]Event) []AssetID {
	return slices.Sorted(maps.Keys(groups))
}
