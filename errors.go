package costbasis

import (
	"errors"
	"fmt"
)

// Errors reported by the value types, the ledger and the replay.
//
// They are sentinel values: callers test them with errors.Is, the detail is
// attached by wrapping.
var (
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrInvalidPercentage    = errors.New("invalid percentage")
	ErrSameCurrencyRate     = errors.New("exchange rate between identical currencies")
	ErrMissingExchangeRate  = errors.New("missing exchange rate")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidRatio         = errors.New("invalid ratio")
	ErrIllegalReversal      = errors.New("illegal reversal")
	ErrOutOfOrderReversal   = errors.New("reversal precedes the event it reverses")
	ErrNoPosition           = errors.New("no position")

	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidRate     = errors.New("invalid exchange rate")
	ErrInvalidFee      = errors.New("invalid fee")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAssetMismatch   = errors.New("event belongs to another asset")
	ErrOutOfOrderEvent = errors.New("event is older than the holding's last event")
	ErrAmbiguousOrder  = errors.New("events share timestamp and sequence number")
	ErrUnknownEvent    = errors.New("unknown event type")
	ErrInvalidEvent    = errors.New("invalid event")
)

// EventError reports an event the ledger refused to apply.
type EventError struct {
	Event Event
	Err   error
}

func (e *EventError) Error() string {
	m := e.Event.Meta()
	return fmt.Sprintf("%s %s on %s (seq %d): %v", e.Event.What(), m.Asset, m.At.Format(timeFormat), m.Seq, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }

// ReplayError reports the event that halted a replay.
//
// Applied is the holding state after the last successful event, Index the
// position of the failing event in the ordered stream (-1 when the stream was
// rejected before anything was applied).
type ReplayError struct {
	Index   int
	Event   Event
	Applied Holding
	Err     error
}

func (e *ReplayError) Error() string {
	if e.Event == nil {
		return fmt.Sprintf("replay of %s rejected: %v", e.Applied.Asset(), e.Err)
	}
	return fmt.Sprintf("replay of %s halted at event #%d: %v", e.Applied.Asset(), e.Index, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }
