package costbasis

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Events are persisted as JSONL: one JSON object per line, the "type"
// property naming the kind of event. The encoding is human readable and
// stable, so that an event file diffs cleanly under version control.

// EncodeEvent writes e as a single JSON line.
func EncodeEvent(w io.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cannot encode %s event %s: %w", e.What(), e.Meta().ID, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// EncodeEvents writes events in the replay order, one per line.
func EncodeEvents(w io.Writer, events []Event) error {
	ordered, err := Order(events)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, e := range ordered {
		if err := EncodeEvent(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeEvent decodes a single JSON encoded event.
func DecodeEvent(data []byte) (Event, error) {
	var identifier struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &identifier); err != nil {
		return nil, fmt.Errorf("could not identify event type: %w", err)
	}

	var (
		e   Event
		err error
	)
	switch identifier.Type {
	case EvtAcquire:
		var v Acquisition
		err = json.Unmarshal(data, &v)
		e = v
	case EvtDispose:
		var v Disposal
		err = json.Unmarshal(data, &v)
		e = v
	case EvtDividend:
		var v DividendCashPayment
		err = json.Unmarshal(data, &v)
		e = v
	case EvtReinvest:
		var v DividendReinvestment
		err = json.Unmarshal(data, &v)
		e = v
	case EvtSplit:
		var v StockSplit
		err = json.Unmarshal(data, &v)
		e = v
	case EvtReturn:
		var v ReturnOfCapital
		err = json.Unmarshal(data, &v)
		e = v
	case EvtReverse:
		var v Reversal
		err = json.Unmarshal(data, &v)
		e = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, identifier.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s event: %w", identifier.Type, err)
	}
	return e, nil
}

// DecodeEvents reads a JSONL stream of events, skipping blank lines. The
// events are returned in the order of the stream.
func DecodeEvents(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		e, err := DecodeEvent(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read events: %w", err)
	}
	return events, nil
}
