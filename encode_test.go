package costbasis

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecodeEvents(t *testing.T) {
	jsonlStream := `
{"type":"acquire","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d01","asset":"US0378331005.XNAS","at":"2025-03-03T14:30:00Z","quantity":10,"price":{"amount":195.5,"currency":"USD"},"fees":[{"type":"commission","amount":{"amount":1.00,"currency":"USD"}}]}
{"type":"dispose","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d02","asset":"US0378331005.XNAS","at":"2025-03-04T14:30:00Z","quantity":5,"price":{"amount":200,"currency":"USD"}}

{"type":"dividend","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d03","asset":"US0378331005.XNAS","at":"2025-03-05T14:30:00Z","perUnit":{"amount":0.24,"currency":"USD"}}
{"type":"reinvest","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d04","asset":"US0378331005.XNAS","at":"2025-03-05T14:30:00Z","seq":1,"quantity":0.006,"price":{"amount":200,"currency":"USD"}}
{"type":"split","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d05","asset":"US0378331005.XNAS","at":"2025-03-06T14:30:00Z","ratio":4}
{"type":"return-of-capital","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d06","asset":"US0378331005.XNAS","at":"2025-03-07T14:30:00Z","amount":{"amount":12,"currency":"EUR"},"rate":{"from":"EUR","to":"USD","rate":1.1,"asOf":"2025-03-07T00:00:00Z"}}
{"type":"reversal","id":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d07","asset":"US0378331005.XNAS","at":"2025-03-08T14:30:00Z","memo":"wrong amount","ref":"6f1c1d2e-8a53-4c2e-9d3b-1f0a2b3c4d06"}
`
	events, err := DecodeEvents(strings.NewReader(jsonlStream))
	if err != nil {
		t.Fatalf("DecodeEvents() returned an unexpected error: %v", err)
	}

	expectedTypes := []reflect.Type{
		reflect.TypeOf(Acquisition{}),
		reflect.TypeOf(Disposal{}),
		reflect.TypeOf(DividendCashPayment{}),
		reflect.TypeOf(DividendReinvestment{}),
		reflect.TypeOf(StockSplit{}),
		reflect.TypeOf(ReturnOfCapital{}),
		reflect.TypeOf(Reversal{}),
	}
	if len(events) != len(expectedTypes) {
		t.Fatalf("DecodeEvents() decoded %d events, want %d", len(events), len(expectedTypes))
	}
	for i, e := range events {
		if reflect.TypeOf(e) != expectedTypes[i] {
			t.Errorf("event %d has wrong type. Got: %T, want: %v", i+1, e, expectedTypes[i])
		}
		if err := e.Validate(); err != nil {
			t.Errorf("event %d is invalid: %v", i+1, err)
		}
	}

	buy := events[0].(Acquisition)
	if !buy.Price.Equal(P(195.5, "USD")) || len(buy.Fees) != 1 || !buy.Fees[0].Native().Equal(USD(1)) {
		t.Errorf("decoded acquisition = %+v", buy)
	}
	roc := events[5].(ReturnOfCapital)
	if roc.Rate == nil || roc.Rate.Pair() != "EURUSD" {
		t.Errorf("decoded return of capital rate = %v", roc.Rate)
	}
	if rev := events[6].(Reversal); rev.Ref != roc.ID || rev.Memo != "wrong amount" {
		t.Errorf("decoded reversal = %+v", rev)
	}

	h, err := ReplayNew(AAPL, "USD", events)
	if err != nil {
		t.Fatalf("Replay() of the decoded events unexpected error: %v", err)
	}
	if !h.Quantity().Equal(Q(20.024)) {
		t.Errorf("Quantity() = %v, want 20.024", h.Quantity())
	}
}

func TestDecodeEvents_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unknown type", `{"type":"deposit","asset":"X"}`, ErrUnknownEvent},
		{"missing type", `{"asset":"X"}`, ErrUnknownEvent},
		{"bad json", `{"type":`, nil},
		{"bad currency", `{"type":"acquire","quantity":1,"price":{"amount":1,"currency":"XXQ"}}`, ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvents(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("DecodeEvents() expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeEvents() error = %v, want %v", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), "line 1:") {
				t.Errorf("DecodeEvents() error %q does not name the line", err)
			}
		})
	}
}

func TestEncodeEvents(t *testing.T) {
	eurusd := MustRate("EUR", "USD", 1.1, on(0))
	fee, err := NewFee(Tax, EUR(0.3), &eurusd, map[string]string{"kind": "ftt"})
	if err != nil {
		t.Fatalf("NewFee() unexpected error: %v", err)
	}
	buy := NewAcquisition(base(AAPL, 1, 0), Q(10), P(195.5, "USD"), F(USD(1)), fee)
	buy.Memo = "first lot"
	split := NewStockSplit(base(AAPL, 2, 0), decimal.RequireFromString("0.5"))
	sell := NewDisposal(base(AAPL, 0, 0), Q(1), P(190, "USD"))

	var buffer bytes.Buffer
	if err := EncodeEvents(&buffer, []Event{split, buy, sell}); err != nil {
		t.Fatalf("EncodeEvents() unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("EncodeEvents() wrote %d lines, want 3:\n%s", len(lines), buffer.String())
	}
	for i, prefix := range []string{`{"type":"dispose",`, `{"type":"acquire",`, `{"type":"split",`} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %s, want prefix %s", i+1, lines[i], prefix)
		}
	}
	if !strings.Contains(lines[1], `"price":{"amount":195.5,"currency":"USD"}`) {
		t.Errorf("acquisition line does not encode the price as a number: %s", lines[1])
	}

	decoded, err := DecodeEvents(&buffer)
	if err != nil {
		t.Fatalf("DecodeEvents() unexpected error: %v", err)
	}
	for i, want := range []Event{sell, buy, split} {
		if !decoded[i].Equal(want) {
			t.Errorf("event %d decoded as %+v, want %+v", i+1, decoded[i], want)
		}
	}
}
