package costbasis

import (
	"testing"
	"time"
)

var (
	AAPL, _ = NewMSSI("US0378331005", "XNAS")
	SHOP, _ = NewMSSI("CA82509L1076", "XTSE")
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// CAD is a helper for test to create canadian dollars from const
func CAD(v float64) Money { return M(v, "CAD") }

// day0 is the reference instant of ledger tests.
var day0 = time.Date(2025, time.March, 3, 14, 30, 0, 0, time.UTC)

// on returns the instant d days after day0.
func on(d int) time.Time { return day0.AddDate(0, 0, d) }

// base returns the header of an event of asset on day d.
func base(asset AssetID, d int, seq int64) Base { return NewBase(asset, on(d), seq) }

func newHolding(t *testing.T, asset AssetID, currency string) Holding {
	t.Helper()
	h, err := NewHolding(asset, currency)
	if err != nil {
		t.Fatalf("NewHolding(%s, %s) unexpected error: %v", asset, currency, err)
	}
	return h
}

// mustApply applies events in order and fails the test on the first error.
func mustApply(t *testing.T, h Holding, events ...Event) Holding {
	t.Helper()
	for _, e := range events {
		var err error
		if h, err = ApplyEvent(h, e); err != nil {
			t.Fatalf("ApplyEvent(%s) unexpected error: %v", e.What(), err)
		}
	}
	return h
}
