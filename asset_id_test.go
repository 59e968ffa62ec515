package costbasis

import "testing"

func TestParseAssetID(t *testing.T) {
	tests := []struct {
		input   string
		want    AssetKind
		wantErr bool
	}{
		{"US0378331005.XNAS", MSSI, false},
		{"IE00B4L5Y983", ISIN, false},
		{"EURUSD", CurrencyPair, false},
		{"My House 1", Private, false},
		{"fonds-pee_2024", Private, false},
		{"US0378331006.XNAS", 0, true}, // bad check digit
		{"US0378331005.xnas", 0, true}, // lower case MIC
		{"US0378331006", 0, true},
		{"EUREUR", 0, true},
		{"ABCDEF", 0, true},
		{"short", 0, true},
		{"has.a.dot", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := ParseAssetID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAssetID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got, _ := id.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssetID_Parts(t *testing.T) {
	if got := AAPL.ISIN(); got != "US0378331005" {
		t.Errorf("ISIN() = %q", got)
	}
	if got := AAPL.MIC(); got != "XNAS" {
		t.Errorf("MIC() = %q", got)
	}
	pair, err := NewCurrencyPair("EUR", "USD")
	if err != nil {
		t.Fatalf("NewCurrencyPair() unexpected error: %v", err)
	}
	if b, q, ok := pair.Pair(); !ok || b != "EUR" || q != "USD" {
		t.Errorf("Pair() = %q, %q, %v", b, q, ok)
	}
	if _, _, ok := AAPL.Pair(); ok {
		t.Errorf("Pair() of an MSSI should not be ok")
	}
	if got := AssetID("My House 1").ISIN(); got != "" {
		t.Errorf("ISIN() of a private id = %q, want empty", got)
	}
}
