package costbasis

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		of100 bool
		ratio string
		str   string
	}{
		{"ratio", "0.25", false, "0.25", "25.00%"},
		{"half up at six digits", "0.1234565", false, "0.123457", "12.35%"},
		{"below half", "0.1234564", false, "0.123456", "12.35%"},
		{"out of 100", "12.5", true, "0.125", "12.50%"},
		{"zero", "0", true, "0", "0.00%"},
		{"above 100%", "150", true, "1.5", "150.00%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.input)
			var (
				p   Percent
				err error
			)
			if tt.of100 {
				p, err = FromPercentOf100(d)
			} else {
				p, err = FromRatio(d)
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := decimal.RequireFromString(tt.ratio); !p.Ratio().Equal(want) {
				t.Errorf("Ratio() = %s, want %s", p.Ratio(), want)
			}
			if got := p.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestPercent_Negative(t *testing.T) {
	if _, err := FromRatio(decimal.RequireFromString("-0.01")); !errors.Is(err, ErrInvalidPercentage) {
		t.Errorf("FromRatio() error = %v, want %v", err, ErrInvalidPercentage)
	}
	if _, err := FromPercentOf100(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidPercentage) {
		t.Errorf("FromPercentOf100() error = %v, want %v", err, ErrInvalidPercentage)
	}
}

func TestPercent_CmpAndOf(t *testing.T) {
	quarter, _ := FromRatio(decimal.RequireFromString("0.25"))
	half, _ := FromPercentOf100(decimal.NewFromInt(50))
	if quarter.Cmp(half) != -1 || half.Cmp(quarter) != 1 || half.Cmp(half) != 0 {
		t.Errorf("Cmp() does not order 25%% < 50%%")
	}
	if got := quarter.Of(EUR(100.10)); !got.Equal(EUR(25.02)) {
		t.Errorf("Of() = %v, want %v", got.Decimal(), EUR(25.02).Decimal())
	}
	if got := half.PercentOf100(); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("PercentOf100() = %s, want 50", got)
	}
}
