package costbasis

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)
	micPattern  = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	pairPattern = regexp.MustCompile(`^[A-Z]{6}$`)
	// private identifiers are free text, without the '.' of an MSSI.
	privatePattern = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)
)

// AssetKind is the family of an AssetID.
type AssetKind int

const (
	// Private is a user defined identifier (a house, a private fund share).
	Private AssetKind = iota
	// ISIN is a bare ISO 6166 identifier.
	ISIN
	// MSSI is a Market-Specific Security Identifier: ISIN "." MIC.
	MSSI
	// CurrencyPair is a foreign exchange position, e.g. "EURUSD".
	CurrencyPair
)

func (k AssetKind) String() string {
	switch k {
	case ISIN:
		return "isin"
	case MSSI:
		return "mssi"
	case CurrencyPair:
		return "currency-pair"
	default:
		return "private"
	}
}

// AssetID identifies the asset a holding is about.
//
// The ledger compares identifiers for equality only. ParseAssetID classifies
// and validates them for the outer layers:
//
//   - MSSI "US0378331005.XNAS", an ISIN listed on a venue (ISO 10383 MIC).
//   - ISIN "US0378331005", check digit included.
//   - CurrencyPair "EURUSD", base then quote ISO 4217 codes.
//   - anything else made of letters, digits, spaces, '-' or '_' of at least 7
//     characters is a Private identifier.
type AssetID string

// ParseAssetID validates s and returns it as an AssetID.
func ParseAssetID(s string) (AssetID, error) {
	id := AssetID(strings.TrimSpace(s))
	if _, err := id.Kind(); err != nil {
		return "", err
	}
	return id, nil
}

// NewMSSI returns the identifier of isin traded on mic.
func NewMSSI(isin, mic string) (AssetID, error) {
	if err := ValidateISIN(isin); err != nil {
		return "", fmt.Errorf("invalid ISIN: %w", err)
	}
	if err := ValidateMIC(mic); err != nil {
		return "", fmt.Errorf("invalid MIC: %w", err)
	}
	return AssetID(isin + "." + mic), nil
}

// NewCurrencyPair returns the identifier of the base/quote pair.
func NewCurrencyPair(base, quote string) (AssetID, error) {
	if err := ValidateCurrency(base); err != nil {
		return "", fmt.Errorf("invalid base: %w", err)
	}
	if err := ValidateCurrency(quote); err != nil {
		return "", fmt.Errorf("invalid quote: %w", err)
	}
	if base == quote {
		return "", fmt.Errorf("%w: %s", ErrSameCurrencyRate, base)
	}
	return AssetID(base + quote), nil
}

// Kind classifies the identifier, or reports why it is not valid.
func (id AssetID) Kind() (AssetKind, error) {
	s := string(id)
	if isin, mic, ok := strings.Cut(s, "."); ok {
		if err := ValidateISIN(isin); err != nil {
			return 0, fmt.Errorf("invalid MSSI %q: %w", s, err)
		}
		if err := ValidateMIC(mic); err != nil {
			return 0, fmt.Errorf("invalid MSSI %q: %w", s, err)
		}
		return MSSI, nil
	}
	if isinPattern.MatchString(s) {
		if err := ValidateISIN(s); err != nil {
			return 0, fmt.Errorf("invalid ISIN %q: %w", s, err)
		}
		return ISIN, nil
	}
	if pairPattern.MatchString(s) {
		if _, err := NewCurrencyPair(s[:3], s[3:]); err != nil {
			return 0, fmt.Errorf("invalid currency pair %q: %w", s, err)
		}
		return CurrencyPair, nil
	}
	if len(s) < 7 {
		return 0, fmt.Errorf("invalid asset id %q: private ids have at least 7 characters", s)
	}
	if !privatePattern.MatchString(s) {
		return 0, fmt.Errorf("invalid asset id %q: private ids only contain letters, digits, spaces, '-' and '_'", s)
	}
	return Private, nil
}

// ISIN returns the ISIN part of an MSSI or ISIN identifier, or "".
func (id AssetID) ISIN() string {
	switch k, _ := id.Kind(); k {
	case MSSI:
		isin, _, _ := strings.Cut(string(id), ".")
		return isin
	case ISIN:
		return string(id)
	}
	return ""
}

// MIC returns the venue of an MSSI identifier, or "".
func (id AssetID) MIC() string {
	if k, err := id.Kind(); err != nil || k != MSSI {
		return ""
	}
	_, mic, _ := strings.Cut(string(id), ".")
	return mic
}

// Pair returns the base and quote currencies of a CurrencyPair identifier.
func (id AssetID) Pair() (base, quote string, ok bool) {
	if k, err := id.Kind(); err != nil || k != CurrencyPair {
		return "", "", false
	}
	return string(id[:3]), string(id[3:]), true
}

func (id AssetID) String() string { return string(id) }

// ValidateISIN checks the format and the check digit of an ISIN.
func ValidateISIN(isin string) error {
	if len(isin) != 12 {
		return fmt.Errorf("invalid length: must be 12 characters, got %d", len(isin))
	}
	if !isinPattern.MatchString(isin) {
		return fmt.Errorf("invalid format: must be 2 uppercase letters, 9 alphanumeric chars, and 1 digit")
	}
	// letters expand to two digits (A=10 ... Z=35) before the Luhn sum.
	var digits []int
	for _, c := range isin[:11] {
		if c >= 'A' && c <= 'Z' {
			n := int(c-'A') + 10
			digits = append(digits, n/10, n%10)
		} else {
			digits = append(digits, int(c-'0'))
		}
	}
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
		}
		sum += d/10 + d%10
		double = !double
	}
	want := (10 - sum%10) % 10
	if got := int(isin[11] - '0'); got != want {
		return fmt.Errorf("invalid check digit: expected %d, got %d", want, got)
	}
	return nil
}

// ValidateMIC checks the format of an ISO 10383 market identifier code. It
// does not check that the code is registered.
func ValidateMIC(mic string) error {
	if !micPattern.MatchString(mic) {
		return fmt.Errorf("invalid MIC %q: must be 4 uppercase alphanumeric characters", mic)
	}
	return nil
}
