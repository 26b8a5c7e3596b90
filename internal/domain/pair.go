package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var currencyCodeRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// Pair identifies a trading pair by its base and quote currency codes,
// e.g. BTC/USDT: the base is the asset being traded, the quote is the
// currency it is priced in.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair parses a "BASE/QUOTE" string into a Pair. Codes are
// upper-cased before validation.
func ParsePair(s string) (Pair, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("invalid pair %q: must be BASE/QUOTE", s)
	}
	base := strings.ToUpper(parts[0])
	quote := strings.ToUpper(parts[1])
	if !currencyCodeRegex.MatchString(base) || !currencyCodeRegex.MatchString(quote) {
		return Pair{}, fmt.Errorf("invalid pair %q: currency codes must match %s", s, currencyCodeRegex)
	}
	if base == quote {
		return Pair{}, fmt.Errorf("invalid pair %q: base and quote must differ", s)
	}
	return Pair{Base: base, Quote: quote}, nil
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// IsZero reports whether the pair is unset.
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}
