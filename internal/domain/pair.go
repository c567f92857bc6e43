package domain

import (
	"fmt"
	"sort"
	"strings"
)

// supportedPairs maps the "BASE/QUOTE" pair form onto the Binance ticker symbol.
var supportedPairs = map[string]string{
	"EUR/BTC": "BTCEUR",
	"EUR/ETH": "ETHEUR",
	"EUR/LTC": "LTCEUR",
}

// SupportedPairs returns every pair this service tracks, in stable order.
func SupportedPairs() []string {
	pairs := make([]string, 0, len(supportedPairs))
	for pair := range supportedPairs {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}

// CurrencyPair is an immutable base/quote currency combination.
// Only pairs from the supported set can be constructed.
type CurrencyPair struct {
	base  string
	quote string
}

func NewCurrencyPair(base, quote string) (CurrencyPair, error) {
	if len(base) != 3 || len(quote) != 3 {
		return CurrencyPair{}, fmt.Errorf("%w: currency codes must be exactly 3 characters", ErrUnsupportedPair)
	}

	pair := CurrencyPair{base: base, quote: quote}
	if _, ok := supportedPairs[pair.String()]; !ok {
		return CurrencyPair{}, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedPair, pair.String(), strings.Join(SupportedPairs(), ", "))
	}

	return pair, nil
}

// ParsePair builds a CurrencyPair from its "BASE/QUOTE" string form.
func ParsePair(s string) (CurrencyPair, error) {
	base, quote, found := strings.Cut(s, "/")
	if !found {
		return CurrencyPair{}, fmt.Errorf("%w: %q, expected BASE/QUOTE", ErrUnsupportedPair, s)
	}
	return NewCurrencyPair(base, quote)
}

func (p CurrencyPair) String() string {
	return p.base + "/" + p.quote
}

func (p CurrencyPair) Base() string {
	return p.base
}

func (p CurrencyPair) Quote() string {
	return p.quote
}

// BinanceSymbol returns the concatenated ticker form Binance uses for the pair,
// e.g. EUR/BTC -> BTCEUR.
func (p CurrencyPair) BinanceSymbol() string {
	return supportedPairs[p.String()]
}
