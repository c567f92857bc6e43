package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSource tags rates fetched from the Binance REST API.
const DefaultSource = "binance"

// Rate is a single observed exchange rate. Rates are immutable once created:
// every update inserts a new row, stored rows are never mutated.
type Rate struct {
	Pair      string          `json:"pair"`
	Rate      decimal.Decimal `json:"rate"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

func NewRate(pair CurrencyPair, value decimal.Decimal, timestamp time.Time, source string) Rate {
	if source == "" {
		source = DefaultSource
	}
	return Rate{
		Pair:      pair.String(),
		Rate:      value,
		Timestamp: timestamp.UTC(),
		Source:    source,
	}
}

// RateString renders the rate with exactly 8 fractional digits, the canonical
// form used for storage and duplicate comparison.
func (r Rate) RateString() string {
	return r.Rate.StringFixed(8)
}

type RateRepository interface {
	Save(ctx context.Context, rate *Rate) error
	// FindLatestByPair returns the most recent stored rate for the pair,
	// or nil when the pair has no history yet.
	FindLatestByPair(ctx context.Context, pair string) (*Rate, error)
	// FindByPairAndDateRange returns rates in [start, end] ascending by timestamp.
	FindByPairAndDateRange(ctx context.Context, pair string, start, end time.Time) ([]Rate, error)
}
