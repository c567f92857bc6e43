package binance

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Prices above this are suspicious for EUR pairs but still accepted: only
// non-positive values are rejected.
var maxSanePrice = decimal.NewFromInt(1_000_000)

// Transformer validates the raw ticker payload and maps it onto the
// normalized rate model.
type Transformer struct {
	log *slog.Logger
}

func NewTransformer(log *slog.Logger) *Transformer {
	return &Transformer{log: log}
}

func (t *Transformer) Transform(raw *RawTicker, pair domain.CurrencyPair) (*domain.Rate, error) {
	if raw == nil || raw.Symbol == "" || raw.Price == "" {
		return nil, &domain.InvalidResponseError{Reason: "missing required fields symbol/price"}
	}

	expected := pair.BinanceSymbol()
	if raw.Symbol != expected {
		return nil, &domain.InvalidResponseError{
			Reason: fmt.Sprintf("symbol mismatch: expected %s, got %s", expected, raw.Symbol),
		}
	}

	price, err := decimal.NewFromString(raw.Price)
	if err != nil {
		return nil, &domain.InvalidResponseError{
			Reason: fmt.Sprintf("unparseable price %q", raw.Price),
		}
	}

	if price.Sign() <= 0 {
		return nil, &domain.InvalidResponseError{
			Reason: fmt.Sprintf("invalid price value: %s", price),
		}
	}

	if price.GreaterThan(maxSanePrice) {
		t.log.Warn("detected potentially extreme price value",
			"symbol", raw.Symbol,
			"price", price.String())
	}

	// The timestamp is the instant of transformation: the ticker endpoint
	// carries no timestamp of its own.
	rate := domain.NewRate(pair, price.Round(8), time.Now().UTC(), domain.DefaultSource)
	return &rate, nil
}
