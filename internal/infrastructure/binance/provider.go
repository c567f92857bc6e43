package binance

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
)

// Provider composes the HTTP client and the transformer into the
// domain.RateProvider port.
type Provider struct {
	client      *Client
	transformer *Transformer
	log         *slog.Logger
}

func NewProvider(client *Client, transformer *Transformer, log *slog.Logger) *Provider {
	return &Provider{
		client:      client,
		transformer: transformer,
		log:         log,
	}
}

func (p *Provider) FetchRate(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
	raw, err := p.client.FetchRateData(ctx, pair.BinanceSymbol())
	if err != nil {
		p.log.Error("failed to fetch rate for pair", "pair", pair.String(), "error", err)
		return nil, err
	}

	return p.transformer.Transform(raw, pair)
}

func (p *Provider) Ping(ctx context.Context) bool {
	return p.client.Ping(ctx)
}
