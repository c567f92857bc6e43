package domain

import (
	"context"
	"time"
)

// RateProvider delivers a validated, normalized rate for a pair from the
// upstream price source.
type RateProvider interface {
	FetchRate(ctx context.Context, pair CurrencyPair) (*Rate, error)
	// Ping probes upstream liveness. It reports false on any failure and
	// never returns an error.
	Ping(ctx context.Context) bool
}

// RateCache is a best-effort read cache for time-range query results.
// Implementations must swallow backend failures: Get degrades to a miss,
// Put and Delete to no-ops. The cache is never a correctness dependency.
type RateCache interface {
	Get(ctx context.Context, key string) ([]Rate, bool)
	Put(ctx context.Context, key string, rates []Rate, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// EventPublisher is the outbound observability channel for ingestion outcomes.
type EventPublisher interface {
	PublishRateUpdated(event RateUpdatedEvent) error
	PublishRateUpdateFailed(event RateUpdateFailedEvent) error
}
