package rediscache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "currency_rate_"

// Query period kinds entering cache key derivation.
const (
	Period24h = "24h"
	PeriodDay = "day"
)

// CacheKey derives the stable key for a logical range query: an MD5 digest
// over pair, period and optional date. Identical queries always map onto the
// same key, which is what makes proactive invalidation possible.
func CacheKey(pair, period, date string) string {
	parts := []string{pair, period}
	if date != "" {
		parts = append(parts, date)
	}
	sum := md5.Sum([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])
}

// InvalidationKeys lists every cache key a fresh write for the pair can make
// stale: the last-24h window plus the daily queries for today and yesterday.
func InvalidationKeys(pair string, now time.Time) []string {
	now = now.UTC()
	return []string{
		CacheKey(pair, Period24h, ""),
		CacheKey(pair, PeriodDay, now.Format("2006-01-02")),
		CacheKey(pair, PeriodDay, now.AddDate(0, 0, -1).Format("2006-01-02")),
	}
}

// RateCache stores query results in Redis with a short TTL. Every backend
// failure is swallowed: Get degrades to a miss, Put and Delete to no-ops.
type RateCache struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRateCache(client *redis.Client, log *slog.Logger) *RateCache {
	return &RateCache{
		client: client,
		log:    log,
	}
}

func (c *RateCache) Get(ctx context.Context, key string) ([]domain.Rate, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache retrieval failed", "key", key, "error", err)
		}
		return nil, false
	}

	var rates []domain.Rate
	if err := json.Unmarshal(data, &rates); err != nil {
		c.log.Warn("cache entry unmarshal failed", "key", key, "error", err)
		return nil, false
	}

	return rates, true
}

func (c *RateCache) Put(ctx context.Context, key string, rates []domain.Rate, ttl time.Duration) {
	data, err := json.Marshal(rates)
	if err != nil {
		c.log.Warn("cache entry marshal failed", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		c.log.Warn("cache storage failed", "key", key, "error", err)
	}
}

func (c *RateCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = keyPrefix + key
	}

	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		c.log.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}
