package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/rediscache"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
)

const (
	// Two rates closer than this in time AND value are one observation.
	dedupWindow     = 60 * time.Second
	defaultCacheTTL = 30 * time.Second
)

// dedupTolerance is 1e-8, the smallest representable step at 8 fractional digits.
var dedupTolerance = decimal.New(1, -8)

type RateUsecase interface {
	UpdateAllRates(ctx context.Context, force bool) *domain.UpdateResult
	UpdateSpecificRates(ctx context.Context, pairs []string, force bool) *domain.UpdateResult
	GetLast24HoursRates(ctx context.Context, pair string) ([]domain.Rate, error)
	GetDailyRates(ctx context.Context, pair string, date string) ([]domain.Rate, error)
	Healthy(ctx context.Context) bool
}

// DefaultRateUsecase drives the ingestion pipeline: fetch, validate,
// dedup-check, persist, invalidate cache, emit event — independently per pair.
type DefaultRateUsecase struct {
	rateRepo domain.RateRepository
	provider domain.RateProvider
	cache    domain.RateCache
	events   domain.EventPublisher
	metrics  *metrics.RateMetrics
	log      *slog.Logger
	cacheTTL time.Duration
	newRunID func() string
}

func NewDefaultRateUsecase(
	rateRepo domain.RateRepository,
	provider domain.RateProvider,
	cache domain.RateCache,
	events domain.EventPublisher,
	rateMetrics *metrics.RateMetrics,
	log *slog.Logger,
	cacheTTL time.Duration,
) *DefaultRateUsecase {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	newRunID, err := nanoid.Standard(12)
	if err != nil {
		newRunID = uuid.NewString
	}

	return &DefaultRateUsecase{
		rateRepo: rateRepo,
		provider: provider,
		cache:    cache,
		events:   events,
		metrics:  rateMetrics,
		log:      log,
		cacheTTL: cacheTTL,
		newRunID: newRunID,
	}
}

func (uc *DefaultRateUsecase) UpdateAllRates(ctx context.Context, force bool) *domain.UpdateResult {
	return uc.UpdateSpecificRates(ctx, domain.SupportedPairs(), force)
}

// UpdateSpecificRates runs one ingestion batch over the requested pairs.
// Pairs are processed independently: a failing pair lands in the error bucket
// and never aborts its siblings.
func (uc *DefaultRateUsecase) UpdateSpecificRates(ctx context.Context, pairs []string, force bool) *domain.UpdateResult {
	started := time.Now()
	result := domain.NewUpdateResult(uc.newRunID())

	uc.log.Info("starting currency rates update",
		"run_id", result.RunID,
		"pairs", pairs,
		"forced", force)

	for _, pairString := range pairs {
		uc.updatePair(ctx, pairString, force, result)
	}

	duration := time.Since(started)
	uc.metrics.RecordBatchDuration(duration.Seconds())
	uc.log.Info("currency rates update completed",
		"run_id", result.RunID,
		"duration_ms", duration.Milliseconds(),
		"updated", result.SuccessCount(),
		"skipped", result.SkippedCount(),
		"errors", result.ErrorCount())

	return result
}

func (uc *DefaultRateUsecase) updatePair(ctx context.Context, pairString string, force bool, result *domain.UpdateResult) {
	pair, err := domain.ParsePair(pairString)
	if err != nil {
		uc.failPair(result, pairString, err)
		return
	}

	rate, err := uc.provider.FetchRate(ctx, pair)
	if err != nil {
		uc.failPair(result, pairString, err)
		return
	}

	if !force {
		duplicate, err := uc.isDuplicate(ctx, rate)
		if err != nil {
			uc.failPair(result, pairString, err)
			return
		}
		if duplicate {
			uc.log.Debug("skipping duplicate rate",
				"pair", pairString,
				"rate", rate.RateString())
			result.AddSkipped(pairString)
			uc.metrics.RecordSkipped(pairString)
			return
		}
	}

	if err := uc.rateRepo.Save(ctx, rate); err != nil {
		uc.failPair(result, pairString, err)
		return
	}

	// Best-effort: a stale cache entry only widens the staleness window the
	// 30s TTL already bounds.
	uc.cache.Delete(ctx, rediscache.InvalidationKeys(pairString, time.Now())...)

	result.AddSuccess(pairString)
	uc.metrics.RecordUpdated(pairString)

	if err := uc.events.PublishRateUpdated(domain.RateUpdatedEvent{
		EventID:    uuid.NewString(),
		Pair:       rate.Pair,
		Rate:       rate.RateString(),
		Source:     rate.Source,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		uc.log.Warn("failed to publish rate updated event", "pair", pairString, "error", err)
	}

	uc.log.Info("successfully updated rate",
		"pair", pairString,
		"rate", rate.RateString(),
		"source", rate.Source)
}

func (uc *DefaultRateUsecase) failPair(result *domain.UpdateResult, pairString string, err error) {
	result.AddError(pairString, err.Error())
	uc.metrics.RecordError(pairString, domain.Kind(err))

	if publishErr := uc.events.PublishRateUpdateFailed(domain.RateUpdateFailedEvent{
		EventID:      uuid.NewString(),
		Pair:         pairString,
		ErrorMessage: err.Error(),
		ErrorKind:    domain.Kind(err),
		OccurredAt:   time.Now().UTC(),
		Context:      map[string]string{"run_id": result.RunID},
	}); publishErr != nil {
		uc.log.Warn("failed to publish rate update failed event", "pair", pairString, "error", publishErr)
	}

	uc.log.Error("failed to update rate",
		"pair", pairString,
		"error", err,
		"kind", domain.Kind(err))
}

// isDuplicate compares the candidate against the single most recent stored
// rate for its pair: closer than 60s in time and 1e-8 in value means the
// upstream served the same observation again.
func (uc *DefaultRateUsecase) isDuplicate(ctx context.Context, candidate *domain.Rate) (bool, error) {
	latest, err := uc.rateRepo.FindLatestByPair(ctx, candidate.Pair)
	if err != nil {
		return false, &domain.PersistenceError{Err: err}
	}
	if latest == nil {
		return false, nil
	}

	timeDiff := candidate.Timestamp.Sub(latest.Timestamp)
	if timeDiff < 0 {
		timeDiff = -timeDiff
	}
	rateDiff := candidate.Rate.Sub(latest.Rate).Abs()

	return timeDiff < dedupWindow && rateDiff.LessThan(dedupTolerance), nil
}

func (uc *DefaultRateUsecase) GetLast24HoursRates(ctx context.Context, pairString string) ([]domain.Rate, error) {
	pair, err := domain.ParsePair(pairString)
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)

	key := rediscache.CacheKey(pair.String(), rediscache.Period24h, "")
	if rates, ok := uc.cache.Get(ctx, key); ok {
		uc.metrics.RecordCacheHit()
		return rates, nil
	}
	uc.metrics.RecordCacheMiss()

	rates, err := uc.rateRepo.FindByPairAndDateRange(ctx, pair.String(), start, end)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: %s over last 24 hours", domain.ErrNoDataFound, pair)
	}

	uc.cache.Put(ctx, key, rates, uc.cacheTTL)
	uc.log.Info("retrieved 24h rates", "pair", pairString, "count", len(rates))

	return rates, nil
}

func (uc *DefaultRateUsecase) GetDailyRates(ctx context.Context, pairString string, date string) ([]domain.Rate, error) {
	pair, err := domain.ParsePair(pairString)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q, expected YYYY-MM-DD", domain.ErrInvalidDate, date)
	}
	if day.After(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: %q is in the future", domain.ErrInvalidDate, date)
	}

	start := day
	end := day.AddDate(0, 0, 1).Add(-time.Second)

	key := rediscache.CacheKey(pair.String(), rediscache.PeriodDay, date)
	if rates, ok := uc.cache.Get(ctx, key); ok {
		uc.metrics.RecordCacheHit()
		return rates, nil
	}
	uc.metrics.RecordCacheMiss()

	rates, err := uc.rateRepo.FindByPairAndDateRange(ctx, pair.String(), start, end)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrNoDataFound, pair, date)
	}

	uc.cache.Put(ctx, key, rates, uc.cacheTTL)
	uc.log.Info("retrieved daily rates", "pair", pairString, "date", date, "count", len(rates))

	return rates, nil
}

func (uc *DefaultRateUsecase) Healthy(ctx context.Context) bool {
	return uc.provider.Ping(ctx)
}
