package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-rates-service/internal/infrastructure/rediscache"
	"github.com/shopspring/decimal"
)

// Prometheus collectors register in the global registry, so the suite shares
// one metrics instance.
var testMetrics = metrics.NewRateMetrics()

type mockRateRepo struct {
	saveFunc       func(ctx context.Context, rate *domain.Rate) error
	findLatestFunc func(ctx context.Context, pair string) (*domain.Rate, error)
	findRangeFunc  func(ctx context.Context, pair string, start, end time.Time) ([]domain.Rate, error)
	saved          []*domain.Rate
}

func (m *mockRateRepo) Save(ctx context.Context, rate *domain.Rate) error {
	if m.saveFunc != nil {
		if err := m.saveFunc(ctx, rate); err != nil {
			return err
		}
	}
	m.saved = append(m.saved, rate)
	return nil
}

func (m *mockRateRepo) FindLatestByPair(ctx context.Context, pair string) (*domain.Rate, error) {
	if m.findLatestFunc != nil {
		return m.findLatestFunc(ctx, pair)
	}
	return nil, nil
}

func (m *mockRateRepo) FindByPairAndDateRange(ctx context.Context, pair string, start, end time.Time) ([]domain.Rate, error) {
	if m.findRangeFunc != nil {
		return m.findRangeFunc(ctx, pair, start, end)
	}
	return nil, nil
}

type mockProvider struct {
	fetchFunc func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error)
	pingFunc  func(ctx context.Context) bool
}

func (m *mockProvider) FetchRate(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
	return m.fetchFunc(ctx, pair)
}

func (m *mockProvider) Ping(ctx context.Context) bool {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return true
}

type mockCache struct {
	store   map[string][]domain.Rate
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]domain.Rate)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]domain.Rate, bool) {
	rates, ok := m.store[key]
	return rates, ok
}

func (m *mockCache) Put(ctx context.Context, key string, rates []domain.Rate, ttl time.Duration) {
	m.store[key] = rates
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) {
	m.deleted = append(m.deleted, keys...)
	for _, key := range keys {
		delete(m.store, key)
	}
}

type mockPublisher struct {
	updated []domain.RateUpdatedEvent
	failed  []domain.RateUpdateFailedEvent
	err     error
}

func (m *mockPublisher) PublishRateUpdated(event domain.RateUpdatedEvent) error {
	m.updated = append(m.updated, event)
	return m.err
}

func (m *mockPublisher) PublishRateUpdateFailed(event domain.RateUpdateFailedEvent) error {
	m.failed = append(m.failed, event)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUsecase(repo *mockRateRepo, provider *mockProvider, cache *mockCache, events *mockPublisher) *DefaultRateUsecase {
	uc := NewDefaultRateUsecase(repo, provider, cache, events, testMetrics, discardLogger(), 30*time.Second)
	uc.newRunID = func() string { return "test-run" }
	return uc
}

func fetchedRate(pair domain.CurrencyPair, value string, at time.Time) *domain.Rate {
	rate := domain.NewRate(pair, decimal.RequireFromString(value), at, "")
	return &rate
}

func TestUpdateSpecificRates_WritesNewRate(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockRateRepo{}
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			return fetchedRate(pair, "0.00002345", now), nil
		},
	}
	cache := newMockCache()
	events := &mockPublisher{}
	uc := newTestUsecase(repo, provider, cache, events)

	result := uc.UpdateSpecificRates(context.Background(), []string{"EUR/BTC"}, false)

	if result.SuccessCount() != 1 || result.SkippedCount() != 0 || result.ErrorCount() != 0 {
		t.Fatalf("expected 1 update, got updated=%d skipped=%d errors=%d",
			result.SuccessCount(), result.SkippedCount(), result.ErrorCount())
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 save, got %d", len(repo.saved))
	}
	if len(events.updated) != 1 {
		t.Fatalf("expected 1 updated event, got %d", len(events.updated))
	}
	if events.updated[0].Rate != "0.00002345" {
		t.Errorf("expected event rate 0.00002345, got %s", events.updated[0].Rate)
	}
	if events.updated[0].EventID == "" {
		t.Error("expected a non-empty event id")
	}
	if len(cache.deleted) != 3 {
		t.Errorf("expected 3 invalidated cache keys, got %d", len(cache.deleted))
	}
}

func TestUpdateSpecificRates_SkipsNearDuplicate(t *testing.T) {
	now := time.Now().UTC()
	latest := fetchedRate(mustPair(t, "EUR/BTC"), "0.00002345", now.Add(-30*time.Second))

	repo := &mockRateRepo{
		findLatestFunc: func(ctx context.Context, pair string) (*domain.Rate, error) {
			return latest, nil
		},
	}
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			// 0.000000005 below the stored value, inside the 1e-8 tolerance.
			return fetchedRate(pair, "0.000023445", now), nil
		},
	}
	cache := newMockCache()
	events := &mockPublisher{}
	uc := newTestUsecase(repo, provider, cache, events)

	result := uc.UpdateSpecificRates(context.Background(), []string{"EUR/BTC"}, false)

	if result.SkippedCount() != 1 || result.SuccessCount() != 0 {
		t.Fatalf("expected skip, got updated=%d skipped=%d errors=%d",
			result.SuccessCount(), result.SkippedCount(), result.ErrorCount())
	}
	if len(repo.saved) != 0 {
		t.Errorf("expected no saves, got %d", len(repo.saved))
	}
	if len(events.updated) != 0 {
		t.Errorf("expected no events for a skipped pair, got %d", len(events.updated))
	}
	if len(cache.deleted) != 0 {
		t.Errorf("expected no cache invalidation for a skipped pair, got %d keys", len(cache.deleted))
	}
}

func TestUpdateSpecificRates_WritesWhenRateMoved(t *testing.T) {
	now := time.Now().UTC()
	latest := fetchedRate(mustPair(t, "EUR/BTC"), "0.00002345", now.Add(-30*time.Second))

	repo := &mockRateRepo{
		findLatestFunc: func(ctx context.Context, pair string) (*domain.Rate, error) {
			return latest, nil
		},
	}
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			return fetchedRate(pair, "0.00012345", now), nil
		},
	}
	uc := newTestUsecase(repo, provider, newMockCache(), &mockPublisher{})

	result := uc.UpdateSpecificRates(context.Background(), []string{"EUR/BTC"}, false)

	if result.SuccessCount() != 1 {
		t.Fatalf("expected write for a moved rate, got updated=%d skipped=%d",
			result.SuccessCount(), result.SkippedCount())
	}
}

func TestUpdateSpecificRates_WritesWhenOutsideDedupWindow(t *testing.T) {
	now := time.Now().UTC()
	latest := fetchedRate(mustPair(t, "EUR/BTC"), "0.00002345", now.Add(-2*time.Minute))

	repo := &mockRateRepo{
		findLatestFunc: func(ctx context.Context, pair string) (*domain.Rate, error) {
			return latest, nil
		},
	}
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			return fetchedRate(pair, "0.00002345", now), nil
		},
	}
	uc := newTestUsecase(repo, provider, newMockCache(), &mockPublisher{})

	result := uc.UpdateSpecificRates(context.Background(), []string{"EUR/BTC"}, false)

	if result.SuccessCount() != 1 {
		t.Fatalf("expected write outside the 60s window, got updated=%d skipped=%d",
			result.SuccessCount(), result.SkippedCount())
	}
}

func TestUpdateSpecificRates_ForceBypassesDedup(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockRateRepo{
		findLatestFunc: func(ctx context.Context, pair string) (*domain.Rate, error) {
			t.Error("dedup lookup must not run in force mode")
			return nil, nil
		},
	}
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			return fetchedRate(pair, "0.00002345", now), nil
		},
	}
	uc := newTestUsecase(repo, provider, newMockCache(), &mockPublisher{})

	result := uc.UpdateSpecificRates(context.Background(), []string{"EUR/BTC"}, true)

	if result.SuccessCount() != 1 {
		t.Fatalf("expected forced write, got updated=%d", result.SuccessCount())
	}
}

func TestUpdateSpecificRates_PartialFailureIsolation(t *testing.T) {
	now := time.Now().UTC()
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			if pair.String() == "EUR/BTC" {
				return nil, &domain.UpstreamError{Attempts: 3, Err: errors.New("status 500")}
			}
			return fetchedRate(pair, "0.00034567", now), nil
		},
	}
	repo := &mockRateRepo{}
	events := &mockPublisher{}
	uc := newTestUsecase(repo, provider, newMockCache(), events)

	result := uc.UpdateSpecificRates(context.Background(), []string{"EUR/BTC", "EUR/ETH"}, false)

	if result.ErrorCount() != 1 || result.SuccessCount() != 1 {
		t.Fatalf("expected 1 error and 1 update, got updated=%d errors=%d",
			result.SuccessCount(), result.ErrorCount())
	}
	if _, ok := result.Errors["EUR/BTC"]; !ok {
		t.Error("expected EUR/BTC in the error bucket")
	}
	if len(events.failed) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(events.failed))
	}
	if events.failed[0].ErrorKind != domain.KindUpstreamFailure {
		t.Errorf("expected kind %s, got %s", domain.KindUpstreamFailure, events.failed[0].ErrorKind)
	}
	if events.failed[0].Context["run_id"] != "test-run" {
		t.Errorf("expected run_id in failure context, got %v", events.failed[0].Context)
	}
	if result.IsCompleteSuccess() {
		t.Error("a run with errors must not be a complete success")
	}
}

func TestUpdateSpecificRates_UnsupportedPair(t *testing.T) {
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			t.Error("fetch must not run for an unsupported pair")
			return nil, nil
		},
	}
	events := &mockPublisher{}
	uc := newTestUsecase(&mockRateRepo{}, provider, newMockCache(), events)

	result := uc.UpdateSpecificRates(context.Background(), []string{"USD/BTC"}, false)

	if result.ErrorCount() != 1 {
		t.Fatalf("expected 1 error, got %d", result.ErrorCount())
	}
	if events.failed[0].ErrorKind != domain.KindUnsupportedPair {
		t.Errorf("expected kind %s, got %s", domain.KindUnsupportedPair, events.failed[0].ErrorKind)
	}
}

func TestUpdateSpecificRates_PublishFailureDoesNotFailPair(t *testing.T) {
	now := time.Now().UTC()
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			return fetchedRate(pair, "0.00002345", now), nil
		},
	}
	events := &mockPublisher{err: errors.New("broker unreachable")}
	uc := newTestUsecase(&mockRateRepo{}, provider, newMockCache(), events)

	result := uc.UpdateSpecificRates(context.Background(), []string{"EUR/BTC"}, false)

	if result.SuccessCount() != 1 || result.ErrorCount() != 0 {
		t.Fatalf("publish failure must not fail the pair, got updated=%d errors=%d",
			result.SuccessCount(), result.ErrorCount())
	}
}

func TestUpdateAllRates_CoversSupportedPairs(t *testing.T) {
	now := time.Now().UTC()
	provider := &mockProvider{
		fetchFunc: func(ctx context.Context, pair domain.CurrencyPair) (*domain.Rate, error) {
			return fetchedRate(pair, "0.00002345", now), nil
		},
	}
	uc := newTestUsecase(&mockRateRepo{}, provider, newMockCache(), &mockPublisher{})

	result := uc.UpdateAllRates(context.Background(), false)

	if result.SuccessCount() != len(domain.SupportedPairs()) {
		t.Fatalf("expected %d updates, got %d", len(domain.SupportedPairs()), result.SuccessCount())
	}
}

func TestGetLast24HoursRates_CacheMissThenHit(t *testing.T) {
	now := time.Now().UTC()
	stored := []domain.Rate{
		*fetchedRate(mustPair(t, "EUR/BTC"), "0.00002345", now.Add(-time.Hour)),
	}
	calls := 0
	repo := &mockRateRepo{
		findRangeFunc: func(ctx context.Context, pair string, start, end time.Time) ([]domain.Rate, error) {
			calls++
			return stored, nil
		},
	}
	cache := newMockCache()
	uc := newTestUsecase(repo, &mockProvider{}, cache, &mockPublisher{})

	first, err := uc.GetLast24HoursRates(context.Background(), "EUR/BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := uc.GetLast24HoursRates(context.Background(), "EUR/BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("expected 1 rate from both reads, got %d and %d", len(first), len(second))
	}

	key := rediscache.CacheKey("EUR/BTC", rediscache.Period24h, "")
	if _, ok := cache.store[key]; !ok {
		t.Error("expected the 24h result to be cached")
	}
}

func TestGetLast24HoursRates_NoData(t *testing.T) {
	repo := &mockRateRepo{
		findRangeFunc: func(ctx context.Context, pair string, start, end time.Time) ([]domain.Rate, error) {
			return nil, nil
		},
	}
	uc := newTestUsecase(repo, &mockProvider{}, newMockCache(), &mockPublisher{})

	if _, err := uc.GetLast24HoursRates(context.Background(), "EUR/BTC"); !errors.Is(err, domain.ErrNoDataFound) {
		t.Errorf("expected ErrNoDataFound, got %v", err)
	}
}

func TestGetLast24HoursRates_UnsupportedPair(t *testing.T) {
	uc := newTestUsecase(&mockRateRepo{}, &mockProvider{}, newMockCache(), &mockPublisher{})

	if _, err := uc.GetLast24HoursRates(context.Background(), "USD/BTC"); !errors.Is(err, domain.ErrUnsupportedPair) {
		t.Errorf("expected ErrUnsupportedPair, got %v", err)
	}
}

func TestGetDailyRates(t *testing.T) {
	now := time.Now().UTC()
	date := now.Format("2006-01-02")
	var gotStart, gotEnd time.Time
	repo := &mockRateRepo{
		findRangeFunc: func(ctx context.Context, pair string, start, end time.Time) ([]domain.Rate, error) {
			gotStart, gotEnd = start, end
			return []domain.Rate{*fetchedRate(mustPair(t, "EUR/ETH"), "0.00034567", now)}, nil
		},
	}
	uc := newTestUsecase(repo, &mockProvider{}, newMockCache(), &mockPublisher{})

	rates, err := uc.GetDailyRates(context.Background(), "EUR/ETH", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rates) != 1 {
		t.Fatalf("expected 1 rate, got %d", len(rates))
	}
	if gotStart.Format("15:04:05") != "00:00:00" {
		t.Errorf("expected range start at midnight, got %v", gotStart)
	}
	if gotEnd.Format("15:04:05") != "23:59:59" {
		t.Errorf("expected range end at 23:59:59, got %v", gotEnd)
	}
}

func TestGetDailyRates_InvalidDate(t *testing.T) {
	uc := newTestUsecase(&mockRateRepo{}, &mockProvider{}, newMockCache(), &mockPublisher{})

	for _, date := range []string{"31-08-2026", "not-a-date", "2026-13-40"} {
		if _, err := uc.GetDailyRates(context.Background(), "EUR/BTC", date); !errors.Is(err, domain.ErrInvalidDate) {
			t.Errorf("expected ErrInvalidDate for %q, got %v", date, err)
		}
	}

	future := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	if _, err := uc.GetDailyRates(context.Background(), "EUR/BTC", future); !errors.Is(err, domain.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for future date, got %v", err)
	}
}

func TestHealthy(t *testing.T) {
	provider := &mockProvider{pingFunc: func(ctx context.Context) bool { return false }}
	uc := newTestUsecase(&mockRateRepo{}, provider, newMockCache(), &mockPublisher{})

	if uc.Healthy(context.Background()) {
		t.Error("expected Healthy to report the provider's ping result")
	}
}

func mustPair(t *testing.T, s string) domain.CurrencyPair {
	t.Helper()
	pair, err := domain.ParsePair(s)
	if err != nil {
		t.Fatalf("failed to parse pair %q: %v", s, err)
	}
	return pair
}
