package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RateMetrics covers the ingestion pipeline and the query-side cache.
type RateMetrics struct {
	RatesUpdatedTotal     *prometheus.CounterVec
	RatesSkippedTotal     *prometheus.CounterVec
	RateUpdateErrorsTotal *prometheus.CounterVec

	UpdateBatchDuration prometheus.Histogram

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

func NewRateMetrics() *RateMetrics {
	return &RateMetrics{
		RatesUpdatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_updated_total",
				Help: "Total number of rates written per pair",
			},
			[]string{"pair"},
		),

		RatesSkippedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_skipped_total",
				Help: "Total number of rates skipped as near-duplicates per pair",
			},
			[]string{"pair"},
		),

		RateUpdateErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_update_errors_total",
				Help: "Total number of per-pair ingestion failures by error kind",
			},
			[]string{"pair", "kind"},
		),

		UpdateBatchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rate_update_batch_duration_seconds",
				Help:    "Duration of one full ingestion run in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_cache_hits_total",
				Help: "Total number of rate query cache hits",
			},
		),

		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_cache_misses_total",
				Help: "Total number of rate query cache misses",
			},
		),
	}
}

func (m *RateMetrics) RecordUpdated(pair string) {
	m.RatesUpdatedTotal.WithLabelValues(pair).Inc()
}

func (m *RateMetrics) RecordSkipped(pair string) {
	m.RatesSkippedTotal.WithLabelValues(pair).Inc()
}

func (m *RateMetrics) RecordError(pair, kind string) {
	m.RateUpdateErrorsTotal.WithLabelValues(pair, kind).Inc()
}

func (m *RateMetrics) RecordBatchDuration(seconds float64) {
	m.UpdateBatchDuration.Observe(seconds)
}

func (m *RateMetrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *RateMetrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}
