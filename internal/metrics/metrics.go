package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	CacheHit  = "hit"
	CacheMiss = "miss"

	SelectionMatch   = "match"
	SelectionNoMatch = "no_match"
	SelectionError   = "error"
)

// Metrics holds the ratio catalog and selection series. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RefreshTotal    *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	CacheRequests   *prometheus.CounterVec
	CatalogSize     prometheus.Gauge
	SelectionTotal  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_ratios_refresh_total",
				Help: "Ratio catalog refresh attempts by result",
			},
			[]string{"result"},
		),

		RefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pos_ratios_refresh_duration_seconds",
				Help:    "Time spent fetching and storing the ratio catalog",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),

		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_ratios_cache_requests_total",
				Help: "Catalog cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		CatalogSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pos_ratios_catalog_size",
				Help: "Number of ratios in the last loaded catalog",
			},
		),

		SelectionTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_selection_total",
				Help: "POS selection requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) RecordRefresh(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}

	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}

	m.RefreshTotal.WithLabelValues(result).Inc()
	m.RefreshDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordCache(outcome string) {
	if m == nil {
		return
	}

	m.CacheRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCatalogSize(n int) {
	if m == nil {
		return
	}

	m.CatalogSize.Set(float64(n))
}

func (m *Metrics) RecordSelection(outcome string) {
	if m == nil {
		return
	}

	m.SelectionTotal.WithLabelValues(outcome).Inc()
}
