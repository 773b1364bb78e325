package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-score-analytics/internal/models"
)

const metricsNamespace = "score_analytics"

const (
	cacheResultHit  = "hit"
	cacheResultMiss = "miss"
)

// engineBuckets covers in-memory computations from sub-millisecond to half a second.
var engineBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5}

// runningTotal keeps a count and a summed duration for averages in Snapshot.
type runningTotal struct {
	count uint64
	nanos uint64
}

func (r *runningTotal) add(d time.Duration) {
	atomic.AddUint64(&r.count, 1)
	atomic.AddUint64(&r.nanos, uint64(d.Nanoseconds()))
}

func (r *runningTotal) load() (uint64, float64) {
	count := atomic.LoadUint64(&r.count)
	if count == 0 {
		return 0, 0
	}
	nanos := atomic.LoadUint64(&r.nanos)
	return count, float64(nanos) / float64(count) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry of the analytics API and keeps
// running totals for the system endpoint.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	cacheLatency  *prometheus.HistogramVec
	cacheHitRatio prometheus.Gauge
	queryDuration *prometheus.HistogramVec
	engine        *prometheus.HistogramVec
	cohortSize    *prometheus.HistogramVec
	noData        *prometheus.CounterVec

	hits     uint64
	misses   uint64
	requests runningTotal
	queries  runningTotal
}

// NewMetricsService builds a private registry with the analytics collectors
// plus the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &MetricsService{registry: registry}
	m.httpDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of analytics API requests by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Analytics API requests by route template and status.",
	}, []string{"method", "route", "status"})
	m.cacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Result cache lookups by outcome.",
	}, []string{"result"})
	m.cacheLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Latency of result cache reads and writes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	m.cacheHitRatio = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Share of cache lookups served from cache since start.",
	})
	m.queryDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Latency of score store queries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})
	m.engine = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "compute_seconds",
		Help:      "Time spent in the analytics engine per operation.",
		Buckets:   engineBuckets,
	}, []string{"operation"})
	m.cohortSize = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cohort_size",
		Help:      "Score records handed to the analytics engine per operation.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"operation"})
	m.noData = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "no_data_total",
		Help:      "Operations answered with the no-data result.",
	}, []string{"operation"})

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
}

// Handler serves the registry in the Prometheus text format. A nil service answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := cacheResultMiss
	if hit {
		result = cacheResultHit
		atomic.AddUint64(&m.hits, 1)
	} else {
		atomic.AddUint64(&m.misses, 1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	m.cacheHitRatio.Set(m.hitRatio())
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveDBQuery records score store query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// ObserveCompute records how long the engine took for an operation over a cohort of records.
func (m *MetricsService) ObserveCompute(operation string, records int, duration time.Duration) {
	if m == nil {
		return
	}
	m.engine.WithLabelValues(operation).Observe(duration.Seconds())
	m.cohortSize.WithLabelValues(operation).Observe(float64(records))
}

// RecordNoData counts operations that produced the no-data result.
func (m *MetricsService) RecordNoData(operation string) {
	if m == nil {
		return
	}
	m.noData.WithLabelValues(operation).Inc()
}

func (m *MetricsService) hitRatio() float64 {
	hits := atomic.LoadUint64(&m.hits)
	total := hits + atomic.LoadUint64(&m.misses)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot returns the running totals for the system endpoint.
func (m *MetricsService) Snapshot() models.AnalyticsSystemMetrics {
	if m == nil {
		return models.AnalyticsSystemMetrics{}
	}
	requests, avgRequestMs := m.requests.load()
	queries, avgQueryMs := m.queries.load()
	return models.AnalyticsSystemMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                atomic.LoadUint64(&m.hits),
		CacheMisses:              atomic.LoadUint64(&m.misses),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: avgQueryMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
