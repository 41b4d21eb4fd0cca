package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CrawlsTotal         *prometheus.CounterVec
	CrawlDuration       *prometheus.HistogramVec
	PostsStoredTotal    prometheus.Counter
	ExtractionsTotal    *prometheus.CounterVec
	SignalsCreatedTotal prometheus.Counter
	AnalyzeDuration     prometheus.Histogram
)

var initOnce sync.Once

// Init registers all collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		CrawlsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawls_total",
				Help: "Total number of crawl attempts per source kind.",
			},
			[]string{"kind", "status"}, // status: success, failure, skipped
		)

		CrawlDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawl_duration_seconds",
				Help:    "Duration of crawl operations including job-runner polling.",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"kind"},
		)

		PostsStoredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "posts_stored_total",
				Help: "Number of new posts written after dedup.",
			},
		)

		ExtractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extractions_total",
				Help: "Total number of extraction attempts.",
			},
			[]string{"outcome"}, // signal, skipped, empty, error
		)

		SignalsCreatedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "signals_created_total",
				Help: "Number of signals materialized from extractions.",
			},
		)

		AnalyzeDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analyze_batch_duration_seconds",
				Help:    "Duration of one analyze-pending batch.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		)
	})
}
