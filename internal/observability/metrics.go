package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	gradingDuration    *prometheus.HistogramVec
	gradingTotal       *prometheus.CounterVec
	gradingScoreRatio  prometheus.Histogram
	bulkItemsTotal     *prometheus.CounterVec
	bulkBatchesRunning prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors shared by the HTTP layer and the grading services.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autograder",
			Subsystem: "grading",
			Name:      "duration_seconds",
			Help:      "Duration of grading operations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"operation"})

		gradingTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autograder",
			Subsystem: "grading",
			Name:      "total",
			Help:      "Number of grading operations by outcome.",
		}, []string{"operation", "outcome"})

		gradingScoreRatio = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autograder",
			Subsystem: "grading",
			Name:      "score_ratio",
			Help:      "Final score divided by max score for graded submissions.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		})

		bulkItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autograder",
			Subsystem: "bulk",
			Name:      "items_total",
			Help:      "Number of bulk items that reached a terminal status.",
		}, []string{"status"})

		bulkBatchesRunning = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "autograder",
			Subsystem: "bulk",
			Name:      "batches_running",
			Help:      "Number of bulk batches currently being processed.",
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			gradingDuration, gradingTotal, gradingScoreRatio,
			bulkItemsTotal, bulkBatchesRunning,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingDuration exposes the grading latency histogram, labelled by operation.
func GradingDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return gradingDuration
}

// GradingOutcomes exposes the grading counter, labelled by operation and outcome.
func GradingOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingTotal
}

// GradingScoreRatio exposes the score distribution histogram.
func GradingScoreRatio() prometheus.Histogram {
	RegisterMetrics()
	return gradingScoreRatio
}

// BulkItems exposes the terminal bulk item counter.
func BulkItems() *prometheus.CounterVec {
	RegisterMetrics()
	return bulkItemsTotal
}

// BulkBatchesRunning exposes the gauge of in-flight batches.
func BulkBatchesRunning() prometheus.Gauge {
	RegisterMetrics()
	return bulkBatchesRunning
}
