package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterportal_requests_total",
			Help: "Total number of requests per endpoint",
		},
		[]string{"endpoint"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waterportal_request_duration_seconds",
			Help:    "Request duration in seconds per endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterportal_request_errors_total",
			Help: "Total number of error responses per endpoint and status code",
		},
		[]string{"endpoint", "code"},
	)
)

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterportal_quotes_total",
			Help: "Total number of bill quotes computed per customer class",
		},
		[]string{"customer_class"},
	)

	QuoteAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waterportal_quote_amount",
			Help:    "Quoted bill totals in pesos per customer class",
			Buckets: []float64{100, 180, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"customer_class"},
	)

	ServiceRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waterportal_service_requests",
			Help: "Number of stored service requests per status",
		},
		[]string{"status"},
	)
)

// ObserveQuote records a computed bill total.
func ObserveQuote(class string, total float64) {
	QuotesTotal.WithLabelValues(class).Inc()
	QuoteAmount.WithLabelValues(class).Observe(total)
}

// SetServiceRequestCounts replaces the per-status gauge values.
func SetServiceRequestCounts(counts map[string]int) {
	ServiceRequests.Reset()
	for status, n := range counts {
		ServiceRequests.WithLabelValues(status).Set(float64(n))
	}
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waterportal_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waterportal_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waterportal_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
