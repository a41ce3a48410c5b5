package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts completed API attempts by method and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slurp_api_requests_total",
		Help: "Total number of API request attempts by method and status",
	}, []string{"method", "status"})

	// APIRequestLatency records API attempt latency by method.
	APIRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slurp_api_request_latency_seconds",
		Help:    "API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// APITimeoutRetries counts attempts retried after a timeout.
	APITimeoutRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slurp_api_timeout_retries_total",
		Help: "Total number of requests retried after a timeout",
	})

	// ImageCacheLookups counts image cache lookups by tier and result.
	ImageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slurp_image_cache_lookups_total",
		Help: "Image cache lookups by tier and result",
	}, []string{"tier", "result"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slurp_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EventDrops counts events dropped because a subscriber was not keeping up.
	EventDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slurp_event_drops_total",
		Help: "Total number of events dropped due to backpressure",
	}, []string{"kind"})
)

// ObserveRequest records one completed attempt. status 0 means no response.
func ObserveRequest(method string, status int, start time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	APIRequestsTotal.WithLabelValues(method, label).Inc()
	APIRequestLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// RecordCacheLookup increments the image cache counter for tier.
func RecordCacheLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ImageCacheLookups.WithLabelValues(tier, result).Inc()
}
