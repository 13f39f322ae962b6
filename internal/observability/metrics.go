package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	streamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mocapctl",
			Subsystem: "stream",
			Name:      "messages_total",
			Help:      "Sample messages read from the service.",
		},
		[]string{"service"},
	)
	streamBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mocapctl",
			Subsystem: "stream",
			Name:      "bytes_total",
			Help:      "Payload bytes read from the service.",
		},
		[]string{"service"},
	)
	streamTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mocapctl",
			Subsystem: "stream",
			Name:      "timeouts_total",
			Help:      "Reads that timed out with the connection left open.",
		},
		[]string{"service"},
	)
	streamDecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mocapctl",
			Subsystem: "stream",
			Name:      "decode_failures_total",
			Help:      "Sample messages that failed to decode.",
		},
		[]string{"service"},
	)
	streamUpgrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mocapctl",
			Subsystem: "http",
			Name:      "stream_upgrades_total",
			Help:      "HTTP requests upgraded to websocket stream sessions.",
		},
		[]string{"app", "path"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mocapctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"app", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mocapctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"app", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			streamMessages, streamBytes, streamTimeouts, streamDecodeFailures,
			streamUpgrades, httpRequests, httpDuration,
		)
	})
}

func RecordStreamMessage(service string, bytes int) {
	RegisterMetrics()
	streamMessages.WithLabelValues(service).Inc()
	streamBytes.WithLabelValues(service).Add(float64(bytes))
}

func RecordStreamTimeout(service string) {
	RegisterMetrics()
	streamTimeouts.WithLabelValues(service).Inc()
}

func RecordDecodeFailure(service string) {
	RegisterMetrics()
	streamDecodeFailures.WithLabelValues(service).Inc()
}

func RecordStreamUpgrade(app, path string) {
	RegisterMetrics()
	streamUpgrades.WithLabelValues(app, path).Inc()
}

func RecordHTTPRequest(app, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(app, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(app, method, path, statusLabel).Observe(duration.Seconds())
}
