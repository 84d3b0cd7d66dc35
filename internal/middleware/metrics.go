package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestDuration tracks request duration in seconds
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// requestTotal tracks total number of requests
	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// responseSize tracks response size in bytes
	responseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// cacheLookups counts response cache hits and misses
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)
)

// Metrics records request count, latency and response size per route
// template.  Unmatched routes are grouped under "unmatched" to keep label
// cardinality bounded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			requestTotal.WithLabelValues(method, path, status).Inc()
			responseSize.WithLabelValues(method, path).Observe(float64(c.Response().Size))
			return nil
		}
	}
}
