// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation: HTTP traffic metrics with
// bounded label cardinality (method, registered route, status) plus domain
// gauges for the jukebox state (local queue depth, live rate-limit windows).
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality low.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight)
}

// QueueDepthSource reports the current local queue ledger depth.
type QueueDepthSource interface {
	Len() int
}

// WindowCountSource reports the number of live rate-limit windows.
type WindowCountSource interface {
	Size() int
}

// RegisterDomainGauges exposes jukebox state as gauges. Call once at wiring
// time; duplicate registration panics by Prometheus convention.
func RegisterDomainGauges(ledger QueueDepthSource, limiter WindowCountSource) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "jukebox_local_queue_depth",
			Help: "Number of submissions currently recorded in the local queue ledger.",
		}, func() float64 { return float64(ledger.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "jukebox_rate_windows",
			Help: "Number of live client rate-limit windows.",
		}, func() float64 { return float64(limiter.Size()) }),
	)
}

// Metrics returns a Gin middleware that instruments requests.
//
// The "path" label uses the registered route (c.FullPath()) to avoid
// unbounded cardinality from raw URLs, falling back to the URL path when no
// route matched.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
