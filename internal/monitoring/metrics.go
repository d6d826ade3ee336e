package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nikotrade_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// HTTPRequestDuration tracks request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nikotrade_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// InquiriesCreated counts stored contact-form submissions.
	InquiriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nikotrade_inquiries_created_total",
			Help: "Total number of inquiries stored",
		},
	)

	// AccessTokensIssued counts minted magic-link tokens.
	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nikotrade_access_tokens_issued_total",
			Help: "Total number of magic-link tokens issued",
		},
	)

	// AccessTokensConsumed counts successful token redemptions.
	AccessTokensConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nikotrade_access_tokens_consumed_total",
			Help: "Total number of magic-link tokens redeemed",
		},
	)

	// MailAttempts counts outbound mail attempts by result.
	MailAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nikotrade_mail_attempts_total",
			Help: "Outbound mail deliveries by result",
		},
		[]string{"result"},
	)

	// RateLimitBlocked counts requests rejected by a rate limit window.
	RateLimitBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nikotrade_rate_limit_blocked_total",
			Help: "Requests blocked by rate limiting",
		},
		[]string{"purpose"},
	)

	// CleanupRemoved counts records removed by the retention sweep.
	CleanupRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nikotrade_cleanup_removed_total",
			Help: "Records removed by retention cleanup",
		},
	)
)

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// HTTPMetrics records per-request counters and latency. Uses the route
// template, not the raw path, so slugs do not explode cardinality.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).
			Observe(time.Since(start).Seconds())
	}
}
