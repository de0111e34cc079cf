package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	paymentVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment verifications by result or rejection reason",
		},
		[]string{"result"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Order lifecycle events",
		},
		[]string{"event"},
	)

	stockCompensationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_compensation_failures_total",
			Help: "Stock releases that failed after a reservation had to be undone",
		},
		[]string{"operation"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Order notifications by transport and outcome",
		},
		[]string{"transport", "status"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(paymentVerificationsTotal)
	prometheus.MustRegister(ordersTotal)
	prometheus.MustRegister(stockCompensationFailuresTotal)
	prometheus.MustRegister(notificationsTotal)
	prometheus.MustRegister(rateLimitedTotal)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordPaymentVerification(result string) {
	paymentVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordOrderEvent counts created, replayed, cancelled and out_of_stock orders.
func RecordOrderEvent(event string) {
	ordersTotal.WithLabelValues(event).Inc()
}

func RecordCompensationFailure(operation string) {
	stockCompensationFailuresTotal.WithLabelValues(operation).Inc()
}

func RecordNotification(transport, status string) {
	notificationsTotal.WithLabelValues(transport, status).Inc()
}

func recordRateLimited(limiter string) {
	rateLimitedTotal.WithLabelValues(limiter).Inc()
}
