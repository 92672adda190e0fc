package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicare_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medicare_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicare_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)

	// Domain counters, incremented by the controllers.
	MedicationLogsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicare_medication_logs_saved_total",
			Help: "Medication log upserts by status and outcome",
		},
		[]string{"status", "outcome"},
	)

	ProofUploads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medicare_proof_uploads_total",
			Help: "Proof photos stored",
		},
	)

	CaretakerEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicare_caretaker_emails_total",
			Help: "Caretaker notification emails by delivery status",
		},
		[]string{"status"},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medicare_sessions_expired_total",
			Help: "Sessions ended server-side by inactivity or hard expiry",
		},
	)

	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medicare_live_session_channels",
			Help: "Open session guard websocket channels",
		},
	)
)

// Metrics records request counts and latency. The route pattern is used as the
// path label to keep cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())

		if status >= 400 {
			errorType := "client_error"
			if status >= 500 {
				errorType = "server_error"
			}
			errorsTotal.WithLabelValues(errorType).Inc()
		}
	}
}
