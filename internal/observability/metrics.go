package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	wsDroppedSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_ws_dropped_sessions_total",
			Help: "Sessions dropped because their outbound queue overflowed.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	sweepRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sweep_runs_total",
			Help: "Total number of cleanup sweep cycles.",
		},
	)
	groupsPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_groups_purged_total",
			Help: "Total number of groups purged by the cleanup sweep.",
		},
	)
	mediaDeleteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_media_delete_failures_total",
			Help: "Total number of failed external media deletions during sweeps.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		wsDroppedSessionsTotal,
		amqpPublishErrorsTotal,
		sweepRunsTotal,
		groupsPurgedTotal,
		mediaDeleteFailuresTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncWSDroppedSession() {
	wsDroppedSessionsTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncSweepRun() {
	sweepRunsTotal.Inc()
}

func IncGroupsPurged() {
	groupsPurgedTotal.Inc()
}

func IncMediaDeleteFailure() {
	mediaDeleteFailuresTotal.Inc()
}
