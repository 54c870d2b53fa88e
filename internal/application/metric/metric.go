package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request handling time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	callRoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "call_rooms_active",
			Help: "Number of live call rooms",
		},
	)

	signalsRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_relayed_total",
			Help: "Signaling messages forwarded between peers",
		},
		[]string{"type"},
	)

	joinRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "join_rejections_total",
			Help: "Call room join attempts rejected",
		},
		[]string{"reason"},
	)
)

// RecordHTTPMetrics records counters and latency for one HTTP request.
func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())
}

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

func SetCallRoomsActive(count int) {
	callRoomsActive.Set(float64(count))
}

func SignalRelayed(signalType string) {
	signalsRelayedTotal.WithLabelValues(signalType).Inc()
}

func JoinRejected(reason string) {
	joinRejectionsTotal.WithLabelValues(reason).Inc()
}
