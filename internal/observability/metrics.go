package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes recorded by RecordCall.
const (
	OutcomeOK          = "ok"
	OutcomeRemoteError = "remote_error"
	OutcomeTimeout     = "timeout"
	OutcomeCanceled    = "canceled"
	OutcomeMismatch    = "mismatch"
	OutcomeMalformed   = "malformed"
	OutcomeClosed      = "closed"
	OutcomeError       = "error"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxywire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "proxywire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	sessionCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxywire",
			Subsystem: "session",
			Name:      "calls_total",
			Help:      "Correlated calls by request type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	sessionCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "proxywire",
			Subsystem: "session",
			Name:      "call_duration_seconds",
			Help:      "Time from request write to reply or failure.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"type"},
	)
	sessionPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "proxywire",
			Subsystem: "session",
			Name:      "pending_calls",
			Help:      "Live correlation table entries across sessions.",
		},
	)
	sessionFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxywire",
			Subsystem: "session",
			Name:      "frames_total",
			Help:      "Frames written or read.",
		},
		[]string{"direction"},
	)
	sessionDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxywire",
			Subsystem: "session",
			Name:      "dropped_frames_total",
			Help:      "Inbound frames dropped without delivery.",
		},
		[]string{"reason"},
	)
	sessionInbound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "proxywire",
			Subsystem: "session",
			Name:      "inbound_total",
			Help:      "Peer-initiated requests and notifications by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	sessionHandlers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "proxywire",
			Subsystem: "session",
			Name:      "handlers_inflight",
			Help:      "Inbound handlers currently running.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			sessionCalls, sessionCallDuration, sessionPending,
			sessionFrames, sessionDropped, sessionInbound, sessionHandlers,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCall(msgType, outcome string, duration time.Duration) {
	RegisterMetrics()
	sessionCalls.WithLabelValues(msgType, outcome).Inc()
	sessionCallDuration.WithLabelValues(msgType).Observe(duration.Seconds())
}

func AddPendingCalls(delta int) {
	RegisterMetrics()
	sessionPending.Add(float64(delta))
}

func RecordFrame(direction string) {
	RegisterMetrics()
	sessionFrames.WithLabelValues(direction).Inc()
}

func RecordDroppedFrame(reason string) {
	RegisterMetrics()
	sessionDropped.WithLabelValues(reason).Inc()
}

func RecordInbound(msgType, outcome string) {
	RegisterMetrics()
	sessionInbound.WithLabelValues(msgType, outcome).Inc()
}

func AddHandlersInflight(delta int) {
	RegisterMetrics()
	sessionHandlers.Add(float64(delta))
}
