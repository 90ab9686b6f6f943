package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pack sources used as the "source" label of AIPacksTotal
const (
	PackSourceModel           = "model"
	PackSourceInstant         = "instant"
	PackSourceFallbackTimeout = "fallback_timeout"
	PackSourceFallbackError   = "fallback_error"
	PackSourceFallbackInvalid = "fallback_invalid"
)

var (
	AIPacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_ai_packs_total",
		Help: "AI packs generated, by where the content came from",
	}, []string{"source"})

	AIModelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedback_ai_model_latency_seconds",
		Help:    "Wall-clock latency of model calls that returned before the timeout",
		Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13},
	})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_submissions_total",
		Help: "Submissions accepted, by rating",
	}, []string{"rating"})

	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedback_store_operation_seconds",
		Help:    "Duration of file store operations including lock wait",
		Buckets: prometheus.DefBuckets,
	}, []string{"file", "operation"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_http_requests_total",
		Help: "HTTP requests handled, by route and status code",
	}, []string{"method", "route", "status"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedback_websocket_clients",
		Help: "Admin dashboard websocket clients currently connected",
	})
)
