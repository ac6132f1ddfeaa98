package brestapp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/advdv/brest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestIDHook echoes the request id in the response headers.
func RequestIDHook() brest.Hook {
	return brest.HookFuncs{
		BeforeFunc: func(w brest.ResponseWriter, r *http.Request) {
			if id := RequestID(r.Context()); id != "" {
				w.Header().Set(RequestIDHeader, id)
			}
		},
	}
}

// Metrics holds the Prometheus collectors for routed requests.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics registers the request collectors with 'reg'.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brest",
			Name:      "requests_total",
			Help:      "Total number of routed requests",
		}, []string{"verb", "pattern", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "brest",
			Name:      "request_duration_seconds",
			Help:      "Time from accepting a routed request until its response was final",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb", "pattern"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "brest",
			Name:      "requests_in_flight",
			Help:      "Number of routed requests being handled",
		}),
	}
}

// Hook returns the hook that records the metrics. Requests that fail to route
// never reach hooks and are not counted.
func (m *Metrics) Hook() brest.Hook {
	return brest.HookFuncs{
		BeforeFunc: func(_ brest.ResponseWriter, _ *http.Request) {
			m.inflight.Inc()
		},
		AfterFunc: func(w brest.ResponseWriter, r *http.Request) {
			m.inflight.Dec()

			pattern := r.URL.Path
			if match, ok := brest.MatchFromContext(r.Context()); ok {
				pattern = match.Pattern
			}

			m.requests.WithLabelValues(r.Method, pattern, strconv.Itoa(w.Status())).Inc()
			if start, ok := brest.RequestStart(r.Context()); ok {
				m.duration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
			}
		},
	}
}
