package observability

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arbor"

// Metrics holds the collectors exported by arbor.
type Metrics struct {
	Operations      *prometheus.CounterVec
	Errors          prometheus.Counter
	DocumentNodes   prometheus.Histogram
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics()
	reg.MustRegister(
		m.Operations,
		m.Errors,
		m.DocumentNodes,
		m.Requests,
		m.RequestDuration,
	)
	m.gatherer = reg
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_operations_total",
				Help:      "Total number of session operations, by operation and outcome.",
			},
			[]string{"op", "changed"},
		),
		Errors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_errors_total",
				Help:      "Total number of failed session updates.",
			},
		),
		DocumentNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_nodes",
				Help:      "Number of nodes in a document after an operation.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests received.",
			},
			[]string{"route", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// Hooks returns session lifecycle hooks that log each event and record it.
func (m *Metrics) Hooks(logger *slog.Logger) session.LifecycleHooks {
	if logger == nil {
		logger = logging.NewNop()
	}
	return session.LifecycleHooks{
		OnEvent: func(ctx context.Context, e *session.Event) {
			logger.Debug("session_event",
				"session_id", e.SessionID,
				"op", string(e.Op),
				"node_id", e.NodeID,
				"changed", e.Changed,
			)
			m.Operations.WithLabelValues(string(e.Op), strconv.FormatBool(e.Changed)).Inc()
			if e.Changed {
				m.DocumentNodes.Observe(float64(e.Nodes))
			}
		},
		OnError: func(ctx context.Context, sessionID string, err error) {
			logger.Warn("session_error", "session_id", sessionID, "err", err)
			m.Errors.Inc()
		},
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
