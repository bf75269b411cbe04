package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/agristar/internal/domain/model"
)

const namespace = "agristar"

// Metrics records order transitions, gateway calls, inbound callbacks and
// HTTP traffic.
type Metrics struct {
	transitions *prometheus.CounterVec
	gateway     *prometheus.HistogramVec
	callbacks   *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

// New registers the service metrics on the provided registerer. A nil
// registerer yields a Metrics value whose methods are no-ops.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Committed order transitions by event and resulting status.",
	}, []string{"event", "status"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_call_duration_seconds",
		Help:      "Duration of outbound M-Pesa calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "outcome"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_callbacks_total",
		Help:      "Inbound M-Pesa callbacks by kind and handling outcome.",
	}, []string{"kind", "outcome"})
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
	reg.MustRegister(transitions, gateway, callbacks, requests)
	return &Metrics{
		transitions: transitions,
		gateway:     gateway,
		callbacks:   callbacks,
		requests:    requests,
	}
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// HandleTransition counts a committed order transition.
func (m *Metrics) HandleTransition(_ context.Context, ev model.TransitionEvent) error {
	if m == nil || m.transitions == nil {
		return nil
	}
	m.transitions.WithLabelValues(normalizeLabel(string(ev.Event)), normalizeLabel(string(ev.Order.Status))).Inc()
	return nil
}

// ObserveGatewayCall records the duration of an outbound gateway call.
func (m *Metrics) ObserveGatewayCall(op, outcome string, elapsed time.Duration) {
	if m == nil || m.gateway == nil {
		return
	}
	m.gateway.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

// ObserveCallback counts an inbound gateway callback.
func (m *Metrics) ObserveCallback(kind, outcome string) {
	if m == nil || m.callbacks == nil {
		return
	}
	m.callbacks.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveRequest records an HTTP request against its route template.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
