package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Termination reasons used as the "reason" label on session terminations.
const (
	ReasonEOS   = "eos"
	ReasonError = "error"
)

// Metrics holds Prometheus counters and gauges for the playback orchestrator.
// A nil *Metrics is valid and records nothing, so components can be built
// without metrics in tests.
type Metrics struct {
	registry             *prometheus.Registry
	pollsTotal           prometheus.Counter
	protocolErrorsTotal  prometheus.Counter
	sessionsStartedTotal prometheus.Counter
	buildFailuresTotal   prometheus.Counter
	terminationsTotal    *prometheus.CounterVec
	state                prometheus.Gauge
	requestsTotal        prometheus.Counter
	errorsTotal          prometheus.Counter
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		pollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_polls_total",
			Help: "Total number of status queries sent to the control plane",
		}),
		protocolErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_protocol_errors_total",
			Help: "Total number of failed control-plane queries",
		}),
		sessionsStartedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_sessions_started_total",
			Help: "Total number of render sessions that reached the active state",
		}),
		buildFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_build_failures_total",
			Help: "Total number of render pipelines that failed to build or start",
		}),
		terminationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_session_terminations_total",
			Help: "Total number of render sessions ended by a terminal engine event",
		}, []string{"reason"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orchestrator_state",
			Help: "Current playback state (0 waiting, 1 starting, 2 active)",
		}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_http_requests_total",
			Help: "Total number of HTTP requests received by the status server",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestrator_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
	}

	registry.MustRegister(
		m.pollsTotal,
		m.protocolErrorsTotal,
		m.sessionsStartedTotal,
		m.buildFailuresTotal,
		m.terminationsTotal,
		m.state,
		m.requestsTotal,
		m.errorsTotal,
	)

	return m
}

// IncPolls increments the status poll counter.
func (m *Metrics) IncPolls() {
	if m != nil {
		m.pollsTotal.Inc()
	}
}

// IncProtocolErrors increments the failed query counter.
func (m *Metrics) IncProtocolErrors() {
	if m != nil {
		m.protocolErrorsTotal.Inc()
	}
}

// IncSessionsStarted increments the started sessions counter.
func (m *Metrics) IncSessionsStarted() {
	if m != nil {
		m.sessionsStartedTotal.Inc()
	}
}

// IncBuildFailures increments the pipeline build failure counter.
func (m *Metrics) IncBuildFailures() {
	if m != nil {
		m.buildFailuresTotal.Inc()
	}
}

// IncTerminations records a session end with the given reason.
func (m *Metrics) IncTerminations(reason string) {
	if m != nil {
		m.terminationsTotal.WithLabelValues(reason).Inc()
	}
}

// SetState sets the playback state gauge.
func (m *Metrics) SetState(v int) {
	if m != nil {
		m.state.Set(float64(v))
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m != nil {
		m.requestsTotal.Inc()
	}
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m != nil {
		m.errorsTotal.Inc()
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
