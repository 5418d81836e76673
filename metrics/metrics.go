// Package metrics exposes Prometheus instrumentation for pricing sessions and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"budgetpricing/pricing"
)

// Metrics implements pricing.Observer. A nil *Metrics records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	taskDuration   *prometheus.HistogramVec
	taskOutcomes   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	apiRequests    *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
}

// New registers the pricing metrics on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	taskDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_task_duration_seconds",
		Help:    "Duration of finished session tasks by action.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"action"})

	taskOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_task_outcomes_total",
		Help: "Counts finished session tasks by action and outcome.",
	}, []string{"action", "status"})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_active_sessions",
		Help: "Number of open pricing sessions.",
	})

	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_api_requests_total",
		Help: "Counts API requests by method, route and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_api_duration_seconds",
		Help:    "API request latency per method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		taskDuration,
		taskOutcomes,
		activeSessions,
		apiRequests,
		apiDuration,
	)

	return &Metrics{
		registry:       reg,
		taskDuration:   taskDuration,
		taskOutcomes:   taskOutcomes,
		activeSessions: activeSessions,
		apiRequests:    apiRequests,
		apiDuration:    apiDuration,
	}
}

// ObserveTask records a finished task.
func (m *Metrics) ObserveTask(action pricing.Action, status pricing.TaskStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.taskOutcomes.WithLabelValues(string(action), string(status)).Inc()
	m.taskDuration.WithLabelValues(string(action)).Observe(d.Seconds())
}

// SetActiveSessions updates the open sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// ObserveRequest records an API request and its latency. route is the
// registered pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
