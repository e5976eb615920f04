package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "governance_atlas"

// Metrics holds the Prometheus collectors of the pipeline and the HTTP API.
// A nil *Metrics records nothing.
type Metrics struct {
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	policiesTotal  prometheus.Counter
	failuresTotal  *prometheus.CounterVec
	droppedAssets  prometheus.Counter
	owners         *prometheus.GaugeVec
	violatingTotal *prometheus.GaugeVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of aggregation runs by owner mode and status",
			},
			[]string{"mode", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Aggregation run duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"mode"},
		),

		policiesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policies_processed_total",
				Help:      "Total number of policies correlated with inventory",
			},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_failures_total",
				Help:      "Total number of skipped units of work by scope",
			},
			[]string{"scope"},
		),

		droppedAssets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_assets_total",
				Help:      "Total number of assets without a valid owner",
			},
		),

		owners: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "owners",
				Help:      "Number of owners reported by the last run",
			},
			[]string{"mode"},
		),

		violatingTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "violating_assets",
				Help:      "Number of violating assets reported by the last run",
			},
			[]string{"mode"},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.policiesTotal,
		m.failuresTotal,
		m.droppedAssets,
		m.owners,
		m.violatingTotal,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)

	return m
}

// RecordRun records a completed run.
func (m *Metrics) RecordRun(result domain.RunResult) {
	if m == nil {
		return
	}
	mode := result.Mode.String()
	status := "complete"
	if result.Diagnostics.Incomplete {
		status = "incomplete"
	}

	m.runsTotal.WithLabelValues(mode, status).Inc()
	m.runDuration.WithLabelValues(mode).Observe(result.Duration.Seconds())
	m.policiesTotal.Add(float64(result.Diagnostics.PoliciesProcessed))
	m.droppedAssets.Add(float64(result.Diagnostics.DroppedAssets))
	for _, f := range result.Diagnostics.Failures {
		m.failuresTotal.WithLabelValues(string(f.Scope)).Inc()
	}
	m.owners.WithLabelValues(mode).Set(float64(len(result.Owners)))
	m.violatingTotal.WithLabelValues(mode).Set(float64(result.Diagnostics.TotalViolatingAssets))
}

// RecordRunError records a run that failed before producing a result.
func (m *Metrics) RecordRunError(mode domain.OwnerMode) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(mode.String(), "error").Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
