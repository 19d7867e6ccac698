package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the test orchestrator.
type Metrics struct {
	registry               *prometheus.Registry
	sessionsStartedTotal   prometheus.Counter
	sessionsCompletedTotal prometheus.Counter
	sessionsFailedTotal    prometheus.Counter
	variantsAppliedTotal   prometheus.Counter
	applyRetriesTotal      prometheus.Counter
	activeSessions         prometheus.Gauge
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	sessionsStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbtest_sessions_started_total",
		Help: "Total number of test sessions that entered the run loop",
	})
	sessionsCompletedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbtest_sessions_completed_total",
		Help: "Total number of test sessions that completed with a result",
	})
	sessionsFailedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbtest_sessions_failed_total",
		Help: "Total number of test sessions that ended in FAILED state",
	})
	variantsAppliedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbtest_variants_applied_total",
		Help: "Total number of variants successfully applied to a live video",
	})
	applyRetriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbtest_apply_retries_total",
		Help: "Total number of retried apply/sample attempts",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "thumbtest_active_sessions",
		Help: "Number of sessions currently running",
	})

	registry.MustRegister(
		sessionsStartedTotal,
		sessionsCompletedTotal,
		sessionsFailedTotal,
		variantsAppliedTotal,
		applyRetriesTotal,
		activeSessions,
	)

	return &Metrics{
		registry:               registry,
		sessionsStartedTotal:   sessionsStartedTotal,
		sessionsCompletedTotal: sessionsCompletedTotal,
		sessionsFailedTotal:    sessionsFailedTotal,
		variantsAppliedTotal:   variantsAppliedTotal,
		applyRetriesTotal:      applyRetriesTotal,
		activeSessions:         activeSessions,
	}
}

func (m *Metrics) IncSessionsStarted()   { m.sessionsStartedTotal.Inc() }
func (m *Metrics) IncSessionsCompleted() { m.sessionsCompletedTotal.Inc() }
func (m *Metrics) IncSessionsFailed()    { m.sessionsFailedTotal.Inc() }
func (m *Metrics) IncVariantsApplied()   { m.variantsAppliedTotal.Inc() }
func (m *Metrics) IncApplyRetries()      { m.applyRetriesTotal.Inc() }
func (m *Metrics) AddActiveSessions(d float64) {
	m.activeSessions.Add(d)
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
