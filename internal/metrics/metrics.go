package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "ezyscribe_e2e"

// Metrics holds the run counters in a private registry so repeated runs in one process
// do not collide.
type Metrics struct {
	reg *prometheus.Registry

	scenarios   *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited prometheus.Counter
	lastRun     *prometheus.GaugeVec
}

// New creates the collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		scenarios: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scenarios_total",
			Help:      "Scenarios finished, by browser project and outcome",
		}, []string{"project", "status"}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "attempts_total",
			Help:      "Scenario attempts including retries",
		}, []string{"project"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "scenario_duration_seconds",
			Help:      "Wall time per scenario across all attempts",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"project"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_limited_total",
			Help:      "Login attempts that hit the too-many-requests notice",
		}),
		lastRun: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_results",
			Help:      "Result counts of the most recent run",
		}, []string{"run_id", "status"}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveScenario records one finished scenario
func (m *Metrics) ObserveScenario(project, status string, attempts int, d time.Duration) {
	m.scenarios.WithLabelValues(project, status).Inc()
	m.attempts.WithLabelValues(project).Add(float64(attempts))
	m.duration.WithLabelValues(project).Observe(d.Seconds())
}

// RateLimited counts a too-many-requests response
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// RecordRun publishes the totals of a finished run
func (m *Metrics) RecordRun(runID string, counts map[string]int) {
	m.lastRun.Reset()
	for status, n := range counts {
		m.lastRun.WithLabelValues(runID, status).Set(float64(n))
	}
}

// WriteTextfile writes the metrics in the text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
