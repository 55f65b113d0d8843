package metrics

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/mediavault/mount-sentinel/internal/health"
)

// Metrics wraps Prometheus collectors for mount-sentinel.
type Metrics struct {
	registry            *prometheus.Registry
	runDurationSeconds  prometheus.Histogram
	targetsTotal        *prometheus.GaugeVec
	runsTotal           *prometheus.CounterVec
	recoveriesTotal     *prometheus.CounterVec
	lastSuccessfulGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mount_sentinel_run_duration_seconds",
			Help:    "Duration of check-and-recover runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		targetsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mount_sentinel_targets",
			Help: "Mount targets by status after the last run.",
		}, []string{"status"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mount_sentinel_runs_total",
			Help: "Total runs by aggregate result.",
		}, []string{"result"}),
		recoveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mount_sentinel_recoveries_total",
			Help: "Total recovery attempts by target and outcome.",
		}, []string{"target", "outcome"}),
		lastSuccessfulGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mount_sentinel_last_all_healthy_timestamp",
			Help: "Unix timestamp of the last run where every mount was healthy.",
		}),
	}

	registry.MustRegister(
		m.runDurationSeconds,
		m.targetsTotal,
		m.runsTotal,
		m.recoveriesTotal,
		m.lastSuccessfulGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records the outcome of a completed run.
func (m *Metrics) ObserveRun(report *health.Report, duration time.Duration, finished time.Time) {
	if m == nil {
		return
	}

	m.runDurationSeconds.Observe(duration.Seconds())
	m.runsTotal.WithLabelValues(string(report.Result())).Inc()

	counts := map[health.Status]int{
		health.StatusHealthy:        0,
		health.StatusUnmounted:      0,
		health.StatusUnreadable:     0,
		health.StatusRecoveryFailed: 0,
	}
	for _, th := range report.Targets {
		counts[th.Status]++
		if th.Recovered {
			m.recoveriesTotal.WithLabelValues(th.Target.Name, "success").Inc()
		} else if !th.OK {
			m.recoveriesTotal.WithLabelValues(th.Target.Name, "failure").Inc()
		}
	}
	for status, count := range counts {
		m.targetsTotal.WithLabelValues(string(status)).Set(float64(count))
	}

	if report.Result() == health.ResultAllHealthy {
		m.lastSuccessfulGauge.Set(float64(finished.Unix()))
	}
}

// WriteTextfile exports the registry in exposition format to path, written
// atomically so a scraping node exporter never reads a partial file. This is
// the one-shot counterpart of the /metrics endpoint.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(dir, ".metrics-*.prom")
	if err != nil {
		return err
	}
	cleanup := func() {
		_ = os.Remove(tempFile.Name())
	}

	encoder := expfmt.NewEncoder(tempFile, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			_ = tempFile.Close()
			cleanup()
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tempFile.Name(), path); err != nil {
		cleanup()
		return err
	}
	return nil
}
