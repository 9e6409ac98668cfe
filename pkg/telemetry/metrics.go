package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for oxbuild.
type Metrics struct {
	config MetricsConfig

	// Evaluation metrics
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram

	// Build metrics
	targetBuildsTotal *prometheus.CounterVec
	buildDuration     *prometheus.HistogramVec
	artifactBytes     *prometheus.CounterVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	// Registry state
	registeredTargets prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
// A disabled configuration yields a no-op collector.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of configuration script evaluations",
			},
			[]string{"status"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of configuration script evaluation in seconds",
				Buckets:   buckets,
			},
		),

		targetBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "target_builds_total",
				Help:      "Total number of target builds by artifact kind and status",
			},
			[]string{"kind", "status"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Duration of target builds in seconds",
				Buckets:   buckets,
			},
			[]string{"kind"},
		),
		artifactBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifact_bytes_written_total",
				Help:      "Total bytes of artifact output written",
			},
			[]string{"kind"},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by classification",
			},
			[]string{"kind"},
		),

		registeredTargets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_targets",
				Help:      "Number of targets registered by the last evaluation",
			},
		),
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.targetBuildsTotal,
		m.buildDuration,
		m.artifactBytes,
		m.errorsByKind,
		m.registeredTargets,
	)

	return m, nil
}

// RecordEvaluation records a script evaluation with its outcome.
func (m *Metrics) RecordEvaluation(status string, duration time.Duration) {
	if m.evaluationsTotal == nil {
		return
	}
	m.evaluationsTotal.WithLabelValues(status).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordBuild records a target build with its kind, outcome, and duration.
func (m *Metrics) RecordBuild(kind, status string, duration time.Duration) {
	if m.targetBuildsTotal == nil {
		return
	}
	m.targetBuildsTotal.WithLabelValues(kind, status).Inc()
	m.buildDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordArtifactBytes records the size of artifact output written.
func (m *Metrics) RecordArtifactBytes(kind string, bytes int64) {
	if m.artifactBytes == nil {
		return
	}
	m.artifactBytes.WithLabelValues(kind).Add(float64(bytes))
}

// RecordError records an error by classification.
func (m *Metrics) RecordError(kind string) {
	if m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// SetRegisteredTargets sets the number of targets the last evaluation
// registered.
func (m *Metrics) SetRegisteredTargets(count int) {
	if m.registeredTargets == nil {
		return
	}
	m.registeredTargets.Set(float64(count))
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
