// Package metrics provides dataloader.MetricsRecorder implementations backed
// by Prometheus collectors or expvar.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saltapi/internal/dataloader"
)

const namespace = "saltapi"

const (
	MetricBatchDuration = "loader_batch_duration_seconds"
	MetricBatchKeys     = "loader_batch_keys"
	MetricBatchFailures = "loader_batch_failures_total"
)

var _ dataloader.MetricsRecorder = (*PrometheusRecorder)(nil)

// PrometheusRecorder observes loader batches as Prometheus series labelled by entity.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	keys     *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewPrometheusRecorder registers the batch collectors with a fresh registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricBatchDuration,
				Help:      "Time spent fetching one loader batch.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"entity", "status"},
		),
		keys: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricBatchKeys,
				Help:      "Unique keys per loader batch.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"entity"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricBatchFailures,
				Help:      "Loader batches that failed as a whole.",
			},
			[]string{"entity"},
		),
	}
	r.registry.MustRegister(r.duration, r.keys, r.failures)
	return r
}

// ObserveBatch implements dataloader.MetricsRecorder.
func (r *PrometheusRecorder) ObserveBatch(_ context.Context, entity string, keys int, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
		r.failures.WithLabelValues(entity).Inc()
	}
	r.duration.WithLabelValues(entity, status).Observe(duration.Seconds())
	r.keys.WithLabelValues(entity).Observe(float64(keys))
}

// Registry exposes the recorder's registry for scraping and tests.
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
