// Package metrics exposes the outcome of a mapper run as Prometheus gauges
// and pushes them to a Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/heartmarshall/litigation-mapper/internal/domain"
)

// Metrics holds the gauges of one run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Entities    *prometheus.GaugeVec
	Failures    *prometheus.GaugeVec
	Skipped     *prometheus.GaugeVec
	Duration    prometheus.Gauge
	LastSuccess prometheus.Gauge
}

// New creates a Metrics instance with all run metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Entities: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "litigation_mapper_entities",
			Help: "Entities emitted by the last run",
		}, []string{"entity"}),
		Failures: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "litigation_mapper_failures",
			Help: "Failures recorded by the last run",
		}, []string{"kind"}),
		Skipped: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "litigation_mapper_skipped",
			Help: "Records skipped by the last run",
		}, []string{"entity"}),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "litigation_mapper_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "litigation_mapper_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRun records the outcome of a finished run.
func (m *Metrics) ObserveRun(run domain.RunRecord, failures []domain.Failure) {
	c := run.Counts
	m.Entities.WithLabelValues("collections").Set(float64(c.Collections))
	m.Entities.WithLabelValues("families").Set(float64(c.Families))
	m.Entities.WithLabelValues("documents").Set(float64(c.Documents))
	m.Entities.WithLabelValues("events").Set(float64(c.Events))

	m.Skipped.WithLabelValues("families").Set(float64(c.SkippedFamilies))
	m.Skipped.WithLabelValues("documents").Set(float64(c.SkippedDocuments))

	m.Failures.Reset()
	for _, f := range failures {
		m.Failures.WithLabelValues(f.Kind.String()).Inc()
	}

	m.Duration.Set(run.FinishedAt.Sub(run.StartedAt).Seconds())
	if run.Status == domain.RunStatusSucceeded {
		m.LastSuccess.Set(float64(run.FinishedAt.Unix()))
	}
}

// Push sends every metric to the Pushgateway at url under job, replacing the
// previous push of the same job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push: %w", err)
	}
	return nil
}
