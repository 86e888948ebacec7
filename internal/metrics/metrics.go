// Package metrics exposes Prometheus instrumentation for the generation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeDegraded     = "degraded"
	OutcomeInvalidInput = "invalid_input"
	OutcomeFailed       = "failed"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	pipelineRuns     *prometheus.CounterVec
	stageFailures    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from gatherer
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		pipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealgen_pipeline_runs_total",
				Help: "Total number of meal generation runs by outcome",
			},
			[]string{"outcome"},
		),
		stageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealgen_stage_failures_total",
				Help: "Total number of pipeline failures by stage and cause",
			},
			[]string{"stage", "cause"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealgen_upstream_duration_seconds",
				Help:    "Duration of calls to the generation services and image storage",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"stage"},
		),
	}
}

func (m *Metrics) ObservePipeline(outcome string) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStageFailure(stage, cause string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage, cause).Inc()
}

func (m *Metrics) ObserveUpstream(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
