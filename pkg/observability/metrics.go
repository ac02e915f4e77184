package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/flume/pkg/domain"
)

// Metrics records pipeline activity as Prometheus collectors.
type Metrics struct {
	GraphChanges *prometheus.CounterVec
	Connections  *prometheus.CounterVec
	Lifecycle    *prometheus.CounterVec
	SetupSeconds prometheus.Histogram
	Processes    *prometheus.GaugeVec
	Edges        *prometheus.GaugeVec
	Steps        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GraphChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flume_graph_changes_total",
				Help: "Processes and clusters added to or removed from pipelines",
			},
			[]string{"pipeline", "type"},
		),
		Connections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flume_connection_changes_total",
				Help: "Connections made or removed",
			},
			[]string{"pipeline", "type"},
		),
		Lifecycle: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flume_lifecycle_events_total",
				Help: "Setup, reconfigure and reset events by outcome",
			},
			[]string{"pipeline", "type", "success"},
		),
		SetupSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flume_setup_duration_seconds",
				Help:    "Duration of pipeline setup",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		Processes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flume_pipeline_processes",
				Help: "Processes in the pipeline at the last lifecycle event",
			},
			[]string{"pipeline"},
		),
		Edges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flume_pipeline_edges",
				Help: "Edges in the pipeline at the last lifecycle event",
			},
			[]string{"pipeline"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flume_process_steps_total",
				Help: "Successful process steps taken by the scheduler",
			},
			[]string{"process"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.GraphChanges, m.Connections, m.Lifecycle, m.SetupSeconds, m.Processes, m.Edges, m.Steps)
	}
	return m
}

// Hooks returns pipeline hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGraphChange: func(_ context.Context, e *domain.GraphEvent) {
			m.GraphChanges.WithLabelValues(e.PipelineID, string(e.Type)).Inc()
		},
		OnConnectionChange: func(_ context.Context, e *domain.ConnectionEvent) {
			m.Connections.WithLabelValues(e.PipelineID, string(e.Type)).Inc()
		},
		OnLifecycle: func(_ context.Context, e *domain.LifecycleEvent) {
			m.Lifecycle.WithLabelValues(e.PipelineID, string(e.Type), strconv.FormatBool(e.Success)).Inc()
			if e.Type == domain.EventSetup {
				m.SetupSeconds.Observe(e.Duration.Seconds())
			}
			m.Processes.WithLabelValues(e.PipelineID).Set(float64(e.Processes))
			m.Edges.WithLabelValues(e.PipelineID).Set(float64(e.Edges))
		},
	}
}

// ObserveStep counts one scheduler step. It fits scheduler.WithStepHook.
func (m *Metrics) ObserveStep(process string) {
	m.Steps.WithLabelValues(process).Inc()
}
