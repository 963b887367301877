package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rom8726/caseflow"
)

var _ MetricsCollector = (*PrometheusCollector)(nil)

type PrometheusCollector struct {
	executionsStarted  *prometheus.CounterVec
	executionsFinished *prometheus.CounterVec
	executionDuration  *prometheus.HistogramVec
	executionsRunning  *prometheus.GaugeVec

	stepAttempts *prometheus.CounterVec
	stepFinished *prometheus.CounterVec
	stepRetries  *prometheus.CounterVec
	stepSkipped  *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

func NewPrometheusCollector(registry prometheus.Registerer) *PrometheusCollector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &PrometheusCollector{
		executionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseflow_executions_started_total",
				Help: "Total number of executions started",
			},
			[]string{"template"},
		),
		executionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseflow_executions_finished_total",
				Help: "Total number of executions that reached a terminal status",
			},
			[]string{"template", "status"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caseflow_execution_duration_seconds",
				Help:    "Duration of executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"template", "status"},
		),
		executionsRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "caseflow_executions_running",
				Help: "Number of executions currently being driven",
			},
			[]string{"template"},
		),
		stepAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseflow_step_attempts_total",
				Help: "Total number of step attempts started",
			},
			[]string{"template", "step", "attempt"},
		),
		stepFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseflow_steps_finished_total",
				Help: "Total number of steps that completed or failed",
			},
			[]string{"template", "step", "status"},
		),
		stepRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseflow_step_retries_total",
				Help: "Total number of step retries scheduled",
			},
			[]string{"template", "step"},
		),
		stepSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseflow_steps_skipped_total",
				Help: "Total number of steps skipped by their condition",
			},
			[]string{"template", "step"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "caseflow_step_duration_seconds",
				Help:    "Duration of the last attempt of a step in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"template", "step", "status"},
		),
	}
}

func (c *PrometheusCollector) RecordExecutionStarted(template string) {
	c.executionsStarted.WithLabelValues(template).Inc()
	c.executionsRunning.WithLabelValues(template).Inc()
}

func (c *PrometheusCollector) RecordExecutionFinished(
	template string,
	status caseflow.ExecutionStatus,
	duration time.Duration,
) {
	c.executionsFinished.WithLabelValues(template, string(status)).Inc()
	c.executionDuration.WithLabelValues(template, string(status)).Observe(duration.Seconds())
	c.executionsRunning.WithLabelValues(template).Dec()
}

func (c *PrometheusCollector) RecordStepStarted(template string, stepID string, attempt int) {
	c.stepAttempts.WithLabelValues(template, stepID, strconv.Itoa(attempt)).Inc()
}

func (c *PrometheusCollector) RecordStepFinished(
	template string,
	stepID string,
	status caseflow.StepStatus,
	duration time.Duration,
) {
	c.stepFinished.WithLabelValues(template, stepID, string(status)).Inc()
	c.stepDuration.WithLabelValues(template, stepID, string(status)).Observe(duration.Seconds())
}

func (c *PrometheusCollector) RecordStepRetry(template string, stepID string) {
	c.stepRetries.WithLabelValues(template, stepID).Inc()
}

func (c *PrometheusCollector) RecordStepSkipped(template string, stepID string) {
	c.stepSkipped.WithLabelValues(template, stepID).Inc()
}
