// Package metrics exposes Prometheus collectors for the orchestration
// engine: investigation throughput and latency, provider call outcomes,
// fusion confidence, and scheduler run counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds this module's collectors, separate from the global
// default registry so callers can mount it under their own /metrics
// handler (owned by the out-of-scope HTTP surface).
var Registry = prometheus.NewRegistry()

var (
	InvestigationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "investigation",
			Name:      "total",
			Help:      "Investigations started, by workflow template and outcome.",
		},
		[]string{"workflow", "outcome"},
	)

	InvestigationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orchestrator",
			Subsystem: "investigation",
			Name:      "duration_seconds",
			Help:      "Investigation processing time by workflow template.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"workflow"},
	)

	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Provider Adapter calls by provider id and finding kind.",
		},
		[]string{"provider", "kind"},
	)

	FusionConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orchestrator",
			Subsystem: "fusion",
			Name:      "attribution_confidence",
			Help:      "Distribution of fused attribution confidence scores.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"strategy"},
	)

	SchedulerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduled task runs by task id and result.",
		},
		[]string{"task", "result"},
	)

	EvidenceAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "evidence",
			Name:      "appended_total",
			Help:      "Evidence entries appended across all investigations.",
		},
	)

	SchedulerRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orchestrator",
			Subsystem: "scheduler",
			Name:      "run_duration_seconds",
			Help:      "Scheduled task run duration by task id.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"task"},
	)

	SchedulerAlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "orchestrator",
			Subsystem: "scheduler",
			Name:      "alerts_total",
			Help:      "Alerts raised for tasks exceeding the consecutive-failure threshold.",
		},
	)
)

func init() {
	Registry.MustRegister(
		InvestigationsTotal,
		InvestigationDuration,
		ProviderCallsTotal,
		FusionConfidence,
		SchedulerRunsTotal,
		EvidenceAppendedTotal,
		SchedulerRunDuration,
		SchedulerAlertsTotal,
	)
}

// ObserveSchedulerRun records one scheduled-task dispatch's outcome and
// wall-clock duration.
func ObserveSchedulerRun(taskID string, success bool, d time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	SchedulerRunsTotal.WithLabelValues(taskID, result).Inc()
	SchedulerRunDuration.WithLabelValues(taskID).Observe(d.Seconds())
}

// ObserveInvestigation records a completed Investigation's outcome and
// wall-clock duration.
func ObserveInvestigation(workflow, outcome string, d time.Duration) {
	InvestigationsTotal.WithLabelValues(workflow, outcome).Inc()
	InvestigationDuration.WithLabelValues(workflow).Observe(d.Seconds())
}
