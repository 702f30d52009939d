package model

import "time"

// Report is a sealed record of one completed Investigation (or a
// periodic scheduler-generated rollup), persisted to the relational
// store for later retrieval (§6).
type Report struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigation_id,omitempty"`
	Kind            string    `json:"kind"` // "investigation" | "executive" | "cost_roi"
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	CreatedAt       time.Time `json:"created_at"`
}

// Benchmark is one competitive-benchmarking data point produced by the
// scheduler's hourly benchmark task.
type Benchmark struct {
	ID          string    `json:"id"`
	Metric      string    `json:"metric"`
	Value       float64   `json:"value"`
	Competitor  string    `json:"competitor,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// MetricSample is one time-series point the scheduler or Orchestrator
// records for operational/cost tracking.
type MetricSample struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Labels    string    `json:"labels,omitempty"` // opaque key=value;key=value encoding
	Timestamp time.Time `json:"timestamp"`
}

// PerformanceAlert records a scheduler-raised consecutive-failure
// alert or an Orchestrator-raised latency/error-rate anomaly.
type PerformanceAlert struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"` // task id or component name
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	RaisedAt  time.Time `json:"raised_at"`
	Resolved  bool      `json:"resolved"`
}
