// Package repository implements the relational store (§6) backing
// scheduled-task bookkeeping, the report registry, and
// benchmark/metric/alert time series. It is accessed only through the
// narrow Store interface below — no caller builds SQL by hand.
package repository

import (
	"context"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// Store is the relational persistence contract for everything the
// Scheduler and reporting surface need durable across process
// restarts.
type Store interface {
	UpsertScheduledTask(ctx context.Context, task model.ScheduledTask) error
	GetScheduledTask(ctx context.Context, id string) (model.ScheduledTask, error)
	ListScheduledTasks(ctx context.Context) ([]model.ScheduledTask, error)

	InsertReport(ctx context.Context, report model.Report) error
	GetReport(ctx context.Context, id string) (model.Report, error)
	ListReports(ctx context.Context, kind string, limit int) ([]model.Report, error)

	InsertBenchmark(ctx context.Context, b model.Benchmark) error
	ListBenchmarks(ctx context.Context, metric string, since time.Time) ([]model.Benchmark, error)

	InsertMetric(ctx context.Context, m model.MetricSample) error
	ListMetrics(ctx context.Context, name string, since time.Time) ([]model.MetricSample, error)

	InsertPerformanceAlert(ctx context.Context, a model.PerformanceAlert) error
	ListUnresolvedAlerts(ctx context.Context) ([]model.PerformanceAlert, error)
	ResolveAlert(ctx context.Context, id string) error
}
