package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsentinel/orchestrator/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestUpsertScheduledTask(t *testing.T) {
	store, mock := newMockStore(t)
	task := model.ScheduledTask{
		ID: "hourly-benchmark", Schedule: "every hour on minute 0", Enabled: true,
		NextRun: time.Now().UTC(), RunCount: 3, SuccessCount: 3, Cooldown: 60 * time.Second,
	}

	mock.ExpectExec(`INSERT INTO scheduled_tasks`).
		WithArgs(task.ID, task.Schedule, task.Enabled, sqlmock.AnyArg(), sqlmock.AnyArg(), task.NextRun,
			task.RunCount, task.SuccessCount, task.ErrorCount, task.LastError, task.HandlerID, int64(60)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpsertScheduledTask(context.Background(), task))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScheduledTaskNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id, schedule, enabled`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetScheduledTask(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetScheduledTaskScansNullableTimes(t *testing.T) {
	store, mock := newMockStore(t)
	next := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "schedule", "enabled", "last_run", "last_success", "next_run",
		"run_count", "success_count", "error_count", "last_error", "handler_id", "cooldown_seconds"}).
		AddRow("t1", "daily at 3", true, nil, nil, next, int64(0), int64(0), int64(0), "", "", int64(60))

	mock.ExpectQuery(`SELECT id, schedule, enabled`).
		WithArgs("t1").
		WillReturnRows(rows)

	task, err := store.GetScheduledTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, task.LastRun.IsZero())
	assert.True(t, task.LastSuccess.IsZero())
	assert.Equal(t, 60*time.Second, task.Cooldown)
}

func TestListScheduledTasks(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "schedule", "enabled", "last_run", "last_success", "next_run",
		"run_count", "success_count", "error_count", "last_error", "handler_id", "cooldown_seconds"}).
		AddRow("a", "daily at 2", true, now, now, now, int64(1), int64(1), int64(0), "", "", int64(60)).
		AddRow("b", "daily at 3", false, now, now, now, int64(2), int64(1), int64(1), "boom", "", int64(30))

	mock.ExpectQuery(`SELECT id, schedule, enabled .* FROM scheduled_tasks ORDER BY id`).
		WillReturnRows(rows)

	tasks, err := store.ListScheduledTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "boom", tasks[1].LastError)
}

func TestInsertAndGetReport(t *testing.T) {
	store, mock := newMockStore(t)
	report := model.Report{ID: "r1", Kind: "investigation", Title: "Deep scan", Summary: "clean", CreatedAt: time.Now().UTC()}

	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(report.ID, nil, report.Kind, report.Title, report.Summary, report.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.InsertReport(context.Background(), report))

	mock.ExpectQuery(`SELECT id, COALESCE\(investigation_id`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "investigation_id", "kind", "title", "summary", "created_at"}).
			AddRow("r1", "", "investigation", "Deep scan", "clean", report.CreatedAt))

	got, err := store.GetReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, report.Title, got.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsFiltersByKind(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, COALESCE\(investigation_id.*FROM reports`).
		WithArgs("executive", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "investigation_id", "kind", "title", "summary", "created_at"}).
			AddRow("r2", "", "executive", "Weekly summary", "", now))

	reports, err := store.ListReports(context.Background(), "executive", 50)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "executive", reports[0].Kind)
}

func TestInsertBenchmarkAndList(t *testing.T) {
	store, mock := newMockStore(t)
	b := model.Benchmark{ID: "b1", Metric: "precision", Value: 0.94, RecordedAt: time.Now().UTC()}

	mock.ExpectExec(`INSERT INTO benchmarks`).
		WithArgs(b.ID, b.Metric, b.Value, nil, b.RecordedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.InsertBenchmark(context.Background(), b))

	since := b.RecordedAt.Add(-time.Hour)
	mock.ExpectQuery(`SELECT id, metric, value, COALESCE\(competitor`).
		WithArgs("precision", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "metric", "value", "competitor", "recorded_at"}).
			AddRow("b1", "precision", 0.94, "", b.RecordedAt))

	benchmarks, err := store.ListBenchmarks(context.Background(), "precision", since)
	require.NoError(t, err)
	require.Len(t, benchmarks, 1)
	assert.InDelta(t, 0.94, benchmarks[0].Value, 0.0001)
}

func TestInsertMetricAndList(t *testing.T) {
	store, mock := newMockStore(t)
	m := model.MetricSample{ID: "m1", Name: "latency_ms", Value: 120, Timestamp: time.Now().UTC()}

	mock.ExpectExec(`INSERT INTO metrics`).
		WithArgs(m.ID, m.Name, m.Value, nil, m.Timestamp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.InsertMetric(context.Background(), m))

	since := m.Timestamp.Add(-time.Hour)
	mock.ExpectQuery(`SELECT id, name, value, COALESCE\(labels`).
		WithArgs("latency_ms", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value", "labels", "timestamp"}).
			AddRow("m1", "latency_ms", 120.0, "", m.Timestamp))

	samples, err := store.ListMetrics(context.Background(), "latency_ms", since)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 120.0, samples[0].Value)
}

func TestInsertPerformanceAlertAndListUnresolved(t *testing.T) {
	store, mock := newMockStore(t)
	a := model.PerformanceAlert{ID: "a1", Source: "hourly-benchmark", Severity: model.SeverityHigh, Message: "3 consecutive failures", RaisedAt: time.Now().UTC()}

	mock.ExpectExec(`INSERT INTO performance_alerts`).
		WithArgs(a.ID, a.Source, string(a.Severity), a.Message, a.RaisedAt, a.Resolved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.InsertPerformanceAlert(context.Background(), a))

	mock.ExpectQuery(`SELECT id, source, severity, message, raised_at, resolved`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "severity", "message", "raised_at", "resolved"}).
			AddRow("a1", "hourly-benchmark", string(model.SeverityHigh), "3 consecutive failures", a.RaisedAt, false))

	alerts, err := store.ListUnresolvedAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Resolved)
}

func TestResolveAlertNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE performance_alerts SET resolved = true`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.ResolveAlert(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestResolveAlertSuccess(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE performance_alerts SET resolved = true`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.ResolveAlert(context.Background(), "a1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
