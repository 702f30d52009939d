package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// PostgresStore implements Store against the relational schema
// (scheduled_tasks, reports, benchmarks, metrics, performance_alerts)
// described in §6, each indexed by timestamp.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to dsn and verifies reachability with a ping.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an already-configured *sql.DB (connection
// pool limits, lifetime, etc. owned by the caller).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) UpsertScheduledTask(ctx context.Context, task model.ScheduledTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (id, schedule, enabled, last_run, last_success, next_run, run_count, success_count, error_count, last_error, handler_id, cooldown_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			schedule = EXCLUDED.schedule,
			enabled = EXCLUDED.enabled,
			last_run = EXCLUDED.last_run,
			last_success = EXCLUDED.last_success,
			next_run = EXCLUDED.next_run,
			run_count = EXCLUDED.run_count,
			success_count = EXCLUDED.success_count,
			error_count = EXCLUDED.error_count,
			last_error = EXCLUDED.last_error,
			handler_id = EXCLUDED.handler_id,
			cooldown_seconds = EXCLUDED.cooldown_seconds
	`, task.ID, task.Schedule, task.Enabled, toNullTime(task.LastRun), toNullTime(task.LastSuccess),
		task.NextRun, task.RunCount, task.SuccessCount, task.ErrorCount, task.LastError, task.HandlerID, int64(task.Cooldown.Seconds()))
	return err
}

func (s *PostgresStore) GetScheduledTask(ctx context.Context, id string) (model.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, schedule, enabled, last_run, last_success, next_run, run_count, success_count, error_count, last_error, handler_id, cooldown_seconds
		FROM scheduled_tasks WHERE id = $1
	`, id)
	return scanScheduledTask(row)
}

func (s *PostgresStore) ListScheduledTasks(ctx context.Context) ([]model.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule, enabled, last_run, last_success, next_run, run_count, success_count, error_count, last_error, handler_id, cooldown_seconds
		FROM scheduled_tasks ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScheduledTask
	for rows.Next() {
		task, err := scanScheduledTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheduledTask(row rowScanner) (model.ScheduledTask, error) {
	var (
		task            model.ScheduledTask
		lastRun         sql.NullTime
		lastSuccess     sql.NullTime
		cooldownSeconds int64
	)
	if err := row.Scan(&task.ID, &task.Schedule, &task.Enabled, &lastRun, &lastSuccess, &task.NextRun,
		&task.RunCount, &task.SuccessCount, &task.ErrorCount, &task.LastError, &task.HandlerID, &cooldownSeconds); err != nil {
		return model.ScheduledTask{}, err
	}
	if lastRun.Valid {
		task.LastRun = lastRun.Time.UTC()
	}
	if lastSuccess.Valid {
		task.LastSuccess = lastSuccess.Time.UTC()
	}
	task.NextRun = task.NextRun.UTC()
	task.Cooldown = time.Duration(cooldownSeconds) * time.Second
	return task, nil
}

func (s *PostgresStore) InsertReport(ctx context.Context, report model.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, investigation_id, kind, title, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, report.ID, nullIfEmpty(report.InvestigationID), report.Kind, report.Title, report.Summary, report.CreatedAt)
	return err
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (model.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(investigation_id, ''), kind, title, summary, created_at
		FROM reports WHERE id = $1
	`, id)
	var report model.Report
	err := row.Scan(&report.ID, &report.InvestigationID, &report.Kind, &report.Title, &report.Summary, &report.CreatedAt)
	if err != nil {
		return model.Report{}, err
	}
	report.CreatedAt = report.CreatedAt.UTC()
	return report, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, kind string, limit int) ([]model.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(investigation_id, ''), kind, title, summary, created_at
		FROM reports
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Report
	for rows.Next() {
		var report model.Report
		if err := rows.Scan(&report.ID, &report.InvestigationID, &report.Kind, &report.Title, &report.Summary, &report.CreatedAt); err != nil {
			return nil, err
		}
		report.CreatedAt = report.CreatedAt.UTC()
		out = append(out, report)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InsertBenchmark(ctx context.Context, b model.Benchmark) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.RecordedAt.IsZero() {
		b.RecordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO benchmarks (id, metric, value, competitor, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, b.ID, b.Metric, b.Value, nullIfEmpty(b.Competitor), b.RecordedAt)
	return err
}

func (s *PostgresStore) ListBenchmarks(ctx context.Context, metric string, since time.Time) ([]model.Benchmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, metric, value, COALESCE(competitor, ''), recorded_at
		FROM benchmarks
		WHERE metric = $1 AND recorded_at >= $2
		ORDER BY recorded_at
	`, metric, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Benchmark
	for rows.Next() {
		var b model.Benchmark
		if err := rows.Scan(&b.ID, &b.Metric, &b.Value, &b.Competitor, &b.RecordedAt); err != nil {
			return nil, err
		}
		b.RecordedAt = b.RecordedAt.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InsertMetric(ctx context.Context, m model.MetricSample) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (id, name, value, labels, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Name, m.Value, nullIfEmpty(m.Labels), m.Timestamp)
	return err
}

func (s *PostgresStore) ListMetrics(ctx context.Context, name string, since time.Time) ([]model.MetricSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, value, COALESCE(labels, ''), timestamp
		FROM metrics
		WHERE name = $1 AND timestamp >= $2
		ORDER BY timestamp
	`, name, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MetricSample
	for rows.Next() {
		var m model.MetricSample
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &m.Labels, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Timestamp = m.Timestamp.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) InsertPerformanceAlert(ctx context.Context, a model.PerformanceAlert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.RaisedAt.IsZero() {
		a.RaisedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO performance_alerts (id, source, severity, message, raised_at, resolved)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Source, string(a.Severity), a.Message, a.RaisedAt, a.Resolved)
	return err
}

func (s *PostgresStore) ListUnresolvedAlerts(ctx context.Context) ([]model.PerformanceAlert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, severity, message, raised_at, resolved
		FROM performance_alerts
		WHERE resolved = false
		ORDER BY raised_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PerformanceAlert
	for rows.Next() {
		var (
			a        model.PerformanceAlert
			severity string
		)
		if err := rows.Scan(&a.ID, &a.Source, &severity, &a.Message, &a.RaisedAt, &a.Resolved); err != nil {
			return nil, err
		}
		a.Severity = model.Severity(severity)
		a.RaisedAt = a.RaisedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ResolveAlert(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE performance_alerts SET resolved = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
