// Package logging provides structured logging with investigation/task
// correlation, adapted from the platform's shared logging conventions.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys carried through Orchestrator
// and Scheduler call chains.
type ContextKey string

const (
	// InvestigationIDKey correlates log lines to one Investigation run.
	InvestigationIDKey ContextKey = "investigation_id"
	// TaskIDKey correlates log lines to one scheduled task run.
	TaskIDKey ContextKey = "task_id"
	// ComponentKey names the emitting component (provider id, engine id, ...).
	ComponentKey ContextKey = "component"
)

// Logger wraps logrus.Logger with the fields this module threads through
// every component: engine name, investigation id, task id.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a Logger for the named component ("orchestrator",
// "scheduler", or a provider/engine id).
func New(component, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, component: component}
}

// NewFromEnv builds a Logger from LOG_LEVEL/LOG_FORMAT, defaulting to
// info/json.
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// WithContext returns a log entry carrying investigation/task/component
// correlation fields found on ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)

	if v := ctx.Value(InvestigationIDKey); v != nil {
		entry = entry.WithField("investigation_id", v)
	}
	if v := ctx.Value(TaskIDKey); v != nil {
		entry = entry.WithField("task_id", v)
	}
	return entry
}

// WithInvestigation returns a log entry scoped to one investigation id.
func (l *Logger) WithInvestigation(investigationID string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"component":        l.component,
		"investigation_id": investigationID,
	})
}

// WithTask returns a log entry scoped to one scheduled-task id.
func (l *Logger) WithTask(taskID string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"component": l.component,
		"task_id":   taskID,
	})
}

// LogStep logs an Investigation step transition.
func (l *Logger) LogStep(ctx context.Context, stepName, status string, duration time.Duration, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"step":        stepName,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("investigation step finished with error")
		return
	}
	entry.Debug("investigation step finished")
}

// LogProviderCall logs one Provider Adapter invocation.
func (l *Logger) LogProviderCall(ctx context.Context, providerID, method string, cacheHit bool, duration time.Duration, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"provider":    providerID,
		"method":      method,
		"cache_hit":   cacheHit,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("provider call failed")
		return
	}
	entry.Debug("provider call completed")
}

// Context helpers.

// WithInvestigationID attaches an investigation id to ctx.
func WithInvestigationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, InvestigationIDKey, id)
}

// InvestigationID retrieves the investigation id from ctx, if any.
func InvestigationID(ctx context.Context) string {
	if v, ok := ctx.Value(InvestigationIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTaskID attaches a scheduled-task id to ctx.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TaskIDKey, id)
}

// TaskID retrieves the scheduled-task id from ctx, if any.
func TaskID(ctx context.Context) string {
	if v, ok := ctx.Value(TaskIDKey).(string); ok {
		return v
	}
	return ""
}

var defaultLogger *Logger

// InitDefault initializes the package-level default logger.
func InitDefault(component, level, format string) {
	defaultLogger = New(component, level, format)
}

// Default returns the package-level logger, initializing a fallback if
// InitDefault was never called.
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = New("orchestrator", "info", "json")
	}
	return defaultLogger
}
