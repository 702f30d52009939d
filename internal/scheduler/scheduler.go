// Package scheduler implements the cron-like dispatcher for recurring
// work (§4.7): per-task cooldown enforcement, a tiny schedule grammar
// for computing next-run, isolated task execution, and run-history
// bookkeeping. It runs on a single dedicated loop goroutine and
// dispatches work onto a bounded worker pool without ever blocking the
// loop itself.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chainsentinel/orchestrator/internal/logging"
	"github.com/chainsentinel/orchestrator/internal/metrics"
	"github.com/chainsentinel/orchestrator/internal/model"
)

// Handler is the work a ScheduledTask performs when dispatched. A
// returned error is recorded as the task's last-error and counted
// toward its failure streak; it never propagates to the loop or to
// other tasks (§4.7: "an exception in one task does not affect
// others").
type Handler func(ctx context.Context) error

// entry pairs a ScheduledTask's bookkeeping with its handler and
// consecutive-failure streak.
type entry struct {
	task             model.ScheduledTask
	handler          Handler
	consecutiveFails int
}

// Scheduler owns the registered tasks and the dispatch loop.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*entry
	workers chan struct{}

	// AlertThreshold is the number of consecutive failures that raises
	// an alert without disabling the task (§4.7).
	AlertThreshold int
	// PollInterval is how often the loop wakes to scan for due tasks;
	// the contract requires at least once per minute.
	PollInterval time.Duration

	Logger *logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	loopWG sync.WaitGroup
}

// New constructs a Scheduler. maxConcurrentDispatch bounds how many
// task handlers may run at once so the loop thread is never blocked
// waiting on a slow handler.
func New(maxConcurrentDispatch int) *Scheduler {
	if maxConcurrentDispatch <= 0 {
		maxConcurrentDispatch = 8
	}
	return &Scheduler{
		tasks:          make(map[string]*entry),
		workers:        make(chan struct{}, maxConcurrentDispatch),
		AlertThreshold: 3,
		PollInterval:   30 * time.Second,
		Logger:         logging.Default(),
	}
}

// Register adds a task with its dispatch handler. If NextRun is zero
// it is computed immediately from the task's schedule expression.
func (s *Scheduler) Register(task model.ScheduledTask, handler Handler) error {
	if task.ID == "" {
		return fmt.Errorf("scheduler: task id is required")
	}
	if handler == nil {
		return fmt.Errorf("scheduler: task %q requires a handler", task.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if task.NextRun.IsZero() {
		next, ok := NextRun(task.Schedule, time.Now().UTC())
		if !ok {
			s.Logger.Warnf("scheduler: unrecognized schedule %q for task %q, falling back to +1h", task.Schedule, task.ID)
		}
		task.NextRun = next
	}
	s.tasks[task.ID] = &entry{task: task, handler: handler}
	return nil
}

// Enable flips a task's enabled flag on.
func (s *Scheduler) Enable(id string) error { return s.setEnabled(id, true) }

// Disable flips a task's enabled flag off.
func (s *Scheduler) Disable(id string) error { return s.setEnabled(id, false) }

func (s *Scheduler) setEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("scheduler: unknown task %q", id)
	}
	e.task.Enabled = enabled
	return nil
}

// ErrTooSoon is returned by RunNow when the task's cooldown has not
// yet elapsed since its last successful run (§8 scenario 6).
var ErrTooSoon = fmt.Errorf("scheduler: task run refused, cooldown has not elapsed")

// RunNow dispatches a task immediately, bypassing its next-run
// schedule but never its cooldown.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: unknown task %q", id)
	}
	now := time.Now().UTC()
	if !e.task.CooldownElapsed(now) {
		s.mu.Unlock()
		return ErrTooSoon
	}
	s.mu.Unlock()

	s.dispatch(ctx, id)
	return nil
}

// Status returns a point-in-time snapshot of every registered task,
// ordered by ID for determinism.
func (s *Scheduler) Status() []model.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ScheduledTask, 0, len(s.tasks))
	for _, e := range s.tasks {
		out = append(out, e.task)
	}
	sortTasksByID(out)
	return out
}

func sortTasksByID(tasks []model.ScheduledTask) {
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j].ID < tasks[j-1].ID; j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
}

// Start begins the dispatch loop, waking at PollInterval (never
// coarser than once per minute) to scan for due tasks.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	interval := s.PollInterval
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}

	s.loopWG.Add(1)
	go func() {
		defer s.loopWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.scan(runCtx)
			}
		}
	}()
}

// Stop halts the dispatch loop and waits for in-flight handlers to
// finish or ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.loopWG.Wait()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// scan dispatches every enabled task whose next-run has arrived and
// whose cooldown has elapsed.
func (s *Scheduler) scan(ctx context.Context) {
	now := time.Now().UTC()

	s.mu.Lock()
	var due []string
	for id, e := range s.tasks {
		if !e.task.Enabled {
			continue
		}
		if e.task.NextRun.After(now) {
			continue
		}
		if !e.task.CooldownElapsed(now) {
			continue
		}
		due = append(due, id)
	}
	s.mu.Unlock()

	for _, id := range due {
		s.dispatch(ctx, id)
	}
}

// dispatch runs one task's handler on the bounded worker pool,
// recording the outcome without ever letting a handler panic or error
// propagate to the loop or to its siblings.
func (s *Scheduler) dispatch(ctx context.Context, id string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.workers <- struct{}{}
		defer func() { <-s.workers }()

		s.mu.Lock()
		e, ok := s.tasks[id]
		if !ok {
			s.mu.Unlock()
			return
		}
		handler := e.handler
		s.mu.Unlock()

		start := time.Now().UTC()
		err := s.runIsolated(ctx, handler)
		s.record(id, start, err)
	}()
}

// runIsolated recovers a handler panic into an error so one task's
// bug can never take down the loop or another task's run.
func (s *Scheduler) runIsolated(ctx context.Context, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: task handler panicked: %v", r)
		}
	}()
	return handler(ctx)
}

func (s *Scheduler) record(id string, start time.Time, runErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[id]
	if !ok {
		return
	}

	now := time.Now().UTC()
	e.task.LastRun = start
	e.task.RunCount++

	if runErr != nil {
		e.task.ErrorCount++
		e.task.LastError = runErr.Error()
		e.consecutiveFails++
		if e.consecutiveFails >= s.AlertThreshold {
			s.Logger.Errorf("scheduler: task %q has failed %d consecutive runs", id, e.consecutiveFails)
			metrics.SchedulerAlertsTotal.Inc()
		}
	} else {
		e.task.SuccessCount++
		e.task.LastSuccess = now
		e.task.LastError = ""
		e.consecutiveFails = 0
	}

	next, ok := NextRun(e.task.Schedule, now)
	if !ok {
		s.Logger.Warnf("scheduler: unrecognized schedule %q for task %q, falling back to +1h", e.task.Schedule, id)
	}
	e.task.NextRun = next

	metrics.ObserveSchedulerRun(id, runErr == nil, now.Sub(start))
}
