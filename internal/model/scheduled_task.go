package model

import "time"

// ScheduledTask is one cron-like recurring job tracked by the Scheduler.
type ScheduledTask struct {
	ID           string        `json:"id"`
	Schedule     string        `json:"schedule"` // grammar from §4.7
	Enabled      bool          `json:"enabled"`
	LastRun      time.Time     `json:"last_run,omitempty"`
	LastSuccess  time.Time     `json:"last_success,omitempty"`
	NextRun      time.Time     `json:"next_run"`
	RunCount     int64         `json:"run_count"`
	SuccessCount int64         `json:"success_count"`
	ErrorCount   int64         `json:"error_count"`
	LastError    string        `json:"last_error,omitempty"`
	HandlerID    string        `json:"handler_id"`
	Cooldown     time.Duration `json:"cooldown"`
}

// CooldownElapsed reports whether now minus the last successful run is
// at least the configured cooldown — the invariant the Scheduler must
// never violate (§3, §8).
func (t ScheduledTask) CooldownElapsed(now time.Time) bool {
	if t.LastSuccess.IsZero() {
		return true
	}
	return now.Sub(t.LastSuccess) >= t.Cooldown
}
