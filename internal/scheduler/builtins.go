package scheduler

import (
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// Built-in task ids registered at startup (§4.7).
const (
	TaskHourlyBenchmark        = "hourly-benchmark"
	TaskDailyComprehensiveScan = "daily-comprehensive-analysis"
	TaskWeeklyExecutiveReport  = "weekly-executive-report"
	TaskMonthlyCostROI         = "monthly-cost-roi-analysis"
	TaskAnomalyScan            = "anomaly-scan"
	TaskDailyMaintenance       = "daily-db-maintenance"
	TaskWeeklyModelRetrain     = "weekly-model-retrain"
)

// BuiltinSpecs describes the schedule and cooldown for every built-in
// task. The composition root pairs each id with a concrete Handler via
// Register; this package only owns the scheduling policy.
func BuiltinSpecs() []model.ScheduledTask {
	return []model.ScheduledTask{
		{
			ID:       TaskHourlyBenchmark,
			Schedule: "every hour on minute 0",
			Enabled:  true,
			Cooldown: 60 * time.Second,
		},
		{
			ID:       TaskDailyComprehensiveScan,
			Schedule: "daily at 3",
			Enabled:  true,
			Cooldown: 60 * time.Second,
		},
		{
			ID:       TaskWeeklyExecutiveReport,
			Schedule: "weekly on weekday monday at 6",
			Enabled:  true,
			Cooldown: 60 * time.Second,
		},
		{
			ID:       TaskMonthlyCostROI,
			Schedule: "monthly on day 1 at 4",
			Enabled:  true,
			Cooldown: 60 * time.Second,
		},
		{
			ID:       TaskAnomalyScan,
			Schedule: "every 30 minutes",
			Enabled:  true,
			Cooldown: 60 * time.Second,
		},
		{
			ID:       TaskDailyMaintenance,
			Schedule: "daily at 2",
			Enabled:  true,
			Cooldown: 60 * time.Second,
		},
		{
			ID:       TaskWeeklyModelRetrain,
			Schedule: "weekly on weekday sunday at 5",
			Enabled:  true,
			Cooldown: 60 * time.Second,
		},
	}
}
