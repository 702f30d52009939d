package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRunHourlyOnMinute(t *testing.T) {
	after := time.Date(2026, 7, 30, 14, 15, 0, 0, time.UTC)
	next, ok := NextRun("every hour on minute 0", after)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 30, 15, 0, 0, 0, time.UTC), next)
}

func TestNextRunEveryNMinutes(t *testing.T) {
	after := time.Date(2026, 7, 30, 14, 15, 0, 0, time.UTC)
	next, ok := NextRun("every 30 minutes", after)
	assert.True(t, ok)
	assert.Equal(t, after.Add(30*time.Minute), next)
}

func TestNextRunDailyAt(t *testing.T) {
	after := time.Date(2026, 7, 30, 14, 15, 0, 0, time.UTC)
	next, ok := NextRun("daily at 3", after)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC), next)

	next, ok = NextRun("daily at 3", time.Date(2026, 7, 30, 1, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 30, 3, 0, 0, 0, time.UTC), next)
}

func TestNextRunWeeklyOnWeekday(t *testing.T) {
	// 2026-07-30 is a Thursday.
	after := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	next, ok := NextRun("weekly on weekday monday at 6", after)
	assert.True(t, ok)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.True(t, next.After(after))
}

func TestNextRunMonthlyOnDay(t *testing.T) {
	after := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	next, ok := NextRun("monthly on day 1 at 4", after)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 1, 4, 0, 0, 0, time.UTC), next)
}

func TestNextRunFallsBackToStandardCron(t *testing.T) {
	after := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	next, ok := NextRun("*/15 * * * *", after)
	assert.True(t, ok)
	assert.True(t, next.After(after))
}

func TestNextRunUnrecognizedFallsBackToPlusOneHour(t *testing.T) {
	after := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	next, ok := NextRun("whenever the mood strikes", after)
	assert.False(t, ok)
	assert.Equal(t, after.Add(time.Hour), next)
}
