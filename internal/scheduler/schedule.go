package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// weekdays maps the grammar's weekday names to time.Weekday.
var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun computes the next dispatch time after `after` from a
// schedule expression. It recognizes the small mini-grammar from §4.7
// first (`every hour on minute M`, `every N minutes`, `daily at HH`,
// `weekly on weekday D at HH`, `monthly on day D at HH`), falls back to
// parsing `expr` as a standard five-field cron expression, and finally
// falls back to `after + 1 hour` with ok=false so the caller can record
// a warning, per §4.7's "unknown patterns" clause.
func NextRun(expr string, after time.Time) (next time.Time, ok bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(expr)))
	if next, matched := matchMiniGrammar(fields, after); matched {
		return next, true
	}

	if schedule, err := standardParser.Parse(expr); err == nil {
		return schedule.Next(after), true
	}

	return after.Add(time.Hour), false
}

func matchMiniGrammar(fields []string, after time.Time) (time.Time, bool) {
	switch {
	case len(fields) == 5 && fields[0] == "every" && fields[1] == "hour" && fields[2] == "on" && fields[3] == "minute":
		minute, err := strconv.Atoi(fields[4])
		if err != nil {
			return time.Time{}, false
		}
		return nextHourlyAt(after, minute), true

	case len(fields) == 3 && fields[0] == "every" && fields[2] == "minutes":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return time.Time{}, false
		}
		return after.Add(time.Duration(n) * time.Minute), true

	case len(fields) == 3 && fields[0] == "daily" && fields[1] == "at":
		hour, err := strconv.Atoi(fields[2])
		if err != nil {
			return time.Time{}, false
		}
		return nextDailyAt(after, hour), true

	case len(fields) == 6 && fields[0] == "weekly" && fields[1] == "on" && fields[2] == "weekday" && fields[4] == "at":
		day, ok := weekdays[fields[3]]
		if !ok {
			return time.Time{}, false
		}
		hour, err := strconv.Atoi(fields[5])
		if err != nil {
			return time.Time{}, false
		}
		return nextWeeklyAt(after, day, hour), true

	case len(fields) == 6 && fields[0] == "monthly" && fields[1] == "on" && fields[2] == "day" && fields[4] == "at":
		dom, err := strconv.Atoi(fields[3])
		if err != nil {
			return time.Time{}, false
		}
		hour, err := strconv.Atoi(fields[5])
		if err != nil {
			return time.Time{}, false
		}
		return nextMonthlyAt(after, dom, hour), true
	}
	return time.Time{}, false
}

func nextHourlyAt(after time.Time, minute int) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), after.Hour(), minute, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = candidate.Add(time.Hour)
	}
	return candidate
}

func nextDailyAt(after time.Time, hour int) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), hour, 0, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func nextWeeklyAt(after time.Time, day time.Weekday, hour int) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), hour, 0, 0, 0, after.Location())
	for candidate.Weekday() != day || !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func nextMonthlyAt(after time.Time, dayOfMonth, hour int) time.Time {
	candidate := time.Date(after.Year(), after.Month(), dayOfMonth, hour, 0, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = time.Date(after.Year(), after.Month()+1, dayOfMonth, hour, 0, 0, 0, after.Location())
	}
	return candidate
}

// ValidationError describes a schedule expression this grammar could
// not interpret even via the cron fallback.
type ValidationError struct {
	Expr string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("schedule expression %q is not recognized", e.Expr)
}
