package cmd

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// parseEvery validates a --every interval value. Zero means "no fixed
// interval"; anything below MIN_CHECK_EVERY is rejected rather than
// silently clamped so the user knows their schedule was not applied.
func parseEvery(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("error: invalid --every duration, expected format like 6h, 30m or 1h30m")
	}
	if d == 0 {
		return 0, nil
	}
	if d < MIN_CHECK_EVERY {
		return 0, fmt.Errorf("error: --every must be at least %s", MIN_CHECK_EVERY)
	}
	return d, nil
}

// parseCron validates a --cron expression and reports its next
// occurrence, so typos surface before the daemon accepts the schedule.
func parseCron(expr string) (time.Time, error) {
	if expr == "" {
		return time.Time{}, nil
	}
	if !gronx.IsValid(expr) {
		return time.Time{}, fmt.Errorf("error: invalid --cron expression %q", expr)
	}
	next, err := gronx.NextTick(expr, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("error: invalid --cron expression %q", expr)
	}
	return next, nil
}
