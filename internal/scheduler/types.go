package scheduler

import "time"

// CheckEvent is a pending price check in the scheduler heap. It lives in
// memory only; the heap is rebuilt from Product fields on daemon restart.
type CheckEvent struct {
	// ProductHash identifies the product to refresh when TriggerAt is reached.
	ProductHash string
	// TriggerAt is the wall-clock time the check should run.
	TriggerAt time.Time
	// CronExpr is the cron expression for recurring checks. Empty means
	// one-shot, no re-scheduling after firing.
	CronExpr string
}
