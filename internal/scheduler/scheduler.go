package scheduler

import (
	"container/heap"
	"context"
	"time"

	"github.com/adhocore/gronx"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

const maxSleepCap = 60 * time.Second

// Scheduler owns the pending price-check heap. All mutation goes through
// channels into the single run goroutine, which sleeps until the next
// event's trigger time and then invokes onTrigger with the product hash.
type Scheduler struct {
	addChan    chan CheckEvent
	removeChan chan string
	ctx        context.Context
}

// New creates and starts a Scheduler. The onTrigger callback runs on the
// scheduler goroutine when an event fires. The goroutine exits when ctx is
// cancelled.
func New(ctx context.Context, onTrigger func(string)) *Scheduler {
	s := &Scheduler{
		addChan:    make(chan CheckEvent, 64),
		removeChan: make(chan string, 64),
		ctx:        ctx,
	}
	go s.run(onTrigger)
	return s
}

// Add enqueues a check event.
func (s *Scheduler) Add(event CheckEvent) {
	select {
	case s.addChan <- event:
	case <-s.ctx.Done():
	}
}

// Remove cancels a pending check by product hash.
func (s *Scheduler) Remove(productHash string) {
	select {
	case s.removeChan <- productHash:
	case <-s.ctx.Done():
	}
}

// run maintains the heap and the wake-up timer. Sleeps are capped at
// maxSleepCap so a clock step never delays a check by more than a minute.
// Recurring events (CronExpr != "") are pushed back with their next
// occurrence after firing.
func (s *Scheduler) run(onTrigger func(string)) {
	h := &checkHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			// Nothing pending, block on the channels alone.
			return nil
		}
		next := (*h)[0].TriggerAt
		dur := time.Until(next)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event := <-s.addChan:
			heapPush(h, event)
			timerCh = resetTimer()

		case hash := <-s.removeChan:
			heapRemoveByHash(h, hash)
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				event := heapPop(h)
				onTrigger(event.ProductHash)
				if event.CronExpr != "" {
					next, err := nextCronOccurrence(event.CronExpr, time.Now())
					if err == nil {
						heapPush(h, CheckEvent{
							ProductHash: event.ProductHash,
							TriggerAt:   next,
							CronExpr:    event.CronExpr,
						})
					}
				}
			}
			timerCh = resetTimer()
		}
	}
}

// nextCronOccurrence returns the next time the cron expression fires
// strictly after start.
func nextCronOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// hasOccurrenceWithinYear reports whether expr fires at least once within a
// year of from. Invalid expressions count as no occurrence.
func hasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}

// LoadSchedules scans the tracked products at daemon startup and splits the
// scheduled ones into checks that were missed while the daemon was down and
// checks still in the future.
//
// Products with CheckStateScheduled and NextCheckAt before now flip to
// CheckStateMissed and are returned in missed for an immediate refresh.
// Scheduled products with NextCheckAt after now come back in future as
// CheckEvents ready to push into the heap. Paused products and products
// without a NextCheckAt are skipped.
//
// A missed recurring product additionally contributes its next cron
// occurrence to future so the cadence survives the outage.
func LoadSchedules(products tracklib.ProductsMap, now time.Time) (missed []*tracklib.Product, future []CheckEvent) {
	for _, p := range products {
		if p.CheckState != tracklib.CheckStateScheduled || p.Paused {
			continue
		}
		if p.NextCheckAt.IsZero() {
			continue
		}
		if p.NextCheckAt.Before(now) {
			p.CheckState = tracklib.CheckStateMissed
			missed = append(missed, p)
			if p.CronExpr != "" {
				next, err := nextCronOccurrence(p.CronExpr, now)
				if err == nil {
					future = append(future, CheckEvent{
						ProductHash: p.Hash,
						TriggerAt:   next,
						CronExpr:    p.CronExpr,
					})
				}
			}
		} else {
			future = append(future, CheckEvent{
				ProductHash: p.Hash,
				TriggerAt:   p.NextCheckAt,
				CronExpr:    p.CronExpr,
			})
		}
	}
	return missed, future
}
