// Package retire implements the staged retirement scheduler: the state
// machine that decides on every daemon start, from two persisted wall-clock
// checkpoints, whether to do nothing, show the final retirement notice, or
// self-uninstall. All cross-restart state lives in the checkpoint store;
// every decision is re-derived from the persisted dates plus the current
// time, so the daemon can be killed and restarted at any point between
// stages without corrupting the workflow.
package retire

import (
	"context"
	"log"
	"time"
)

// Checkpoint keys, exactly as persisted in the kv table.
const (
	KeyInitialNoticeDate = "initialNoticeDate"
	KeyFinalNoticeDate   = "finalNoticeDate"
)

// Action is what the current evaluation pass asks the caller to do. Side
// effects (opening the notice page, uninstalling) are the sequencer's job;
// the scheduler only writes checkpoints and returns the action.
type Action int

const (
	ActionNone Action = iota
	ActionFinalNotice
	ActionUninstall
)

func (a Action) String() string {
	switch a {
	case ActionFinalNotice:
		return "final_notice"
	case ActionUninstall:
		return "uninstall"
	default:
		return "none"
	}
}

// Stage is the diagnostic view of the state machine, derived read-only from
// the persisted checkpoints. Stages advance only through Evaluate's writes.
type Stage string

const (
	StageFresh         Stage = "fresh"
	StageInitialWindow Stage = "initial_window"
	StageFinalWindow   Stage = "final_window"
	StageRetired       Stage = "retired"
)

// Status is a read-only snapshot for diagnostics. Dates are unix seconds,
// zero when the checkpoint is unset.
type Status struct {
	Stage             Stage
	InitialNoticeDate int64
	FinalNoticeDate   int64
}

// Checkpoints is the slice of the durable store the scheduler needs.
type Checkpoints interface {
	GetCheckpoint(ctx context.Context, key string) (sec int64, ok bool, err error)
	SetCheckpoint(ctx context.Context, key string, sec int64) error
}

// Scheduler evaluates the retirement state machine. The clock is injectable
// so tests can drive it with fixed instants.
type Scheduler struct {
	store         Checkpoints
	initialWindow int64 // seconds
	finalWindow   int64 // seconds
	now           func() time.Time
	l             *log.Logger
}

// NewScheduler builds a scheduler over the given checkpoint store. The
// windows come from config and must be positive (config enforces that).
// A nil now falls back to time.Now.
func NewScheduler(st Checkpoints, initialWindow, finalWindow time.Duration, now func() time.Time, l *log.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if l == nil {
		l = log.Default()
	}
	return &Scheduler{
		store:         st,
		initialWindow: int64(initialWindow / time.Second),
		finalWindow:   int64(finalWindow / time.Second),
		now:           now,
		l:             l,
	}
}

// Evaluate runs one evaluation pass, strictly sequential. Each forward
// transition persists its checkpoint before the action is returned, so the
// externally visible effect is attempted only after the transition is
// durable. A checkpoint that is absent or does not parse is treated as
// just-installed.
//
// Persistence errors propagate unretried; the pass returns ActionNone so a
// broken store can never trigger an uninstall.
func (s *Scheduler) Evaluate(ctx context.Context) (Action, error) {
	nowSec := s.now().Unix()

	initial, ok, err := s.store.GetCheckpoint(ctx, KeyInitialNoticeDate)
	if err != nil {
		return ActionNone, err
	}
	if !ok {
		if err := s.store.SetCheckpoint(ctx, KeyInitialNoticeDate, nowSec); err != nil {
			return ActionNone, err
		}
		s.l.Printf("retire: initial notice date set to %d", nowSec)
		return ActionNone, nil
	}

	if nowSec-initial <= s.initialWindow {
		return ActionNone, nil
	}

	final, ok, err := s.store.GetCheckpoint(ctx, KeyFinalNoticeDate)
	if err != nil {
		return ActionNone, err
	}
	if !ok {
		// First pass after the initial window elapsed. The checkpoint is
		// written before the notice is shown, so this action fires at most
		// once per installation.
		if err := s.store.SetCheckpoint(ctx, KeyFinalNoticeDate, nowSec); err != nil {
			return ActionNone, err
		}
		s.l.Printf("retire: final notice date set to %d", nowSec)
		return ActionFinalNotice, nil
	}

	if nowSec-final > s.finalWindow {
		s.l.Printf("retire: final window elapsed, uninstall due")
		return ActionUninstall, nil
	}
	return ActionNone, nil
}

// Status derives the diagnostic stage from the persisted checkpoints
// without mutating anything. Useful for the status command; a daemon past
// a window boundary whose Evaluate has not run yet still reports the stage
// its checkpoints put it in.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	nowSec := s.now().Unix()

	initial, ok, err := s.store.GetCheckpoint(ctx, KeyInitialNoticeDate)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{Stage: StageFresh}, nil
	}

	st := Status{Stage: StageInitialWindow, InitialNoticeDate: initial}
	final, ok, err := s.store.GetCheckpoint(ctx, KeyFinalNoticeDate)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return st, nil
	}

	st.FinalNoticeDate = final
	if nowSec-final > s.finalWindow {
		st.Stage = StageRetired
	} else {
		st.Stage = StageFinalWindow
	}
	return st, nil
}
