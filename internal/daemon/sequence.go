package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/tagwatch/tagwatch/internal/retire"
	"github.com/tagwatch/tagwatch/internal/store"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// KeyLastRunVersion is the kv key holding the version the daemon last ran
// as. It drives the install/update one-shot: absent means fresh install,
// a different value means the binary was updated since the last run.
const KeyLastRunVersion = "lastRunVersion"

// ErrRetired is returned by Sequence.Run when the retirement evaluation
// decided to uninstall. The caller should treat it as a clean shutdown
// request, not a startup failure.
var ErrRetired = errors.New("installation retired")

// SignalStore is the slice of the durable store the sequence needs for the
// install/update one-shot and telemetry.
type SignalStore interface {
	GetString(ctx context.Context, key string) (value string, ok bool, err error)
	SetString(ctx context.Context, key, value string) error
	RecordEvent(ctx context.Context, kind, detail string) error
}

// Evaluator runs one retirement evaluation pass.
type Evaluator interface {
	Evaluate(ctx context.Context) (retire.Action, error)
}

// Hooks are the subsystem steps the sequence runs in order. Production
// wiring lives in the daemon command; tests inject recording stubs. A nil
// hook is skipped.
type Hooks struct {
	// RegisterListeners commits all handler registrations: socket api,
	// RPC methods, push notifier, native host dispatch. Runs first so no
	// message arriving during startup is dropped.
	RegisterListeners func(ctx context.Context) error
	// ConfigureResources pushes non-declarative static config, such as
	// the alert badge background color, to the serving layer.
	ConfigureResources func(ctx context.Context) error
	// LoadState hydrates the persisted product state. Everything after it
	// observes fully-loaded state.
	LoadState func(ctx context.Context) error
	// Migrate applies schema migrations against the loaded state.
	Migrate func(ctx context.Context) error
	// Refresh runs the startup price-refresh cycle. It is detached: Run
	// does not wait for it.
	Refresh func(ctx context.Context) error
}

// Sequence performs the strict startup order every daemon start runs
// through:
//
//	1. register listeners
//	2. install/update one-shot from the persisted last-run version
//	3. retirement evaluation
//	4. static resource config
//	5. persisted state load
//	6. schema migrations
//	7. price refresh, detached
//
// Steps 1-6 are sequential; a failed state load or migration halts the
// sequence before the refresh. Step 7 runs in a recovered goroutine whose
// failures are logged, never dropped.
type Sequence struct {
	// Version is the running binary's version, compared against the
	// persisted last-run version.
	Version string
	// WelcomePageUrl opens on fresh install, RetirePageUrl on update and
	// (with the final query parameter) on the final retirement notice.
	WelcomePageUrl string
	RetirePageUrl  string

	Store  SignalStore
	Retire Evaluator
	// Uninstall tears the installation down when retirement is due.
	Uninstall func() error
	// OpenPage opens a url in the user's browser. Best effort: failures
	// are logged, the sequence continues (headless systems have no
	// browser to open).
	OpenPage func(url string) error

	Hooks Hooks
	Log   *log.Logger
	// WG, when set, tracks the detached refresh goroutine so shutdown can
	// wait for it.
	WG *sync.WaitGroup
}

// Run executes one startup pass. It returns ErrRetired after a completed
// uninstall; any other error is a startup failure that the caller surfaces
// unretried.
func (s *Sequence) Run(ctx context.Context) error {
	l := s.Log
	if l == nil {
		l = log.Default()
	}

	if s.Hooks.RegisterListeners != nil {
		if err := s.Hooks.RegisterListeners(ctx); err != nil {
			return fmt.Errorf("register listeners: %w", err)
		}
	}

	if err := s.evalInstallSignal(ctx, l); err != nil {
		return err
	}

	action, err := s.Retire.Evaluate(ctx)
	if err != nil {
		return fmt.Errorf("retirement evaluation: %w", err)
	}
	switch action {
	case retire.ActionFinalNotice:
		s.recordEvent(ctx, l, store.EventFinalNotice, "")
		s.openPage(l, finalNoticeURL(s.RetirePageUrl))
	case retire.ActionUninstall:
		s.recordEvent(ctx, l, store.EventUninstall, "")
		if s.Uninstall != nil {
			if err := s.Uninstall(); err != nil {
				return fmt.Errorf("uninstall: %w", err)
			}
		}
		return ErrRetired
	}

	if s.Hooks.ConfigureResources != nil {
		if err := s.Hooks.ConfigureResources(ctx); err != nil {
			return fmt.Errorf("configure resources: %w", err)
		}
	}

	if s.Hooks.LoadState != nil {
		if err := s.Hooks.LoadState(ctx); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
	}

	if s.Hooks.Migrate != nil {
		if err := s.Hooks.Migrate(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		s.recordEvent(ctx, l, store.EventMigrated, s.Version)
	}

	if s.Hooks.Refresh != nil {
		if s.WG != nil {
			s.WG.Add(1)
		}
		tracklib.SafeGo(l, s.WG, "startup-refresh", nil, func() {
			if err := s.Hooks.Refresh(ctx); err != nil {
				l.Printf("daemon: startup refresh: %v", err)
			}
		})
	}
	return nil
}

// evalInstallSignal re-derives the install/update one-shot from persisted
// state: no last-run version means fresh install, a differing one means
// update. The running version is persisted only after the signal fired, so
// a crash mid-step replays the signal on the next start instead of losing
// it.
func (s *Sequence) evalInstallSignal(ctx context.Context, l *log.Logger) error {
	last, ok, err := s.Store.GetString(ctx, KeyLastRunVersion)
	if err != nil {
		return fmt.Errorf("read last run version: %w", err)
	}
	switch {
	case !ok:
		l.Printf("daemon: fresh install, version %s", s.Version)
		s.recordEvent(ctx, l, store.EventInstall, s.Version)
		s.openPage(l, s.WelcomePageUrl)
	case last != s.Version:
		l.Printf("daemon: updated %s to %s", last, s.Version)
		s.recordEvent(ctx, l, store.EventUpdate, last+" to "+s.Version)
		s.openPage(l, s.RetirePageUrl)
	default:
		return nil
	}
	if err := s.Store.SetString(ctx, KeyLastRunVersion, s.Version); err != nil {
		return fmt.Errorf("persist last run version: %w", err)
	}
	return nil
}

// recordEvent is best effort: telemetry failure never blocks startup.
func (s *Sequence) recordEvent(ctx context.Context, l *log.Logger, kind, detail string) {
	if err := s.Store.RecordEvent(ctx, kind, detail); err != nil {
		l.Printf("daemon: record %s event: %v", kind, err)
	}
}

func (s *Sequence) openPage(l *log.Logger, pageURL string) {
	if s.OpenPage == nil || pageURL == "" {
		return
	}
	if err := s.OpenPage(pageURL); err != nil {
		l.Printf("daemon: open %s: %v", pageURL, err)
	}
}

// finalNoticeURL appends the final-notice query parameter to the
// retirement page url.
func finalNoticeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("final", "1")
	u.RawQuery = q.Encode()
	return u.String()
}
