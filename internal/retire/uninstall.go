package retire

import (
	"log"
	"os"
)

// Uninstaller tears an installation down after the final window elapses:
// native-messaging host manifests first so browsers stop spawning the host,
// then the data directory (state file, checkpoint db, socket), then the
// running daemon itself. Every step is a no-op when its target is already
// gone, so repeated uninstalls are safe.
type Uninstaller struct {
	// DataDir is removed recursively. Empty skips the removal.
	DataDir string
	// RemoveManifests unregisters the native host from all supported
	// browsers. Nil skips the step.
	RemoveManifests func() error
	// StopDaemon requests daemon shutdown once everything else is done.
	// Nil skips the step.
	StopDaemon func()
	Log        *log.Logger
}

// Uninstall runs all steps best-effort and returns the first error seen.
// Later steps still run after a failed one; a half-removed installation
// retries cleanly on the next pass.
func (u *Uninstaller) Uninstall() error {
	l := u.Log
	if l == nil {
		l = log.Default()
	}

	var firstErr error
	if u.RemoveManifests != nil {
		if err := u.RemoveManifests(); err != nil {
			l.Printf("retire: remove host manifests: %v", err)
			firstErr = err
		}
	}
	if u.DataDir != "" {
		if err := os.RemoveAll(u.DataDir); err != nil {
			l.Printf("retire: remove data dir: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if u.StopDaemon != nil {
		u.StopDaemon()
	}
	return firstErr
}
