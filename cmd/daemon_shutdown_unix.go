//go:build !windows

package cmd

import (
	"context"
	"os/signal"
	"syscall"
)

// setupShutdownHandler returns a context canceled on SIGTERM or SIGINT,
// so the daemon loop can drain and exit cleanly.
func setupShutdownHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}
