// Package daemon provides the tagwatch daemon core: the startup sequence
// every daemon start runs through, and the runner managing the process
// lifecycle including start, stop and graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned when Start is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// Service name constants for Windows service registration.
const (
	DefaultServiceName = "tagwatch"
	DefaultDisplayName = "Tagwatch Price Tracker"
	DefaultDescription = "Product price tracking companion daemon"
)

// Config holds the runner configuration.
type Config struct {
	// ServiceName is the Windows service name.
	ServiceName string

	// DisplayName is the Windows service display name.
	DisplayName string

	// Port is the TCP port for fallback connections. Zero picks an
	// ephemeral port.
	Port int

	// ConfigDir is the directory configuration files live in.
	ConfigDir string

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Zero means no timeout.
	ShutdownTimeout time.Duration
}

// Dependencies holds the runner's external dependencies, injectable for
// tests.
type Dependencies struct {
	// ListenerFactory creates network listeners. Nil uses net.Listen.
	ListenerFactory func(network, address string) (net.Listener, error)

	// ShutdownFunc is called during shutdown to release resources.
	ShutdownFunc func() error
}

// Runner manages the daemon lifecycle.
type Runner struct {
	config   *Config
	deps     *Dependencies
	running  bool
	mu       sync.Mutex
	cancel   context.CancelFunc
	listener net.Listener
}

// New creates a runner. A nil config gets the default service identity; a
// nil deps gets net.Listen and no shutdown hook.
func New(config *Config, deps *Dependencies) *Runner {
	if config == nil {
		config = &Config{
			ServiceName: DefaultServiceName,
			DisplayName: DefaultDisplayName,
		}
	}
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}
	return &Runner{config: config, deps: deps}
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Start claims the listen port and blocks until the context is canceled.
// Returns ErrAlreadyRunning on a second Start.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, r.cancel = context.WithCancel(ctx)

	// The listener binds before running flips; a failed bind leaves the
	// runner stopped.
	addr := ":0"
	if r.config.Port > 0 {
		addr = fmt.Sprintf(":%d", r.config.Port)
	}
	listener, err := r.deps.ListenerFactory("tcp", addr)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.listener = listener
	r.running = true
	r.mu.Unlock()

	<-ctx.Done()

	r.mu.Lock()
	r.running = false
	r.closeListener()
	r.mu.Unlock()

	return ctx.Err()
}

// closeListener closes the listener if present. Caller holds the mutex.
func (r *Runner) closeListener() {
	if r.listener != nil {
		_ = r.listener.Close()
		r.listener = nil
	}
}

// Shutdown gracefully stops the daemon: the shutdown hook runs first
// (bounded by ShutdownTimeout when configured), then the listener closes
// and the Start context is canceled.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.mu.Unlock()

	if err := r.runShutdownFunc(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
	r.closeListener()
	return nil
}

func (r *Runner) runShutdownFunc() error {
	if r.deps.ShutdownFunc == nil {
		return nil
	}
	if r.config.ShutdownTimeout <= 0 {
		// Cleanup errors must not prevent the stop itself.
		_ = r.deps.ShutdownFunc()
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- r.deps.ShutdownFunc()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(r.config.ShutdownTimeout):
		r.mu.Lock()
		r.running = false
		if r.cancel != nil {
			r.cancel()
		}
		r.mu.Unlock()
		return ErrShutdownTimeout
	}
}

// IsRunning reports whether the daemon is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
