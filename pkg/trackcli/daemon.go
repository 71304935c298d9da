package trackcli

import (
	"fmt"
	"os"
	"time"

	"github.com/tagwatch/tagwatch/common"
)

const (
	defaultStartTimeout = 10 * time.Second
	socketPollInterval  = 50 * time.Millisecond
	socketDialTimeout   = 100 * time.Millisecond
)

// ensureDaemonFunc points to ensureDaemon. Tests swap it to skip the
// spawn path.
var ensureDaemonFunc = ensureDaemon

// ensureDaemon checks if the daemon is running and spawns it if not.
// Returns nil if the daemon is running or was successfully started.
func ensureDaemon() error {
	path := getConnectionPath()

	if isDaemonRunning(path) {
		return nil
	}

	if os.Getenv(common.SkipDaemonSpawnEnv) == "1" {
		return nil
	}

	if err := spawnDaemon(); err != nil {
		return err
	}

	return waitForSocket(path, getDaemonStartTimeout())
}

// getDaemonStartTimeout returns how long to wait for a spawned daemon
// to come up, overridable with TAGWATCH_DAEMON_TIMEOUT.
func getDaemonStartTimeout() time.Duration {
	if v := os.Getenv(common.DaemonTimeoutEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultStartTimeout
}

// waitForSocket polls until the socket/pipe becomes available or timeout expires.
func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if isDaemonRunning(path) {
			return nil
		}
		time.Sleep(socketPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
