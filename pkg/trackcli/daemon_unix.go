//go:build !windows

package trackcli

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
)

// getConnectionPath returns the primary transport endpoint to probe.
func getConnectionPath() string {
	return socketPath()
}

// isDaemonRunning reports whether a daemon answers on the Unix socket
// or, failing that, on the TCP fallback address.
func isDaemonRunning(path string) bool {
	conn, err := net.DialTimeout("unix", path, socketDialTimeout)
	if err == nil {
		conn.Close()
		return true
	}
	conn, err = net.DialTimeout("tcp", tcpAddress(), socketDialTimeout)
	if err == nil {
		conn.Close()
		return true
	}
	return false
}

// spawnDaemon starts the daemon as a background process on Unix systems.
func spawnDaemon() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(executable, "daemon")
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	// Detach from parent process group so daemon survives CLI exit
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Release process so it doesn't become a zombie when it exits
	_ = cmd.Process.Release()

	return nil
}
