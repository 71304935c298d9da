//go:build !windows

package trackcli

import (
	"net"
	"os"
	"path/filepath"
	"time"
)

// When the spawn tests re-exec this test binary as "daemon", stand in
// for one: hold the socket open long enough for waitForSocket, then
// exit before the test runner parses the bogus argument.
func init() {
	if os.Getenv("TRACKCLI_DAEMON_HELPER") != "1" {
		return
	}
	if len(os.Args) < 2 || os.Args[1] != "daemon" {
		return
	}
	socket := os.Getenv("TAGWATCH_SOCKET_PATH")
	if socket == "" {
		socket = filepath.Join(os.TempDir(), "tagwatch.sock")
	}
	listener, err := net.Listen("unix", socket)
	if err != nil {
		os.Exit(1)
	}
	defer listener.Close()
	time.Sleep(500 * time.Millisecond)
	os.Exit(0)
}
