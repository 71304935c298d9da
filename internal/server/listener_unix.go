//go:build !windows

package server

import (
	"fmt"
	"net"
	"os"

	"github.com/tagwatch/tagwatch/common"
)

// createListener claims the control socket. The unix socket is the
// primary transport; when it cannot be created (exotic filesystems,
// containers without a writable runtime dir) the server falls back to
// loopback TCP on the configured port.
func (s *Server) createListener() (net.Listener, error) {
	socketPath := socketPath()
	_ = os.Remove(socketPath) // stale socket from a crashed daemon

	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		s.log.Printf("unix socket %s unavailable (%v), falling back to tcp", socketPath, err)
		tcpListener, tcpErr := net.Listen("tcp", fmt.Sprintf("%s:%d", common.TCPHost, s.port))
		if tcpErr != nil {
			return nil, fmt.Errorf("error listening: %s", tcpErr.Error())
		}
		return tcpListener, nil
	}
	setSocketPermissions(socketPath)
	return l, nil
}
