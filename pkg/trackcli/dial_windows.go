//go:build windows

package trackcli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
	"github.com/tagwatch/tagwatch/common"
)

// dialPipeFunc points to the actual pipe dialer. Tests swap it to fake
// pipe connections.
var dialPipeFunc = dialPipeImpl

// dialPipeImpl dials a Windows named pipe. A nil timeout uses
// common.DefaultDialTimeout.
func dialPipeImpl(path string, timeout *time.Duration) (net.Conn, error) {
	if timeout == nil {
		defaultTimeout := common.DefaultDialTimeout
		timeout = &defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, path)
}

// dial establishes a connection to the daemon using Windows named pipe with TCP fallback.
// Transport priority: Named Pipe > TCP
func dial() (net.Conn, error) {
	if forceTCP() {
		debugLog("Forcing TCP connection to %s", tcpAddress())
		return dialFunc("tcp", tcpAddress())
	}
	pipePath := pipePath()
	debugLog("Attempting connection via named pipe at %s", pipePath)
	timeout := common.DefaultDialTimeout
	conn, pipeErr := dialPipeFunc(pipePath, &timeout)
	if pipeErr != nil {
		debugLog("Named pipe connection failed: %v, falling back to TCP", pipeErr)
		conn, err := dialFunc("tcp", tcpAddress())
		if err != nil {
			return nil, fmt.Errorf("failed to connect: named pipe error: %v; tcp error: %w", pipeErr, err)
		}
		debugLog("Successfully connected via TCP fallback to %s", tcpAddress())
		return conn, nil
	}
	debugLog("Successfully connected via named pipe")
	return conn, nil
}
