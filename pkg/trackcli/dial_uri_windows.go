//go:build windows

package trackcli

import (
	"fmt"
	"net"

	"github.com/tagwatch/tagwatch/common"
)

// dialURI connects to a daemon using the parsed URI.
// This implementation handles pipe and tcp schemes.
func dialURI(uri *DaemonURI) (net.Conn, error) {
	switch uri.Scheme {
	case SchemePipe:
		debugLog("Connecting via named pipe to %s", uri.Address)
		timeout := common.DefaultDialTimeout
		conn, err := dialPipeFunc(uri.Address, &timeout)
		if err != nil {
			return nil, fmt.Errorf("named pipe connection failed: %w", err)
		}
		return conn, nil

	case SchemeTCP:
		debugLog("Connecting via TCP to %s", uri.Address)
		conn, err := dialFunc("tcp", uri.Address)
		if err != nil {
			return nil, fmt.Errorf("tcp connection failed: %w", err)
		}
		return conn, nil

	case SchemeUnix:
		// ParseDaemonURI rejects unix URIs on Windows already
		return nil, ErrUnixNotSupported

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, uri.Scheme)
	}
}
