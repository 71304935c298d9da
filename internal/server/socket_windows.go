//go:build windows

package server

import (
	"os"

	"github.com/tagwatch/tagwatch/common"
)

// pipePath returns the Windows named pipe path.
// This is a convenience wrapper around common.PipePath().
func pipePath() string {
	return common.PipePath()
}

// forceTCP reports whether the TAGWATCH_FORCE_TCP environment variable
// requests skipping the named pipe transport entirely.
func forceTCP() bool {
	v := os.Getenv(common.ForceTCPEnv)
	return v == "1" || v == "true"
}
