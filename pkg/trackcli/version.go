package trackcli

import (
	"fmt"
	"os"
)

// VersionCheckEnv suppresses version mismatch warnings when set to any
// non-empty value (useful for scripts and CI).
const VersionCheckEnv = "TAGWATCH_SUPPRESS_VERSION_CHECK"

// CheckVersionMismatch compares the daemon's version against the CLI's
// and warns on stderr when they differ. Mismatches never block
// execution; an outdated daemon still speaks the same protocol until
// it is restarted.
func (c *Client) CheckVersionMismatch(expectedVersion string) {
	if expectedVersion == "" {
		return
	}

	if os.Getenv(VersionCheckEnv) != "" {
		return
	}

	daemonVersion, err := c.GetDaemonVersion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not verify daemon version: %v\n", err)
		return
	}

	if daemonVersion.Version != expectedVersion {
		fmt.Fprintf(os.Stderr, "Warning: CLI version (%s) differs from daemon version (%s)\n",
			expectedVersion, daemonVersion.Version)
		fmt.Fprintf(os.Stderr, "Run 'tagwatch stop-daemon' to restart the daemon with the new version.\n")
	}
}
