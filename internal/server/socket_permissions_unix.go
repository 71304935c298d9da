//go:build !windows

package server

import "os"

// setSocketPermissions narrows the control socket to its owner. The
// daemon speaks for one user; other accounts on the machine get nothing.
func setSocketPermissions(path string) {
	_ = os.Chmod(path, 0700)
}
