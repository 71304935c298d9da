//go:build windows

package server

// cleanupSocket has nothing to do on Windows: the named pipe disappears
// with its last open handle.
func cleanupSocket() error {
	return nil
}
