//go:build !windows

package server

import (
	"errors"
	"io/fs"
	"os"
)

// cleanupSocket unlinks the daemon's unix socket. A socket that was never
// created is not an error.
func cleanupSocket() error {
	err := os.Remove(socketPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
