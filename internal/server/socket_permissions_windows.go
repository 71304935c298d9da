//go:build windows

package server

// setSocketPermissions does nothing on Windows: access to the named pipe
// is governed by its security descriptor, not file modes.
func setSocketPermissions(string) {}
