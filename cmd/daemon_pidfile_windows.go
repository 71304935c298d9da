//go:build windows

package cmd

import (
	"golang.org/x/sys/windows"
)

// isProcessRunning checks if a process with the given PID is still running.
// On Windows, we open the process with minimal access rights to check if it exists.
func isProcessRunning(pid int) bool {
	// SYNCHRONIZE is the least privilege that still answers existence
	handle, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		return false
	}
	windows.CloseHandle(handle)
	return true
}
