//go:build windows

package logger

// EventLogWriter is the slice of the Windows Event Log API the event
// logger needs; eventlog.Log satisfies it, tests substitute a recorder.
type EventLogWriter interface {
	Info(eid uint32, msg string) error
	Warning(eid uint32, msg string) error
	Error(eid uint32, msg string) error
	Close() error
}
