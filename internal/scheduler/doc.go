// Package scheduler decides when tracked products get their next price
// check. A single goroutine owns a min-heap of CheckEvents sorted by
// trigger time and sleeps until the earliest one, capped at 60 seconds so
// NTP steps, DST transitions and system sleep cannot stall the loop.
//
// The scheduler holds no durable state. The heap is rebuilt from Product
// fields on daemon restart via LoadSchedules, which also surfaces checks
// that were missed while the daemon was down.
package scheduler
