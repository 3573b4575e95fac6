// Package mono provides monotonic-clock helpers, grounded on
// mono.NanoTime()/mono.Since() usage in aistore's xact/xs/tcb.go.
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start on a monotonic
// clock source (time.Since never observes wall-clock adjustments).
func NanoTime() int64 { return int64(time.Since(start)) }

// Since returns the monotonic duration elapsed since a NanoTime reading.
func Since(t int64) time.Duration { return time.Duration(NanoTime() - t) }
