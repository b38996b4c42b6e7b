package genie

import "github.com/genie68/a68run/internal/tree"

// SetTimeLimiter installs the CPU-time sampler used by checkTimeLimit.
// Kept as a setter rather than a NewEngine parameter so internal/engine
// can wire golang.org/x/sys/unix.Getrusage in after construction without
// this package importing x/sys directly (§5 Cancellation/timeouts).
func (e *Engine) SetTimeLimiter(t TimeLimiter) { e.timeLimiter = t }

// checkTimeLimit is polled every sampleEvery units (§5 "periodic check,
// not per-unit, to keep the cost negligible"). A nil timeLimiter or a
// zero TimeLimitSec disables the check entirely.
func (e *Engine) checkTimeLimit(n *tree.Node) error {
	if e.Limits.TimeLimitSec <= 0 || e.timeLimiter == nil {
		return nil
	}
	if e.timeLimiter.CPUSeconds() >= float64(e.Limits.TimeLimitSec) {
		return fatal("TIME-LIMIT-EXCEEDED", n, errString("CPU time limit exceeded"))
	}
	return nil
}
