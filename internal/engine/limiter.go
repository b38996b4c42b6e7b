package engine

import "golang.org/x/sys/unix"

// rusageLimiter implements genie.TimeLimiter by sampling the process's
// own CPU time via getrusage, the finer-grained alternative to
// time.Since §5's periodic time-limit check calls for.
type rusageLimiter struct{}

// NewCPUTimeLimiter returns the default genie.TimeLimiter, backed by
// golang.org/x/sys/unix.Getrusage(RUSAGE_SELF) rather than wall-clock
// time, so CPU actually consumed (not time spent blocked) is what
// counts against --timelimit.
func NewCPUTimeLimiter() *rusageLimiter { return &rusageLimiter{} }

func (*rusageLimiter) CPUSeconds() float64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	user := float64(ru.Utime.Sec) + float64(ru.Utime.Usec)/1e6
	sys := float64(ru.Stime.Sec) + float64(ru.Stime.Usec)/1e6
	return user + sys
}
