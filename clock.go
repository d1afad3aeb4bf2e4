package cosmos

import (
	"time"

	"golang.org/x/sys/unix"
)

// ClockIDTag is implemented by phantom marker types that select a
// specific POSIX clock at compile time, the way the C++ original
// parameterizes Clock and TimerFD on an enum template argument. Using
// distinct Go types instead of a runtime enum means a TimerFD[Monotonic]
// can never be accidentally armed against Realtime's semantics.
type ClockIDTag interface {
	clockID() int32
}

type monotonicTag struct{}

func (monotonicTag) clockID() int32 { return unix.CLOCK_MONOTONIC }

type realtimeTag struct{}

func (realtimeTag) clockID() int32 { return unix.CLOCK_REALTIME }

type boottimeTag struct{}

func (boottimeTag) clockID() int32 { return unix.CLOCK_BOOTTIME }

type processCPUTag struct{}

func (processCPUTag) clockID() int32 { return unix.CLOCK_PROCESS_CPUTIME_ID }

type threadCPUTag struct{}

func (threadCPUTag) clockID() int32 { return unix.CLOCK_THREAD_CPUTIME_ID }

// Monotonic, Realtime, Boottime, ProcessCPU, ThreadCPU select the clock a
// Clock[C] or TimerFD[C] instantiation is bound to.
type (
	Monotonic  = monotonicTag
	Realtime   = realtimeTag
	Boottime   = boottimeTag
	ProcessCPU = processCPUTag
	ThreadCPU  = threadCPUTag
)

// TimeSpec mirrors struct timespec: seconds plus nanoseconds.
type TimeSpec struct {
	Sec  int64
	Nsec int64
}

// Duration converts to a time.Duration.
func (t TimeSpec) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Nsec)*time.Nanosecond
}

// Time converts a Realtime TimeSpec to a time.Time. Calling it on a
// TimeSpec obtained from a non-wall-clock source (Monotonic, Boottime,
// ...) produces a value with no meaningful calendar interpretation.
func (t TimeSpec) Time() time.Time {
	return time.Unix(t.Sec, t.Nsec)
}

// TimeSpecFromDuration builds a TimeSpec out of a time.Duration, useful
// for TimerFD intervals.
func TimeSpecFromDuration(d time.Duration) TimeSpec {
	return TimeSpec{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)}
}

func (t TimeSpec) toUnix() unix.Timespec {
	return unix.Timespec{Sec: t.Sec, Nsec: t.Nsec}
}

func fromUnixTimespec(ts unix.Timespec) TimeSpec {
	return TimeSpec{Sec: int64(ts.Sec), Nsec: int64(ts.Nsec)}
}

// Clock reads the time and resolution of whichever POSIX clock C selects.
type Clock[C ClockIDTag] struct{}

// Now returns the clock's current value via clock_gettime(2).
func (Clock[C]) Now() (TimeSpec, error) {
	var tag C
	var ts unix.Timespec
	if err := unix.ClockGettime(tag.clockID(), &ts); err != nil {
		return TimeSpec{}, NewApiError("clock_gettime", MakeErrno(err))
	}
	return fromUnixTimespec(ts), nil
}

// Resolution returns the clock's reported resolution via
// clock_getres(2).
func (Clock[C]) Resolution() (TimeSpec, error) {
	var tag C
	var ts unix.Timespec
	if err := unix.ClockGetres(tag.clockID(), &ts); err != nil {
		return TimeSpec{}, NewApiError("clock_getres", MakeErrno(err))
	}
	return fromUnixTimespec(ts), nil
}
