package cosmos

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// TimerFDFlags are the behavioral bits accepted by timerfd_create(2).
type TimerFDFlags = BitMask[uint32]

const (
	TimerFDCloseOnExec uint32 = unix.TFD_CLOEXEC
	TimerFDNonBlock    uint32 = unix.TFD_NONBLOCK
)

// TimerFDSetFlags are the bits accepted by timerfd_settime(2).
type TimerFDSetFlags = BitMask[uint32]

const (
	TimerAbsoluteTime uint32 = unix.TFD_TIMER_ABSTIME
)

// TimerSpec describes a timer's next expiration and, if non-zero, its
// recurring interval thereafter.
type TimerSpec struct {
	Interval TimeSpec
	Value    TimeSpec
}

// TimerFD is a descriptor-based timer bound to clock C, readable for its
// expiration count and pollable alongside ordinary descriptors via
// Poller. Parameterizing on C the way Clock is parameterized keeps a
// TimerFD[Monotonic] from being mistakenly armed with CLOCK_REALTIME's
// wall-clock-jump semantics.
type TimerFD[C ClockIDTag] struct {
	FDFile
}

// MakeTimerFD creates a new timer bound to clock C.
func MakeTimerFD[C ClockIDTag](flags TimerFDFlags) (*TimerFD[C], error) {
	var tag C
	fd, err := unix.TimerfdCreate(int(tag.clockID()), int(flags.Raw()))
	if err != nil {
		return nil, NewApiError("timerfd_create", MakeErrno(err))
	}
	return &TimerFD[C]{FDFile: FDFile{FileBase: newFileBase(FileNum(fd), AutoCloseFD(true))}}, nil
}

// SetTime arms (or disarms, if spec.Value is zero) the timer via
// timerfd_settime(2), returning the previously armed TimerSpec.
func (t *TimerFD[C]) SetTime(spec TimerSpec, flags TimerFDSetFlags) (TimerSpec, error) {
	newVal := unix.ItimerSpec{
		Interval: spec.Interval.toUnix(),
		Value:    spec.Value.toUnix(),
	}
	var oldVal unix.ItimerSpec
	if err := unix.TimerfdSettime(int(t.Raw()), int(flags.Raw()), &newVal, &oldVal); err != nil {
		return TimerSpec{}, NewApiError("timerfd_settime", MakeErrno(err))
	}
	return TimerSpec{
		Interval: fromUnixTimespec(oldVal.Interval),
		Value:    fromUnixTimespec(oldVal.Value),
	}, nil
}

// GetTime returns the timer's current arming via timerfd_gettime(2).
func (t *TimerFD[C]) GetTime() (TimerSpec, error) {
	var cur unix.ItimerSpec
	if err := unix.TimerfdGettime(int(t.Raw()), &cur); err != nil {
		return TimerSpec{}, NewApiError("timerfd_gettime", MakeErrno(err))
	}
	return TimerSpec{
		Interval: fromUnixTimespec(cur.Interval),
		Value:    fromUnixTimespec(cur.Value),
	}, nil
}

// Wait blocks until the timer expires at least once, returning the
// number of expirations that have occurred since the last successful
// Wait.
func (t *TimerFD[C]) Wait() (uint64, error) {
	var buf [8]byte
	n, err := t.Read(buf[:])
	if err != nil {
		return 0, err
	}
	if n != 8 {
		return 0, NewRangeError("timerfd read", 8)
	}
	return binary.NativeEndian.Uint64(buf[:]), nil
}
