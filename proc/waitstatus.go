package proc

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// ChildState classifies which of the mutually exclusive transitions a
// wait call reported, mirroring the CLD_* codes the kernel reports in
// siginfo_t for SIGCHLD/waitid(2).
type ChildState int32

const (
	ChildNone      ChildState = 0
	ChildExited    ChildState = unix.CLD_EXITED
	ChildKilled    ChildState = unix.CLD_KILLED
	ChildDumped    ChildState = unix.CLD_DUMPED
	ChildStopped   ChildState = unix.CLD_STOPPED
	ChildContinued ChildState = unix.CLD_CONTINUED
)

func (s ChildState) String() string {
	switch s {
	case ChildExited:
		return "exited"
	case ChildKilled:
		return "killed"
	case ChildDumped:
		return "dumped"
	case ChildStopped:
		return "stopped"
	case ChildContinued:
		return "continued"
	default:
		return "none"
	}
}

// WaitStatus is the decoded form of a wait result: exactly one of
// Exited, Signaled, Stopped, or Continued is true, matching State.
// UID is only populated by the waitid(2)-based calls (WaitID,
// ProcessFile.Wait); WaitFor leaves it zero since wait4(2) does not
// report a reporting uid. UserTime and SysTime are filled in by all of
// them, WaitFor taking them from the rusage wait4(2) returns.
type WaitStatus struct {
	State     ChildState
	Exited    bool
	ExitCode  int
	Signaled  bool
	Stopped   bool
	Continued bool
	Signal    cosmos.SignalNr
	CoreDump  bool

	UID      cosmos.UserID
	UserTime time.Duration
	SysTime  time.Duration
}

// decodeWaitStatus converts a raw unix.WaitStatus into this library's
// discriminated WaitStatus.
func decodeWaitStatus(raw unix.WaitStatus) WaitStatus {
	switch {
	case raw.Exited():
		return WaitStatus{State: ChildExited, Exited: true, ExitCode: raw.ExitStatus()}
	case raw.Signaled():
		state := ChildKilled
		if raw.CoreDump() {
			state = ChildDumped
		}
		return WaitStatus{State: state, Signaled: true, Signal: cosmos.SignalNr(raw.Signal()), CoreDump: raw.CoreDump()}
	case raw.Stopped():
		return WaitStatus{State: ChildStopped, Stopped: true, Signal: cosmos.SignalNr(raw.StopSignal())}
	case raw.Continued():
		return WaitStatus{State: ChildContinued, Continued: true}
	default:
		return WaitStatus{}
	}
}

func (s WaitStatus) String() string {
	switch {
	case s.Exited:
		return fmt.Sprintf("exited(%d)", s.ExitCode)
	case s.Signaled:
		return fmt.Sprintf("signaled(%d, core=%v)", s.Signal, s.CoreDump)
	case s.Stopped:
		return fmt.Sprintf("stopped(%d)", s.Signal)
	case s.Continued:
		return "continued"
	default:
		return "unknown"
	}
}

// WaitFlags control which children WaitFor reports on and whether it
// blocks.
type WaitFlags = cosmos.BitMask[uint32]

const (
	WaitNoHang    uint32 = unix.WNOHANG
	WaitUntraced  uint32 = unix.WUNTRACED
	WaitContinued uint32 = unix.WCONTINUED
)

// WaitIDFlags control a WaitID/ProcessFile.Wait call: which state
// transitions to report (at least one of WaitIDExited, WaitIDForStopped,
// WaitIDContinued is required) and whether to consume the transition or
// merely peek at it.
type WaitIDFlags = cosmos.BitMask[uint32]

const (
	WaitIDExited     uint32 = unix.WEXITED
	WaitIDForStopped uint32 = unix.WSTOPPED
	WaitIDContinued  uint32 = unix.WCONTINUED
	WaitIDNoHang     uint32 = unix.WNOHANG
	WaitIDLeaveInfo  uint32 = unix.WNOWAIT
)

// WaitFor blocks (unless WaitNoHang is set) until pid changes state,
// returning the decoded status via wait4(2). pid follows waitpid's own
// convention: >0 a specific child, 0 any child in the caller's process
// group, -1 any child at all, <-1 any child in the given process group.
// The returned status's UserTime/SysTime are filled in from the child's
// resource usage that wait4 reports; UID is left zero, since wait4
// does not report a reporting uid the way waitid's siginfo does.
func WaitFor(pid cosmos.ProcessID, flags WaitFlags) (cosmos.ProcessID, WaitStatus, error) {
	var raw unix.WaitStatus
	var usage unix.Rusage
	got, err := unix.Wait4(int(pid), &raw, int(flags.Raw()), &usage)
	if err != nil {
		return 0, WaitStatus{}, cosmos.NewApiError("wait4", cosmos.MakeErrno(err))
	}
	status := decodeWaitStatus(raw)
	status.UserTime = time.Duration(usage.Utime.Nano())
	status.SysTime = time.Duration(usage.Stime.Nano())
	return cosmos.ProcessID(got), status, nil
}

// WaitTargetKind selects what a WaitID call waits on.
type WaitTargetKind int32

const (
	WaitTargetPID  WaitTargetKind = unix.P_PID
	WaitTargetPGID WaitTargetKind = unix.P_PGID
	WaitTargetAll  WaitTargetKind = unix.P_ALL
)

// WaitID blocks until a child matching (kind, id) changes state, via
// waitid(2). Unlike WaitFor, the caller chooses exactly which
// transitions to be woken for (WaitIDExited, WaitIDForStopped,
// WaitIDContinued, combined freely) and whether the transition is
// consumed (default) or merely peeked at (WaitIDLeaveInfo). kind/id
// follow waitid's own P_PID/P_PGID/P_ALL convention; id is ignored for
// WaitTargetAll.
func WaitID(kind WaitTargetKind, id int, flags WaitIDFlags) (WaitStatus, error) {
	var buf [128]byte
	if err := waitidRaw(int(kind), id, &buf, flags.Raw()); err != nil {
		return WaitStatus{}, cosmos.NewApiError("waitid", cosmos.MakeErrno(err))
	}
	return decodeSiginfo(buf[:]), nil
}
