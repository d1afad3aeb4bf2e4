// Package proc wraps the process subsystem: fork/exec, wait, process
// identity, pidfd-based process handles, and the ChildCloner builder used
// to assemble a new process's environment before it starts running.
package proc

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// Self returns the calling process's pid via getpid(2).
func Self() cosmos.ProcessID { return cosmos.ProcessID(unix.Getpid()) }

// Parent returns the calling process's parent pid via getppid(2).
func Parent() cosmos.ProcessID { return cosmos.ProcessID(unix.Getppid()) }

// SelfThread returns the calling thread's kernel tid via gettid(2).
func SelfThread() cosmos.ThreadID { return cosmos.ThreadID(unix.Gettid()) }

// GroupOf returns the process group id of pid (0 meaning the caller) via
// getpgid(2).
func GroupOf(pid cosmos.ProcessID) (cosmos.ProcessGroupID, error) {
	pgid, err := unix.Getpgid(int(pid))
	if err != nil {
		return 0, cosmos.NewApiError("getpgid", cosmos.MakeErrno(err))
	}
	return cosmos.ProcessGroupID(pgid), nil
}

// SetGroup moves pid into process group pgid (or a new group headed by
// pid itself, if pgid is 0) via setpgid(2).
func SetGroup(pid cosmos.ProcessID, pgid cosmos.ProcessGroupID) error {
	if err := unix.Setpgid(int(pid), int(pgid)); err != nil {
		return cosmos.NewApiError("setpgid", cosmos.MakeErrno(err))
	}
	return nil
}

// SessionOf returns the session id of pid via getsid(2).
func SessionOf(pid cosmos.ProcessID) (cosmos.ProcessGroupID, error) {
	sid, err := unix.Getsid(int(pid))
	if err != nil {
		return 0, cosmos.NewApiError("getsid", cosmos.MakeErrno(err))
	}
	return cosmos.ProcessGroupID(sid), nil
}

// NewSession makes the caller a session leader via setsid(2).
func NewSession() (cosmos.ProcessGroupID, error) {
	sid, err := unix.Setsid()
	if err != nil {
		return 0, cosmos.NewApiError("setsid", cosmos.MakeErrno(err))
	}
	return cosmos.ProcessGroupID(sid), nil
}

// RealUID, EffectiveUID, SavedUID return the calling process's real,
// effective, and saved-set user ids via getresuid(2).
func RealUID() cosmos.UserID {
	ruid, _, _ := resUID()
	return ruid
}

func EffectiveUID() cosmos.UserID {
	_, euid, _ := resUID()
	return euid
}

func SavedUID() cosmos.UserID {
	_, _, suid := resUID()
	return suid
}

func resUID() (real, effective, saved cosmos.UserID) {
	var r, e, s int
	unix.Getresuid(&r, &e, &s)
	return cosmos.UserID(r), cosmos.UserID(e), cosmos.UserID(s)
}

// SetUIDs sets the real, effective, and saved-set user ids via
// setresuid(2). Passing -1 for any component leaves it unchanged.
func SetUIDs(real, effective, saved int) error {
	if err := unix.Setresuid(real, effective, saved); err != nil {
		return cosmos.NewApiError("setresuid", cosmos.MakeErrno(err))
	}
	return nil
}

// SetGIDs sets the real, effective, and saved-set group ids via
// setresgid(2).
func SetGIDs(real, effective, saved int) error {
	if err := unix.Setresgid(real, effective, saved); err != nil {
		return cosmos.NewApiError("setresgid", cosmos.MakeErrno(err))
	}
	return nil
}
