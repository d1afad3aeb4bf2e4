package cosmos

import (
	"golang.org/x/sys/unix"
)

// RLimitResource identifies one of the resources governed by
// getrlimit/setrlimit(2).
type RLimitResource int

const (
	RLimitCPU        RLimitResource = unix.RLIMIT_CPU
	RLimitFileSize   RLimitResource = unix.RLIMIT_FSIZE
	RLimitData       RLimitResource = unix.RLIMIT_DATA
	RLimitStack      RLimitResource = unix.RLIMIT_STACK
	RLimitCore       RLimitResource = unix.RLIMIT_CORE
	RLimitNoFile     RLimitResource = unix.RLIMIT_NOFILE
	RLimitAddrSpace  RLimitResource = unix.RLIMIT_AS
	RLimitNumProc    RLimitResource = unix.RLIMIT_NPROC
	RLimitMemLock    RLimitResource = unix.RLIMIT_MEMLOCK
	RLimitNiceValue  RLimitResource = unix.RLIMIT_NICE
)

// RLimitInfinity is the sentinel meaning "no limit."
const RLimitInfinity uint64 = unix.RLIM_INFINITY

// RLimit is a soft/hard resource limit pair.
type RLimit struct {
	Soft uint64
	Hard uint64
}

// GetRLimit reads the calling process's limit for resource via
// getrlimit(2).
func GetRLimit(resource RLimitResource) (RLimit, error) {
	var raw unix.Rlimit
	if err := unix.Getrlimit(int(resource), &raw); err != nil {
		return RLimit{}, NewApiError("getrlimit", MakeErrno(err))
	}
	return RLimit{Soft: raw.Cur, Hard: raw.Max}, nil
}

// SetRLimit sets the calling process's limit for resource via
// setrlimit(2).
func SetRLimit(resource RLimitResource, limit RLimit) error {
	raw := unix.Rlimit{Cur: limit.Soft, Max: limit.Hard}
	if err := unix.Setrlimit(int(resource), &raw); err != nil {
		return NewApiError("setrlimit", MakeErrno(err))
	}
	return nil
}

// PrLimit reads and/or atomically sets resource for the process pid (0
// meaning the caller) via prlimit(2), returning the limit in effect
// before the call.
func PrLimit(pid ProcessID, resource RLimitResource, newLimit *RLimit) (RLimit, error) {
	var newRaw *unix.Rlimit
	if newLimit != nil {
		newRaw = &unix.Rlimit{Cur: newLimit.Soft, Max: newLimit.Hard}
	}
	var oldRaw unix.Rlimit
	if err := unix.Prlimit(int(pid), int(resource), newRaw, &oldRaw); err != nil {
		return RLimit{}, NewApiError("prlimit", MakeErrno(err))
	}
	return RLimit{Soft: oldRaw.Cur, Hard: oldRaw.Max}, nil
}

// RUsage summarizes the resource consumption of a process or its
// children, as reported by getrusage(2).
type RUsage struct {
	UserTime   TimeSpec
	SystemTime TimeSpec
	MaxRSS     int64
	MinorFault int64
	MajorFault int64
	InBlock    int64
	OutBlock   int64
	VolCtxSw   int64
	InvolCtxSw int64
}

// RUsageWho selects whose resource usage GetRUsage reports.
type RUsageWho int

const (
	RUsageSelf     RUsageWho = unix.RUSAGE_SELF
	RUsageChildren RUsageWho = unix.RUSAGE_CHILDREN
	RUsageThread   RUsageWho = unix.RUSAGE_THREAD
)

// GetRUsage retrieves accumulated resource usage via getrusage(2).
func GetRUsage(who RUsageWho) (RUsage, error) {
	var raw unix.Rusage
	if err := unix.Getrusage(int(who), &raw); err != nil {
		return RUsage{}, NewApiError("getrusage", MakeErrno(err))
	}
	return RUsage{
		UserTime:   TimeSpec{Sec: int64(raw.Utime.Sec), Nsec: int64(raw.Utime.Usec) * 1000},
		SystemTime: TimeSpec{Sec: int64(raw.Stime.Sec), Nsec: int64(raw.Stime.Usec) * 1000},
		MaxRSS:     int64(raw.Maxrss),
		MinorFault: int64(raw.Minflt),
		MajorFault: int64(raw.Majflt),
		InBlock:    int64(raw.Inblock),
		OutBlock:   int64(raw.Oublock),
		VolCtxSw:   int64(raw.Nvcsw),
		InvolCtxSw: int64(raw.Nivcsw),
	}, nil
}
