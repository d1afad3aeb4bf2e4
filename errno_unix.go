package cosmos

import (
	"errors"

	"golang.org/x/sys/unix"
)

// MakeErrno converts a raw syscall error into the library's Errno type.
//
// It accepts any error produced by golang.org/x/sys/unix or the standard
// syscall package; any other non-nil error is reported as IO.
func MakeErrno(err error) Errno {
	if err == nil {
		return NoError
	}
	var sysErrno unix.Errno
	if errors.As(err, &sysErrno) {
		return syscallErrnoToErrno(sysErrno)
	}
	return IO
}

// Syscall converts the Errno back to the host's unix.Errno, the inverse of
// MakeErrno. Not every Errno value round-trips to the identical platform
// errno it was derived from; this method is provided for call sites that
// need to hand a raw errno back to a lower-level API.
func (e Errno) Syscall() unix.Errno {
	if n, ok := errnoToSyscall[e]; ok {
		return n
	}
	return unix.EINVAL
}

var syscallToErrno = map[unix.Errno]Errno{
	unix.EACCES:       Access,
	unix.EAGAIN:       Again,
	unix.EADDRINUSE:   AddrInUse,
	unix.EADDRNOTAVAIL: AddrNotAvail,
	unix.EAFNOSUPPORT: AfNoSupport,
	unix.EALREADY:     Already,
	unix.EBADF:        BadFD,
	unix.EBADMSG:      BadMsg,
	unix.EBUSY:        Busy,
	unix.ECANCELED:    Canceled,
	unix.ECHILD:       Child,
	unix.ECONNABORTED: ConnAborted,
	unix.ECONNREFUSED: ConnRefused,
	unix.ECONNRESET:   ConnReset,
	unix.EDEADLK:      DeadLk,
	unix.EDESTADDRREQ: DestAddrReq,
	unix.EDOM:         Dom,
	unix.EDQUOT:       DQuot,
	unix.EEXIST:       Exists,
	unix.EFAULT:       Fault,
	unix.EFBIG:        FBig,
	unix.EHOSTUNREACH: HostUnreach,
	unix.EIDRM:        IdRm,
	unix.EILSEQ:       IllSeq,
	unix.EINPROGRESS:  InProgress,
	unix.EINTR:        Interrupted,
	unix.EINVAL:       InvalidArg,
	unix.EIO:          IO,
	unix.EISCONN:      IsConn,
	unix.EISDIR:       IsDir,
	unix.ELOOP:        Loop,
	unix.EMFILE:       MFile,
	unix.EMLINK:       MLink,
	unix.EMSGSIZE:     MsgSize,
	unix.EMULTIHOP:    MultiHop,
	unix.ENAMETOOLONG: NameTooLong,
	unix.ENETDOWN:     NetDown,
	unix.ENETRESET:    NetReset,
	unix.ENETUNREACH:  NetUnreach,
	unix.ENFILE:       NFile,
	unix.ENOBUFS:      NoBufs,
	unix.ENODEV:       NoDev,
	unix.ENOENT:       NoEntry,
	unix.ENOEXEC:      NoExec,
	unix.ENOLCK:       NoLck,
	unix.ENOLINK:      NoLink,
	unix.ENOMEM:       NoMemory,
	unix.ENOMSG:       NoMsg,
	unix.ENOPROTOOPT:  NoProtoOpt,
	unix.ENOSPC:       NoSpace,
	unix.ENOSYS:       NoSys,
	unix.ENOTCONN:     NotConn,
	unix.ENOTDIR:      NotDir,
	unix.ENOTEMPTY:    NotEmpty,
	unix.ENOTRECOVERABLE: NotRecoverable,
	unix.ENOTSOCK:     NotSock,
	unix.ENOTSUP:      NotSup,
	unix.ENOTTY:       NotTTY,
	unix.ENXIO:        NxIO,
	unix.EOVERFLOW:    Overflow,
	unix.EOWNERDEAD:   OwnerDead,
	unix.EPERM:        Permission,
	unix.EPIPE:        Pipe,
	unix.EPROTO:       Proto,
	unix.EPROTONOSUPPORT: ProtoNoSupport,
	unix.EPROTOTYPE:   ProtoType,
	unix.ERANGE:       Range,
	unix.EROFS:        ReadOnlyFS,
	unix.ESPIPE:       SPipe,
	unix.ESRCH:        Search,
	unix.ESTALE:       Stale,
	unix.ETIMEDOUT:    TimedOut,
	unix.ETXTBSY:      TxtBusy,
	unix.EXDEV:        XDev,
}

var errnoToSyscall = func() map[Errno]unix.Errno {
	m := make(map[Errno]unix.Errno, len(syscallToErrno))
	for sys, e := range syscallToErrno {
		m[e] = sys
	}
	m[NoError] = 0
	m[WouldBlock] = unix.EAGAIN
	m[NotCapable] = unix.EPERM
	return m
}()

func syscallErrnoToErrno(sys unix.Errno) Errno {
	if sys == 0 {
		return NoError
	}
	if e, ok := syscallToErrno[sys]; ok {
		return e
	}
	return IO
}
