package cosmos

import (
	"golang.org/x/sys/unix"
)

// FileDescriptor is a raw, copyable value wrapping a FileNum with no
// lifetime semantics of its own. Ownership (closing on destruction) is
// layered on top by FileBase; FileDescriptor itself is the thin method
// set every syscall needing an fd number is expressed against.
type FileDescriptor struct {
	fd FileNum
	// isSet distinguishes a wrapped fd 0 from the zero value, which holds
	// no descriptor.
	isSet bool
}

// NewFileDescriptor wraps an existing raw fd number.
func NewFileDescriptor(fd FileNum) FileDescriptor {
	return FileDescriptor{fd: fd, isSet: true}
}

// Stdin, Stdout, Stderr are pre-constructed FileDescriptor sentinels.
var (
	Stdin  = NewFileDescriptor(StdinNum)
	Stdout = NewFileDescriptor(StdoutNum)
	Stderr = NewFileDescriptor(StderrNum)
)

// Valid reports whether the wrapped number refers to a (potentially)
// open descriptor, i.e. is not Invalid.
func (d FileDescriptor) Valid() bool { return d.isSet && d.fd != Invalid }

// Invalid reports whether the wrapped number is the Invalid sentinel; the
// zero value is Invalid.
func (d FileDescriptor) Invalid() bool { return !d.Valid() }

// SetFD replaces the wrapped number.
func (d *FileDescriptor) SetFD(fd FileNum) { d.fd, d.isSet = fd, true }

// Reset forgets the wrapped number without closing it. Used when
// ownership is being transferred elsewhere.
func (d *FileDescriptor) Reset() { d.fd = Invalid }

// Raw returns the underlying FileNum.
func (d FileDescriptor) Raw() FileNum {
	if !d.isSet {
		return Invalid
	}
	return d.fd
}

// Close closes the descriptor via close(2). The stored number is
// invalidated whether or not the syscall succeeds, since a close()
// failure still consumes the descriptor slot on Linux. A failure is
// both returned to the caller and logged via logf, since close()
// errors are routinely ignored at the call site (e.g. in a defer) and
// the diagnostic would otherwise be lost.
func (d *FileDescriptor) Close() error {
	if d.Invalid() {
		return nil
	}
	fd := d.fd
	d.fd = Invalid
	if err := unix.Close(int(fd)); err != nil {
		apiErr := NewApiError("close", MakeErrno(err))
		logf("close failed", "fd", fd, "error", apiErr)
		return apiErr
	}
	return nil
}

// Duplicate copies the descriptor to a specific target number via
// dup3(2), returning the new FileDescriptor. The target must not already
// be open unless the caller intends to replace it; dup3 closes it first.
func (d FileDescriptor) Duplicate(newFD FileNum, cloexec CloseOnExec) (FileDescriptor, error) {
	flags := 0
	if bool(cloexec) {
		flags |= unix.O_CLOEXEC
	}
	if err := unix.Dup3(int(d.fd), int(newFD), flags); err != nil {
		return FileDescriptor{}, NewApiError("dup3", MakeErrno(err))
	}
	return NewFileDescriptor(newFD), nil
}

// DuplicateAny copies the descriptor to the lowest unused fd number via
// dup(2)/fcntl(F_DUPFD_CLOEXEC).
func (d FileDescriptor) DuplicateAny(cloexec CloseOnExec) (FileDescriptor, error) {
	cmd := unix.F_DUPFD
	if bool(cloexec) {
		cmd = unix.F_DUPFD_CLOEXEC
	}
	newfd, err := unix.FcntlInt(uintptr(d.fd), cmd, 0)
	if err != nil {
		return FileDescriptor{}, NewApiError("fcntl(F_DUPFD)", MakeErrno(err))
	}
	return NewFileDescriptor(FileNum(newfd)), nil
}

// DescFlags are file descriptor flags (fcntl F_GETFD/F_SETFD). The only
// flag defined by POSIX here is CloseOnExecFlag.
type DescFlags = BitMask[uint32]

// CloseOnExecFlag is the FD_CLOEXEC bit of DescFlags.
const CloseOnExecFlag uint32 = unix.FD_CLOEXEC

// GetFlags returns the fd flags (fcntl F_GETFD).
func (d FileDescriptor) GetFlags() (DescFlags, error) {
	n, err := unix.FcntlInt(uintptr(d.fd), unix.F_GETFD, 0)
	if err != nil {
		return DescFlags{}, NewApiError("fcntl(F_GETFD)", MakeErrno(err))
	}
	return MakeBitMask(uint32(n)), nil
}

// SetFlags sets the fd flags (fcntl F_SETFD).
func (d FileDescriptor) SetFlags(flags DescFlags) error {
	if _, err := unix.FcntlInt(uintptr(d.fd), unix.F_SETFD, int(flags.Raw())); err != nil {
		return NewApiError("fcntl(F_SETFD)", MakeErrno(err))
	}
	return nil
}

// SetCloseOnExec is a convenience wrapper around GetFlags/SetFlags toggling
// FD_CLOEXEC.
func (d FileDescriptor) SetCloseOnExec(v bool) error {
	flags, err := d.GetFlags()
	if err != nil {
		return err
	}
	if v {
		flags = flags.Set(CloseOnExecFlag)
	} else {
		flags = flags.Reset(CloseOnExecFlag)
	}
	return d.SetFlags(flags)
}

// OpenFlags are the behavioral bits passed to open()/openat(), returned
// by GetStatusFlags, and (partially) settable via SetStatusFlags.
type OpenFlags = BitMask[uint32]

const (
	OAppend      uint32 = unix.O_APPEND
	OAsync       uint32 = unix.O_ASYNC
	OCloseOnExec uint32 = unix.O_CLOEXEC
	OCreate      uint32 = unix.O_CREAT
	ODirect      uint32 = unix.O_DIRECT
	ODirectory   uint32 = unix.O_DIRECTORY
	ODSync       uint32 = unix.O_DSYNC
	OExclusive   uint32 = unix.O_EXCL
	ONoAtime     uint32 = unix.O_NOATIME
	ONoCtty      uint32 = unix.O_NOCTTY
	ONoFollow    uint32 = unix.O_NOFOLLOW
	ONonBlock    uint32 = unix.O_NONBLOCK
	OPath        uint32 = unix.O_PATH
	OSync        uint32 = unix.O_SYNC
	OTmpfile     uint32 = unix.O_TMPFILE
	OTruncate    uint32 = unix.O_TRUNC
)

// mutableStatusFlags is the subset of OpenFlags that SetStatusFlags is
// permitted to change via fcntl(F_SETFL); the rest only take effect at
// open() time.
const mutableStatusFlags = OAppend | OAsync | ODirect | ONoAtime | ONonBlock

// GetStatusFlags returns the access mode and behavioral flags associated
// with the descriptor's open file description (fcntl F_GETFL).
func (d FileDescriptor) GetStatusFlags() (OpenMode, OpenFlags, error) {
	n, err := unix.FcntlInt(uintptr(d.fd), unix.F_GETFL, 0)
	if err != nil {
		return 0, OpenFlags{}, NewApiError("fcntl(F_GETFL)", MakeErrno(err))
	}
	mode := OpenMode(n & unix.O_ACCMODE)
	return mode, MakeBitMask(uint32(n) &^ unix.O_ACCMODE), nil
}

// SetStatusFlags adjusts the mutable subset of the open file description's
// flags (fcntl F_SETFL): APPEND, ASYNC, DIRECT, NOATIME, NONBLOCK. Any
// other bit set in flags is silently ignored, matching the kernel's own
// behavior for F_SETFL.
func (d FileDescriptor) SetStatusFlags(flags OpenFlags) error {
	if _, err := unix.FcntlInt(uintptr(d.fd), unix.F_SETFL, int(flags.Raw()&mutableStatusFlags)); err != nil {
		return NewApiError("fcntl(F_SETFL)", MakeErrno(err))
	}
	return nil
}

// Sync flushes data and metadata to disk (fsync(2)).
func (d FileDescriptor) Sync() error {
	if err := unix.Fsync(int(d.fd)); err != nil {
		return NewApiError("fsync", MakeErrno(err))
	}
	return nil
}

// DataSync flushes data (and only as much metadata as needed to retrieve
// it) to disk (fdatasync(2)).
func (d FileDescriptor) DataSync() error {
	if err := unix.Fdatasync(int(d.fd)); err != nil {
		return NewApiError("fdatasync", MakeErrno(err))
	}
	return nil
}

// SealFlags are memfd seal bits (fcntl F_ADD_SEALS/F_GET_SEALS).
type SealFlags = BitMask[uint32]

const (
	SealSeal   uint32 = unix.F_SEAL_SEAL
	SealShrink uint32 = unix.F_SEAL_SHRINK
	SealGrow   uint32 = unix.F_SEAL_GROW
	SealWrite  uint32 = unix.F_SEAL_WRITE
)

// AddSeals adds irrevocable restrictions to a memfd-backed descriptor.
func (d FileDescriptor) AddSeals(seals SealFlags) error {
	if _, err := unix.FcntlInt(uintptr(d.fd), unix.F_ADD_SEALS, int(seals.Raw())); err != nil {
		return NewApiError("fcntl(F_ADD_SEALS)", MakeErrno(err))
	}
	return nil
}

// GetSeals returns the seals currently applied to a memfd-backed
// descriptor.
func (d FileDescriptor) GetSeals() (SealFlags, error) {
	n, err := unix.FcntlInt(uintptr(d.fd), unix.F_GET_SEALS, 0)
	if err != nil {
		return SealFlags{}, NewApiError("fcntl(F_GET_SEALS)", MakeErrno(err))
	}
	return MakeBitMask(uint32(n)), nil
}

// GetPipeSize returns the capacity, in bytes, of the pipe underlying this
// descriptor (fcntl F_GETPIPE_SZ).
func (d FileDescriptor) GetPipeSize() (int, error) {
	n, err := unix.FcntlInt(uintptr(d.fd), unix.F_GETPIPE_SZ, 0)
	if err != nil {
		return 0, NewApiError("fcntl(F_GETPIPE_SZ)", MakeErrno(err))
	}
	return n, nil
}

// SetPipeSize requests a new capacity for the pipe underlying this
// descriptor (fcntl F_SETPIPE_SZ), returning the size the kernel actually
// applied.
func (d FileDescriptor) SetPipeSize(size int) (int, error) {
	n, err := unix.FcntlInt(uintptr(d.fd), unix.F_SETPIPE_SZ, size)
	if err != nil {
		return 0, NewApiError("fcntl(F_SETPIPE_SZ)", MakeErrno(err))
	}
	return n, nil
}

// retryEINTR runs fn until it succeeds or fails with something other than
// EINTR, unless the global interrupt policy says to surface EINTR as-is.
func retryEINTR(fn func() error) error {
	for {
		err := fn()
		if err == unix.EINTR && RestartSyscallOnInterrupt() {
			continue
		}
		return err
	}
}
