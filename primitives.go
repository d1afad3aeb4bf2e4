package cosmos

import "fmt"

// FileNum is the raw, strongly-typed kernel file descriptor number. It
// carries no ownership or lifetime semantics; see FileDescriptor and
// FileBase for the owning layers built on top of it.
type FileNum int32

const (
	// Invalid is the sentinel FileNum denoting "no descriptor."
	Invalid FileNum = -1
	// Stdin, Stdout, Stderr are the conventional low-numbered descriptors.
	StdinNum  FileNum = 0
	StdoutNum FileNum = 1
	StderrNum FileNum = 2
	// AtCWD is the dirfd sentinel meaning "relative to the current
	// working directory" in the *at() family of syscalls.
	AtCWD FileNum = -100
)

// MaxFD is the highest file descriptor number the kernel is expected to
// hand out; it is kept distinct from Invalid (-1) so that CloseRange's
// "close everything up to the highest open fd" upper bound can never be
// mistaken for "no descriptor."
const MaxFD = 1<<31 - 1

func (n FileNum) String() string {
	switch n {
	case Invalid:
		return "Invalid"
	case AtCWD:
		return "AtCWD"
	default:
		return fmt.Sprintf("%d", int32(n))
	}
}

// ProcessID is a process identifier (pid_t).
type ProcessID int32

// ProcessGroupID is a process group identifier (pid_t used as a pgid).
type ProcessGroupID int32

// ThreadID is a kernel thread identifier (the value returned by gettid,
// distinct from a pthread_t).
type ThreadID int32

// UserID is a numeric user id (uid_t).
type UserID uint32

// GroupID is a numeric group id (gid_t).
type GroupID uint32

// Inode is a file serial number, unique within its file system.
type Inode uint64

// DeviceID identifies a device containing a file system.
type DeviceID uint64

// SignalNr is a raw signal number.
type SignalNr int32

// ClockTicks counts CPU ticks (sysconf(_SC_CLK_TCK) units), as returned by
// times(2)/proc stat fields.
type ClockTicks int64

// OpenMode is the access-mode component of an open() call: read, write,
// or both. It is distinct from OpenFlags, which carries the orthogonal
// behavioral bits.
type OpenMode uint8

const (
	ReadOnly OpenMode = iota
	WriteOnly
	ReadWrite
)

func (m OpenMode) String() string {
	switch m {
	case ReadOnly:
		return "ReadOnly"
	case WriteOnly:
		return "WriteOnly"
	case ReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("OpenMode(%d)", uint8(m))
	}
}

// FileType is the type of a file, directory entry, or file descriptor.
type FileType uint8

const (
	UnknownType FileType = iota
	RegularFile
	Directory
	CharDevice
	BlockDevice
	FIFO
	SymbolicLink
	Socket
)

func (t FileType) String() string {
	switch t {
	case UnknownType:
		return "UnknownType"
	case RegularFile:
		return "RegularFile"
	case Directory:
		return "Directory"
	case CharDevice:
		return "CharDevice"
	case BlockDevice:
		return "BlockDevice"
	case FIFO:
		return "FIFO"
	case SymbolicLink:
		return "SymbolicLink"
	case Socket:
		return "Socket"
	default:
		return fmt.Sprintf("FileType(%d)", uint8(t))
	}
}
