package cosmos

import (
	"golang.org/x/sys/unix"
)

// MemFile is an anonymous, purely in-memory file created by
// memfd_create(2): it behaves like a regular File for read/write/seek/
// mmap purposes but is never visible in any directory.
type MemFile struct {
	FDFile
}

// MemFileFlags are the behavioral bits accepted by memfd_create(2).
type MemFileFlags = BitMask[uint32]

const (
	MemFileCloseOnExec uint32 = unix.MFD_CLOEXEC
	MemFileAllowSealing uint32 = unix.MFD_ALLOW_SEALING
	MemFileHugeTLB      uint32 = unix.MFD_HUGETLB
)

// MakeMemFile creates a new anonymous memory-backed file.
func MakeMemFile(name string, flags MemFileFlags) (*MemFile, error) {
	fd, err := unix.MemfdCreate(name, int(flags.Raw()))
	if err != nil {
		return nil, NewApiError("memfd_create", MakeErrno(err))
	}
	return &MemFile{FDFile: FDFile{FileBase: newFileBase(FileNum(fd), AutoCloseFD(true))}}, nil
}

// SecretFile is a memory-backed file whose contents are excluded from
// core dumps and never readable by any other process, including a
// privileged one, created by memfd_secret(2).
type SecretFile struct {
	FDFile
}

// MakeSecretFile creates a new secret-memory file. Requires a kernel
// built with CONFIG_SECRETMEM and the secretmem feature enabled at boot.
func MakeSecretFile(cloexec CloseOnExec) (*SecretFile, error) {
	flags := 0
	if bool(cloexec) {
		flags = unix.O_CLOEXEC
	}
	fd, _, errno := unix.Syscall(unix.SYS_MEMFD_SECRET, uintptr(flags), 0, 0)
	if errno != 0 {
		return nil, NewApiError("memfd_secret", syscallErrnoToErrno(errno))
	}
	return &SecretFile{FDFile: FDFile{FileBase: newFileBase(FileNum(fd), AutoCloseFD(true))}}, nil
}
