// Package mem wraps memory mapping and locking: mmap/munmap/mremap/
// mprotect/msync and the mlock family, exposed as an RAII-style Mapping
// value plus free functions for the process-wide mlockall/munlockall
// operations.
package mem

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// ProtFlags are the protection bits passed to Map/Protect (PROT_READ,
// PROT_WRITE, PROT_EXEC, ...).
type ProtFlags = cosmos.BitMask[uint32]

const (
	ProtRead  uint32 = unix.PROT_READ
	ProtWrite uint32 = unix.PROT_WRITE
	ProtExec  uint32 = unix.PROT_EXEC
	ProtNone  uint32 = unix.PROT_NONE
)

// MapFlags are the visibility/backing bits passed to Map (MAP_SHARED,
// MAP_PRIVATE, MAP_ANONYMOUS, ...).
type MapFlags = cosmos.BitMask[uint32]

const (
	MapShared    uint32 = unix.MAP_SHARED
	MapPrivate   uint32 = unix.MAP_PRIVATE
	MapAnonymous uint32 = unix.MAP_ANONYMOUS
	MapFixed     uint32 = unix.MAP_FIXED
	MapPopulate  uint32 = unix.MAP_POPULATE
	MapNorserve  uint32 = unix.MAP_NORESERVE
	MapHugeTLB   uint32 = unix.MAP_HUGETLB
	MapLocked    uint32 = unix.MAP_LOCKED
)

// Mapping is an owned virtual memory mapping created by Map. It must be
// released with Unmap; letting it go out of scope without calling Unmap
// leaks the mapping, matching the C++ original's explicit-unmap
// discipline (Go has no destructors to run this automatically).
type Mapping struct {
	addr uintptr
	size uintptr
}

// Map creates a new mapping via mmap(2). A nil fd requests an anonymous
// mapping regardless of whether MapAnonymous is included in flags.
func Map(fd *cosmos.FileDescriptor, offset int64, size uintptr, prot ProtFlags, flags MapFlags) (*Mapping, error) {
	rawFd := -1
	f := flags.Raw()
	if fd == nil {
		f |= MapAnonymous
	} else {
		rawFd = int(fd.Raw())
	}
	addr, _, errno := unix.Syscall6(unix.SYS_MMAP, 0, size, uintptr(prot.Raw()), uintptr(f), uintptr(rawFd), uintptr(offset))
	if errno != 0 {
		return nil, cosmos.NewApiError("mmap", cosmos.MakeErrno(errno))
	}
	return &Mapping{addr: addr, size: size}, nil
}

// Bytes returns a byte slice viewing the mapped region. The slice is
// valid only until Unmap is called.
func (m *Mapping) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(m.addr)), int(m.size))
}

// Addr returns the mapping's base address, for passing to Remap or to a
// syscall expecting a raw pointer.
func (m *Mapping) Addr() uintptr { return m.addr }

// Size returns the mapping's length in bytes.
func (m *Mapping) Size() uintptr { return m.size }

// Protect changes the mapping's protection bits via mprotect(2).
func (m *Mapping) Protect(prot ProtFlags) error {
	if _, _, errno := unix.Syscall(unix.SYS_MPROTECT, m.addr, m.size, uintptr(prot.Raw())); errno != 0 {
		return cosmos.NewApiError("mprotect", cosmos.MakeErrno(errno))
	}
	return nil
}

// SyncFlags select msync(2)'s behavior (MS_SYNC vs MS_ASYNC, optionally
// combined with MS_INVALIDATE).
type SyncFlags = cosmos.BitMask[uint32]

const (
	SyncSync       uint32 = unix.MS_SYNC
	SyncAsync      uint32 = unix.MS_ASYNC
	SyncInvalidate uint32 = unix.MS_INVALIDATE
)

// Sync flushes the mapping's modified pages to its backing file via
// msync(2).
func (m *Mapping) Sync(flags SyncFlags) error {
	if err := unix.Msync(unsafe.Slice((*byte)(unsafe.Pointer(m.addr)), int(m.size)), int(flags.Raw())); err != nil {
		return cosmos.NewApiError("msync", cosmos.MakeErrno(err))
	}
	return nil
}

// Lock pins the mapping's pages in physical memory via mlock(2),
// preventing them from being swapped out.
func (m *Mapping) Lock() error {
	if err := unix.Mlock(unsafe.Slice((*byte)(unsafe.Pointer(m.addr)), int(m.size))); err != nil {
		return cosmos.NewApiError("mlock", cosmos.MakeErrno(err))
	}
	return nil
}

// Unlock reverses Lock via munlock(2).
func (m *Mapping) Unlock() error {
	if err := unix.Munlock(unsafe.Slice((*byte)(unsafe.Pointer(m.addr)), int(m.size))); err != nil {
		return cosmos.NewApiError("munlock", cosmos.MakeErrno(err))
	}
	return nil
}

// Remap resizes or relocates the mapping via mremap(2), updating the
// Mapping in place to refer to the new region.
func (m *Mapping) Remap(newSize uintptr, mayMove bool) error {
	flags := uintptr(0)
	if mayMove {
		flags = unix.MREMAP_MAYMOVE
	}
	newAddr, _, errno := unix.Syscall6(unix.SYS_MREMAP, m.addr, m.size, newSize, flags, 0, 0)
	if errno != 0 {
		return cosmos.NewApiError("mremap", cosmos.MakeErrno(errno))
	}
	m.addr = newAddr
	m.size = newSize
	return nil
}

// Unmap releases the mapping via munmap(2). The Mapping must not be used
// afterward.
func (m *Mapping) Unmap() error {
	if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, m.addr, m.size, 0); errno != 0 {
		return cosmos.NewApiError("munmap", cosmos.MakeErrno(errno))
	}
	return nil
}

// LockAllFlags select which pages LockAll pins (current mappings,
// future ones, or both).
type LockAllFlags = cosmos.BitMask[uint32]

const (
	LockCurrent uint32 = unix.MCL_CURRENT
	LockFuture  uint32 = unix.MCL_FUTURE
)

// LockAll locks the calling process's entire address space via
// mlockall(2).
func LockAll(flags LockAllFlags) error {
	if err := unix.Mlockall(int(flags.Raw())); err != nil {
		return cosmos.NewApiError("mlockall", cosmos.MakeErrno(err))
	}
	return nil
}

// UnlockAll reverses LockAll via munlockall(2).
func UnlockAll() error {
	if err := unix.Munlockall(); err != nil {
		return cosmos.NewApiError("munlockall", cosmos.MakeErrno(err))
	}
	return nil
}
