package cosmos

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// EventFile wraps an eventfd(2) descriptor: a kernel-maintained 64-bit
// counter usable as a lightweight semaphore or a pollable notification
// channel between threads or processes.
type EventFile struct {
	FDFile
}

// EventFileFlags are the behavioral bits accepted by eventfd2(2).
type EventFileFlags = BitMask[uint32]

const (
	EventFileCloseOnExec uint32 = unix.EFD_CLOEXEC
	EventFileNonBlock    uint32 = unix.EFD_NONBLOCK
	EventFileSemaphore   uint32 = unix.EFD_SEMAPHORE
)

// MakeEventFile creates a new eventfd with the given initial counter
// value.
func MakeEventFile(initial uint32, flags EventFileFlags) (*EventFile, error) {
	fd, err := unix.Eventfd(uint64(initial), int(flags.Raw()))
	if err != nil {
		return nil, NewApiError("eventfd2", MakeErrno(err))
	}
	return &EventFile{FDFile: FDFile{FileBase: newFileBase(FileNum(fd), AutoCloseFD(true))}}, nil
}

// Signal adds value to the counter, waking any waiter blocked in Wait
// (read(2) on an eventfd always consumes and resets in EFD_SEMAPHORE-less
// mode, or decrements by one in EFD_SEMAPHORE mode).
func (f *EventFile) Signal(value uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	_, err := f.Write(buf[:])
	return err
}

// Wait blocks (unless the descriptor is non-blocking, in which case it
// returns an error) until the counter is non-zero. It then returns the
// counter's value and resets it to zero, or, in EventFileSemaphore mode,
// returns 1 and decrements the counter by one.
func (f *EventFile) Wait() (uint64, error) {
	var buf [8]byte
	n, err := f.Read(buf[:])
	if err != nil {
		return 0, err
	}
	if n != 8 {
		return 0, NewRangeError("eventfd read", 8)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
