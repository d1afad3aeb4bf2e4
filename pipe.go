package cosmos

import (
	"golang.org/x/sys/unix"
)

// Pipe is a connected pair of FDFiles created by pipe2(2): ReadEnd is
// readable only, WriteEnd is writable only.
type Pipe struct {
	ReadEnd  FDFile
	WriteEnd FDFile
}

// MakePipe creates a new unidirectional pipe.
func MakePipe(cloexec CloseOnExec) (Pipe, error) {
	var fds [2]int
	flags := 0
	if bool(cloexec) {
		flags |= unix.O_CLOEXEC
	}
	if err := unix.Pipe2(fds[:], flags); err != nil {
		return Pipe{}, NewApiError("pipe2", MakeErrno(err))
	}
	return Pipe{
		ReadEnd:  FDFile{FileBase: newFileBase(FileNum(fds[0]), AutoCloseFD(true))},
		WriteEnd: FDFile{FileBase: newFileBase(FileNum(fds[1]), AutoCloseFD(true))},
	}, nil
}

// Close closes both ends of the pipe, returning the first error
// encountered (if any) after attempting to close both.
func (p *Pipe) Close() error {
	err1 := p.ReadEnd.Close()
	err2 := p.WriteEnd.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// IOVector is a scatter/gather list of buffers for readv(2)/writev(2),
// mirroring struct iovec.
type IOVector [][]byte

// ReadVector reads into the buffers of vec in order via readv(2).
func ReadVector(f *FDFile, vec IOVector) (int, error) {
	iovs := make([][]byte, len(vec))
	copy(iovs, vec)
	var n int
	err := retryEINTR(func() error {
		var err error
		n, err = unix.Readv(int(f.Raw()), iovs)
		return err
	})
	if err != nil {
		return n, NewApiError("readv", MakeErrno(err))
	}
	return n, nil
}

// WriteVector writes the buffers of vec in order via writev(2).
func WriteVector(f *FDFile, vec IOVector) (int, error) {
	iovs := make([][]byte, len(vec))
	copy(iovs, vec)
	var n int
	err := retryEINTR(func() error {
		var err error
		n, err = unix.Writev(int(f.Raw()), iovs)
		return err
	})
	if err != nil {
		return n, NewApiError("writev", MakeErrno(err))
	}
	return n, nil
}
