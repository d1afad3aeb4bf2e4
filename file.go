package cosmos

import (
	"io"

	"golang.org/x/sys/unix"
)

// FileBase adds RAII-style ownership on top of FileDescriptor: a FileBase
// closes its descriptor exactly once, either explicitly via Close or
// implicitly whenever the caller lets it go out of scope after arranging
// a runtime.SetFinalizer (callers that need deterministic cleanup should
// always call Close or defer it; this type does not register a finalizer
// itself, preferring explicit over implicit resource release).
type FileBase struct {
	FileDescriptor
	autoClose AutoCloseFD
	leakKey   uint64
	tracked   bool
}

// newFileBase wraps fd, owning it unless autoClose is false. If a
// LeakDetector is active, the returned FileBase is registered with it
// until Close or Steal releases the descriptor.
func newFileBase(fd FileNum, autoClose AutoCloseFD) FileBase {
	f := FileBase{FileDescriptor: NewFileDescriptor(fd), autoClose: autoClose}
	if bool(autoClose) {
		f.leakKey, f.tracked = trackOpen(fd)
	}
	return f
}

func (f *FileBase) untrack() {
	if f.tracked {
		trackClose(f.leakKey)
		f.tracked = false
	}
}

// Close releases the descriptor if this FileBase owns it; otherwise it is
// a no-op that merely forgets the wrapped number. A close(2) failure is
// logged by the embedded FileDescriptor.Close in addition to being
// returned here, so it isn't lost when a caller discards a deferred
// Close's error.
func (f *FileBase) Close() error {
	f.untrack()
	if !bool(f.autoClose) {
		f.FileDescriptor.Reset()
		return nil
	}
	return f.FileDescriptor.Close()
}

// Steal transfers ownership of the wrapped descriptor to the caller: the
// FileBase forgets it without closing it, and the raw number is returned.
func (f *FileBase) Steal() FileNum {
	f.untrack()
	fd := f.Raw()
	f.FileDescriptor.Reset()
	return fd
}

// FDFile is a FileBase that supports read/write/seek, the base for every
// regular, character, block, pipe, or socket descriptor opened through
// this library.
type FDFile struct {
	FileBase
}

// NewOwnedFDFile wraps an already-open fd number (typically one handed
// back by a raw syscall this library's subpackages make directly, e.g.
// pidfd_open or timerfd_create) as an owning FDFile.
func NewOwnedFDFile(fd FileNum) FDFile {
	return FDFile{FileBase: newFileBase(fd, AutoCloseFD(true))}
}

// OpenFile opens path relative to dir (or the working directory, if dir is
// the zero FileDescriptor) via openat(2).
func OpenFile(dir FileDescriptor, path SysString, mode OpenMode, flags OpenFlags, perm FileModeBits) (*FDFile, error) {
	dirfd := int(AtCWD)
	if dir.Valid() {
		dirfd = int(dir.Raw())
	}
	rawFlags := int(mode) | int(flags.Raw())
	fd, err := retryOpenat(dirfd, path.Raw(), rawFlags, uint32(perm.Raw()))
	if err != nil {
		return nil, NewFileError("openat", path.Raw(), MakeErrno(err))
	}
	return &FDFile{FileBase: newFileBase(FileNum(fd), AutoCloseFD(true))}, nil
}

func retryOpenat(dirfd int, path string, flags int, mode uint32) (int, error) {
	var fd int
	err := retryEINTR(func() error {
		var err error
		fd, err = unix.Openat(dirfd, path, flags, mode)
		return err
	})
	return fd, err
}

// Read reads up to len(buf) bytes via read(2).
func (f *FDFile) Read(buf []byte) (int, error) {
	var n int
	err := retryEINTR(func() error {
		var err error
		n, err = unix.Read(int(f.Raw()), buf)
		return err
	})
	if err != nil {
		return n, NewApiError("read", MakeErrno(err))
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write writes len(buf) bytes via write(2), looping until the whole buffer
// has been accepted or an error occurs.
func (f *FDFile) Write(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		var n int
		err := retryEINTR(func() error {
			var err error
			n, err = unix.Write(int(f.Raw()), buf[total:])
			return err
		})
		if err != nil {
			return total, NewApiError("write", MakeErrno(err))
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

// ReadAt reads at offset without changing the file position (pread(2)).
func (f *FDFile) ReadAt(buf []byte, offset int64) (int, error) {
	var n int
	err := retryEINTR(func() error {
		var err error
		n, err = unix.Pread(int(f.Raw()), buf, offset)
		return err
	})
	if err != nil {
		return n, NewApiError("pread", MakeErrno(err))
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// WriteAt writes at offset without changing the file position (pwrite(2)).
func (f *FDFile) WriteAt(buf []byte, offset int64) (int, error) {
	var n int
	err := retryEINTR(func() error {
		var err error
		n, err = unix.Pwrite(int(f.Raw()), buf, offset)
		return err
	})
	if err != nil {
		return n, NewApiError("pwrite", MakeErrno(err))
	}
	return n, nil
}

// Whence selects the reference point for Seek, mirroring lseek(2)'s whence
// argument.
type Whence int

const (
	SeekSet Whence = unix.SEEK_SET
	SeekCur Whence = unix.SEEK_CUR
	SeekEnd Whence = unix.SEEK_END
)

// Seek repositions the file offset via lseek(2).
func (f *FDFile) Seek(offset int64, whence Whence) (int64, error) {
	n, err := unix.Seek(int(f.Raw()), offset, int(whence))
	if err != nil {
		return 0, NewApiError("lseek", MakeErrno(err))
	}
	return n, nil
}

// Truncate sets the file's length via ftruncate(2).
func (f *FDFile) Truncate(length int64) error {
	if err := unix.Ftruncate(int(f.Raw()), length); err != nil {
		return NewApiError("ftruncate", MakeErrno(err))
	}
	return nil
}

// Allocate reserves disk space for [offset, offset+length) via
// fallocate(2) without necessarily zeroing it.
func (f *FDFile) Allocate(offset, length int64) error {
	if err := unix.Fallocate(int(f.Raw()), 0, offset, length); err != nil {
		return NewApiError("fallocate", MakeErrno(err))
	}
	return nil
}

// File is a regular, filesystem-backed FDFile, exposing the filesystem
// metadata operations meaningful only for files with an fstat(2)
// interpretation.
type File struct {
	FDFile
}

// OpenFileAt is the common entry point used by the filesystem free
// functions in filesystem.go.
func OpenFileAt(dir FileDescriptor, path SysString, mode OpenMode, flags OpenFlags, perm FileModeBits) (*File, error) {
	f, err := OpenFile(dir, path, mode, flags, perm)
	if err != nil {
		return nil, err
	}
	return &File{FDFile: *f}, nil
}

// Stat retrieves metadata via fstat(2).
func (f *File) Stat() (FileStatus, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Raw()), &st); err != nil {
		return FileStatus{}, NewApiError("fstat", MakeErrno(err))
	}
	return makeFileStatus(&st), nil
}

// Chmod changes the file's permission bits via fchmod(2).
func (f *File) Chmod(perm FileModeBits) error {
	if err := unix.Fchmod(int(f.Raw()), uint32(perm.Raw())); err != nil {
		return NewApiError("fchmod", MakeErrno(err))
	}
	return nil
}

// Chown changes the file's owning user and group via fchown(2). Passing
// -1 for either leaves that attribute unchanged.
func (f *File) Chown(uid UserID, gid GroupID) error {
	if err := unix.Fchown(int(f.Raw()), int(uid), int(gid)); err != nil {
		return NewApiError("fchown", MakeErrno(err))
	}
	return nil
}
