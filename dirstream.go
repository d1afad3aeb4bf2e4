package cosmos

import (
	"golang.org/x/sys/unix"
)

// DirFD is a FileBase opened with O_DIRECTORY, usable both as an *at()
// anchor (see FileDescriptor in filesystem.go's dir parameters) and, via
// OpenDirStream, as a source of directory entries.
type DirFD struct {
	FDFile
}

// OpenDir opens path as a directory descriptor via openat(2, O_DIRECTORY).
func OpenDir(dir FileDescriptor, path SysString, follow FollowSymlinks) (*DirFD, error) {
	flags := MakeBitMask(ODirectory)
	if !bool(follow) {
		flags = flags.Set(ONoFollow)
	}
	f, err := OpenFile(dir, path, ReadOnly, flags, FileModeBits{})
	if err != nil {
		return nil, err
	}
	return &DirFD{FDFile: *f}, nil
}

// DirEntry is one entry yielded while iterating a DirStream.
type DirEntry struct {
	Name  string
	Inode Inode
	Type  FileType
}

// DirStream iterates the entries of a DirFD via getdents64(2), the Go
// analogue of fdopendir()/readdir() in the C++ original: it owns no
// descriptor of its own and instead borrows the DirFD it was built from.
type DirStream struct {
	dir    *DirFD
	buf    []byte
	offset int
	filled int
}

// OpenDirStream begins iteration of an already-open directory descriptor.
func OpenDirStream(dir *DirFD) *DirStream {
	return &DirStream{dir: dir, buf: make([]byte, 8192)}
}

// Next returns the next directory entry, or (DirEntry{}, false, nil) once
// the stream is exhausted.
func (s *DirStream) Next() (DirEntry, bool, error) {
	for {
		if s.offset >= s.filled {
			n, err := unix.Getdents(int(s.dir.Raw()), s.buf)
			if err != nil {
				return DirEntry{}, false, NewApiError("getdents64", MakeErrno(err))
			}
			if n == 0 {
				return DirEntry{}, false, nil
			}
			s.filled = n
			s.offset = 0
		}
		entry, rest, ok := parseDirent(s.buf[s.offset:s.filled])
		if !ok {
			s.offset = s.filled
			continue
		}
		s.offset = s.filled - len(rest)
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		return entry, true, nil
	}
}

// Rewind resets the stream to the beginning via lseek(2, 0, SEEK_SET) on
// the underlying directory descriptor.
func (s *DirStream) Rewind() error {
	if _, err := s.dir.Seek(0, SeekSet); err != nil {
		return err
	}
	s.offset = 0
	s.filled = 0
	return nil
}
