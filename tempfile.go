package cosmos

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// TempFile is a File created with O_TMPFILE: it has no name in the
// directory tree until (and unless) LinkAt is used to give it one, and is
// automatically reclaimed by the kernel once its last descriptor closes.
// Grounded on the "unlink on close" temp file idiom of the C++ original.
type TempFile struct {
	File
}

// MakeTempFile creates an anonymous temporary file inside the directory
// dirPath (O_TMPFILE requires a concrete directory, not AT_FDCWD in
// general, so this takes a path rather than an already-open FileDescriptor).
func MakeTempFile(dirPath SysString, perm FileModeBits) (*TempFile, error) {
	flags := MakeBitMask(OTmpfile)
	f, err := OpenFileAt(FileDescriptor{}, dirPath, ReadWrite, flags, perm)
	if err != nil {
		return nil, err
	}
	return &TempFile{File: *f}, nil
}

// LinkAt gives the anonymous temp file a name, turning it into an
// ordinary directory entry via linkat(2, AT_EMPTY_PATH). Requires
// CAP_DAC_READ_SEARCH unless /proc/self/fd is used as a fallback path
// (which this wrapper does not attempt).
func (f *TempFile) LinkAt(newDir FileDescriptor, newPath SysString) error {
	if err := unix.Linkat(int(f.Raw()), "", atFD(newDir), newPath.Raw(), unix.AT_EMPTY_PATH); err != nil {
		return NewFileError("linkat(AT_EMPTY_PATH)", newPath.Raw(), MakeErrno(err))
	}
	return nil
}

// TempDir is a directory created for scratch use and removed, along with
// its contents, when Remove is called.
type TempDir struct {
	path string
}

// MakeTempDir creates a new empty directory under parent using a
// randomized name built from prefix.
func MakeTempDir(parent FileDescriptor, prefix string, perm FileModeBits) (*TempDir, error) {
	name, err := randomSuffix(prefix)
	if err != nil {
		return nil, err
	}
	path := MustSysString(name)
	if err := MakeDir(parent, path, perm); err != nil {
		return nil, err
	}
	full := name
	if parentPath, ok := dirPathHint(parent); ok {
		full = parentPath + "/" + name
	}
	return &TempDir{path: full}, nil
}

// Path returns the directory's path as constructed. Valid only until
// Remove has been called.
func (d *TempDir) Path() string { return d.path }

// Remove deletes the directory and everything beneath it.
func (d *TempDir) Remove() error {
	if d.path == "" {
		return nil
	}
	path := d.path
	d.path = ""
	return RemoveTree(FileDescriptor{}, MustSysString(path))
}

// dirPathHint is a best-effort attempt to recover a textual path for a
// directory FileDescriptor via /proc/self/fd, used only to build a
// friendlier TempDir.Path() when the parent was itself opened by path.
func dirPathHint(dir FileDescriptor) (string, bool) {
	if !dir.Valid() {
		return "", false
	}
	link, err := ReadLink(FileDescriptor{}, MustSysString(fmt.Sprintf("/proc/self/fd/%d", int32(dir.Raw()))))
	if err != nil {
		return "", false
	}
	return link, true
}

func randomSuffix(prefix string) (string, error) {
	var raw [8]byte
	f, err := unix.Open("/dev/urandom", unix.O_RDONLY, 0)
	if err != nil {
		return "", NewApiError("open(/dev/urandom)", MakeErrno(err))
	}
	defer unix.Close(f)
	if _, err := unix.Read(f, raw[:]); err != nil {
		return "", NewApiError("read(/dev/urandom)", MakeErrno(err))
	}
	return fmt.Sprintf("%s-%x", prefix, raw), nil
}
