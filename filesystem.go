package cosmos

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"golang.org/x/sys/unix"
)

// atFD returns the raw dirfd to pass to an *at() syscall for dir: AtCWD if
// dir is the zero value, otherwise dir's own number.
func atFD(dir FileDescriptor) int {
	if dir.Valid() {
		return int(dir.Raw())
	}
	return int(AtCWD)
}

// atFlags translates FollowSymlinks into the AT_SYMLINK_NOFOLLOW bit used
// by most *at() calls (note the sense is inverted: the flag bit means
// "don't follow").
func atFlags(follow FollowSymlinks) int {
	if bool(follow) {
		return 0
	}
	return unix.AT_SYMLINK_NOFOLLOW
}

// Stat retrieves metadata for path relative to dir via fstatat(2).
func Stat(dir FileDescriptor, path SysString, follow FollowSymlinks) (FileStatus, error) {
	var st unix.Stat_t
	if err := unix.Fstatat(atFD(dir), path.Raw(), &st, atFlags(follow)); err != nil {
		return FileStatus{}, NewFileError("fstatat", path.Raw(), MakeErrno(err))
	}
	return makeFileStatus(&st), nil
}

// MakeDir creates a directory via mkdirat(2).
func MakeDir(dir FileDescriptor, path SysString, perm FileModeBits) error {
	if err := unix.Mkdirat(atFD(dir), path.Raw(), uint32(perm.Raw())); err != nil {
		return NewFileError("mkdirat", path.Raw(), MakeErrno(err))
	}
	return nil
}

// Unlink removes a non-directory directory entry via unlinkat(2).
func Unlink(dir FileDescriptor, path SysString) error {
	if err := unix.Unlinkat(atFD(dir), path.Raw(), 0); err != nil {
		return NewFileError("unlinkat", path.Raw(), MakeErrno(err))
	}
	return nil
}

// RemoveDir removes an empty directory via unlinkat(2, AT_REMOVEDIR).
func RemoveDir(dir FileDescriptor, path SysString) error {
	if err := unix.Unlinkat(atFD(dir), path.Raw(), unix.AT_REMOVEDIR); err != nil {
		return NewFileError("unlinkat(AT_REMOVEDIR)", path.Raw(), MakeErrno(err))
	}
	return nil
}

// Rename moves oldPath (relative to oldDir) to newPath (relative to
// newDir) via renameat2(2) with no additional flags.
func Rename(oldDir FileDescriptor, oldPath SysString, newDir FileDescriptor, newPath SysString) error {
	if err := unix.Renameat2(atFD(oldDir), oldPath.Raw(), atFD(newDir), newPath.Raw(), 0); err != nil {
		return NewFileError("renameat2", oldPath.Raw(), MakeErrno(err))
	}
	return nil
}

// Exchange atomically swaps oldPath and newPath via renameat2(2,
// RENAME_EXCHANGE).
func Exchange(oldDir FileDescriptor, oldPath SysString, newDir FileDescriptor, newPath SysString) error {
	if err := unix.Renameat2(atFD(oldDir), oldPath.Raw(), atFD(newDir), newPath.Raw(), unix.RENAME_EXCHANGE); err != nil {
		return NewFileError("renameat2(RENAME_EXCHANGE)", oldPath.Raw(), MakeErrno(err))
	}
	return nil
}

// Link creates a new directory entry referring to the same inode via
// linkat(2).
func Link(oldDir FileDescriptor, oldPath SysString, newDir FileDescriptor, newPath SysString, follow FollowSymlinks) error {
	flags := 0
	if bool(follow) {
		flags = unix.AT_SYMLINK_FOLLOW
	}
	if err := unix.Linkat(atFD(oldDir), oldPath.Raw(), atFD(newDir), newPath.Raw(), flags); err != nil {
		return NewFileError("linkat", oldPath.Raw(), MakeErrno(err))
	}
	return nil
}

// Symlink creates a symbolic link at linkPath pointing at target via
// symlinkat(2).
func Symlink(target SysString, dir FileDescriptor, linkPath SysString) error {
	if err := unix.Symlinkat(target.Raw(), atFD(dir), linkPath.Raw()); err != nil {
		return NewFileError("symlinkat", linkPath.Raw(), MakeErrno(err))
	}
	return nil
}

// ReadLink reads the target of a symbolic link via readlinkat(2).
func ReadLink(dir FileDescriptor, path SysString) (string, error) {
	buf := make([]byte, 4096)
	for {
		n, err := unix.Readlinkat(atFD(dir), path.Raw(), buf)
		if err != nil {
			return "", NewFileError("readlinkat", path.Raw(), MakeErrno(err))
		}
		if n < len(buf) {
			return string(buf[:n]), nil
		}
		buf = make([]byte, len(buf)*2)
	}
}

// AccessFlags are the mode bits passed to Access (faccessat2's amode).
type AccessFlags = BitMask[uint32]

const (
	AccessExists uint32 = unix.F_OK
	AccessRead   uint32 = unix.R_OK
	AccessWrite  uint32 = unix.W_OK
	AccessExec   uint32 = unix.X_OK
)

// Access checks path's accessibility against the real uid/gid via
// faccessat2(2).
func Access(dir FileDescriptor, path SysString, mode AccessFlags, follow FollowSymlinks) error {
	flags := 0
	if !bool(follow) {
		flags = unix.AT_SYMLINK_NOFOLLOW
	}
	if err := unix.Faccessat2(atFD(dir), path.Raw(), int(mode.Raw()), flags); err != nil {
		return NewFileError("faccessat2", path.Raw(), MakeErrno(err))
	}
	return nil
}

// Chmod changes path's permission bits via fchmodat(2).
func Chmod(dir FileDescriptor, path SysString, perm FileModeBits) error {
	if err := unix.Fchmodat(atFD(dir), path.Raw(), uint32(perm.Raw()), 0); err != nil {
		return NewFileError("fchmodat", path.Raw(), MakeErrno(err))
	}
	return nil
}

// Chown changes path's owning user and group via fchownat(2).
func Chown(dir FileDescriptor, path SysString, uid UserID, gid GroupID, follow FollowSymlinks) error {
	if err := unix.Fchownat(atFD(dir), path.Raw(), int(uid), int(gid), atFlags(follow)); err != nil {
		return NewFileError("fchownat", path.Raw(), MakeErrno(err))
	}
	return nil
}

// Truncate sets path's length via truncate(2).
func Truncate(path SysString, length int64) error {
	if err := unix.Truncate(path.Raw(), length); err != nil {
		return NewFileError("truncate", path.Raw(), MakeErrno(err))
	}
	return nil
}

// MakeFIFO creates a named pipe via mknodat(2).
func MakeFIFO(dir FileDescriptor, path SysString, perm FileModeBits) error {
	if err := unix.Mknodat(atFD(dir), path.Raw(), unix.S_IFIFO|uint32(perm.Raw()), 0); err != nil {
		return NewFileError("mknodat", path.Raw(), MakeErrno(err))
	}
	return nil
}

// CloseRange closes every open descriptor in [from, to] via
// close_range(2). It always closes; the CLOSE_RANGE_CLOEXEC variant, which
// only marks descriptors close-on-exec, is not exposed.
func CloseRange(from, to FileNum) error {
	if err := unix.CloseRange(uint(from), uint(to), 0); err != nil {
		return NewApiError("close_range", MakeErrno(err))
	}
	return nil
}

// WorkingDirectory returns the process's current working directory via
// getcwd(2).
func WorkingDirectory() (string, error) {
	buf := make([]byte, 4096)
	for {
		n, err := unix.Getcwd(buf)
		if err == nil {
			// unix.Getcwd returns the length including the NUL terminator.
			if n > 0 && buf[n-1] == 0 {
				n--
			}
			return string(buf[:n]), nil
		}
		if err != unix.ERANGE {
			return "", NewApiError("getcwd", MakeErrno(err))
		}
		buf = make([]byte, len(buf)*2)
	}
}

// ChangeWorkingDirectory changes the process's current working directory
// via chdir(2).
func ChangeWorkingDirectory(path SysString) error {
	if err := unix.Chdir(path.Raw()); err != nil {
		return NewFileError("chdir", path.Raw(), MakeErrno(err))
	}
	return nil
}

// ChangeRoot changes the process's root directory via chroot(2).
// Requires CAP_SYS_CHROOT.
func ChangeRoot(target SysString) error {
	if err := unix.Chroot(target.Raw()); err != nil {
		return NewFileError("chroot", target.Raw(), MakeErrno(err))
	}
	return nil
}

// ExistsFile reports whether path exists relative to dir, following
// symlinks, agreeing with whatever a subsequent OpenFile would see. Any
// stat(2) failure other than "no such file or directory" (e.g. a
// permission-denied parent directory) is returned rather than folded
// into a false result, since those cases don't mean "does not exist."
func ExistsFile(dir FileDescriptor, target SysString) (bool, error) {
	_, err := Stat(dir, target, FollowSymlinks(true))
	if err == nil {
		return true, nil
	}
	var fileErr *FileError
	if errors.As(err, &fileErr) && fileErr.Errno == NoEntry {
		return false, nil
	}
	return false, err
}

// MakeAllDirs creates path and every missing ancestor beneath dir, in
// the manner of mkdir -p: components that already exist as directories
// are left alone, and the call only fails if a component is missing and
// can't be created, or exists as something other than a directory.
func MakeAllDirs(dir FileDescriptor, target SysString, perm FileModeBits) error {
	clean := path.Clean(target.Raw())
	if clean == "." || clean == "/" {
		return nil
	}
	parent := path.Dir(clean)
	if parent != "." && parent != "/" {
		if err := MakeAllDirs(dir, MustSysString(parent), perm); err != nil {
			return err
		}
	}
	if err := MakeDir(dir, target, perm); err != nil {
		var fileErr *FileError
		if errors.As(err, &fileErr) && fileErr.Errno == Exists {
			st, statErr := Stat(dir, target, FollowSymlinks(true))
			if statErr == nil && st.IsDir() {
				return nil
			}
		}
		return err
	}
	return nil
}

// RemoveTree recursively removes path and everything beneath it,
// relative to dir. A path that does not exist is treated as already
// removed rather than an error, matching rm -rf's idempotence.
func RemoveTree(dir FileDescriptor, target SysString) error {
	st, err := Stat(dir, target, FollowSymlinks(false))
	if err != nil {
		var fileErr *FileError
		if errors.As(err, &fileErr) && fileErr.Errno == NoEntry {
			return nil
		}
		return err
	}
	if !st.IsDir() {
		return Unlink(dir, target)
	}

	sub, err := OpenDir(dir, target, FollowSymlinks(false))
	if err != nil {
		return err
	}
	stream := OpenDirStream(sub)
	var entries []string
	for {
		entry, ok, err := stream.Next()
		if err != nil {
			sub.Close()
			return err
		}
		if !ok {
			break
		}
		entries = append(entries, entry.Name)
	}
	sub.Close()

	for _, name := range entries {
		if err := RemoveTree(dir, MustSysString(path.Join(target.Raw(), name))); err != nil {
			return err
		}
	}
	return RemoveDir(dir, target)
}

// CopyFileRange copies up to length bytes from srcOffset in src to
// dstOffset in dst via copy_file_range(2), which can share extents
// between filesystems that support reflink/dedupe instead of a
// userspace read/write loop. Returns the number of bytes actually
// copied, which may be less than length.
func CopyFileRange(src *FDFile, srcOffset int64, dst *FDFile, dstOffset int64, length int) (int, error) {
	so, do := srcOffset, dstOffset
	n, err := unix.CopyFileRange(int(src.Raw()), &so, int(dst.Raw()), &do, length, 0)
	if err != nil {
		return n, NewApiError("copy_file_range", MakeErrno(err))
	}
	return n, nil
}

// CheckAccessFD checks an already-open descriptor's accessibility
// against the real uid/gid, via faccessat2(2) with an empty relative
// path and AT_EMPTY_PATH, the fd-based analogue of Access.
func CheckAccessFD(fd FileDescriptor, mode AccessFlags) error {
	if err := unix.Faccessat2(int(fd.Raw()), "", int(mode.Raw()), unix.AT_EMPTY_PATH); err != nil {
		return NewApiError("faccessat2(AT_EMPTY_PATH)", MakeErrno(err))
	}
	return nil
}

// LockOperation selects flock(2)'s requested lock mode.
type LockOperation int32

const (
	LockShared    LockOperation = unix.LOCK_SH
	LockExclusive LockOperation = unix.LOCK_EX
	LockUnlock    LockOperation = unix.LOCK_UN
)

// Flock applies or releases an advisory whole-file lock via flock(2).
// Combine op with unix.LOCK_NB by passing it pre-OR'd in,
// since this is a single enum rather than a bitmask: e.g.
// Flock(f, LockOperation(unix.LOCK_EX|unix.LOCK_NB)).
func Flock(fd FileDescriptor, op LockOperation) error {
	if err := unix.Flock(int(fd.Raw()), int(op)); err != nil {
		return NewApiError("flock", MakeErrno(err))
	}
	return nil
}

// SetUmask sets the calling process's file mode creation mask via
// umask(2), returning the previous mask.
func SetUmask(mask FileModeBits) FileModeBits {
	old := unix.Umask(int(mask.Raw()))
	return MakeBitMask(uint32(old))
}

// Which searches the directories named by the PATH environment variable
// (in order) for an executable file named name, returning the first
// match's full path. It does not consult the calling process's working
// directory unless PATH itself contains an empty or "." entry.
func Which(name string) (string, error) {
	if strings.Contains(name, "/") {
		st, err := Stat(FileDescriptor{}, MustSysString(name), FollowSymlinks(true))
		if err == nil && st.IsRegular() {
			if accessErr := Access(FileDescriptor{}, MustSysString(name), MakeBitMask(AccessExec), FollowSymlinks(true)); accessErr == nil {
				return name, nil
			}
		}
		return "", NewUsageError("which: %q not found or not executable", name)
	}
	for _, dir := range strings.Split(os.Getenv("PATH"), ":") {
		if dir == "" {
			dir = "."
		}
		candidate := path.Join(dir, name)
		st, err := Stat(FileDescriptor{}, MustSysString(candidate), FollowSymlinks(true))
		if err != nil || !st.IsRegular() {
			continue
		}
		if Access(FileDescriptor{}, MustSysString(candidate), MakeBitMask(AccessExec), FollowSymlinks(true)) == nil {
			return candidate, nil
		}
	}
	return "", NewUsageError("which: %q not found in PATH", name)
}

// NormalizePath lexically cleans a path (collapsing ".", "..", and
// repeated separators) without touching the filesystem or resolving
// symlinks, the same transformation path.Clean performs.
func NormalizePath(p string) string {
	return path.Clean(p)
}

// CanonicalizePath resolves p to an absolute, symlink-free path via the
// /proc/self/fd realpath idiom: open the target O_PATH (which succeeds
// even for a path the caller lacks read permission on, so long as every
// ancestor is searchable) and read back the kernel's own resolution of
// that descriptor through /proc/self/fd/N, mirroring what realpath(3)
// does internally on Linux.
func CanonicalizePath(p string) (string, error) {
	fd, err := unix.Open(p, unix.O_PATH|unix.O_CLOEXEC, 0)
	if err != nil {
		return "", NewFileError("open(O_PATH)", p, MakeErrno(err))
	}
	defer unix.Close(fd)

	link := fmt.Sprintf("/proc/self/fd/%d", fd)
	buf := make([]byte, 4096)
	for {
		n, err := unix.Readlink(link, buf)
		if err != nil {
			return "", NewFileError("readlink", link, MakeErrno(err))
		}
		if n < len(buf) {
			return string(buf[:n]), nil
		}
		buf = make([]byte, len(buf)*2)
	}
}
