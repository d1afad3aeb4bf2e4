package proc

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// Exec replaces the calling process's image via execve(2). On success it
// never returns; on failure it returns the error.
func Exec(path cosmos.SysString, argv, envp []string) error {
	argvC := make([]string, len(argv))
	copy(argvC, argv)
	if err := unix.Exec(path.Raw(), argvC, envp); err != nil {
		return cosmos.NewFileError("execve", path.Raw(), cosmos.MakeErrno(err))
	}
	return nil
}

// ExecAt replaces the calling process's image via execveat(2), resolving
// path relative to dir.
func ExecAt(dir cosmos.FileDescriptor, path cosmos.SysString, argv, envp []string, follow cosmos.FollowSymlinks) error {
	dirfd := int(cosmos.AtCWD)
	if dir.Valid() {
		dirfd = int(dir.Raw())
	}
	flags := 0
	if !bool(follow) {
		flags = unix.AT_SYMLINK_NOFOLLOW
	}
	if err := unix.Execveat(dirfd, path.Raw(), argv, envp, flags); err != nil {
		return cosmos.NewFileError("execveat", path.Raw(), cosmos.MakeErrno(err))
	}
	return nil
}

// Fork creates a new process via fork(2). The return value is 0 in the
// child, the child's pid in the parent.
func Fork() (cosmos.ProcessID, error) {
	pid, _, errno := unix.RawSyscall(unix.SYS_FORK, 0, 0, 0)
	if errno != 0 {
		return 0, cosmos.NewApiError("fork", cosmos.MakeErrno(errno))
	}
	return cosmos.ProcessID(pid), nil
}

// ExitProcess terminates the calling process via exit_group(2), the
// multi-threaded-safe analogue of exit(2).
func ExitProcess(code int) {
	unix.Exit(code)
}
