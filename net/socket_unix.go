package net

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// bindRaw, connectRaw, getsocknameRaw, and getpeernameRaw operate on
// already-encoded sockaddr bytes rather than x/sys/unix's Sockaddr
// interface, since Address.Raw() produces the wire encoding directly
// (mirroring the C++ original's SockAddr hierarchy, which always carries
// its own raw struct sockaddr storage). x/sys/unix does not expose raw
// byte-buffer variants of these four calls, so they go through
// unix.Syscall against the SYS_* syscall numbers (accept4 via Syscall6), the same
// escape hatch this library uses elsewhere for syscalls x/sys/unix
// doesn't wrap directly.
func bindRaw(fd int, sa []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(fd), uintptr(unsafe.Pointer(&sa[0])), uintptr(len(sa)))
	if errno != 0 {
		return errno
	}
	return nil
}

func connectRaw(fd int, sa []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_CONNECT, uintptr(fd), uintptr(unsafe.Pointer(&sa[0])), uintptr(len(sa)))
	if errno != 0 {
		return errno
	}
	return nil
}

const maxSockAddrLen = 128

func getsocknameRaw(fd int) ([]byte, error) {
	buf := make([]byte, maxSockAddrLen)
	length := uint32(len(buf))
	_, _, errno := unix.Syscall(unix.SYS_GETSOCKNAME, uintptr(fd), uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&length)))
	if errno != 0 {
		return nil, errno
	}
	if int(length) < len(buf) {
		buf = buf[:length]
	}
	return buf, nil
}

func getpeernameRaw(fd int) ([]byte, error) {
	buf := make([]byte, maxSockAddrLen)
	length := uint32(len(buf))
	_, _, errno := unix.Syscall(unix.SYS_GETPEERNAME, uintptr(fd), uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&length)))
	if errno != 0 {
		return nil, errno
	}
	if int(length) < len(buf) {
		buf = buf[:length]
	}
	return buf, nil
}

// acceptRaw accepts a pending connection via accept4(2), returning the
// new descriptor and the raw peer address bytes the kernel wrote.
func acceptRaw(fd int, cloexec cosmos.CloseOnExec) (int, []byte, error) {
	buf := make([]byte, maxSockAddrLen)
	length := uint32(len(buf))
	flags := 0
	if bool(cloexec) {
		flags = unix.SOCK_CLOEXEC
	}
	newfd, _, errno := unix.Syscall6(unix.SYS_ACCEPT4, uintptr(fd), uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&length)), uintptr(flags), 0, 0)
	if errno != 0 {
		return 0, nil, errno
	}
	if int(length) < len(buf) {
		buf = buf[:length]
	}
	return int(newfd), buf, nil
}
