package net

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// Socket is the base wrapper shared by every socket specialization: it
// owns a descriptor created by socket(2) and exposes the operations
// common to every address family and socket type. Specializations
// (StreamSocket, UDPSocket, UnixDatagramSocket, ...) embed Socket and add the behavior
// particular to their family/type combination.
type Socket struct {
	fd cosmos.FileDescriptor
}

// MakeSocket creates a new socket via socket(2).
func MakeSocket(family Family, typ SocketType, protocol int32, cloexec cosmos.CloseOnExec) (Socket, error) {
	flags := int(typ)
	if bool(cloexec) {
		flags |= unix.SOCK_CLOEXEC
	}
	fd, err := unix.Socket(int(family), flags, int(protocol))
	if err != nil {
		return Socket{}, cosmos.NewApiError("socket", cosmos.MakeErrno(err))
	}
	return Socket{fd: cosmos.NewFileDescriptor(cosmos.FileNum(fd))}, nil
}

// FD exposes the raw descriptor for use with cosmos.Poller and other
// descriptor-level facilities.
func (s Socket) FD() cosmos.FileDescriptor { return s.fd }

// Close closes the socket.
func (s *Socket) Close() error { return s.fd.Close() }

// Bind assigns a local address via bind(2).
func (s Socket) Bind(addr Address) error {
	raw := addr.Raw()
	if err := bindRaw(int(s.fd.Raw()), raw); err != nil {
		return cosmos.NewApiError("bind", cosmos.MakeErrno(err))
	}
	return nil
}

// Listen marks the socket as willing to accept incoming connections via
// listen(2).
func (s Socket) Listen(backlog int) error {
	if err := unix.Listen(int(s.fd.Raw()), backlog); err != nil {
		return cosmos.NewApiError("listen", cosmos.MakeErrno(err))
	}
	return nil
}

// Connect initiates a connection (or, for a datagram socket, fixes the
// default peer) via connect(2).
func (s Socket) Connect(addr Address) error {
	raw := addr.Raw()
	if err := connectRaw(int(s.fd.Raw()), raw); err != nil {
		return cosmos.NewApiError("connect", cosmos.MakeErrno(err))
	}
	return nil
}

// ShutdownHow selects which half of a full-duplex connection Shutdown
// closes.
type ShutdownHow int

const (
	ShutdownRead  ShutdownHow = unix.SHUT_RD
	ShutdownWrite ShutdownHow = unix.SHUT_WR
	ShutdownBoth  ShutdownHow = unix.SHUT_RDWR
)

// Shutdown disables further sends and/or receives via shutdown(2)
// without closing the descriptor.
func (s Socket) Shutdown(how ShutdownHow) error {
	if err := unix.Shutdown(int(s.fd.Raw()), int(how)); err != nil {
		return cosmos.NewApiError("shutdown", cosmos.MakeErrno(err))
	}
	return nil
}

// LocalAddress returns the socket's bound local address via
// getsockname(2). It raises a RuntimeError if the kernel reports an
// address of a family other than the one the caller expects (e.g.
// calling LocalAddress(FamilyInet) against an AF_UNIX socket), rather
// than silently handing back a value of the wrong concrete type.
func (s Socket) LocalAddress(family Family) (Address, error) {
	raw, err := getsocknameRaw(int(s.fd.Raw()))
	if err != nil {
		return nil, cosmos.NewApiError("getsockname", cosmos.MakeErrno(err))
	}
	return decodeExpectedAddress("getsockname", family, raw)
}

// RemoteAddress returns the address of the connected peer via
// getpeername(2). Like LocalAddress, it raises a RuntimeError on a
// family mismatch between what the caller expects and what the kernel
// reports.
func (s Socket) RemoteAddress(family Family) (Address, error) {
	raw, err := getpeernameRaw(int(s.fd.Raw()))
	if err != nil {
		return nil, cosmos.NewApiError("getpeername", cosmos.MakeErrno(err))
	}
	return decodeExpectedAddress("getpeername", family, raw)
}

// decodeExpectedAddress decodes raw and confirms the result's family
// matches the caller's expectation, the common check LocalAddress and
// RemoteAddress both need.
func decodeExpectedAddress(op string, family Family, raw []byte) (Address, error) {
	addr, err := decodeAddress(family, raw)
	if err != nil {
		return nil, err
	}
	if addr.Family() != family {
		return nil, cosmos.NewRuntimeError("%s: address family mismatch: expected %s, got %s", op, family, addr.Family())
	}
	return addr, nil
}
