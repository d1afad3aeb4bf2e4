package net

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// UnixStreamSocket is a connection-oriented AF_UNIX socket, the domain
// socket analogue of TCPClient.
type UnixStreamSocket struct {
	StreamSocket
}

// DialUnix connects to a listening UnixStreamSocket bound at addr.
func DialUnix(addr UnixAddress) (*UnixStreamSocket, error) {
	s, err := MakeSocket(FamilyUnix, TypeStream, 0, cosmos.CloseOnExec(true))
	if err != nil {
		return nil, err
	}
	if err := s.Connect(addr); err != nil {
		s.Close()
		return nil, err
	}
	return &UnixStreamSocket{StreamSocket{s}}, nil
}

// UnixListener listens for incoming AF_UNIX stream connections.
type UnixListener struct {
	Socket
}

// ListenUnix creates a listening socket bound to addr. A path-based
// address is unlinked first if a stale socket file is left over from a
// previous run.
func ListenUnix(addr UnixAddress, backlog int) (*UnixListener, error) {
	if !addr.IsAbstract() && !addr.IsUnnamed() {
		_ = cosmos.Unlink(cosmos.FileDescriptor{}, cosmos.MustSysString(addr.Path()))
	}
	s, err := MakeSocket(FamilyUnix, TypeStream, 0, cosmos.CloseOnExec(true))
	if err != nil {
		return nil, err
	}
	if err := s.Bind(addr); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Listen(backlog); err != nil {
		s.Close()
		return nil, err
	}
	return &UnixListener{s}, nil
}

// Accept accepts one pending connection via accept4(2).
func (l *UnixListener) Accept(cloexec cosmos.CloseOnExec) (*UnixStreamSocket, error) {
	fd, _, err := acceptRaw(int(l.fd.Raw()), cloexec)
	if err != nil {
		return nil, cosmos.NewApiError("accept4", cosmos.MakeErrno(err))
	}
	return &UnixStreamSocket{StreamSocket{Socket{fd: cosmos.NewFileDescriptor(cosmos.FileNum(fd))}}}, nil
}

// UnixDatagramSocket is a connectionless AF_UNIX socket, typically used
// in a bound pair for exchanging messages (and, via SCM_RIGHTS, open
// descriptors) between related processes.
type UnixDatagramSocket struct {
	Socket
}

// MakeUnixDatagramSocket creates a new datagram socket, optionally bound
// to addr.
func MakeUnixDatagramSocket(addr *UnixAddress) (*UnixDatagramSocket, error) {
	s, err := MakeSocket(FamilyUnix, TypeDatagram, 0, cosmos.CloseOnExec(true))
	if err != nil {
		return nil, err
	}
	if addr != nil {
		if err := s.Bind(*addr); err != nil {
			s.Close()
			return nil, err
		}
	}
	return &UnixDatagramSocket{s}, nil
}

// SocketPair creates a connected, unnamed pair of AF_UNIX sockets of the
// given type via socketpair(2), the basis for this library's S2 testable
// property (bidirectional datagram exchange with no filesystem presence).
func SocketPair(typ SocketType, cloexec cosmos.CloseOnExec) (Socket, Socket, error) {
	flags := int(typ)
	if bool(cloexec) {
		flags |= unix.SOCK_CLOEXEC
	}
	fds, err := unix.Socketpair(unix.AF_UNIX, flags, 0)
	if err != nil {
		return Socket{}, Socket{}, cosmos.NewApiError("socketpair", cosmos.MakeErrno(err))
	}
	return Socket{fd: cosmos.NewFileDescriptor(cosmos.FileNum(fds[0]))},
		Socket{fd: cosmos.NewFileDescriptor(cosmos.FileNum(fds[1]))},
		nil
}
