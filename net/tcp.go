package net

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// StreamSocket is a connected, reliable, byte-stream socket: the common
// shape shared by TCP connections and connected AF_UNIX SOCK_STREAM
// sockets.
type StreamSocket struct {
	Socket
}

// Read reads available data from the connection via recv(2).
func (s StreamSocket) Read(buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(int(s.fd.Raw()), buf, 0)
	if err != nil {
		return n, cosmos.NewApiError("recvfrom", cosmos.MakeErrno(err))
	}
	return n, nil
}

// Write sends data over the connection via write(2), looping until the
// whole buffer is accepted.
func (s StreamSocket) Write(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := unix.Write(int(s.fd.Raw()), buf[total:])
		if err != nil {
			return total, cosmos.NewApiError("write", cosmos.MakeErrno(err))
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

// TCPClient is a connected TCP socket (IPv4 or IPv6 depending on which
// constructor built it).
type TCPClient struct {
	StreamSocket
}

// DialTCP connects to addr, returning the established TCPClient.
func DialTCP(family Family, addr Address) (*TCPClient, error) {
	s, err := MakeSocket(family, TypeStream, 0, cosmos.CloseOnExec(true))
	if err != nil {
		return nil, err
	}
	if err := s.Connect(addr); err != nil {
		s.Close()
		return nil, err
	}
	return &TCPClient{StreamSocket{s}}, nil
}

// TCPListener listens for and accepts incoming TCP connections.
type TCPListener struct {
	Socket
}

// ListenTCP creates a listening socket bound to addr.
func ListenTCP(family Family, addr Address, backlog int) (*TCPListener, error) {
	s, err := MakeSocket(family, TypeStream, 0, cosmos.CloseOnExec(true))
	if err != nil {
		return nil, err
	}
	if err := OptReuseAddr.Set(s, 1); err != nil {
		s.Close()
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
	return &TCPListener{s}, nil
}

// Accept accepts one pending connection via accept4(2), returning the new
// connection and the peer's address.
func (l *TCPListener) Accept(family Family, cloexec cosmos.CloseOnExec) (*TCPClient, Address, error) {
	fd, peerRaw, err := acceptRaw(int(l.fd.Raw()), cloexec)
	if err != nil {
		return nil, nil, cosmos.NewApiError("accept4", cosmos.MakeErrno(err))
	}
	peer, decodeErr := decodeAddress(family, peerRaw)
	if decodeErr != nil {
		peer = nil
	}
	client := &TCPClient{StreamSocket{Socket{fd: cosmos.NewFileDescriptor(cosmos.FileNum(fd))}}}
	return client, peer, nil
}
