package net

import (
	"github.com/ferrocore/cosmos"
)

// UDPSocket is an unconnected (or connected, if Connect was called)
// datagram socket.
type UDPSocket struct {
	Socket
}

// MakeUDPSocket creates a new UDP socket, optionally bound to addr if
// addr is non-nil.
func MakeUDPSocket(family Family, addr Address) (*UDPSocket, error) {
	s, err := MakeSocket(family, TypeDatagram, 0, cosmos.CloseOnExec(true))
	if err != nil {
		return nil, err
	}
	if addr != nil {
		if err := s.Bind(addr); err != nil {
			s.Close()
			return nil, err
		}
	}
	return &UDPSocket{s}, nil
}

// SendTo transmits buf to addr via sendmsg(2).
func (s UDPSocket) SendTo(buf []byte, addr Address) (int, error) {
	h := MessageHeader{Addr: addr, Payload: cosmos.IOVector{buf}}
	return s.Socket.Send(&h, MessageFlags{})
}

// ReceiveFrom reads one datagram into buf via recvmsg(2), returning the
// sender's address.
func (s UDPSocket) ReceiveFrom(buf []byte, family Family) (int, Address, error) {
	h := MessageHeader{Payload: cosmos.IOVector{buf}}
	n, err := s.Socket.Receive(&h, family, MessageFlags{})
	if err != nil {
		return n, nil, err
	}
	return n, h.Addr, nil
}
