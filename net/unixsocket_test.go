package net

import (
	"testing"

	"github.com/ferrocore/cosmos"
)

// TestSocketPairDatagramExchange exercises bidirectional datagram exchange
// between an unnamed, anonymous pair of AF_UNIX sockets: neither side ever
// touches the filesystem.
func TestSocketPairDatagramExchange(t *testing.T) {
	a, b, err := SocketPair(TypeDatagram, cosmos.CloseOnExec(true))
	if err != nil {
		t.Fatalf("SocketPair: %v", err)
	}
	defer a.Close()
	defer b.Close()

	msgA := MessageHeader{Payload: cosmos.IOVector{[]byte("ping")}}
	if _, err := a.Send(&msgA, MessageFlags{}); err != nil {
		t.Fatalf("a.Send: %v", err)
	}

	buf := make([]byte, 16)
	msgB := MessageHeader{Payload: cosmos.IOVector{buf}}
	n, err := b.Receive(&msgB, FamilyUnix, MessageFlags{})
	if err != nil {
		t.Fatalf("b.Receive: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("b received %q, want %q", buf[:n], "ping")
	}

	reply := MessageHeader{Payload: cosmos.IOVector{[]byte("pong")}}
	if _, err := b.Send(&reply, MessageFlags{}); err != nil {
		t.Fatalf("b.Send: %v", err)
	}
	buf2 := make([]byte, 16)
	msgA2 := MessageHeader{Payload: cosmos.IOVector{buf2}}
	n, err = a.Receive(&msgA2, FamilyUnix, MessageFlags{})
	if err != nil {
		t.Fatalf("a.Receive: %v", err)
	}
	if string(buf2[:n]) != "pong" {
		t.Fatalf("a received %q, want %q", buf2[:n], "pong")
	}
}

func TestSocketPairRightsTransfer(t *testing.T) {
	a, b, err := SocketPair(TypeDatagram, cosmos.CloseOnExec(true))
	if err != nil {
		t.Fatalf("SocketPair: %v", err)
	}
	defer a.Close()
	defer b.Close()

	p, err := cosmos.MakePipe(cosmos.CloseOnExec(true))
	if err != nil {
		t.Fatalf("MakePipe: %v", err)
	}
	defer p.Close()

	msg := MessageHeader{Payload: cosmos.IOVector{[]byte("x")}}
	msg.SetControl(RightsControlMessage(p.ReadEnd.FileDescriptor))
	if _, err := a.Send(&msg, MessageFlags{}); err != nil {
		t.Fatalf("Send with rights: %v", err)
	}

	buf := make([]byte, 1)
	recv := MessageHeader{Payload: cosmos.IOVector{buf}}
	if _, err := b.Receive(&recv, FamilyUnix, MessageFlags{}); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(recv.Control.Rights) != 1 {
		t.Fatalf("got %d transferred descriptors, want 1", len(recv.Control.Rights))
	}
	recv.Control.Rights[0].Close()
}

func TestListenUnixDialAccept(t *testing.T) {
	dir := t.TempDir()
	addr, err := MakeUnixAddress(dir + "/sock")
	if err != nil {
		t.Fatalf("MakeUnixAddress: %v", err)
	}

	l, err := ListenUnix(addr, 1)
	if err != nil {
		t.Fatalf("ListenUnix: %v", err)
	}
	defer l.Close()

	client, err := DialUnix(addr)
	if err != nil {
		t.Fatalf("DialUnix: %v", err)
	}
	defer client.Close()

	srv, err := l.Accept(cosmos.CloseOnExec(true))
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer srv.Close()

	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 16)
	n, err := srv.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("Read() = %q, want %q", buf[:n], "hello")
	}
}
