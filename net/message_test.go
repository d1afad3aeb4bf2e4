package net

import (
	"testing"

	"github.com/ferrocore/cosmos"
)

// TestControlMessageCloseClosesUnclaimedRights exercises the leak-
// prevention path: a received ControlMessage whose Rights were never
// taken by the caller must have its descriptors closed by Close.
func TestControlMessageCloseClosesUnclaimedRights(t *testing.T) {
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
	defer p.WriteEnd.Close()

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
	transferred := recv.Control.Rights[0]

	if err := recv.Close(); err != nil {
		t.Fatalf("MessageHeader.Close: %v", err)
	}
	if len(recv.Control.Rights) != 0 {
		t.Fatalf("Close left %d rights behind, want 0", len(recv.Control.Rights))
	}
	if err := cosmos.CheckAccessFD(transferred, cosmos.MakeBitMask(cosmos.AccessExists)); err == nil {
		t.Fatal("transferred descriptor still valid after Close, want it closed")
	}
}

// TestControlMessageTakeFDsPreventsClose confirms TakeFDs transfers
// ownership out so a later Close is a no-op on the taken descriptors.
func TestControlMessageTakeFDsPreventsClose(t *testing.T) {
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
	defer p.WriteEnd.Close()

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

	taken := recv.Control.TakeFDs()
	if len(taken) != 1 {
		t.Fatalf("TakeFDs returned %d descriptors, want 1", len(taken))
	}
	defer taken[0].Close()

	if err := recv.Close(); err != nil {
		t.Fatalf("Close after TakeFDs: %v", err)
	}
	if err := cosmos.CheckAccessFD(taken[0], cosmos.MakeBitMask(cosmos.AccessExists)); err != nil {
		t.Fatalf("taken descriptor was closed despite TakeFDs: %v", err)
	}
}

// TestReceiveControlTruncatedClosesDecodedRights forces MSG_CTRUNC by
// sizing the control buffer too small for the incoming SCM_RIGHTS
// payload, then confirms Receive reports the truncation and does not
// leave an open, unreferenced descriptor behind.
func TestReceiveControlTruncatedClosesDecodedRights(t *testing.T) {
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
	defer p.ReadEnd.Close()
	defer p.WriteEnd.Close()

	msg := MessageHeader{Payload: cosmos.IOVector{[]byte("x")}}
	msg.SetControl(RightsControlMessage(p.ReadEnd.FileDescriptor, p.WriteEnd.FileDescriptor))
	if _, err := a.Send(&msg, MessageFlags{}); err != nil {
		t.Fatalf("Send with rights: %v", err)
	}

	buf := make([]byte, 1)
	recv := MessageHeader{Payload: cosmos.IOVector{buf}}
	recv.SetControlBufferSize(1)
	_, err = b.Receive(&recv, FamilyUnix, MessageFlags{})
	if err == nil {
		t.Fatal("Receive succeeded despite an undersized control buffer")
	}
	if len(recv.Control.Rights) != 0 {
		t.Fatalf("Receive left %d rights on a truncated control message", len(recv.Control.Rights))
	}
}
