package cosmos

import "testing"

func TestPollerAddWaitRemove(t *testing.T) {
	p, err := MakePoller()
	if err != nil {
		t.Fatalf("MakePoller: %v", err)
	}
	defer p.Close()

	pipe, err := MakePipe(CloseOnExec(true))
	if err != nil {
		t.Fatalf("MakePipe: %v", err)
	}
	defer pipe.Close()

	const userValue = 42
	if err := p.Add(pipe.ReadEnd.FileDescriptor, MakeBitMask(PollIn), userValue); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := pipe.WriteEnd.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	events := make([]PollEvent, 4)
	n, err := p.Wait(events, 1000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 1 {
		t.Fatalf("Wait() returned %d events, want 1", n)
	}
	if events[0].User != userValue {
		t.Fatalf("PollEvent.User = %d, want %d", events[0].User, userValue)
	}
	if !events[0].Flags.Test(PollIn) {
		t.Fatalf("PollEvent.Flags = %v, want PollIn set", events[0].Flags)
	}

	if err := p.Remove(pipe.ReadEnd.FileDescriptor); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestPollerWaitTimeout(t *testing.T) {
	p, err := MakePoller()
	if err != nil {
		t.Fatalf("MakePoller: %v", err)
	}
	defer p.Close()

	pipe, err := MakePipe(CloseOnExec(true))
	if err != nil {
		t.Fatalf("MakePipe: %v", err)
	}
	defer pipe.Close()

	if err := p.Add(pipe.ReadEnd.FileDescriptor, MakeBitMask(PollIn), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	events := make([]PollEvent, 4)
	n, err := p.Wait(events, 20)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 0 {
		t.Fatalf("Wait() returned %d events, want 0 before timeout", n)
	}
}
