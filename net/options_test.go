package net

import "testing"

func TestSockOptReuseAddr(t *testing.T) {
	s, err := MakeSocket(FamilyInet, TypeStream, 0, true)
	if err != nil {
		t.Fatalf("MakeSocket: %v", err)
	}
	defer s.Close()

	if err := OptReuseAddr.Set(s, 1); err != nil {
		t.Fatalf("Set(OptReuseAddr): %v", err)
	}
	got, err := OptReuseAddr.Get(s)
	if err != nil {
		t.Fatalf("Get(OptReuseAddr): %v", err)
	}
	if got == 0 {
		t.Fatal("OptReuseAddr did not take effect")
	}
}

func TestSockOptTCPNoDelay(t *testing.T) {
	s, err := MakeSocket(FamilyInet, TypeStream, 0, true)
	if err != nil {
		t.Fatalf("MakeSocket: %v", err)
	}
	defer s.Close()

	if err := OptTCPNoDelay.Set(s, 1); err != nil {
		t.Fatalf("Set(OptTCPNoDelay): %v", err)
	}
	got, err := OptTCPNoDelay.Get(s)
	if err != nil {
		t.Fatalf("Get(OptTCPNoDelay): %v", err)
	}
	if got == 0 {
		t.Fatal("OptTCPNoDelay did not take effect")
	}
}
