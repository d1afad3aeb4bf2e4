package cosmos

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestSigSetAddRemoveHas(t *testing.T) {
	set := MakeSigSet(SigUser1, SigUser2)
	if !set.Has(SigUser1) || !set.Has(SigUser2) {
		t.Fatalf("MakeSigSet did not include both signals: %+v", set)
	}
	if set.Has(SigTerm) {
		t.Fatal("SigSet should not contain a signal it was never given")
	}
	set.Remove(SigUser1)
	if set.Has(SigUser1) {
		t.Fatal("Remove did not clear the signal")
	}
	set.Add(SigTerm)
	if !set.Has(SigTerm) {
		t.Fatal("Add did not set the signal")
	}
}

func TestSignalFDReportsBlockedSignal(t *testing.T) {
	mask := MakeSigSet(SigUser1)
	old, err := ProcMask(SigBlock, &mask)
	if err != nil {
		t.Fatalf("ProcMask(SigBlock): %v", err)
	}
	defer ProcMask(SigSetMask, &old)

	sfd, err := MakeSignalFD(mask, SignalFDFlags{})
	if err != nil {
		t.Fatalf("MakeSignalFD: %v", err)
	}
	defer sfd.Close()

	if err := Raise(SigUser1); err != nil {
		t.Fatalf("Raise: %v", err)
	}

	info, err := sfd.Read()
	if err != nil {
		t.Fatalf("SignalFD.Read: %v", err)
	}
	if info.Signal() != SigUser1 {
		t.Fatalf("SigInfo.Signal() = %v, want SigUser1", info.Signal())
	}
	if pid, _ := info.UserSigData(); pid != ProcessID(unix.Getpid()) {
		t.Fatalf("UserSigData() pid = %v, want self", pid)
	}
	if info.Source() != CodeUser {
		t.Fatalf("Source() = %v, want CodeUser", info.Source())
	}
	if info.IsTrustedSource() {
		t.Fatal("a kill(2)-delivered signal should not report as a trusted source")
	}
}

func TestSendSignalToSelf(t *testing.T) {
	mask := MakeSigSet(SigUser2)
	old, err := ProcMask(SigBlock, &mask)
	if err != nil {
		t.Fatalf("ProcMask(SigBlock): %v", err)
	}
	defer ProcMask(SigSetMask, &old)

	sfd, err := MakeSignalFD(mask, SignalFDFlags{})
	if err != nil {
		t.Fatalf("MakeSignalFD: %v", err)
	}
	defer sfd.Close()

	if err := SendSignal(ProcessID(unix.Getpid()), SigUser2); err != nil {
		t.Fatalf("SendSignal: %v", err)
	}
	if _, err := sfd.Read(); err != nil {
		t.Fatalf("SignalFD.Read: %v", err)
	}
}
