package proc

import (
	"testing"

	"github.com/ferrocore/cosmos"
)

func TestSubProcessStartWait(t *testing.T) {
	cloner := &ChildCloner{
		Path: cosmos.MustSysString("/bin/true"),
		Argv: []string{"true"},
	}
	sub, err := Start(cloner)
	if err != nil {
		t.Skipf("could not launch /bin/true: %v", err)
	}
	defer sub.Close()

	status, err := sub.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !status.Exited || status.ExitCode != 0 {
		t.Fatalf("status = %v, want exited(0)", status)
	}
}

func TestSubProcessSignal(t *testing.T) {
	cloner := &ChildCloner{
		Path: cosmos.MustSysString("/bin/sleep"),
		Argv: []string{"sleep", "30"},
	}
	sub, err := Start(cloner)
	if err != nil {
		t.Skipf("could not launch /bin/sleep: %v", err)
	}
	defer sub.Close()

	if err := sub.Signal(cosmos.SigKill); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	status, err := sub.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !status.Signaled || status.Signal != cosmos.SigKill {
		t.Fatalf("status = %v, want signaled(SIGKILL)", status)
	}
}

func TestOpenProcessFileDuplicateRemoteFD(t *testing.T) {
	cloner := &ChildCloner{
		Path: cosmos.MustSysString("/bin/sleep"),
		Argv: []string{"sleep", "30"},
	}
	pid, err := cloner.Run()
	if err != nil {
		t.Skipf("could not launch /bin/sleep: %v", err)
	}
	defer cosmos.SendSignal(pid, cosmos.SigKill)

	pf, err := OpenProcessFile(pid)
	if err != nil {
		t.Skipf("pidfd_open unavailable: %v", err)
	}
	defer pf.Close()

	if _, err := pf.DuplicateRemoteFD(0); err != nil {
		t.Skipf("pidfd_getfd unavailable (needs CAP_SYS_PTRACE): %v", err)
	}

	if err := pf.SendSignal(cosmos.SigKill); err != nil {
		t.Fatalf("SendSignal: %v", err)
	}
	if _, err := pf.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestChildClonerSchedulePolicy(t *testing.T) {
	policy := ScheduleOther
	cloner := &ChildCloner{
		Path:           cosmos.MustSysString("/bin/sleep"),
		Argv:           []string{"sleep", "30"},
		SchedulePolicy: &policy,
	}
	pid, err := cloner.Run()
	if err != nil {
		t.Skipf("could not launch /bin/sleep: %v", err)
	}
	defer cosmos.SendSignal(pid, cosmos.SigKill)

	if _, _, err := WaitFor(pid, cosmos.MakeBitMask(WaitNoHang)); err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
}

func TestRegisterAndRunPostForkHook(t *testing.T) {
	const hookName = "test-post-fork-hook"
	RegisterPostForkHook(hookName, func() int { return 0 })
	if _, ok := postForkHooks[hookName]; !ok {
		t.Fatal("RegisterPostForkHook did not register the hook")
	}
}

func TestChildClonerFileLayoutDefault(t *testing.T) {
	c := &ChildCloner{}
	files := c.fileLayout()
	if len(files) != 3 {
		t.Fatalf("default fileLayout() has %d entries, want 3", len(files))
	}
}

func TestChildClonerFileLayoutExplicit(t *testing.T) {
	p, err := cosmos.MakePipe(cosmos.CloseOnExec(false))
	if err != nil {
		t.Fatalf("MakePipe: %v", err)
	}
	defer p.Close()

	c := &ChildCloner{
		FDs: []FDAction{
			{TargetFD: 0, Source: p.ReadEnd.FileDescriptor},
			{TargetFD: 1, Source: p.WriteEnd.FileDescriptor},
		},
	}
	files := c.fileLayout()
	if len(files) != 2 {
		t.Fatalf("fileLayout() has %d entries, want 2", len(files))
	}
	if files[0] != uintptr(p.ReadEnd.Raw()) || files[1] != uintptr(p.WriteEnd.Raw()) {
		t.Fatalf("fileLayout() = %v, want [%d %d]", files, p.ReadEnd.Raw(), p.WriteEnd.Raw())
	}
}
