package ptrace

import (
	"testing"

	"github.com/ferrocore/cosmos"
	"github.com/ferrocore/cosmos/proc"
)

// traceableChild launches /bin/true via ChildCloner, giving the test a
// child pid to Attach to.
func traceableChild(t *testing.T) cosmos.ProcessID {
	t.Helper()
	cloner := &proc.ChildCloner{
		Path: cosmos.MustSysString("/bin/true"),
		Argv: []string{"true"},
	}
	pid, err := cloner.Run()
	if err != nil {
		t.Skipf("could not launch /bin/true: %v", err)
	}
	return pid
}

func TestAttachDetach(t *testing.T) {
	pid := traceableChild(t)
	tr, err := Attach(pid)
	if err != nil {
		t.Skipf("ptrace attach unavailable: %v", err)
	}
	if _, _, err := proc.WaitFor(pid, proc.WaitFlags{}.Set(proc.WaitUntraced)); err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if err := tr.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
}
