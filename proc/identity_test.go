package proc

import (
	"testing"
)

func TestSelfParent(t *testing.T) {
	if Self() == 0 {
		t.Fatal("Self() returned 0")
	}
	if Parent() == 0 {
		t.Fatal("Parent() returned 0")
	}
	if SelfThread() == 0 {
		t.Fatal("SelfThread() returned 0")
	}
}

func TestGroupOfSelf(t *testing.T) {
	pgid, err := GroupOf(Self())
	if err != nil {
		t.Fatalf("GroupOf: %v", err)
	}
	if pgid == 0 {
		t.Fatal("GroupOf(Self()) returned 0")
	}
}

func TestSessionOfSelf(t *testing.T) {
	if _, err := SessionOf(Self()); err != nil {
		t.Fatalf("SessionOf: %v", err)
	}
}

func TestResolvedUIDs(t *testing.T) {
	real, effective, saved := RealUID(), EffectiveUID(), SavedUID()
	if real != RealUID() || effective != EffectiveUID() || saved != SavedUID() {
		t.Fatal("resolved uids are not stable across repeated calls")
	}
}
