package cosmos

import (
	"testing"

	"github.com/ferrocore/cosmos/internal/cosmostest"
)

func TestLeakDetectorCatchesUnclosedFile(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "leaked.txt")

	d := StartLeakDetection()
	defer d.Stop()

	f, err := OpenFile(dir, MustSysString("leaked.txt"), ReadOnly, OpenFlags{}, FileModeBits{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	if d.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 while the file is still open", d.Count())
	}
	sites := d.Open()
	if len(sites) != 1 || sites[0].File == "" {
		t.Fatalf("Open() = %+v, want one populated Site", sites)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.Count() != 0 {
		t.Fatalf("Count() = %d after Close, want 0", d.Count())
	}
}

func TestLeakDetectorIgnoresNonOwningFileBase(t *testing.T) {
	d := StartLeakDetection()
	defer d.Stop()

	fb := newFileBase(StdinNum, AutoCloseFD(false))
	if d.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 for a non-owning FileBase", d.Count())
	}
	_ = fb.Close()
}

func TestLeakDetectorStealUntracks(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "stolen.txt")

	d := StartLeakDetection()
	defer d.Stop()

	f, err := OpenFile(dir, MustSysString("stolen.txt"), ReadOnly, OpenFlags{}, FileModeBits{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	fd := f.Steal()
	defer NewFileDescriptor(fd).Close()

	if d.Count() != 0 {
		t.Fatalf("Count() = %d after Steal, want 0", d.Count())
	}
}
