package cosmos

import (
	"testing"

	"github.com/ferrocore/cosmos/internal/cosmostest"
)

func TestMakeTempFileLinkAt(t *testing.T) {
	_, path := cosmostest.ScratchDir(t)

	f, err := MakeTempFile(MustSysString(path), NewFileModeBits(0o644))
	if err != nil {
		t.Skipf("O_TMPFILE unsupported on this filesystem: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("anonymous")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dir, err := OpenFile(FileDescriptor{}, MustSysString(path), ReadOnly, MakeBitMask(ODirectory), FileModeBits{})
	if err != nil {
		t.Fatalf("open scratch dir: %v", err)
	}
	defer dir.Close()

	if err := f.LinkAt(dir.FileDescriptor, MustSysString("named.txt")); err != nil {
		t.Skipf("linkat(AT_EMPTY_PATH) unavailable: %v", err)
	}

	if _, err := Stat(dir.FileDescriptor, MustSysString("named.txt"), FollowSymlinks(true)); err != nil {
		t.Fatalf("Stat after LinkAt: %v", err)
	}
}

func TestMakeTempDirRemove(t *testing.T) {
	parentFD, parentPath := cosmostest.ScratchDir(t)

	td, err := MakeTempDir(parentFD, "scratch", NewFileModeBits(0o755))
	if err != nil {
		t.Fatalf("MakeTempDir: %v", err)
	}
	if td.Path() == "" {
		t.Fatal("Path() returned empty string")
	}

	if err := Access(FileDescriptor{}, MustSysString(td.Path()), MakeBitMask(AccessExists), FollowSymlinks(true)); err != nil {
		t.Fatalf("Access: %v", err)
	}

	if err := td.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := Access(FileDescriptor{}, MustSysString(parentPath), MakeBitMask(AccessExists), FollowSymlinks(true)); err != nil {
		t.Fatalf("Access(parent): %v", err)
	}
}
