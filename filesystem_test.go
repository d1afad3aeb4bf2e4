package cosmos

import (
	"testing"

	"github.com/ferrocore/cosmos/internal/cosmostest"
)

func TestMakeDirStatRemoveDir(t *testing.T) {
	dir, _ := cosmostest.ScratchDir(t)

	name := MustSysString("subdir")
	if err := MakeDir(dir, name, NewFileModeBits(0o755)); err != nil {
		t.Fatalf("MakeDir: %v", err)
	}

	st, err := Stat(dir, name, FollowSymlinks(true))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !st.IsDir() {
		t.Fatalf("Stat().Type = %v, want Directory", st.Type)
	}

	if err := RemoveDir(dir, name); err != nil {
		t.Fatalf("RemoveDir: %v", err)
	}
	if _, err := Stat(dir, name, FollowSymlinks(true)); err == nil {
		t.Fatal("Stat succeeded after RemoveDir")
	}
}

func TestRenameAndUnlink(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "old.txt")

	oldName, newName := MustSysString("old.txt"), MustSysString("new.txt")
	if err := Rename(dir, oldName, dir, newName); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := Stat(dir, newName, FollowSymlinks(true)); err != nil {
		t.Fatalf("Stat after rename: %v", err)
	}
	if err := Unlink(dir, newName); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
}

func TestSymlinkReadLink(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "target.txt")

	link := MustSysString("link.txt")
	if err := Symlink(MustSysString("target.txt"), dir, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	st, err := Stat(dir, link, FollowSymlinks(false))
	if err != nil {
		t.Fatalf("Stat(no-follow): %v", err)
	}
	if !st.IsSymlink() {
		t.Fatalf("Stat(no-follow).Type = %v, want SymbolicLink", st.Type)
	}

	target, err := ReadLink(dir, link)
	if err != nil {
		t.Fatalf("ReadLink: %v", err)
	}
	if target != "target.txt" {
		t.Fatalf("ReadLink() = %q, want %q", target, "target.txt")
	}
}

func TestAccessChmod(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "perm.txt")
	name := MustSysString("perm.txt")

	if err := Chmod(dir, name, NewFileModeBits(0o600)); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := Access(dir, name, MakeBitMask(AccessRead, AccessWrite), FollowSymlinks(true)); err != nil {
		t.Fatalf("Access: %v", err)
	}
}

func TestLinkExchange(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "a.txt")
	cosmostest.ScratchFile(t, path, "b.txt")

	aName, bName := MustSysString("a.txt"), MustSysString("b.txt")
	hardName := MustSysString("a.hardlink")
	if err := Link(dir, aName, dir, hardName, FollowSymlinks(true)); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if _, err := Stat(dir, hardName, FollowSymlinks(true)); err != nil {
		t.Fatalf("Stat(hardlink): %v", err)
	}

	if err := Exchange(dir, aName, dir, bName); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
}

func TestWorkingDirectoryChangeWorkingDirectory(t *testing.T) {
	original, err := WorkingDirectory()
	if err != nil {
		t.Fatalf("WorkingDirectory: %v", err)
	}
	defer ChangeWorkingDirectory(MustSysString(original))

	_, path := cosmostest.ScratchDir(t)
	if err := ChangeWorkingDirectory(MustSysString(path)); err != nil {
		t.Fatalf("ChangeWorkingDirectory: %v", err)
	}
	got, err := WorkingDirectory()
	if err != nil {
		t.Fatalf("WorkingDirectory: %v", err)
	}
	if got != path {
		t.Fatalf("WorkingDirectory() = %q, want %q", got, path)
	}
}

func TestExistsFile(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "present.txt")

	ok, err := ExistsFile(dir, MustSysString("present.txt"))
	if err != nil {
		t.Fatalf("ExistsFile: %v", err)
	}
	if !ok {
		t.Fatal("ExistsFile reported false for a file that was just created")
	}

	ok, err = ExistsFile(dir, MustSysString("absent.txt"))
	if err != nil {
		t.Fatalf("ExistsFile: %v", err)
	}
	if ok {
		t.Fatal("ExistsFile reported true for a file that was never created")
	}
}

func TestMakeAllDirsCreatesMissingAncestors(t *testing.T) {
	dir, _ := cosmostest.ScratchDir(t)

	if err := MakeAllDirs(dir, MustSysString("a/b/c"), NewFileModeBits(0o755)); err != nil {
		t.Fatalf("MakeAllDirs: %v", err)
	}
	st, err := Stat(dir, MustSysString("a/b/c"), FollowSymlinks(true))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !st.IsDir() {
		t.Fatal("a/b/c was not created as a directory")
	}

	if err := MakeAllDirs(dir, MustSysString("a/b/c"), NewFileModeBits(0o755)); err != nil {
		t.Fatalf("MakeAllDirs (repeat): %v", err)
	}
}

func TestRemoveTreeRemovesNestedContent(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	if err := MakeAllDirs(dir, MustSysString("x/y"), NewFileModeBits(0o755)); err != nil {
		t.Fatalf("MakeAllDirs: %v", err)
	}
	cosmostest.ScratchFile(t, path+"/x", "leaf.txt")
	cosmostest.ScratchFile(t, path+"/x/y", "deep.txt")

	if err := RemoveTree(dir, MustSysString("x")); err != nil {
		t.Fatalf("RemoveTree: %v", err)
	}
	ok, err := ExistsFile(dir, MustSysString("x"))
	if err != nil {
		t.Fatalf("ExistsFile: %v", err)
	}
	if ok {
		t.Fatal("RemoveTree left x behind")
	}

	if err := RemoveTree(dir, MustSysString("x")); err != nil {
		t.Fatalf("RemoveTree on an absent path: %v", err)
	}
}

func TestSetUmaskRestoresPrevious(t *testing.T) {
	old := SetUmask(NewFileModeBits(0o027))
	defer SetUmask(old)

	got := SetUmask(NewFileModeBits(0o022))
	if got.Raw() != 0o027 {
		t.Fatalf("SetUmask returned previous mask %o, want 027", got.Raw())
	}
}

func TestWhichFindsShellBinary(t *testing.T) {
	path, err := Which("sh")
	if err != nil {
		t.Skipf("sh not found on PATH: %v", err)
	}
	if path == "" {
		t.Fatal("Which returned an empty path with no error")
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath("a/./b/../c"); got != "a/c" {
		t.Fatalf("NormalizePath = %q, want %q", got, "a/c")
	}
}

func TestCanonicalizePathResolvesSymlink(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	target := cosmostest.ScratchFile(t, path, "real.txt")

	if err := Symlink(MustSysString(target), dir, MustSysString("link.txt")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	got, err := CanonicalizePath(path + "/link.txt")
	if err != nil {
		t.Fatalf("CanonicalizePath: %v", err)
	}
	if got != target {
		t.Fatalf("CanonicalizePath = %q, want %q", got, target)
	}
}

func TestFlockExclusiveThenUnlock(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "lockme.txt")

	f, err := OpenFile(dir, MustSysString("lockme.txt"), ReadOnly, OpenFlags{}, FileModeBits{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if err := Flock(f.FileDescriptor, LockExclusive); err != nil {
		t.Fatalf("Flock(LockExclusive): %v", err)
	}
	if err := Flock(f.FileDescriptor, LockUnlock); err != nil {
		t.Fatalf("Flock(LockUnlock): %v", err)
	}
}

func TestCheckAccessFD(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "readable.txt")

	f, err := OpenFile(dir, MustSysString("readable.txt"), ReadOnly, OpenFlags{}, FileModeBits{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if err := CheckAccessFD(f.FileDescriptor, MakeBitMask(AccessRead)); err != nil {
		t.Fatalf("CheckAccessFD: %v", err)
	}
}

func TestCopyFileRange(t *testing.T) {
	dir, path := cosmostest.ScratchDir(t)
	cosmostest.ScratchFile(t, path, "src.txt")

	src, err := OpenFile(dir, MustSysString("src.txt"), ReadWrite, OpenFlags{}, FileModeBits{})
	if err != nil {
		t.Fatalf("OpenFile(src): %v", err)
	}
	defer src.Close()
	payload := []byte("hello copy_file_range")
	if _, err := src.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dst, err := OpenFile(dir, MustSysString("dst.txt"), ReadWrite, MakeBitMask(OCreate), NewFileModeBits(0o644))
	if err != nil {
		t.Fatalf("OpenFile(dst): %v", err)
	}
	defer dst.Close()

	n, err := CopyFileRange(src, 0, dst, 0, len(payload))
	if err != nil {
		t.Skipf("copy_file_range unavailable on this filesystem: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("CopyFileRange copied %d bytes, want %d", n, len(payload))
	}
}
