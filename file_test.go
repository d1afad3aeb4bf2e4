package cosmos

import (
	"io"
	"testing"

	"github.com/ferrocore/cosmos/internal/cosmostest"
)

func openScratchFile(t *testing.T, mode OpenMode, flags OpenFlags) *File {
	t.Helper()
	dir, _ := cosmostest.ScratchDir(t)
	f, err := OpenFileAt(dir, MustSysString("data.txt"), mode, flags, NewFileModeBits(0o644))
	if err != nil {
		t.Fatalf("OpenFileAt: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpenFileWriteReadSeek(t *testing.T) {
	f := openScratchFile(t, ReadWrite, MakeBitMask(OCreate, OTruncate))

	if _, err := f.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := f.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	buf := make([]byte, 32)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hello world" {
		t.Fatalf("Read() = %q, want %q", buf[:n], "hello world")
	}

	if _, err := f.Read(buf); err != io.EOF {
		t.Fatalf("second Read() error = %v, want io.EOF", err)
	}
}

func TestReadAtWriteAt(t *testing.T) {
	f := openScratchFile(t, ReadWrite, MakeBitMask(OCreate, OTruncate))

	if _, err := f.WriteAt([]byte("XYZ"), 5); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	buf := make([]byte, 3)
	n, err := f.ReadAt(buf, 5)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf[:n]) != "XYZ" {
		t.Fatalf("ReadAt() = %q, want %q", buf[:n], "XYZ")
	}
}

func TestTruncateAllocate(t *testing.T) {
	f := openScratchFile(t, ReadWrite, MakeBitMask(OCreate, OTruncate))

	if err := f.Truncate(100); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	st, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Size != 100 {
		t.Fatalf("Stat().Size = %d, want 100", st.Size)
	}

	if err := f.Allocate(100, 100); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	st, err = f.Stat()
	if err != nil {
		t.Fatalf("Stat after Allocate: %v", err)
	}
	if st.Size != 200 {
		t.Fatalf("Stat().Size after Allocate = %d, want 200", st.Size)
	}
}

func TestFileChmod(t *testing.T) {
	f := openScratchFile(t, ReadWrite, MakeBitMask(OCreate, OTruncate))

	if err := f.Chmod(NewFileModeBits(0o600)); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	st, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !st.Perm.Test(ModeUserRead) || !st.Perm.Test(ModeUserWrite) {
		t.Fatalf("Stat().Perm = %v, want user rw", st.Perm)
	}
	if st.Perm.Test(ModeGroupRead) || st.Perm.Test(ModeOtherRead) {
		t.Fatalf("Stat().Perm = %v, want group/other bits clear", st.Perm)
	}
}

func TestFileDescriptorDuplicate(t *testing.T) {
	f := openScratchFile(t, ReadWrite, MakeBitMask(OCreate, OTruncate))

	dup, err := f.DuplicateAny(CloseOnExec(true))
	if err != nil {
		t.Fatalf("DuplicateAny: %v", err)
	}
	defer dup.Close()

	flags, err := dup.GetFlags()
	if err != nil {
		t.Fatalf("GetFlags: %v", err)
	}
	if !flags.Test(CloseOnExecFlag) {
		t.Fatal("duplicated descriptor should carry FD_CLOEXEC")
	}
}
