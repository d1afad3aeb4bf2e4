// Package cosmostest provides scratch filesystem fixtures and other
// small conveniences shared by this module's test suites.
package cosmostest

import (
	"os"
	"testing"

	"github.com/ferrocore/cosmos"
)

// ScratchDir creates a temporary directory for t, opened as a
// cosmos.FileDescriptor suitable for passing as the dir argument to the
// *At filesystem functions, and registers its cleanup.
func ScratchDir(t *testing.T) (cosmos.FileDescriptor, string) {
	t.Helper()
	path := t.TempDir()
	dir, err := cosmos.OpenFile(cosmos.FileDescriptor{}, cosmos.MustSysString(path), cosmos.ReadOnly, cosmos.MakeBitMask(cosmos.ODirectory), cosmos.FileModeBits{})
	if err != nil {
		t.Fatalf("open scratch dir %q: %v", path, err)
	}
	t.Cleanup(func() {
		dir.Close()
	})
	return dir.FileDescriptor, path
}

// ScratchFile creates an empty file named name inside dirPath and
// returns its path.
func ScratchFile(t *testing.T, dirPath, name string) string {
	t.Helper()
	path := dirPath + "/" + name
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create scratch file %q: %v", path, err)
	}
	f.Close()
	return path
}

// RequireRoot skips t unless the test is running as uid 0, for cases
// exercising operations (chown to an arbitrary uid, mount-like syscalls)
// that are only permitted to root.
func RequireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("requires root")
	}
}
