package cosmos

import (
	"errors"
	"strings"
	"testing"
)

func TestApiErrorIsMatchesWrappedErrno(t *testing.T) {
	err := NewApiError("read", NoEntry)
	if !errors.Is(err, NoEntry) {
		t.Fatal("errors.Is should match the wrapped Errno")
	}
	if errors.Is(err, Access) {
		t.Fatal("errors.Is should not match an unrelated Errno")
	}
}

func TestFileErrorIncludesPath(t *testing.T) {
	err := NewFileError("openat", "/tmp/missing", NoEntry)
	msg := err.Error()
	if !strings.Contains(msg, "/tmp/missing") {
		t.Fatalf("FileError.Error() = %q, want it to mention the path", msg)
	}
	if err.ClassLabel() != "FileError" {
		t.Fatalf("ClassLabel() = %q, want FileError", err.ClassLabel())
	}
}

func TestIsWouldBlock(t *testing.T) {
	if !IsWouldBlock(NewApiError("read", Again)) {
		t.Fatal("IsWouldBlock should be true for Again")
	}
	if !IsWouldBlock(NewApiError("read", WouldBlock)) {
		t.Fatal("IsWouldBlock should be true for WouldBlock")
	}
	if IsWouldBlock(NewApiError("read", IO)) {
		t.Fatal("IsWouldBlock should be false for unrelated errno")
	}
	if IsWouldBlock(errors.New("not an ApiError")) {
		t.Fatal("IsWouldBlock should be false for a non-ApiError")
	}
}

func TestRangeErrorMessage(t *testing.T) {
	err := NewRangeError("readlinkat", 4096)
	if !strings.Contains(err.Error(), "4096") {
		t.Fatalf("RangeError.Error() = %q, want it to mention the required length", err.Error())
	}
}
