package cosmos

import (
	"fmt"
	"runtime"
)

// Site is a source location captured at the point an error was raised,
// mirroring the file/line/function triple carried by CosmosError in the
// original C++ library.
type Site struct {
	File     string
	Line     int
	Function string
}

func callSite(skip int) Site {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Site{}
	}
	fn := runtime.FuncForPC(pc)
	name := ""
	if fn != nil {
		name = fn.Name()
	}
	return Site{File: file, Line: line, Function: name}
}

func (s Site) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d (%s)", s.File, s.Line, s.Function)
}

// SysError is implemented by every error type this library raises. It
// gives callers a single type to type-switch on regardless of which
// specific taxonomy member produced the failure.
type SysError interface {
	error
	// ClassLabel identifies the taxonomy member, e.g. "ApiError".
	ClassLabel() string
	// Where returns the call site the error was constructed at.
	Where() Site
}

// ApiError is an errno-bearing error raised by a failing syscall.
type ApiError struct {
	Op   string
	Errno Errno
	site Site
}

// NewApiError builds an ApiError for a failed operation, capturing the
// caller's source location.
func NewApiError(op string, errno Errno) *ApiError {
	return &ApiError{Op: op, Errno: errno, site: callSite(1)}
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Errno.Error())
}

func (e *ApiError) ClassLabel() string { return "ApiError" }
func (e *ApiError) Where() Site        { return e.site }
func (e *ApiError) Unwrap() error      { return e.Errno }

// Is allows errors.Is(err, SomeErrno) to match against the wrapped Errno.
func (e *ApiError) Is(target error) bool {
	errno, ok := target.(Errno)
	return ok && e.Errno == errno
}

// FileError is an ApiError additionally carrying the offending path.
type FileError struct {
	ApiError
	Path string
}

// NewFileError builds a FileError for a failed path-based operation.
func NewFileError(op, path string, errno Errno) *FileError {
	return &FileError{ApiError: ApiError{Op: op, Errno: errno, site: callSite(1)}, Path: path}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Op, e.Path, e.Errno.Error())
}

func (e *FileError) ClassLabel() string { return "FileError" }

// RangeError specializes ApiError for "buffer too small" conditions,
// carrying the length the caller should retry with.
type RangeError struct {
	ApiError
	RequiredLength int
}

// NewRangeError builds a RangeError.
func NewRangeError(op string, required int) *RangeError {
	return &RangeError{
		ApiError:       ApiError{Op: op, Errno: Range, site: callSite(1)},
		RequiredLength: required,
	}
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: buffer too small, need %d bytes", e.Op, e.RequiredLength)
}

func (e *RangeError) ClassLabel() string { return "RangeError" }

// EAICode is a getaddrinfo/getnameinfo error code.
type EAICode int

const (
	EAINoError EAICode = iota
	EAIAgain
	EAIBadFlags
	EAIFail
	EAIFamily
	EAIMemory
	EAINoName
	EAIService
	EAISocktype
	EAISystem
)

func (c EAICode) String() string {
	switch c {
	case EAINoError:
		return "no error"
	case EAIAgain:
		return "temporary failure in name resolution"
	case EAIBadFlags:
		return "invalid flags"
	case EAIFail:
		return "non-recoverable failure in name resolution"
	case EAIFamily:
		return "address family not supported"
	case EAIMemory:
		return "memory allocation failure"
	case EAINoName:
		return "name does not resolve"
	case EAIService:
		return "service not supported"
	case EAISocktype:
		return "socket type not supported"
	case EAISystem:
		return "system error"
	default:
		return fmt.Sprintf("EAICode(%d)", int(c))
	}
}

// ResolveError is raised by DNS resolution failures. When Code is
// EAISystem, SystemErrno carries the underlying errno.
type ResolveError struct {
	Node, Service string
	Code          EAICode
	SystemErrno   Errno
	site          Site
}

// NewResolveError builds a ResolveError.
func NewResolveError(node, service string, code EAICode, sysErrno Errno) *ResolveError {
	return &ResolveError{Node: node, Service: service, Code: code, SystemErrno: sysErrno, site: callSite(1)}
}

func (e *ResolveError) Error() string {
	if e.Code == EAISystem {
		return fmt.Sprintf("resolve %q/%q: %s (%s)", e.Node, e.Service, e.Code, e.SystemErrno)
	}
	return fmt.Sprintf("resolve %q/%q: %s", e.Node, e.Service, e.Code)
}

func (e *ResolveError) ClassLabel() string { return "ResolveError" }
func (e *ResolveError) Where() Site        { return e.site }

// UsageError signals a caller precondition violation with no kernel
// involvement, e.g. calling FileStatus.Size() on a device file.
type UsageError struct {
	Message string
	site    Site
}

// NewUsageError builds a UsageError, capturing the caller's source
// location.
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...), site: callSite(1)}
}

func (e *UsageError) Error() string      { return "usage error: " + e.Message }
func (e *UsageError) ClassLabel() string { return "UsageError" }
func (e *UsageError) Where() Site        { return e.site }

// RuntimeError signals a library-internal invariant violation, e.g.
// GetSockName() being called against an address of the wrong family.
type RuntimeError struct {
	Message string
	site    Site
}

// NewRuntimeError builds a RuntimeError, capturing the caller's source
// location.
func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), site: callSite(1)}
}

func (e *RuntimeError) Error() string      { return "runtime error: " + e.Message }
func (e *RuntimeError) ClassLabel() string { return "RuntimeError" }
func (e *RuntimeError) Where() Site        { return e.site }

// IsWouldBlock reports whether err represents a non-blocking descriptor's
// "try again" condition (EAGAIN/EWOULDBLOCK).
func IsWouldBlock(err error) bool {
	var api *ApiError
	if ae, ok := err.(*ApiError); ok {
		api = ae
	} else if fe, ok := err.(*FileError); ok {
		api = &fe.ApiError
	} else {
		return false
	}
	return api.Errno == Again || api.Errno == WouldBlock
}
