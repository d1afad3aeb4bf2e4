// Package thread wraps POSIX threads directly via cgo: pthread_create,
// pthread_join, and the mutex/condition-variable primitives built on
// top of them. This is the one subpackage in the module built on cgo
// rather than golang.org/x/sys/unix, since x/sys/unix exposes kernel
// syscalls and clone(2)/futex(2) plumbing but not glibc's pthread_*
// entry points themselves.
package thread

/*
#cgo LDFLAGS: -lpthread
#include <pthread.h>
#include <stdlib.h>

extern void *cosmosThreadTrampoline(void *arg);
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// pthreadErrno turns a pthread_*(3) return code (which is the errno
// value itself, not -1 with errno set as plain syscalls use) into the
// unix.Errno form cosmos.MakeErrno expects.
func pthreadErrno(rc C.int) error {
	return unix.Errno(rc)
}

//export cosmosThreadTrampoline
func cosmosThreadTrampoline(arg unsafe.Pointer) unsafe.Pointer {
	h := *(*cgo.Handle)(arg)
	C.free(arg)
	fn := h.Value().(func())
	h.Delete()
	fn()
	return nil
}

// PosixThread is a thread created via pthread_create(3), as opposed to a
// plain Go goroutine: it has a stable pthread_t identity that other
// pthread-level APIs (cancellation, affinity, a Mutex shared across
// threads created this way) can refer to.
type PosixThread struct {
	tid C.pthread_t
	done chan struct{}
}

// Start launches fn on a newly created POSIX thread. The calling
// goroutine is not affected; fn runs with its own OS thread for its
// entire lifetime (runtime.LockOSThread has no bearing on a thread
// pthread itself created).
func Start(fn func()) (*PosixThread, error) {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	h := cgo.NewHandle(wrapped)
	argp := C.malloc(C.size_t(unsafe.Sizeof(h)))
	*(*cgo.Handle)(argp) = h

	t := &PosixThread{done: done}
	rc := C.pthread_create(&t.tid, nil, (*[0]byte)(C.cosmosThreadTrampoline), argp)
	if rc != 0 {
		C.free(argp)
		h.Delete()
		return nil, cosmos.NewApiError("pthread_create", cosmos.MakeErrno(pthreadErrno(rc)))
	}
	return t, nil
}

// Join blocks until the thread's function returns, via pthread_join(3).
func (t *PosixThread) Join() error {
	if rc := C.pthread_join(t.tid, nil); rc != 0 {
		return cosmos.NewApiError("pthread_join", cosmos.MakeErrno(pthreadErrno(rc)))
	}
	<-t.done
	return nil
}

// Detach releases the implementation's resources for the thread without
// waiting for it, via pthread_detach(3). After Detach, Join must not be
// called.
func (t *PosixThread) Detach() error {
	if rc := C.pthread_detach(t.tid); rc != 0 {
		return cosmos.NewApiError("pthread_detach", cosmos.MakeErrno(pthreadErrno(rc)))
	}
	return nil
}

// Self returns a PosixThread referring to the calling OS thread. It calls
// runtime.LockOSThread first, so the calling goroutine stays on that OS
// thread and the returned handle keeps referring to it.
func Self() PosixThread {
	runtime.LockOSThread()
	return PosixThread{tid: C.pthread_self()}
}
