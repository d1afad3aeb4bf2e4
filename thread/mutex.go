package thread

/*
#include <pthread.h>
*/
import "C"

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// Mutex wraps pthread_mutex_t directly, for code sharing a lock between
// PosixThread-created threads (a sync.Mutex works just as well for
// goroutine-only code; this type exists for parity with the pthread
// primitives the original library exposes).
type Mutex struct {
	raw C.pthread_mutex_t
}

// NewMutex initializes a Mutex with the default (non-recursive, non
// error-checking) attributes.
func NewMutex() *Mutex {
	m := &Mutex{}
	C.pthread_mutex_init(&m.raw, nil)
	return m
}

// Lock blocks until the mutex is acquired, via pthread_mutex_lock(3).
func (m *Mutex) Lock() error {
	if rc := C.pthread_mutex_lock(&m.raw); rc != 0 {
		return cosmos.NewApiError("pthread_mutex_lock", cosmos.MakeErrno(unix.Errno(rc)))
	}
	return nil
}

// TryLock attempts to acquire the mutex without blocking, returning
// false if it is already held.
func (m *Mutex) TryLock() (bool, error) {
	rc := C.pthread_mutex_trylock(&m.raw)
	switch rc {
	case 0:
		return true, nil
	case C.EBUSY:
		return false, nil
	default:
		return false, cosmos.NewApiError("pthread_mutex_trylock", cosmos.MakeErrno(unix.Errno(rc)))
	}
}

// Unlock releases the mutex via pthread_mutex_unlock(3).
func (m *Mutex) Unlock() error {
	if rc := C.pthread_mutex_unlock(&m.raw); rc != 0 {
		return cosmos.NewApiError("pthread_mutex_unlock", cosmos.MakeErrno(unix.Errno(rc)))
	}
	return nil
}

// Destroy releases the mutex's resources via pthread_mutex_destroy(3).
// The Mutex must not be locked or in use elsewhere when this is called.
func (m *Mutex) Destroy() error {
	if rc := C.pthread_mutex_destroy(&m.raw); rc != 0 {
		return cosmos.NewApiError("pthread_mutex_destroy", cosmos.MakeErrno(unix.Errno(rc)))
	}
	return nil
}

// Condition wraps pthread_cond_t, a condition variable that Wait()s
// against a caller-supplied Mutex and is woken by Signal/Broadcast from
// another thread.
type Condition struct {
	raw C.pthread_cond_t
}

// NewCondition initializes a Condition with the default attributes.
func NewCondition() *Condition {
	c := &Condition{}
	C.pthread_cond_init(&c.raw, nil)
	return c
}

// Wait releases m and blocks until Signal or Broadcast wakes this
// thread, then reacquires m before returning, via pthread_cond_wait(3).
// As with any condition variable, callers must re-check their predicate
// in a loop since Wait can return spuriously.
func (c *Condition) Wait(m *Mutex) error {
	if rc := C.pthread_cond_wait(&c.raw, &m.raw); rc != 0 {
		return cosmos.NewApiError("pthread_cond_wait", cosmos.MakeErrno(unix.Errno(rc)))
	}
	return nil
}

// Signal wakes at least one thread blocked in Wait, via
// pthread_cond_signal(3).
func (c *Condition) Signal() error {
	if rc := C.pthread_cond_signal(&c.raw); rc != 0 {
		return cosmos.NewApiError("pthread_cond_signal", cosmos.MakeErrno(unix.Errno(rc)))
	}
	return nil
}

// Broadcast wakes every thread blocked in Wait, via
// pthread_cond_broadcast(3).
func (c *Condition) Broadcast() error {
	if rc := C.pthread_cond_broadcast(&c.raw); rc != 0 {
		return cosmos.NewApiError("pthread_cond_broadcast", cosmos.MakeErrno(unix.Errno(rc)))
	}
	return nil
}

// Destroy releases the condition variable's resources via
// pthread_cond_destroy(3).
func (c *Condition) Destroy() error {
	if rc := C.pthread_cond_destroy(&c.raw); rc != 0 {
		return cosmos.NewApiError("pthread_cond_destroy", cosmos.MakeErrno(unix.Errno(rc)))
	}
	return nil
}
