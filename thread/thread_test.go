package thread

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestStartJoin(t *testing.T) {
	var ran atomic.Bool
	th, err := Start(func() {
		ran.Store(true)
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := th.Join(); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !ran.Load() {
		t.Fatal("thread function did not run")
	}
}

func TestMutexLockUnlock(t *testing.T) {
	m := NewMutex()
	defer m.Destroy()

	if err := m.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	ok, err := m.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if ok {
		t.Fatal("TryLock succeeded while mutex was already held")
	}
	if err := m.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestConditionSignal(t *testing.T) {
	m := NewMutex()
	defer m.Destroy()
	c := NewCondition()
	defer c.Destroy()

	ready := false
	done := make(chan struct{})

	th, err := Start(func() {
		m.Lock()
		for !ready {
			c.Wait(m)
		}
		m.Unlock()
		close(done)
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	m.Lock()
	ready = true
	m.Unlock()
	c.Signal()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("condition signal did not wake waiter")
	}
	th.Join()
}
