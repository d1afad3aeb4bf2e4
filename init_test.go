package cosmos

import "testing"

func TestInitFinishRefCounting(t *testing.T) {
	var ups, downs int
	RegisterInitable(0, func() error { ups++; return nil }, func() error { downs++; return nil })

	if Initialized() {
		t.Fatal("library should not be Initialized before the first Init()")
	}

	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(); err != nil {
		t.Fatalf("Init (nested): %v", err)
	}
	if !Initialized() {
		t.Fatal("Initialized() should be true after Init()")
	}
	if ups != 1 {
		t.Fatalf("up hook ran %d times, want exactly 1 across nested Init() calls", ups)
	}

	if err := Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !Initialized() {
		t.Fatal("Initialized() should stay true until the matching Finish()")
	}
	if err := Finish(); err != nil {
		t.Fatalf("Finish (final): %v", err)
	}
	if Initialized() {
		t.Fatal("Initialized() should be false once every Init() has a matching Finish()")
	}
	if downs != 1 {
		t.Fatalf("down hook ran %d times, want exactly 1", downs)
	}
}

func TestInitHandleClose(t *testing.T) {
	h, err := NewInit()
	if err != nil {
		t.Fatalf("NewInit: %v", err)
	}
	if !Initialized() {
		t.Fatal("Initialized() should be true after NewInit()")
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestRegisterInitablePriorityOrder(t *testing.T) {
	var upOrder, downOrder []int

	RegisterInitable(10, func() error { upOrder = append(upOrder, 10); return nil }, func() error { downOrder = append(downOrder, 10); return nil })
	RegisterInitable(5, func() error { upOrder = append(upOrder, 5); return nil }, func() error { downOrder = append(downOrder, 5); return nil })

	if err := runInitables(true); err != nil {
		t.Fatalf("runInitables(up): %v", err)
	}
	if err := runInitables(false); err != nil {
		t.Fatalf("runInitables(down): %v", err)
	}

	foundAscending := false
	for i := 1; i < len(upOrder); i++ {
		if upOrder[i-1] == 5 && upOrder[i] == 10 {
			foundAscending = true
		}
	}
	if !foundAscending {
		t.Fatalf("up hooks did not run in ascending priority order: %v", upOrder)
	}

	foundDescending := false
	for i := 1; i < len(downOrder); i++ {
		if downOrder[i-1] == 10 && downOrder[i] == 5 {
			foundDescending = true
		}
	}
	if !foundDescending {
		t.Fatalf("down hooks did not run in descending priority order: %v", downOrder)
	}
}

func TestRestartSyscallOnInterruptDefaultAndToggle(t *testing.T) {
	if !RestartSyscallOnInterrupt() {
		t.Fatal("default EINTR policy should be to restart")
	}
	SetRestartSyscallOnInterrupt(false)
	defer SetRestartSyscallOnInterrupt(true)
	if RestartSyscallOnInterrupt() {
		t.Fatal("SetRestartSyscallOnInterrupt(false) did not take effect")
	}
}
