package cosmos

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

var initRefCount atomic.Int32

// Init increments the library's reference-counted init state, running any
// registered Initable hooks the first time the count transitions from 0.
func Init() error {
	if initRefCount.Add(1) == 1 {
		return runInitables(true)
	}
	return nil
}

// Finish decrements the library's reference-counted init state, running
// any registered Initable teardown hooks once the count reaches 0.
func Finish() error {
	if initRefCount.Add(-1) == 0 {
		return runInitables(false)
	}
	return nil
}

// Initialized reports whether the library is currently initialized.
func Initialized() bool {
	return initRefCount.Load() > 0
}

// InitHandle is a scoped handle: constructing it calls Init(), and Close calls
// Finish(). It exists so that library users can rely on defer instead of
// manually pairing Init/Finish calls.
type InitHandle struct{ closed bool }

// NewInit constructs an InitHandle, calling Init().
func NewInit() (*InitHandle, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return &InitHandle{}, nil
}

// Close calls Finish(), if not already closed.
func (h *InitHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return Finish()
}

type initable struct {
	priority int
	up, down func() error
}

var (
	initablesMu sync.Mutex
	initables   []initable
)

// RegisterInitable adds a deterministic-ordered library init/shutdown
// hook. Hooks run in ascending priority order on Init() and descending
// priority order on Finish(), so that dependents can register at a higher
// priority than their dependencies without relying on package
// initialization order.
func RegisterInitable(priority int, up, down func() error) {
	initablesMu.Lock()
	defer initablesMu.Unlock()
	initables = append(initables, initable{priority: priority, up: up, down: down})
}

func runInitables(up bool) error {
	initablesMu.Lock()
	ordered := make([]initable, len(initables))
	copy(ordered, initables)
	initablesMu.Unlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		if up {
			return ordered[i].priority < ordered[j].priority
		}
		return ordered[i].priority > ordered[j].priority
	})

	for _, ib := range ordered {
		var fn func() error
		if up {
			fn = ib.up
		} else {
			fn = ib.down
		}
		if fn == nil {
			continue
		}
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

var restartSyscallOnInterrupt atomic.Bool

func init() {
	restartSyscallOnInterrupt.Store(true)
}

// SetRestartSyscallOnInterrupt controls whether a blocking syscall
// interrupted by a signal (EINTR) is transparently retried by this
// library's blocking-loop helpers, or surfaced to the caller as
// Interrupted. The default is true.
func SetRestartSyscallOnInterrupt(restart bool) {
	restartSyscallOnInterrupt.Store(restart)
}

// RestartSyscallOnInterrupt reports the current EINTR policy.
func RestartSyscallOnInterrupt() bool {
	return restartSyscallOnInterrupt.Load()
}

var logger atomic.Pointer[slog.Logger]

// SetLogger installs the *slog.Logger used for library diagnostics (e.g.
// a close() failure that cannot be reported to the caller). Passing nil
// resets to slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func logf(msg string, args ...any) {
	l := logger.Load()
	if l == nil {
		l = slog.Default()
	}
	l.Warn(msg, args...)
}
