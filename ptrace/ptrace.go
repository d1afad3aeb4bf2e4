// Package ptrace wraps the ptrace(2) process tracing facility: attaching
// to and detaching from a tracee, resuming it in various modes, and
// inspecting its registers and memory.
package ptrace

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// Tracee is a process under ptrace control.
type Tracee struct {
	pid cosmos.ProcessID
}

// Attach begins tracing pid via PTRACE_ATTACH. The tracee receives a
// SIGSTOP; callers should wait for it before issuing further ptrace
// requests.
func Attach(pid cosmos.ProcessID) (*Tracee, error) {
	if err := unix.PtraceAttach(int(pid)); err != nil {
		return nil, cosmos.NewApiError("ptrace_attach", cosmos.MakeErrno(err))
	}
	return &Tracee{pid: pid}, nil
}

// Seize begins tracing pid via PTRACE_SEIZE, which unlike Attach does
// not stop the tracee or generate a spurious signal.
func Seize(pid cosmos.ProcessID, options OptionFlags) (*Tracee, error) {
	if err := unix.PtraceSeize(int(pid)); err != nil {
		return nil, cosmos.NewApiError("ptrace_seize", cosmos.MakeErrno(err))
	}
	t := &Tracee{pid: pid}
	if options.Raw() != 0 {
		if err := t.SetOptions(options); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// TraceMe arranges for the calling process to be traced by its parent,
// via PTRACE_TRACEME. Called from the child after fork, before exec.
func TraceMe() error {
	if err := unix.PtraceTraceme(); err != nil {
		return cosmos.NewApiError("ptrace_traceme", cosmos.MakeErrno(err))
	}
	return nil
}

// Detach stops tracing the tracee via PTRACE_DETACH, letting it resume
// normal execution.
func (t *Tracee) Detach() error {
	if err := unix.PtraceDetach(int(t.pid)); err != nil {
		return cosmos.NewApiError("ptrace_detach", cosmos.MakeErrno(err))
	}
	return nil
}

// OptionFlags are the bits accepted by SetOptions (PTRACE_O_TRACESYSGOOD,
// PTRACE_O_EXITKILL, ...).
type OptionFlags = cosmos.BitMask[uint32]

const (
	OptionTraceSysGood uint32 = unix.PTRACE_O_TRACESYSGOOD
	OptionTraceFork    uint32 = unix.PTRACE_O_TRACEFORK
	OptionTraceVFork   uint32 = unix.PTRACE_O_TRACEVFORK
	OptionTraceClone   uint32 = unix.PTRACE_O_TRACECLONE
	OptionTraceExec    uint32 = unix.PTRACE_O_TRACEEXEC
	OptionTraceExit    uint32 = unix.PTRACE_O_TRACEEXIT
	OptionExitKill     uint32 = unix.PTRACE_O_EXITKILL
)

// SetOptions configures tracing options for the tracee via
// PTRACE_SETOPTIONS.
func (t *Tracee) SetOptions(options OptionFlags) error {
	if err := unix.PtraceSetOptions(int(t.pid), int(options.Raw())); err != nil {
		return cosmos.NewApiError("ptrace_setoptions", cosmos.MakeErrno(err))
	}
	return nil
}

// Continue resumes the tracee via PTRACE_CONT, optionally delivering sig.
func (t *Tracee) Continue(sig cosmos.SignalNr) error {
	if err := unix.PtraceCont(int(t.pid), int(sig)); err != nil {
		return cosmos.NewApiError("ptrace_cont", cosmos.MakeErrno(err))
	}
	return nil
}

// SingleStep resumes the tracee for a single instruction via
// PTRACE_SINGLESTEP.
func (t *Tracee) SingleStep() error {
	if err := unix.PtraceSingleStep(int(t.pid)); err != nil {
		return cosmos.NewApiError("ptrace_singlestep", cosmos.MakeErrno(err))
	}
	return nil
}

// ContinueToSyscall resumes the tracee until the next syscall entry or
// exit, via PTRACE_SYSCALL.
func (t *Tracee) ContinueToSyscall(sig cosmos.SignalNr) error {
	if err := unix.PtraceSyscall(int(t.pid), int(sig)); err != nil {
		return cosmos.NewApiError("ptrace_syscall", cosmos.MakeErrno(err))
	}
	return nil
}

// Kill terminates the tracee via PTRACE_KILL.
func (t *Tracee) Kill() error {
	if err := unix.PtraceKill(int(t.pid)); err != nil {
		return cosmos.NewApiError("ptrace_kill", cosmos.MakeErrno(err))
	}
	return nil
}

// Registers is the tracee's general-purpose register set, read and
// written via PTRACE_GETREGS/PTRACE_SETREGS.
type Registers = unix.PtraceRegs

// GetRegisters reads the tracee's current register set.
func (t *Tracee) GetRegisters() (Registers, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(int(t.pid), &regs); err != nil {
		return Registers{}, cosmos.NewApiError("ptrace_getregs", cosmos.MakeErrno(err))
	}
	return regs, nil
}

// SetRegisters writes a new register set into the tracee.
func (t *Tracee) SetRegisters(regs Registers) error {
	if err := unix.PtraceSetRegs(int(t.pid), &regs); err != nil {
		return cosmos.NewApiError("ptrace_setregs", cosmos.MakeErrno(err))
	}
	return nil
}

// PeekData reads len(buf) bytes from the tracee's address space at addr
// via PTRACE_PEEKDATA (word-at-a-time under the hood, as x/sys/unix
// implements it).
func (t *Tracee) PeekData(addr uintptr, buf []byte) (int, error) {
	n, err := unix.PtracePeekData(int(t.pid), addr, buf)
	if err != nil {
		return n, cosmos.NewApiError("ptrace_peekdata", cosmos.MakeErrno(err))
	}
	return n, nil
}

// PokeData writes buf into the tracee's address space at addr via
// PTRACE_POKEDATA.
func (t *Tracee) PokeData(addr uintptr, buf []byte) (int, error) {
	n, err := unix.PtracePokeData(int(t.pid), addr, buf)
	if err != nil {
		return n, cosmos.NewApiError("ptrace_pokedata", cosmos.MakeErrno(err))
	}
	return n, nil
}

// SeccompFilter retrieves the tracee's currently installed seccomp BPF
// program via PTRACE_SECCOMP_GET_FILTER, filling in successive
// instructions starting at index 0. x/sys/unix has no dedicated wrapper
// for this request, so it goes through ptrace's raw syscall form
// directly.
func (t *Tracee) SeccompFilter(index uint32, out *unix.SockFilter) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SECCOMP_GET_FILTER, uintptr(t.pid), uintptr(index), uintptr(unsafe.Pointer(out)), 0, 0)
	if errno != 0 {
		return cosmos.NewApiError("ptrace_seccomp_get_filter", cosmos.MakeErrno(errno))
	}
	return nil
}
