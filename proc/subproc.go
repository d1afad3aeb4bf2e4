package proc

import (
	"github.com/ferrocore/cosmos"
)

// SubProcess is a running child process started via ChildCloner, paired
// with its pidfd so callers can poll for exit, signal it unambiguously,
// or fall back to plain WaitFor.
type SubProcess struct {
	PID  cosmos.ProcessID
	File *ProcessFile
}

// Start launches cloner.Run and opens a pidfd for the resulting child in
// one step. If pidfd_open fails (e.g. because the kernel predates pidfd
// support), the SubProcess is still returned with File left nil; callers
// relying on pidfd-specific behavior should check for that.
func Start(cloner *ChildCloner) (*SubProcess, error) {
	pid, err := cloner.Run()
	if err != nil {
		return nil, err
	}
	file, _ := OpenProcessFile(pid)
	return &SubProcess{PID: pid, File: file}, nil
}

// Wait blocks until the child exits, preferring the pidfd-based Wait when
// available and falling back to WaitFor(pid) otherwise.
func (s *SubProcess) Wait() (WaitStatus, error) {
	if s.File != nil {
		return s.File.Wait()
	}
	_, status, err := WaitFor(s.PID, WaitFlags{})
	return status, err
}

// Signal sends sig to the child, preferring the race-free pidfd send when
// available.
func (s *SubProcess) Signal(sig cosmos.SignalNr) error {
	if s.File != nil {
		return s.File.SendSignal(sig)
	}
	return cosmos.SendSignal(s.PID, sig)
}

// Close releases the pidfd, if one was opened. It does not affect the
// child process itself.
func (s *SubProcess) Close() error {
	if s.File == nil {
		return nil
	}
	return s.File.Close()
}
