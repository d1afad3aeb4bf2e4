package proc

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// FDAction describes what a ChildCloner should do with one descriptor
// slot in the new child: inherit a specific descriptor from the parent
// at a chosen target number, or close the slot outright.
type FDAction struct {
	TargetFD cosmos.FileNum
	Source   cosmos.FileDescriptor // zero value: close TargetFD instead of dup'ing into it
}

// SchedulePolicy selects the scheduling class a ChildCloner's process
// should run under (SCHED_OTHER, SCHED_FIFO, SCHED_RR, ...).
type SchedulePolicy int32

const (
	ScheduleOther SchedulePolicy = unix.SCHED_OTHER
	ScheduleFIFO  SchedulePolicy = unix.SCHED_FIFO
	ScheduleRR    SchedulePolicy = unix.SCHED_RR
	ScheduleBatch SchedulePolicy = unix.SCHED_BATCH
	ScheduleIdle  SchedulePolicy = unix.SCHED_IDLE
)

// schedParam mirrors struct sched_param, the second argument to
// sched_setscheduler(2); only sched_priority is meaningful for the
// policies this library exposes.
type schedParam struct {
	Priority int32
}

// setScheduler applies policy/priority to pid via sched_setscheduler(2).
// x/sys/unix does not wrap this syscall, so it is issued directly, the
// same way this library reaches SYS_PIDFD_OPEN and friends elsewhere.
func setScheduler(pid cosmos.ProcessID, policy SchedulePolicy, priority int32) error {
	param := schedParam{Priority: priority}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, uintptr(pid), uintptr(policy), uintptr(unsafe.Pointer(&param)))
	if errno != 0 {
		return cosmos.NewApiError("sched_setscheduler", cosmos.MakeErrno(errno))
	}
	return nil
}

// ChildExecFailedExitCode is the sentinel exit status a PostForkHook (or
// the hook dispatcher itself, if it can't find the hook named by a
// reexecuted child's environment) should return to signal that no-exec
// setup failed, distinguishing it from an ordinary exit(0)/exit(1) the
// hook's own logic might otherwise choose.
const ChildExecFailedExitCode = 127

// postForkHookEnvVar, when present in a child's environment, tells a
// reexecuted copy of the running binary to run the registered hook
// named by its value instead of the program's real main, then exit
// without ever returning control to it. ChildCloner uses this to offer
// a no-exec mode: Go cannot safely run arbitrary caller code in the
// narrow window between fork(2) and execve(2) (the forked child is
// single-threaded and running outside the Go scheduler's normal
// invariants, so calling back into it — allocating, starting a
// goroutine, even many uses of the runtime — is unsafe), so instead of
// skipping exec entirely, the child re-execs its own binary image and
// RunPostForkHooks dispatches to the hook before any of the caller's
// ordinary initialization runs.
const postForkHookEnvVar = "COSMOS_CHILDCLONER_HOOK"

var postForkHooks = map[string]func() int{}

// RegisterPostForkHook names a function a ChildCloner's child can run in
// place of exec'ing a different binary. Register hooks from an init()
// function so they are present before main calls RunPostForkHooks.
func RegisterPostForkHook(name string, hook func() int) {
	postForkHooks[name] = hook
}

// RunPostForkHooks must be the first thing a program using
// ChildCloner's no-exec mode does in main(), before any other
// initialization: if the running process was reexec'd by a ChildCloner
// to run a named hook, it dispatches to that hook and calls os.Exit
// with its result, never returning. Otherwise it returns immediately
// and the program continues as normal.
func RunPostForkHooks() {
	name := os.Getenv(postForkHookEnvVar)
	if name == "" {
		return
	}
	hook, ok := postForkHooks[name]
	if !ok {
		os.Exit(ChildExecFailedExitCode)
	}
	os.Exit(hook())
}

// ChildCloner assembles the environment a new process should start in,
// then launches it via fork+exec. It generalizes the original library's
// ChildCloner/SubProc builder: add the pieces the child needs (working
// directory, environment, descriptor layout, credentials, process group,
// scheduling policy), then call Run.
type ChildCloner struct {
	Path cosmos.SysString
	Argv []string
	Envp []string

	WorkingDir string
	FDs        []FDAction

	UID *cosmos.UserID
	GID *cosmos.GroupID

	NewSession       bool
	NewProcessGroup  bool
	SchedulePolicy   *SchedulePolicy
	SchedulePriority int32

	// PostForkHook, if non-empty, names a function registered with
	// RegisterPostForkHook that the child runs instead of exec'ing
	// Path: Run reexecs the calling binary's own image and arranges for
	// RunPostForkHooks to dispatch to the hook. Path/Argv are ignored
	// when this is set.
	PostForkHook string
}

// Run launches the child via fork+exec, returning its pid. If
// SchedulePolicy is set, the parent applies it to the new child via
// sched_setscheduler(2) immediately after fork+exec returns; there is
// an unavoidable brief window in which the child runs under the
// default policy before this lands, since Go's ForkExec gives no hook
// to set it inside the forked child itself.
func (c *ChildCloner) Run() (cosmos.ProcessID, error) {
	path := c.Path
	argv := c.Argv
	envp := c.Envp
	if c.PostForkHook != "" {
		self, err := os.Executable()
		if err != nil {
			return 0, cosmos.NewApiError("executable", cosmos.MakeErrno(err))
		}
		path = cosmos.MustSysString(self)
		argv = []string{self}
		envp = append(append([]string{}, c.Envp...), postForkHookEnvVar+"="+c.PostForkHook)
	}

	attr := &unix.ProcAttr{
		Dir: c.WorkingDir,
		Env: envp,
		Sys: c.sysProcAttr(),
	}
	attr.Files = c.fileLayout()

	pid, err := unix.ForkExec(path.Raw(), argv, attr)
	if err != nil {
		return 0, cosmos.NewFileError("forkExec", path.Raw(), cosmos.MakeErrno(err))
	}
	if c.SchedulePolicy != nil {
		if err := setScheduler(cosmos.ProcessID(pid), *c.SchedulePolicy, c.SchedulePriority); err != nil {
			return cosmos.ProcessID(pid), err
		}
	}
	return cosmos.ProcessID(pid), nil
}

// fileLayout builds the Files slice passed to fork+exec: index i becomes
// fd i in the child. Gaps (a TargetFD with no matching FDAction) are left
// pointing at descriptor 0, matching the conservative default of
// syscall.ForkExec when fewer Files are given than the child expects. An
// FDAction whose Source is the zero value closes its TargetFD slot instead.
func (c *ChildCloner) fileLayout() []uintptr {
	if len(c.FDs) == 0 {
		return []uintptr{uintptr(cosmos.Stdin.Raw()), uintptr(cosmos.Stdout.Raw()), uintptr(cosmos.Stderr.Raw())}
	}
	maxTarget := 0
	for _, a := range c.FDs {
		if int(a.TargetFD) > maxTarget {
			maxTarget = int(a.TargetFD)
		}
	}
	files := make([]uintptr, maxTarget+1)
	for _, a := range c.FDs {
		if a.Source.Valid() {
			files[a.TargetFD] = uintptr(a.Source.Raw())
		} else {
			// fork+exec closes a child slot whose entry is -1.
			files[a.TargetFD] = ^uintptr(0)
		}
	}
	return files
}

func (c *ChildCloner) sysProcAttr() *unix.SysProcAttr {
	sys := &unix.SysProcAttr{}
	if c.NewSession {
		sys.Setsid = true
	}
	if c.NewProcessGroup {
		sys.Setpgid = true
	}
	if c.UID != nil || c.GID != nil {
		cred := &unix.Credential{}
		if c.UID != nil {
			cred.Uid = uint32(*c.UID)
		}
		if c.GID != nil {
			cred.Gid = uint32(*c.GID)
		}
		sys.Credential = cred
	}
	return sys
}
