package cosmos

import (
	"golang.org/x/sys/unix"
)

// PollFlags are the event bits monitored and reported by a Poller,
// mirroring epoll's EPOLLIN/EPOLLOUT/... bits.
type PollFlags = BitMask[uint32]

const (
	PollIn      uint32 = unix.EPOLLIN
	PollOut     uint32 = unix.EPOLLOUT
	PollError   uint32 = unix.EPOLLERR
	PollHangup  uint32 = unix.EPOLLHUP
	PollPri     uint32 = unix.EPOLLPRI
	PollEdge    uint32 = unix.EPOLLET
	PollOneShot uint32 = unix.EPOLLONESHOT
)

// PollEvent is one readiness notification returned by Poller.Wait: the
// flags that fired and the opaque user value supplied at registration.
type PollEvent struct {
	Flags PollFlags
	User  uint64
}

// Poller multiplexes readiness notifications across many descriptors via
// epoll(7).
type Poller struct {
	epfd FileDescriptor
}

// MakePoller creates a new epoll instance via epoll_create1(2).
func MakePoller() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, NewApiError("epoll_create1", MakeErrno(err))
	}
	return &Poller{epfd: NewFileDescriptor(FileNum(fd))}, nil
}

// Close closes the underlying epoll descriptor.
func (p *Poller) Close() error {
	return p.epfd.Close()
}

// Add registers fd for the given events, tagging notifications for it
// with the opaque user value.
func (p *Poller) Add(fd FileDescriptor, flags PollFlags, user uint64) error {
	ev := unix.EpollEvent{Events: flags.Raw()}
	*(*uint64)(epollDataPtr(&ev)) = user
	if err := unix.EpollCtl(int(p.epfd.Raw()), unix.EPOLL_CTL_ADD, int(fd.Raw()), &ev); err != nil {
		return NewApiError("epoll_ctl(ADD)", MakeErrno(err))
	}
	return nil
}

// Modify changes the event mask and/or user value registered for fd.
func (p *Poller) Modify(fd FileDescriptor, flags PollFlags, user uint64) error {
	ev := unix.EpollEvent{Events: flags.Raw()}
	*(*uint64)(epollDataPtr(&ev)) = user
	if err := unix.EpollCtl(int(p.epfd.Raw()), unix.EPOLL_CTL_MOD, int(fd.Raw()), &ev); err != nil {
		return NewApiError("epoll_ctl(MOD)", MakeErrno(err))
	}
	return nil
}

// Remove unregisters fd.
func (p *Poller) Remove(fd FileDescriptor) error {
	if err := unix.EpollCtl(int(p.epfd.Raw()), unix.EPOLL_CTL_DEL, int(fd.Raw()), nil); err != nil {
		return NewApiError("epoll_ctl(DEL)", MakeErrno(err))
	}
	return nil
}

// Wait blocks until at least one registered descriptor is ready, the
// timeout (negative for no timeout) elapses, or a signal interrupts the
// call and the interrupt policy says not to retry, returning up to
// len(out) ready events.
func (p *Poller) Wait(out []PollEvent, timeoutMillis int) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	var n int
	err := retryEINTR(func() error {
		var err error
		n, err = unix.EpollWait(int(p.epfd.Raw()), raw, timeoutMillis)
		return err
	})
	if err != nil {
		return 0, NewApiError("epoll_wait", MakeErrno(err))
	}
	for i := 0; i < n; i++ {
		out[i] = PollEvent{
			Flags: MakeBitMask(raw[i].Events),
			User:  *(*uint64)(epollDataPtr(&raw[i])),
		}
	}
	return n, nil
}
