package net

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// sendmsgRaw and recvmsgRaw build a struct msghdr directly and invoke
// sendmsg(2)/recvmsg(2) via Syscall, since this library's MessageHeader
// carries already-encoded sockaddr bytes (from Address.Raw()) rather than
// an x/sys/unix Sockaddr value, and x/sys/unix's SendmsgBuffers/
// RecvmsgBuffers helpers only accept the latter.
func sendmsgRaw(fd int, name []byte, iov [][]byte, control []byte, flags int) (int, error) {
	iovecs := makeIovecs(iov)
	msg := unix.Msghdr{}
	if len(name) > 0 {
		msg.Name = &name[0]
		msg.Namelen = uint32(len(name))
	}
	if len(iovecs) > 0 {
		msg.Iov = &iovecs[0]
		msg.SetIovlen(len(iovecs))
	}
	if len(control) > 0 {
		msg.Control = &control[0]
		msg.SetControllen(len(control))
	}
	n, _, errno := unix.Syscall(unix.SYS_SENDMSG, uintptr(fd), uintptr(unsafe.Pointer(&msg)), uintptr(flags))
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

func recvmsgRaw(fd int, nameBuf []byte, iov [][]byte, controlBuf []byte, flags int) (n, nameLen, controlLen int, outFlags int, err error) {
	iovecs := makeIovecs(iov)
	msg := unix.Msghdr{}
	if len(nameBuf) > 0 {
		msg.Name = &nameBuf[0]
		msg.Namelen = uint32(len(nameBuf))
	}
	if len(iovecs) > 0 {
		msg.Iov = &iovecs[0]
		msg.SetIovlen(len(iovecs))
	}
	if len(controlBuf) > 0 {
		msg.Control = &controlBuf[0]
		msg.SetControllen(len(controlBuf))
	}
	raw, _, errno := unix.Syscall(unix.SYS_RECVMSG, uintptr(fd), uintptr(unsafe.Pointer(&msg)), uintptr(flags))
	if errno != 0 {
		return 0, 0, 0, 0, errno
	}
	return int(raw), int(msg.Namelen), int(msg.Controllen), int(msg.Flags), nil
}

func makeIovecs(bufs [][]byte) []unix.Iovec {
	if len(bufs) == 0 {
		return nil
	}
	iovecs := make([]unix.Iovec, len(bufs))
	for i, b := range bufs {
		if len(b) > 0 {
			iovecs[i].Base = &b[0]
		}
		iovecs[i].SetLen(len(b))
	}
	return iovecs
}

// encodeControlMessage serializes a staged ControlMessage into the
// cmsghdr wire format.
func encodeControlMessage(cm ControlMessage) []byte {
	switch cm.Type {
	case unix.SCM_RIGHTS:
		return unix.UnixRights(rawFDs(cm.Rights)...)
	case unix.SCM_CREDENTIALS:
		if cm.Credentials == nil {
			return nil
		}
		cred := &unix.Ucred{
			Pid: int32(cm.Credentials.PID),
			Uid: uint32(cm.Credentials.UID),
			Gid: uint32(cm.Credentials.GID),
		}
		return unix.UnixCredentials(cred)
	default:
		return nil
	}
}

// decodeControlMessage parses every cmsghdr record out of a received
// control buffer. The kernel can (and for a sender that batches several
// SCM_RIGHTS payloads into one sendmsg, does) return more than one
// cmsghdr; earlier drafts of this decoder only looked at msgs[0], which
// silently leaked any descriptors carried in a second or later SCM_RIGHTS
// record. All SCM_RIGHTS records are now merged into a single Rights
// slice so TakeFDs/Close see (and can release) every fd the kernel
// handed over, not just the first batch.
func decodeControlMessage(buf []byte) (ControlMessage, bool) {
	msgs, err := unix.ParseSocketControlMessage(buf)
	if err != nil || len(msgs) == 0 {
		return ControlMessage{}, false
	}
	var cm ControlMessage
	found := false
	for _, m := range msgs {
		switch m.Header.Type {
		case unix.SCM_RIGHTS:
			fds, err := unix.ParseUnixRights(&m)
			if err != nil {
				continue
			}
			cm.Level, cm.Type = m.Header.Level, m.Header.Type
			for _, fd := range fds {
				cm.Rights = append(cm.Rights, cosmos.NewFileDescriptor(cosmos.FileNum(fd)))
			}
			found = true
		case unix.SCM_CREDENTIALS:
			cred, err := unix.ParseUnixCredentials(&m)
			if err != nil {
				continue
			}
			cm.Level, cm.Type = m.Header.Level, m.Header.Type
			cm.Credentials = &Credentials{
				PID: cosmos.ProcessID(cred.Pid),
				UID: cosmos.UserID(cred.Uid),
				GID: cosmos.GroupID(cred.Gid),
			}
			found = true
		}
	}
	return cm, found
}

func rawFDs(fds []cosmos.FileDescriptor) []int {
	out := make([]int, len(fds))
	for i, fd := range fds {
		out[i] = int(fd.Raw())
	}
	return out
}
