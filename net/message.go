package net

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// MessageFlags are the bits accepted by send/recvmsg(2) (MSG_DONTWAIT,
// MSG_TRUNC, ...).
type MessageFlags = cosmos.BitMask[uint32]

const (
	MsgDontWait  uint32 = unix.MSG_DONTWAIT
	MsgTruncated uint32 = unix.MSG_TRUNC
	MsgCTruncated uint32 = unix.MSG_CTRUNC
	MsgPeek      uint32 = unix.MSG_PEEK
	MsgWaitAll   uint32 = unix.MSG_WAITALL
	MsgNoSignal  uint32 = unix.MSG_NOSIGNAL
	MsgEndOfRecord uint32 = unix.MSG_EOR
)

// ControlMessage is a pending unit of ancillary (out-of-band) data to
// attach to the next sendmsg(2) call, or one received alongside a
// recvmsg(2) call. Exactly one of Rights or Credentials is meaningful,
// selected by Type.
type ControlMessage struct {
	Level int32
	Type  int32
	Rights      []cosmos.FileDescriptor
	Credentials *Credentials
}

// Credentials is the decoded form of an SCM_CREDENTIALS ancillary
// message: the sending process's pid/uid/gid as the kernel observed them
// at send time.
type Credentials struct {
	PID cosmos.ProcessID
	UID cosmos.UserID
	GID cosmos.GroupID
}

// TakeFDs transfers ownership of any received SCM_RIGHTS descriptors to
// the caller, clearing Rights so a later Close on the same
// ControlMessage (or its owning MessageHeader) won't also close them.
// Callers that want to keep received descriptors must call this; any
// descriptors never taken are closed by Close.
func (cm *ControlMessage) TakeFDs() []cosmos.FileDescriptor {
	fds := cm.Rights
	cm.Rights = nil
	return fds
}

// Close closes every descriptor still held in Rights (i.e. every
// received SCM_RIGHTS fd the caller did not claim via TakeFDs), so an
// unclaimed transfer never leaks. Safe to call on a ControlMessage with
// no rights or one that was already drained.
func (cm *ControlMessage) Close() error {
	var first error
	for _, fd := range cm.Rights {
		if err := fd.Close(); err != nil && first == nil {
			first = err
		}
	}
	cm.Rights = nil
	return first
}

// RightsControlMessage builds a pending SCM_RIGHTS message transferring
// ownership of the given descriptors to the receiver on a successful
// send.
func RightsControlMessage(fds ...cosmos.FileDescriptor) ControlMessage {
	return ControlMessage{Level: unix.SOL_SOCKET, Type: unix.SCM_RIGHTS, Rights: fds}
}

// CredentialsControlMessage builds a pending SCM_CREDENTIALS message.
// The receiving socket must have SO_PASSCRED enabled for the kernel to
// have attached one to begin with; sending one explicitly additionally
// requires CAP_SYS_ADMIN unless the values match the real credentials of
// the sending process.
func CredentialsControlMessage(pid cosmos.ProcessID, uid cosmos.UserID, gid cosmos.GroupID) ControlMessage {
	return ControlMessage{
		Level:       unix.SOL_SOCKET,
		Type:        unix.SCM_CREDENTIALS,
		Credentials: &Credentials{PID: pid, UID: uid, GID: gid},
	}
}

// MessageHeader holds a pending or received message: the peer address (if
// any), the scatter/gather data buffers, and ancillary control data.
//
// A single ControlMessage slot is carried rather than a list, mirroring
// the original library's MessageHeader which manages one pending
// ancillary buffer at a time. Contract (resolves the question of whether
// a short/partial write leaves the ancillary data "used"): Send clears
// the pending control message after any successful call that transferred
// at least one byte, including one that wrote fewer bytes than requested — ancillary data
// travels with the first sendmsg() that actually transfers at least one
// byte of the payload, is never retried, and never accumulates across
// calls.
type MessageHeader struct {
	Addr    Address
	Payload cosmos.IOVector
	Control ControlMessage
	hasControl bool

	// controlBufSize is the buffer Receive allocates for ancillary data;
	// zero means defaultControlBufferSize. Set via SetControlBufferSize.
	controlBufSize int
}

// SetControl stages a ControlMessage to be sent with the next Send call.
func (h *MessageHeader) SetControl(cm ControlMessage) {
	h.Control = cm
	h.hasControl = true
}

// ClearControl discards any staged ControlMessage without sending it.
func (h *MessageHeader) ClearControl() {
	h.Control = ControlMessage{}
	h.hasControl = false
}

// defaultControlBufferSize covers one SCM_RIGHTS cmsg carrying a handful
// of descriptors or one SCM_CREDENTIALS cmsg; callers expecting more
// ancillary data (larger fd batches) should call SetControlBufferSize.
const defaultControlBufferSize = 512

// SetControlBufferSize overrides the buffer Receive allocates for
// ancillary (control) data; the default (defaultControlBufferSize) is
// enough for a modest SCM_RIGHTS or SCM_CREDENTIALS payload, but a
// caller expecting to receive many descriptors in one message should
// size it larger to avoid MSG_CTRUNC.
func (h *MessageHeader) SetControlBufferSize(n int) {
	h.controlBufSize = n
}

// Close closes any SCM_RIGHTS descriptors the header received but the
// caller never claimed via Control.TakeFDs, so a MessageHeader that
// received rights never leaks them just because its caller didn't look.
// Safe to call unconditionally, e.g. via defer after every Receive.
func (h *MessageHeader) Close() error {
	return h.Control.Close()
}

// Send transmits the header's payload (and, if staged, its control
// message) via sendmsg(2).
func (s Socket) Send(h *MessageHeader, flags MessageFlags) (int, error) {
	var name []byte
	if h.Addr != nil {
		name = h.Addr.Raw()
	}
	var control []byte
	if h.hasControl {
		control = encodeControlMessage(h.Control)
	}
	n, err := sendmsgRaw(int(s.fd.Raw()), name, [][]byte(h.Payload), control, int(flags.Raw()))
	if err != nil {
		return n, cosmos.NewApiError("sendmsg", cosmos.MakeErrno(err))
	}
	if n > 0 {
		// Contract: ancillary data is consumed by the first send that
		// transfers any payload at all, partial or not.
		h.ClearControl()
	}
	return n, nil
}

// Receive reads a message (payload, source address, and any ancillary
// data the kernel attached) via recvmsg(2). The ancillary data buffer
// defaults to defaultControlBufferSize; call h.SetControlBufferSize
// first to size it for a larger expected SCM_RIGHTS/SCM_CREDENTIALS
// payload.
func (s Socket) Receive(h *MessageHeader, expectedFamily Family, flags MessageFlags) (int, error) {
	bufSize := h.controlBufSize
	if bufSize == 0 {
		bufSize = defaultControlBufferSize
	}
	nameBuf := make([]byte, maxSockAddrLen)
	controlBuf := make([]byte, bufSize)
	n, nameLen, controlLen, recvFlags, err := recvmsgRaw(int(s.fd.Raw()), nameBuf, [][]byte(h.Payload), controlBuf, int(flags.Raw()))
	if err != nil {
		return n, cosmos.NewApiError("recvmsg", cosmos.MakeErrno(err))
	}
	if nameLen > 0 {
		addr, err := decodeAddress(expectedFamily, nameBuf[:nameLen])
		if err == nil {
			h.Addr = addr
		}
	}
	if controlLen > 0 {
		if cm, ok := decodeControlMessage(controlBuf[:controlLen]); ok {
			h.Control = cm
			h.hasControl = true
		}
	}
	if recvFlags&unix.MSG_CTRUNC != 0 {
		// The ancillary buffer was too small: the kernel already closed
		// any SCM_RIGHTS fds that didn't fit, but whatever was decoded
		// into h.Control did arrive and would otherwise leak.
		h.Control.Close()
		h.hasControl = false
		return n, cosmos.NewRuntimeError("recvmsg: control message truncated, increase the control buffer size")
	}
	if recvFlags&unix.MSG_TRUNC != 0 {
		return n, cosmos.NewRuntimeError("recvmsg: message truncated")
	}
	return n, nil
}
