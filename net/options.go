package net

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// OptLevel identifies the protocol layer an option applies to
// (SOL_SOCKET, IPPROTO_TCP, IPPROTO_IP, ...), used to parameterize
// SockOptBase the way the C++ original templates SockOptBase on the
// option level so a TCP-layer accessor can never be evaluated against a
// socket-layer option number by accident.
type OptLevel int32

const (
	LevelSocket OptLevel = unix.SOL_SOCKET
	LevelTCP    OptLevel = unix.IPPROTO_TCP
	LevelIP     OptLevel = unix.IPPROTO_IP
	LevelIPv6   OptLevel = unix.IPPROTO_IPV6
)

// SockOptBase is a typed accessor for one getsockopt/setsockopt(2) option
// at level L, reading and writing a fixed-size value of type V.
type SockOptBase[L ~int32, V any] struct {
	level L
	name  int32
}

// MakeSockOpt builds an accessor for the option identified by (level,
// name).
func MakeSockOpt[L ~int32, V any](level L, name int32) SockOptBase[L, V] {
	return SockOptBase[L, V]{level: level, name: name}
}

// Get reads the option's current value via getsockopt(2).
func (o SockOptBase[L, V]) Get(s Socket) (V, error) {
	var value V
	size := uint32(unsafe.Sizeof(value))
	if err := getsockoptRaw(int(s.fd.Raw()), int32(o.level), o.name, unsafe.Pointer(&value), &size); err != nil {
		var zero V
		return zero, cosmos.NewApiError("getsockopt", cosmos.MakeErrno(err))
	}
	return value, nil
}

// Set writes the option's value via setsockopt(2).
func (o SockOptBase[L, V]) Set(s Socket, value V) error {
	size := uint32(unsafe.Sizeof(value))
	if err := setsockoptRaw(int(s.fd.Raw()), int32(o.level), o.name, unsafe.Pointer(&value), size); err != nil {
		return cosmos.NewApiError("setsockopt", cosmos.MakeErrno(err))
	}
	return nil
}

// The following are the socket options this library exposes ready-made,
// each a concrete instantiation of SockOptBase.
var (
	OptReuseAddr  = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_REUSEADDR)
	OptReusePort  = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_REUSEPORT)
	OptKeepAlive  = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_KEEPALIVE)
	OptBroadcast  = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_BROADCAST)
	OptRcvBuf     = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_RCVBUF)
	OptSndBuf     = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_SNDBUF)
	OptError      = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_ERROR)
	OptPassCred   = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_PASSCRED)
	OptAcceptConn = MakeSockOpt[OptLevel, int32](LevelSocket, unix.SO_ACCEPTCONN)

	OptTCPNoDelay  = MakeSockOpt[OptLevel, int32](LevelTCP, unix.TCP_NODELAY)
	OptTCPKeepIdle = MakeSockOpt[OptLevel, int32](LevelTCP, unix.TCP_KEEPIDLE)
	OptTCPMaxSeg   = MakeSockOpt[OptLevel, int32](LevelTCP, unix.TCP_MAXSEG)

	OptIPTTL = MakeSockOpt[OptLevel, int32](LevelIP, unix.IP_TTL)
)

func getsockoptRaw(fd int, level, name int32, valuePtr unsafe.Pointer, sizePtr *uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_GETSOCKOPT, uintptr(fd), uintptr(level), uintptr(name), uintptr(valuePtr), uintptr(unsafe.Pointer(sizePtr)), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func setsockoptRaw(fd int, level, name int32, valuePtr unsafe.Pointer, size uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(fd), uintptr(level), uintptr(name), uintptr(valuePtr), uintptr(size), 0)
	if errno != 0 {
		return errno
	}
	return nil
}
