// Package net provides the socket subsystem built on top of the root
// cosmos package's file descriptor primitives: addresses, option
// accessors, message headers with ancillary data, and TCP/UDP/Unix
// socket specializations.
package net

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// Family identifies an address/protocol family (AF_INET, AF_INET6,
// AF_UNIX, ...).
type Family int32

const (
	FamilyUnspecified Family = unix.AF_UNSPEC
	FamilyInet        Family = unix.AF_INET
	FamilyInet6       Family = unix.AF_INET6
	FamilyUnix        Family = unix.AF_UNIX
)

func (f Family) String() string {
	switch f {
	case FamilyUnspecified:
		return "Unspecified"
	case FamilyInet:
		return "Inet"
	case FamilyInet6:
		return "Inet6"
	case FamilyUnix:
		return "Unix"
	default:
		return fmt.Sprintf("Family(%d)", int32(f))
	}
}

// SocketType is the communication semantics of a socket (SOCK_STREAM,
// SOCK_DGRAM, ...).
type SocketType int32

const (
	TypeStream    SocketType = unix.SOCK_STREAM
	TypeDatagram  SocketType = unix.SOCK_DGRAM
	TypeSeqPacket SocketType = unix.SOCK_SEQPACKET
	TypeRaw       SocketType = unix.SOCK_RAW
)

// Address is implemented by every concrete socket address type
// (InetAddress, Inet6Address, UnixAddress). Raw returns the bytes ready
// to pass to bind(2)/connect(2)/sendto(2).
type Address interface {
	Family() Family
	Raw() []byte
}

// Port is a 16-bit TCP/UDP port number in host byte order.
type Port uint16

// InetAddress is an IPv4 socket address: a 4-byte address plus a port.
type InetAddress struct {
	IP   [4]byte
	Port Port
}

// MakeInetAddress builds an InetAddress from a dotted-quad-decoded 4 byte
// slice and a port.
func MakeInetAddress(ip [4]byte, port Port) InetAddress {
	return InetAddress{IP: ip, Port: port}
}

func (InetAddress) Family() Family { return FamilyInet }

// Raw encodes the address as a struct sockaddr_in.
func (a InetAddress) Raw() []byte {
	var sa unix.RawSockaddrInet4
	sa.Family = uint16(FamilyInet)
	sa.Port = hostToNetwork16(uint16(a.Port))
	sa.Addr = a.IP
	return structBytes(unsafe.Pointer(&sa), unix.SizeofSockaddrInet4)
}

func (a InetAddress) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", a.IP[0], a.IP[1], a.IP[2], a.IP[3], a.Port)
}

// Inet6Address is an IPv6 socket address.
type Inet6Address struct {
	IP        [16]byte
	Port      Port
	FlowInfo  uint32
	ScopeID   uint32
}

func (Inet6Address) Family() Family { return FamilyInet6 }

// Raw encodes the address as a struct sockaddr_in6.
func (a Inet6Address) Raw() []byte {
	var sa unix.RawSockaddrInet6
	sa.Family = uint16(FamilyInet6)
	sa.Port = hostToNetwork16(uint16(a.Port))
	sa.Flowinfo = a.FlowInfo
	sa.Addr = a.IP
	sa.Scope_id = a.ScopeID
	return structBytes(unsafe.Pointer(&sa), unix.SizeofSockaddrInet6)
}

// unixAddrBaseSize is the offset of sun_path within struct sockaddr_un,
// i.e. sizeof(sa_family_t) on Linux.
const unixAddrBaseSize = 2

// UnixAddress is an AF_UNIX socket address in one of three flavors:
// unnamed (zero-length path, used for the client end of an anonymous
// socketpair), a filesystem path, or an abstract-namespace name (a path
// whose first byte is NUL and which is never visible in the filesystem).
// Grounded on the original library's three-flavor UnixAddress.
type UnixAddress struct {
	path     string
	abstract bool
}

// MakeUnixAddress builds a path-based UnixAddress.
func MakeUnixAddress(path string) (UnixAddress, error) {
	if len(path) >= 108 {
		return UnixAddress{}, cosmos.NewRangeError("UnixAddress", 108)
	}
	return UnixAddress{path: path}, nil
}

// MakeAbstractUnixAddress builds an abstract-namespace UnixAddress. name
// must not itself start with a NUL byte; the leading NUL that marks the
// address as abstract is added automatically.
func MakeAbstractUnixAddress(name string) (UnixAddress, error) {
	if len(name) >= 107 {
		return UnixAddress{}, cosmos.NewRangeError("UnixAddress", 107)
	}
	return UnixAddress{path: name, abstract: true}, nil
}

// UnnamedUnixAddress is the zero-length address used by sockets that
// have not (yet) been bound to any name.
func UnnamedUnixAddress() UnixAddress { return UnixAddress{} }

func (UnixAddress) Family() Family { return FamilyUnix }

// IsUnnamed reports whether this is the unnamed (zero-length path)
// address.
func (a UnixAddress) IsUnnamed() bool { return a.path == "" && !a.abstract }

// IsAbstract reports whether this address names a location in the
// abstract namespace rather than the filesystem.
func (a UnixAddress) IsAbstract() bool { return a.abstract }

// Path returns the filesystem path this address names; empty for an
// unnamed or abstract address.
func (a UnixAddress) Path() string {
	if a.abstract {
		return ""
	}
	return a.path
}

// Label returns the path or abstract name, whichever applies, without
// the encoding details (leading NUL) needed on the wire.
func (a UnixAddress) Label() string { return a.path }

// Raw encodes the address as a struct sockaddr_un. Abstract addresses are
// not NUL-terminated on the wire (their length is taken from the
// sockaddr length, not from a terminator), so the abstract encoding omits
// the trailing byte a path-based address carries.
func (a UnixAddress) Raw() []byte {
	if a.IsUnnamed() {
		return []byte{byte(FamilyUnix), byte(FamilyUnix >> 8)}
	}
	if a.abstract {
		buf := make([]byte, unixAddrBaseSize+1+len(a.path))
		buf[0] = byte(FamilyUnix)
		buf[1] = byte(FamilyUnix >> 8)
		// buf[unixAddrBaseSize] stays 0, the abstract-namespace marker.
		copy(buf[unixAddrBaseSize+1:], a.path)
		return buf
	}
	buf := make([]byte, unixAddrBaseSize+len(a.path)+1)
	buf[0] = byte(FamilyUnix)
	buf[1] = byte(FamilyUnix >> 8)
	copy(buf[unixAddrBaseSize:], a.path)
	return buf
}

func structBytes(p unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(p), int(size))
}

func hostToNetwork16(v uint16) uint16 {
	return v<<8 | v>>8
}

// decodeAddress interprets raw sockaddr bytes according to the address
// family reported by the kernel in its own first two bytes, falling back
// to the caller-supplied expected family when the kernel reports
// AF_UNSPEC (as happens for an unbound/unconnected socket).
func decodeAddress(expected Family, raw []byte) (Address, error) {
	if len(raw) < 2 {
		return UnnamedUnixAddress(), nil
	}
	family := Family(uint16(raw[0]) | uint16(raw[1])<<8)
	if family == FamilyUnspecified {
		family = expected
	}
	switch family {
	case FamilyInet:
		if len(raw) < unix.SizeofSockaddrInet4 {
			return nil, fmt.Errorf("short sockaddr_in: %d bytes", len(raw))
		}
		var ip [4]byte
		copy(ip[:], raw[4:8])
		port := uint16(raw[2])<<8 | uint16(raw[3])
		return InetAddress{IP: ip, Port: Port(port)}, nil
	case FamilyInet6:
		if len(raw) < unix.SizeofSockaddrInet6 {
			return nil, fmt.Errorf("short sockaddr_in6: %d bytes", len(raw))
		}
		var ip [16]byte
		copy(ip[:], raw[8:24])
		port := uint16(raw[2])<<8 | uint16(raw[3])
		return Inet6Address{IP: ip, Port: Port(port)}, nil
	case FamilyUnix:
		path := raw[unixAddrBaseSize:]
		if len(path) == 0 {
			return UnnamedUnixAddress(), nil
		}
		if path[0] == 0 {
			return UnixAddress{path: string(path[1:]), abstract: true}, nil
		}
		end := 0
		for end < len(path) && path[end] != 0 {
			end++
		}
		return UnixAddress{path: string(path[:end])}, nil
	default:
		return nil, fmt.Errorf("unsupported address family %d", family)
	}
}

