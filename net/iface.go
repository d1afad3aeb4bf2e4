package net

import (
	"golang.org/x/sys/unix"

	"github.com/ferrocore/cosmos"
)

// InterfaceFlags are the bits reported by SIOCGIFFLAGS (IFF_UP,
// IFF_LOOPBACK, ...).
type InterfaceFlags = cosmos.BitMask[uint32]

const (
	IFFUp        uint32 = unix.IFF_UP
	IFFBroadcast uint32 = unix.IFF_BROADCAST
	IFFLoopback  uint32 = unix.IFF_LOOPBACK
	IFFPointToPoint uint32 = unix.IFF_POINTOPOINT
	IFFMulticast uint32 = unix.IFF_MULTICAST
	IFFRunning   uint32 = unix.IFF_RUNNING
)

// Interface describes one network interface known to the kernel.
type Interface struct {
	Index int
	Name  string
	Flags InterfaceFlags
}

// Interfaces enumerates the host's network interfaces via a
// NETLINK_ROUTE RTM_GETLINK dump (golang.org/x/sys/unix's NetlinkRIB,
// which handles the multi-part message reassembly), the kernel-recommended
// replacement for the older SIOCGIFCONF ioctl that truncates silently
// past its fixed buffer size.
func Interfaces() ([]Interface, error) {
	data, err := unix.NetlinkRIB(unix.RTM_GETLINK, unix.AF_UNSPEC)
	if err != nil {
		return nil, cosmos.NewApiError("netlink(RTM_GETLINK)", cosmos.MakeErrno(err))
	}
	msgs, err := unix.ParseNetlinkMessage(data)
	if err != nil {
		return nil, cosmos.NewApiError("parse netlink message", cosmos.MakeErrno(err))
	}
	var out []Interface
	for _, m := range msgs {
		if m.Header.Type != unix.RTM_NEWLINK {
			continue
		}
		if len(m.Data) < ifInfoMsgLen {
			continue
		}
		index := int(hostEndianUint32(m.Data[4:8]))
		flags := hostEndianUint32(m.Data[8:12])
		attrs, err := unix.ParseNetlinkRouteAttr(&m)
		if err != nil {
			continue
		}
		name := ""
		for _, a := range attrs {
			if a.Attr.Type == unix.IFLA_IFNAME {
				name = nullTerminatedString(a.Value)
			}
		}
		out = append(out, Interface{Index: index, Name: name, Flags: cosmos.MakeBitMask(flags)})
	}
	return out, nil
}

// ifInfoMsgLen is sizeof(struct ifinfomsg): family(1)+pad(1)+type(2)+
// index(4)+flags(4)+change(4).
const ifInfoMsgLen = 16

func hostEndianUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func nullTerminatedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// InterfaceIndexByName resolves a name to its kernel ifindex via
// if_nametoindex(2).
func InterfaceIndexByName(name string) (int, error) {
	idx, err := unix.IfNametoindex(name)
	if err != nil {
		return 0, cosmos.NewApiError("if_nametoindex", cosmos.MakeErrno(err))
	}
	return int(idx), nil
}
