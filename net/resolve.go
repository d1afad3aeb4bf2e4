package net

import (
	"context"
	stdnet "net"

	"github.com/ferrocore/cosmos"
)

// AddressInfo is one resolved candidate returned by Resolve, mirroring
// one entry of the linked list produced by getaddrinfo(3).
type AddressInfo struct {
	Family Family
	Type   SocketType
	Addr   Address
}

// Resolve performs hostname/service resolution. It is the one component
// of this library built on the Go standard library's resolver rather
// than a wrapped getaddrinfo(3) call: net.DefaultResolver already
// implements the cgo-optional, pure-Go (or NSS-aware, when cgo is
// enabled) resolution logic that a from-scratch getaddrinfo wrapper would
// only reimplement worse, and none of the libraries this module pulls in
// for other concerns (golang.org/x/sys/unix) offer a higher-level
// resolution API of their own.
func Resolve(ctx context.Context, node, service string, family Family) ([]AddressInfo, error) {
	host := node
	addrs, err := stdnet.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, cosmos.NewResolveError(node, service, classifyResolveError(err), cosmos.NoError)
	}
	port, err := resolvePort(ctx, service)
	if err != nil {
		return nil, cosmos.NewResolveError(node, service, cosmos.EAIService, cosmos.NoError)
	}
	var out []AddressInfo
	for _, a := range addrs {
		if ip4 := a.IP.To4(); ip4 != nil {
			if family != FamilyUnspecified && family != FamilyInet {
				continue
			}
			var raw [4]byte
			copy(raw[:], ip4)
			out = append(out, AddressInfo{Family: FamilyInet, Type: TypeStream, Addr: InetAddress{IP: raw, Port: Port(port)}})
			continue
		}
		if family != FamilyUnspecified && family != FamilyInet6 {
			continue
		}
		var raw [16]byte
		copy(raw[:], a.IP.To16())
		out = append(out, AddressInfo{Family: FamilyInet6, Type: TypeStream, Addr: Inet6Address{IP: raw, Port: Port(port)}})
	}
	if len(out) == 0 {
		return nil, cosmos.NewResolveError(node, service, cosmos.EAINoName, cosmos.NoError)
	}
	return out, nil
}

func resolvePort(ctx context.Context, service string) (uint16, error) {
	if service == "" {
		return 0, nil
	}
	port, err := stdnet.DefaultResolver.LookupPort(ctx, "tcp", service)
	if err != nil {
		return 0, err
	}
	return uint16(port), nil
}

func classifyResolveError(err error) cosmos.EAICode {
	var dnsErr *stdnet.DNSError
	if asDNSError(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return cosmos.EAINoName
		}
		if dnsErr.IsTemporary {
			return cosmos.EAIAgain
		}
	}
	return cosmos.EAIFail
}

func asDNSError(err error, target **stdnet.DNSError) bool {
	de, ok := err.(*stdnet.DNSError)
	if !ok {
		return false
	}
	*target = de
	return true
}
