// Package qemu selects the QEMU-emulator wiring path: use the QEMU emulator
// wiring instead of native device wiring, via the --qemu flag. The QEMU
// bridge/TAP device itself is an external collaborator and its NIC driver
// is out of scope here; what differs from the native path is only which
// local network interface this module binds its raw ICMP peer socket to —
// the emulator presents that interface as an ordinary NIC to the guest
// process, so the same internal/iface transport code applies once the
// bridge's IP is resolved.
package qemu

import (
	"fmt"
	"net"

	"github.com/pentaring/meshcore/internal/iface"
	"github.com/pentaring/meshcore/internal/ipaddr"
)

// BridgeIP resolves the IPv4 address QEMU has bound to bridgeIface (e.g.
// "eth0" inside the guest), the address the native peer transport should
// listen on when running under the emulator.
func BridgeIP(bridgeIface string) (ipaddr.Addr, error) {
	ifi, err := net.InterfaceByName(bridgeIface)
	if err != nil {
		return 0, fmt.Errorf("qemu: lookup bridge interface %q: %w", bridgeIface, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return 0, fmt.Errorf("qemu: addrs for %q: %w", bridgeIface, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		v4 := ipNet.IP.To4()
		if v4 == nil {
			continue
		}
		return ipaddr.Parse(v4.String())
	}
	return 0, fmt.Errorf("qemu: interface %q has no IPv4 address", bridgeIface)
}

// NewWLAN opens the native peer-plane transport (golang.org/x/net/icmp)
// bound to the QEMU bridge interface's address, using the ICMP type-2
// peer transport.
func NewWLAN(bridgeIface string) (iface.WLAN, error) {
	ip, err := BridgeIP(bridgeIface)
	if err != nil {
		return nil, err
	}
	return iface.NewPeerWLAN(ip)
}
